// Package metrics2 is a thin wrapper over the default Prometheus registry,
// giving every counter/gauge a metric name cleaned of characters Prometheus
// rejects, matching the naming convention ("a.b-c" -> "a_b_c") the rest of
// this repo's metric names follow.
package metrics2

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// clean rewrites any character that isn't [a-zA-Z0-9_] to '_', since
// Prometheus metric names only allow that set.
func clean(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

var (
	mu       sync.Mutex
	counters = map[string]*prometheus.CounterVec{}
	gauges   = map[string]*prometheus.GaugeVec{}
)

// GetCounter returns (registering on first use) a CounterVec named name
// with the given label names, e.g. GetCounter("jobs_created", "type",
// "dataset").
func GetCounter(name string, labelNames ...string) *prometheus.CounterVec {
	mu.Lock()
	defer mu.Unlock()
	name = clean(name)
	if c, ok := counters[name]; ok {
		return c
	}
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labelNames)
	prometheus.MustRegister(c)
	counters[name] = c
	return c
}

// GetGauge returns (registering on first use) a GaugeVec named name with
// the given label names, e.g. GetGauge("queue_depth", "type", "status").
func GetGauge(name string, labelNames ...string) *prometheus.GaugeVec {
	mu.Lock()
	defer mu.Unlock()
	name = clean(name)
	if g, ok := gauges[name]; ok {
		return g
	}
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, labelNames)
	prometheus.MustRegister(g)
	gauges[name] = g
	return g
}

// reset unregisters every metric created through this package. Test-only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	for _, c := range counters {
		prometheus.Unregister(c)
	}
	for _, g := range gauges {
		prometheus.Unregister(g)
	}
	counters = map[string]*prometheus.CounterVec{}
	gauges = map[string]*prometheus.GaugeVec{}
}
