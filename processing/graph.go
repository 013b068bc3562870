// Package processing defines the static, validated DAG of processing steps
// ("the" ProcessingGraph): every artifact kind the system knows how to
// compute, its input scope, its triggered-by parents, and the derived
// children/ancestors/topological-order views the planners query.
package processing

import (
	"sort"

	"github.com/datasets-hub/orchestrator/artifact"
	"github.com/datasets-hub/orchestrator/go/skerr"
)

// StepSpec is the construction input for one node of the graph.
type StepSpec struct {
	InputType                    artifact.InputType
	JobRunnerVersion             int
	Difficulty                   int
	BonusDifficultyIfDatasetIsBig int
	TriggeredBy                  []string
}

// Specification is the full construction input: step name -> StepSpec.
type Specification map[string]StepSpec

// Step is one validated, wired-up node of the graph.
type Step struct {
	Name                          string
	InputType                     artifact.InputType
	JobRunnerVersion              int
	Difficulty                    int
	BonusDifficultyIfDatasetIsBig int
	TriggeredBy                   []string
}

// CacheKind and JobType are always the step's name, per spec.md §3.
func (s *Step) CacheKind() string { return s.Name }
func (s *Step) JobType() string   { return s.Name }

// Graph is a validated, immutable, read-only DAG of Steps. Construct once
// per process with NewGraph and share by reference; all query methods are
// safe for concurrent use.
type Graph struct {
	steps              map[string]*Step
	children           map[string][]string
	ancestors          map[string][]string
	topologicalOrder   []string
	firstSteps         []string
	minBytesForBigBonus int64
}

// Option configures a Graph at construction time.
type Option func(*Graph)

// WithMinBytesForBonusDifficulty sets the dataset_size threshold (in bytes)
// at or above which AfterJobPlanner applies bonus_difficulty_if_dataset_is_big.
func WithMinBytesForBonusDifficulty(n int64) Option {
	return func(g *Graph) { g.minBytesForBigBonus = n }
}

// NewGraph validates spec and builds the derived views. It returns an error
// (fatal at startup, per spec.md §4.1) if the graph is empty, has an
// unknown parent reference, contains a cycle, or has a root step whose
// input type is not dataset. Input types are not checked along edges: a
// step may be less specific than one of its parents.
func NewGraph(spec Specification, opts ...Option) (*Graph, error) {
	if len(spec) == 0 {
		return nil, skerr.Fmt("processing: empty graph specification")
	}

	g := &Graph{
		steps:     make(map[string]*Step, len(spec)),
		children:  make(map[string][]string, len(spec)),
		ancestors: make(map[string][]string, len(spec)),
	}
	for _, opt := range opts {
		opt(g)
	}

	for name, ss := range spec {
		jrv := ss.JobRunnerVersion
		if jrv == 0 {
			jrv = 1
		}
		g.steps[name] = &Step{
			Name:                          name,
			InputType:                     ss.InputType,
			JobRunnerVersion:              jrv,
			Difficulty:                    ss.Difficulty,
			BonusDifficultyIfDatasetIsBig: ss.BonusDifficultyIfDatasetIsBig,
			TriggeredBy:                   append([]string(nil), ss.TriggeredBy...),
		}
	}

	// Validate parent references and build the children index. Note that a
	// dataset-level fan-in step (e.g. dataset-size) may legitimately be
	// triggered_by config-level parents that enumerate over every config of
	// the dataset, so input types are not required to narrow monotonically
	// along an edge.
	for name, step := range g.steps {
		for _, parent := range step.TriggeredBy {
			if _, ok := g.steps[parent]; !ok {
				return nil, skerr.Fmt("processing: step %q declares unknown parent %q", name, parent)
			}
			g.children[parent] = append(g.children[parent], name)
		}
		if len(step.TriggeredBy) == 0 {
			if step.InputType != artifact.InputTypeDataset {
				return nil, skerr.Fmt("processing: root step %q must have input_type=dataset, got %s", name, step.InputType)
			}
			g.firstSteps = append(g.firstSteps, name)
		}
	}

	order, err := topologicalSort(g.steps)
	if err != nil {
		return nil, err
	}
	g.topologicalOrder = order

	for name := range g.steps {
		g.ancestors[name] = g.computeAncestors(name)
	}

	sort.Strings(g.firstSteps)
	return g, nil
}

func topologicalSort(steps map[string]*Step) ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(steps))
	order := make([]string, 0, len(steps))

	names := make([]string, 0, len(steps))
	for name := range steps {
		names = append(names, name)
	}
	sort.Strings(names)

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return skerr.Fmt("processing: cycle detected at step %q", name)
		}
		color[name] = gray
		parents := append([]string(nil), steps[name].TriggeredBy...)
		sort.Strings(parents)
		for _, parent := range parents {
			if err := visit(parent); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (g *Graph) computeAncestors(name string) []string {
	seen := make(map[string]bool)
	var dfs func(string)
	dfs = func(n string) {
		for _, parent := range g.steps[n].TriggeredBy {
			if !seen[parent] {
				seen[parent] = true
				dfs(parent)
			}
		}
	}
	dfs(name)
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Step returns the named step, or nil if it doesn't exist.
func (g *Graph) Step(name string) *Step {
	return g.steps[name]
}

// Children returns the names of name's direct children, in unspecified order.
func (g *Graph) Children(name string) []string {
	return append([]string(nil), g.children[name]...)
}

// Parents returns the names of name's direct parents (name.TriggeredBy).
func (g *Graph) Parents(name string) []string {
	if s := g.steps[name]; s != nil {
		return append([]string(nil), s.TriggeredBy...)
	}
	return nil
}

// Ancestors returns every transitive parent of name, in sorted order.
func (g *Graph) Ancestors(name string) []string {
	return append([]string(nil), g.ancestors[name]...)
}

// TopologicalSteps returns every step name in an order consistent with the
// triggered-by partial order: a step never precedes any of its parents.
func (g *Graph) TopologicalSteps() []string {
	return append([]string(nil), g.topologicalOrder...)
}

// StepsForInputType returns every step whose InputType equals it, in
// topological order.
func (g *Graph) StepsForInputType(it artifact.InputType) []*Step {
	var out []*Step
	for _, name := range g.topologicalOrder {
		if s := g.steps[name]; s.InputType == it {
			out = append(out, s)
		}
	}
	return out
}

// AllSteps returns every step in the graph, in topological order.
func (g *Graph) AllSteps() []*Step {
	out := make([]*Step, 0, len(g.topologicalOrder))
	for _, name := range g.topologicalOrder {
		out = append(out, g.steps[name])
	}
	return out
}

// FirstSteps returns the names of the graph's root steps (no parents),
// sorted.
func (g *Graph) FirstSteps() []string {
	return append([]string(nil), g.firstSteps...)
}

// MinBytesForBonusDifficulty returns the dataset_size threshold configured
// via WithMinBytesForBonusDifficulty (0 if unset).
func (g *Graph) MinBytesForBonusDifficulty() int64 {
	return g.minBytesForBigBonus
}
