// Package util holds small generic helpers shared across the queue, cache
// and planner packages.
package util

// StringSet is a set of strings implemented as a map for O(1) membership
// tests, used for job-type allow/block lists (Queue.StartJob) and for
// dataset/config/split name bookkeeping.
type StringSet map[string]bool

// NewStringSet returns a StringSet containing every string from every given
// slice, deduplicated.
func NewStringSet(slices ...[]string) StringSet {
	s := make(StringSet)
	for _, slice := range slices {
		for _, v := range slice {
			s[v] = true
		}
	}
	return s
}

// Keys returns the set's elements in unspecified order.
func (s StringSet) Keys() []string {
	rv := make([]string, 0, len(s))
	for k := range s {
		rv = append(rv, k)
	}
	return rv
}

// Copy returns a shallow copy of s, or nil if s is nil.
func (s StringSet) Copy() StringSet {
	if s == nil {
		return nil
	}
	rv := make(StringSet, len(s))
	for k, v := range s {
		rv[k] = v
	}
	return rv
}

// In returns true if s contains v.
func In(v string, s []string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// DedupPreserveOrder returns the elements of in with duplicates removed,
// keeping the first occurrence's position. Used by fetch_names, which must
// preserve the upstream ordering of config/split names.
func DedupPreserveOrder(in []string) []string {
	seen := make(StringSet, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
