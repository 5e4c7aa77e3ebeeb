package groupby

import "sort"

// Groups holds the partition of a row slice by key. Keys preserves
// first-appearance order so that iterating groups is deterministic.
type Groups[K comparable, T any] struct {
	Keys    []K
	Members map[K][]T
}

// Partition splits rows into groups by the given key function. Rows within a
// group keep their relative input order.
func Partition[K comparable, T any](rows []T, key func(T) K) Groups[K, T] {
	g := Groups[K, T]{Members: make(map[K][]T)}
	for _, row := range rows {
		k := key(row)
		if _, ok := g.Members[k]; !ok {
			g.Keys = append(g.Keys, k)
		}
		g.Members[k] = append(g.Members[k], row)
	}
	return g
}

// Apply runs fn over every group in key order and concatenates the results in
// that order. fn may return fewer rows than it received, or none.
func (g Groups[K, T]) Apply(fn func(K, []T) []T) []T {
	var out []T
	for _, k := range g.Keys {
		out = append(out, fn(k, g.Members[k])...)
	}
	return out
}

// Reduce computes one scalar per group, keyed by group key.
func (g Groups[K, T]) Reduce(fn func([]T) float64) map[K]float64 {
	out := make(map[K]float64, len(g.Keys))
	for _, k := range g.Keys {
		out[k] = fn(g.Members[k])
	}
	return out
}

// Filter keeps only the groups for which keep returns true, concatenating the
// survivors in key order.
func (g Groups[K, T]) Filter(keep func(K, []T) bool) []T {
	var out []T
	for _, k := range g.Keys {
		if keep(k, g.Members[k]) {
			out = append(out, g.Members[k]...)
		}
	}
	return out
}

// RunLengths returns, for each position of a time-ordered sequence, the length
// of the run of equal values ending at that position. equal decides whether two
// adjacent values extend a run; the first position always starts a run of 1.
func RunLengths[T any](values []T, equal func(a, b T) bool) []int {
	runs := make([]int, len(values))
	for i := range values {
		if i == 0 || !equal(values[i-1], values[i]) {
			runs[i] = 1
			continue
		}
		runs[i] = runs[i-1] + 1
	}
	return runs
}

// sortedFinite returns the non-null, finite values in ascending order.
func sortedFinite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if finite(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
