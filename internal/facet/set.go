package facet

import "sort"

// Set is a string membership set.
type Set map[string]struct{}

// NewSet builds a set from vals.
func NewSet(vals ...string) Set {
	s := make(Set, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// ContainsAny reports whether at least one of vals is in s.
func (s Set) ContainsAny(vals []string) bool {
	for _, v := range vals {
		if s.Has(v) {
			return true
		}
	}
	return false
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Distinct collects the distinct values of key over items, ascending.
func Distinct[T any](items []T, key func(*T) string) []string {
	s := make(Set)
	for i := range items {
		s[key(&items[i])] = struct{}{}
	}
	return s.Sorted()
}
