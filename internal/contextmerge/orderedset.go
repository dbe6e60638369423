package contextmerge

// orderedSet is a deduplicating string set that remembers insertion order,
// so merged documents serialise deterministically.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func newOrderedSet(groups ...[]string) *orderedSet {
	s := &orderedSet{seen: make(map[string]struct{})}
	for _, g := range groups {
		s.addAll(g)
	}
	return s
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

// slice returns the members in insertion order; never nil.
func (s *orderedSet) slice() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// union returns the members of a followed by the members of b not in a.
func union(a, b []string) []string {
	return newOrderedSet(a, b).slice()
}

// dedupe returns vs without repeats, first occurrence wins.
func dedupe(vs []string) []string {
	return newOrderedSet(vs).slice()
}
