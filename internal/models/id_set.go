package models

import "sort"

type IdSet map[string]struct{}

func NewIdSet(ids ...string) IdSet {
	set := make(IdSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IdSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union returns a new set; neither operand is modified.
func (s IdSet) Union(other IdSet) IdSet {
	out := make(IdSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

func (s IdSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
