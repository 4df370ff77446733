package trajectory

import "sort"

// IDSet is a set of trajectory IDs as returned by the queries of the index.
type IDSet map[ID]struct{}

func NewIDSet(ids ...ID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s IDSet) Add(id ID) {
	s[id] = struct{}{}
}

func (s IDSet) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Union adds all IDs of the other set to this set.
func (s IDSet) Union(other IDSet) IDSet {
	for id := range other {
		s.Add(id)
	}
	return s
}

// Intersect returns a new set with all IDs that are in both sets.
func (s IDSet) Intersect(other IDSet) IDSet {
	smaller, larger := s, other
	if len(larger) < len(smaller) {
		smaller, larger = larger, smaller
	}

	result := IDSet{}
	for id := range smaller {
		if larger.Contains(id) {
			result.Add(id)
		}
	}
	return result
}

// Sorted returns the IDs in ascending order.
func (s IDSet) Sorted() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}
