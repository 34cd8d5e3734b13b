package tagset

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// KeySet is a set of tag IDs.
type KeySet map[uuid.UUID]struct{}

// NewKeySet builds a KeySet from ids.
func NewKeySet(ids ...uuid.UUID) KeySet {
	s := make(KeySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in s.
func (s KeySet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Union returns s ∪ o.
func (s KeySet) Union(o KeySet) KeySet {
	out := make(KeySet, len(s)+len(o))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

// Intersect returns s ∩ o.
func (s KeySet) Intersect(o KeySet) KeySet {
	out := make(KeySet)
	for id := range s {
		if o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Minus returns s − o.
func (s KeySet) Minus(o KeySet) KeySet {
	out := make(KeySet)
	for id := range s {
		if !o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the IDs in byte order.
func (s KeySet) Sorted() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}
