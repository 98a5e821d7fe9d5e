package favourites

import (
	"encoding/json"
	"slices"
)

// Set is a set of item identifiers.
// Items keep their insertion order, which is the order written back to the
// store. Equality ignores order. The zero value is an empty set.
type Set struct {
	members map[string]struct{}
	order   []string
}

// NewSet returns a set holding ids, duplicates removed.
func NewSet(ids ...string) Set {
	s := Set{members: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the number of items.
func (s Set) Len() int {
	return len(s.order)
}

// Items returns the items in insertion order.
func (s Set) Items() []string {
	return slices.Clone(s.order)
}

// Equal reports whether both sets hold the same items, in any order.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, id := range s.order {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set in its canonical form, a JSON array.
func (s Set) MarshalJSON() ([]byte, error) {
	if s.order == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.order)
}

// Toggle returns a copy of s with id removed if present, or appended if absent.
// The input set is not modified.
func Toggle(s Set, id string) Set {
	out := NewSet(s.order...)
	if out.Has(id) {
		out.remove(id)
		return out
	}
	out.add(id)
	return out
}

func (s *Set) add(id string) {
	if s.members == nil {
		s.members = make(map[string]struct{})
	}
	if _, ok := s.members[id]; ok {
		return
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Set) remove(id string) {
	delete(s.members, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}
