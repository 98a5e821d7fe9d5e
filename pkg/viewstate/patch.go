package viewstate

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Field names a "last selected" value. The names match the keys of the
// historical cache.json data file.
type Field string

const (
	FieldOpening       Field = "email_view_last_selected_salutation"
	FieldClosing       Field = "email_view_last_selected_valediction"
	FieldProfile       Field = "email_view_last_selected_signature"
	FieldEditorProfile Field = "signature_view_last_selected_signature"
)

var knownFields = []Field{FieldOpening, FieldClosing, FieldProfile, FieldEditorProfile}

// Fields returns every known field.
func Fields() []Field {
	return slices.Clone(knownFields)
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return slices.Contains(knownFields, f)
}

// Patch is a partial update of the view state.
// A field mapped to nil is explicitly cleared; a field that is not in the
// map is left unchanged.
type Patch map[Field]*string

// Value returns a pointer to v, for building patches.
func Value(v string) *string {
	return &v
}

// OrAbsent maps an empty selection to an explicit absence.
func OrAbsent(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Set records a value for f and returns p.
func (p Patch) Set(f Field, v string) Patch {
	p[f] = Value(v)
	return p
}

// Clear records an explicit absence for f and returns p.
func (p Patch) Clear(f Field) Patch {
	p[f] = nil
	return p
}

// Validate rejects unknown fields.
func (p Patch) Validate() error {
	for f := range p {
		if !f.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}
	return nil
}

// Clone returns a deep copy of p.
func (p Patch) Clone() Patch {
	if p == nil {
		return nil
	}
	out := make(Patch, len(p))
	for f, v := range p {
		if v != nil {
			out[f] = Value(*v)
		} else {
			out[f] = nil
		}
	}
	return out
}

// Merge returns a copy of p overlaid with next; fields in next win.
func (p Patch) Merge(next Patch) Patch {
	out := p.Clone()
	if out == nil {
		out = make(Patch, len(next))
	}
	maps.Copy(out, next.Clone())
	return out
}

// Fields returns the fields mentioned by p in a stable order.
func (p Patch) Fields() []Field {
	return slices.Sorted(maps.Keys(p))
}

// AllCleared returns a patch clearing every known field.
func AllCleared() Patch {
	p := make(Patch, len(knownFields))
	for _, f := range knownFields {
		p[f] = nil
	}
	return p
}

// State is the current view state: known fields that hold a value.
// Fields missing from the map are absent.
type State map[Field]string

// Get returns the value of f and whether it is present.
func (s State) Get(f Field) (string, bool) {
	v, ok := s[f]
	return v, ok
}

// Apply returns a copy of s with p merged in.
// Unknown fields in p are ignored.
func (s State) Apply(p Patch) State {
	out := make(State, len(s)+len(p))
	maps.Copy(out, s)
	for f, v := range p {
		if !f.Valid() {
			continue
		}
		if v == nil {
			delete(out, f)
			continue
		}
		out[f] = *v
	}
	return out
}

// MarshalJSON writes every known field, using null for absent ones.
func (s State) MarshalJSON() ([]byte, error) {
	out := make(map[Field]*string, len(knownFields))
	for _, f := range knownFields {
		if v, ok := s[f]; ok {
			out[f] = Value(v)
		} else {
			out[f] = nil
		}
	}
	return json.Marshal(out)
}

// FromMap builds a State from a decoded document, keeping known fields with
// string values.
func FromMap(m map[string]any) State {
	s := make(State, len(knownFields))
	for _, f := range knownFields {
		if v, ok := m[string(f)].(string); ok {
			s[f] = v
		}
	}
	return s
}

// UnmarshalJSON reads a document with string or null values; nulls,
// non-string values and unknown keys are dropped.
func (s *State) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = FromMap(m)
	return nil
}
