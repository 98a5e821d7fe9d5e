package favourites

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strconv"
)

// Shape identifies which persisted representation a favourites payload used.
type Shape uint8

const (
	// ShapeNone is anything that is neither a list nor a flag map.
	ShapeNone Shape = iota
	// ShapeList is the canonical JSON array of identifiers.
	ShapeList
	// ShapeFlags is the legacy JSON object of identifier to flag.
	ShapeFlags
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeFlags:
		return "flags"
	default:
		return "none"
	}
}

// Stored is a decoded favourites payload in one of its persisted shapes.
type Stored struct {
	Flags map[string]json.RawMessage
	List  []json.RawMessage
	Shape Shape
}

// UnmarshalJSON picks the variant from the first JSON token.
// Values that are neither arrays nor objects decode to ShapeNone without error.
func (st *Stored) UnmarshalJSON(data []byte) error {
	*st = Stored{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &st.List); err != nil {
			return err
		}
		st.Shape = ShapeList
	case '{':
		if err := json.Unmarshal(trimmed, &st.Flags); err != nil {
			return err
		}
		st.Shape = ShapeFlags
	}
	return nil
}

// Normalize converts any stored shape into a Set.
// List entries that are not strings are skipped; flag entries are kept when
// their value is truthy.
func Normalize(st Stored) Set {
	switch st.Shape {
	case ShapeList:
		s := NewSet()
		for _, raw := range st.List {
			var id *string
			if err := json.Unmarshal(raw, &id); err == nil && id != nil {
				s.add(*id)
			}
		}
		return s
	case ShapeFlags:
		s := NewSet()
		for _, id := range sortedKeys(st.Flags) {
			if truthy(st.Flags[id]) {
				s.add(id)
			}
		}
		return s
	default:
		return NewSet()
	}
}

// Decode normalizes a raw favourites payload.
// Absent or malformed data yields an empty set.
func Decode(data []byte) Set {
	var st Stored
	if err := json.Unmarshal(data, &st); err != nil {
		return NewSet()
	}
	return Normalize(st)
}

// truthy follows JSON-as-script truthiness: false, null, 0 and "" are
// falsy; every other value, including empty arrays and objects, is truthy.
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch v[0] {
	case 't':
		return true
	case 'f', 'n':
		return false
	case '"':
		var s string
		return json.Unmarshal(v, &s) == nil && s != ""
	case '[', '{':
		return true
	default:
		f, err := strconv.ParseFloat(string(v), 64)
		return err == nil && f != 0
	}
}

func sortedKeys(m map[string]json.RawMessage) []string {
	return slices.Sorted(maps.Keys(m))
}
