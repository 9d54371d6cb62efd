package entry

import "strings"

// ModificationType represents the type of modification operation.
type ModificationType int

const (
	// ModifyAdd adds values to an attribute.
	ModifyAdd ModificationType = iota
	// ModifyDelete deletes values, or the whole attribute when no values are given.
	ModifyDelete
	// ModifyReplace replaces all values of an attribute.
	ModifyReplace
)

// String returns the string representation of a ModificationType.
func (t ModificationType) String() string {
	switch t {
	case ModifyAdd:
		return "add"
	case ModifyDelete:
		return "delete"
	case ModifyReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Modification represents a single change to one attribute of an entry.
type Modification struct {
	Type      ModificationType `codec:"type"`
	Attribute string           `codec:"attr"`
	Values    []string         `codec:"values"`
}

// Apply applies the modification to e in place.
func (m Modification) Apply(e *Entry) {
	name := strings.ToLower(m.Attribute)

	switch m.Type {
	case ModifyAdd:
		for _, value := range m.Values {
			e.AddValue(name, value)
		}

	case ModifyDelete:
		if len(m.Values) == 0 {
			e.Delete(name)
			return
		}
		for _, value := range m.Values {
			e.DeleteValue(name, value)
		}

	case ModifyReplace:
		if len(m.Values) == 0 {
			e.Delete(name)
			return
		}
		values := make([]string, len(m.Values))
		copy(values, m.Values)
		e.Set(name, values...)
	}
}
