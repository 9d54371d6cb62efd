// Package entry provides the directory entry model shared by the transaction
// core, the log edits and the record table.
package entry

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Entry represents an LDAP entry with multi-valued attributes.
type Entry struct {
	// UUID is the stable entryUUID of the entry. It survives renames and is
	// the preferred identity when matching log edits to entries.
	UUID string `codec:"uuid"`

	// DN is the distinguished name of the entry.
	DN string `codec:"dn"`

	// Attributes maps lower-cased attribute names to their values.
	Attributes map[string][]string `codec:"attrs"`
}

// New creates an empty entry with the given DN and a freshly generated UUID.
func New(dn string) *Entry {
	return &Entry{
		UUID:       uuid.NewString(),
		DN:         dn,
		Attributes: make(map[string][]string),
	}
}

// Get returns the values of the given attribute, or nil.
func (e *Entry) Get(name string) []string {
	if e.Attributes == nil {
		return nil
	}
	return e.Attributes[strings.ToLower(name)]
}

// Has reports whether the entry holds at least one value for name.
func (e *Entry) Has(name string) bool {
	return len(e.Get(name)) > 0
}

// Set replaces the values of an attribute.
func (e *Entry) Set(name string, values ...string) {
	if e.Attributes == nil {
		e.Attributes = make(map[string][]string)
	}
	e.Attributes[strings.ToLower(name)] = values
}

// AddValue appends a value to an attribute unless it is already present.
func (e *Entry) AddValue(name, value string) {
	name = strings.ToLower(name)
	for _, v := range e.Get(name) {
		if v == value {
			return
		}
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string][]string)
	}
	e.Attributes[name] = append(e.Attributes[name], value)
}

// DeleteValue removes a single value; the attribute disappears with its last value.
func (e *Entry) DeleteValue(name, value string) {
	name = strings.ToLower(name)
	values := e.Attributes[name]
	kept := values[:0:0]
	for _, v := range values {
		if v != value {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		delete(e.Attributes, name)
		return
	}
	e.Attributes[name] = kept
}

// Delete removes an attribute entirely.
func (e *Entry) Delete(name string) {
	delete(e.Attributes, strings.ToLower(name))
}

// AttributeNames returns the attribute names in sorted order.
func (e *Entry) AttributeNames() []string {
	names := make([]string, 0, len(e.Attributes))
	for name := range e.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := &Entry{
		UUID:       e.UUID,
		DN:         e.DN,
		Attributes: make(map[string][]string, len(e.Attributes)),
	}
	for name, values := range e.Attributes {
		copied := make([]string, len(values))
		copy(copied, values)
		clone.Attributes[name] = copied
	}
	return clone
}

// Equal reports whether both entries carry the same identity and values.
// Value order within an attribute is significant.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.UUID != other.UUID || e.DN != other.DN || len(e.Attributes) != len(other.Attributes) {
		return false
	}
	for name, values := range e.Attributes {
		otherValues, ok := other.Attributes[name]
		if !ok || len(values) != len(otherValues) {
			return false
		}
		for i := range values {
			if values[i] != otherValues[i] {
				return false
			}
		}
	}
	return true
}
