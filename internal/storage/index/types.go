// Package index defines the attribute index contract shared by the persisted
// index layer and the transaction overlay: index entries, orderings and the
// positional cursor protocol.
package index

import (
	"bytes"
	"fmt"
)

// Direction selects the forward (value -> ID) or reverse (ID -> value) side
// of an attribute index.
type Direction int

const (
	// Forward orders entries by value, then by entry ID.
	Forward Direction = iota
	// Reverse orders entries by entry ID, then by value.
	Reverse
)

// String returns the string representation of a Direction.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// Entry is a single (value, entry ID) tuple of an attribute index.
type Entry struct {
	Value []byte `codec:"value"`
	ID    uint64 `codec:"id"`

	// bound turns an entry into a search sentinel that sorts before (-1) or
	// after (+1) every entry sharing its primary key.
	bound int8
}

// NewEntry returns an index entry for value and id.
func NewEntry(value []byte, id uint64) Entry {
	return Entry{Value: value, ID: id}
}

// String returns a debug representation of the entry.
func (e Entry) String() string {
	return fmt.Sprintf("(%q, %d)", e.Value, e.ID)
}

// ValueComparator orders attribute values, as the matching rule of the
// attribute does.
type ValueComparator func(a, b []byte) int

// Ordering is the comparator of one side of an index.
type Ordering struct {
	Direction Direction
	Values    ValueComparator
}

// NewOrdering returns the ordering for dir. A nil comparator compares values
// byte-wise.
func NewOrdering(dir Direction, values ValueComparator) Ordering {
	if values == nil {
		values = bytes.Compare
	}
	return Ordering{Direction: dir, Values: values}
}

// ComparePrimary compares the key component of two entries: the value for a
// forward index, the ID for a reverse index.
func (o Ordering) ComparePrimary(a, b Entry) int {
	if o.Direction == Reverse {
		return compareIDs(a.ID, b.ID)
	}
	return o.values()(a.Value, b.Value)
}

// Compare fully orders two entries.
func (o Ordering) Compare(a, b Entry) int {
	if c := o.ComparePrimary(a, b); c != 0 {
		return c
	}
	if a.bound != b.bound {
		return int(a.bound) - int(b.bound)
	}
	if a.bound != 0 {
		return 0
	}
	if o.Direction == Reverse {
		return o.values()(a.Value, b.Value)
	}
	return compareIDs(a.ID, b.ID)
}

// Less reports whether a sorts before b.
func (o Ordering) Less(a, b Entry) bool {
	return o.Compare(a, b) < 0
}

// Equal reports whether a and b are the same index entry.
func (o Ordering) Equal(a, b Entry) bool {
	return o.Compare(a, b) == 0
}

// lowest returns a sentinel sorting before every entry with key's primary key.
func (o Ordering) lowest(key Entry) Entry {
	return Entry{Value: key.Value, ID: key.ID, bound: -1}
}

// highest returns a sentinel sorting after every entry with key's primary key.
func (o Ordering) highest(key Entry) Entry {
	return Entry{Value: key.Value, ID: key.ID, bound: 1}
}

func (o Ordering) values() ValueComparator {
	if o.Values == nil {
		return bytes.Compare
	}
	return o.Values
}

func compareIDs(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
