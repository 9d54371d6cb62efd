package index

import "github.com/pkg/errors"

// Cursor errors.
var (
	// ErrInvalidPosition is returned by Get when the cursor is not on an entry.
	ErrInvalidPosition = errors.New("cursor is not positioned on an entry")
	// ErrUnsupportedPosition is returned when positioning a key-locked cursor
	// outside of its key.
	ErrUnsupportedPosition = errors.New("position is outside of the cursor's locked key")
	// ErrCursorClosed is returned by every operation on a closed cursor.
	ErrCursorClosed = errors.New("cursor is closed")
)

// Cursor is the positional cursor protocol of an attribute index. A cursor
// always sits either on an entry or between two entries; Next and Previous
// move to the neighbouring entry and report whether one existed.
type Cursor interface {
	// BeforeFirst positions the cursor before the first entry.
	BeforeFirst() error
	// AfterLast positions the cursor after the last entry.
	AfterLast() error
	// Before positions the cursor so that Next returns the first entry >= e.
	Before(e Entry) error
	// After positions the cursor so that Next returns the first entry > e.
	After(e Entry) error
	// BeforeValue positions the cursor before every entry whose primary key
	// equals key's primary key.
	BeforeValue(key Entry) error
	// AfterValue positions the cursor after every entry whose primary key
	// equals key's primary key.
	AfterValue(key Entry) error
	// Next moves to the next entry.
	Next() (bool, error)
	// Previous moves to the previous entry.
	Previous() (bool, error)
	// Get returns the entry the cursor is on.
	Get() (Entry, error)
	// Ordering returns the comparator the cursor iterates in.
	Ordering() Ordering
	// Close releases the cursor.
	Close() error
}

// Index is one attribute index of a partition.
type Index interface {
	// Attribute returns the lower-cased attribute name.
	Attribute() string
	// Ordering returns the ordering of the given side.
	Ordering(dir Direction) Ordering
	// Cursor opens a cursor over the whole of one side.
	Cursor(dir Direction) (Cursor, error)
	// KeyCursor opens a cursor locked to key's primary key.
	KeyCursor(dir Direction, key Entry) (Cursor, error)
}
