package index

import (
	"strings"
	"sync"

	"github.com/google/btree"
)

// MemIndex is an in-memory attribute index holding both sides in btrees.
// Cursors iterate a copy-on-write snapshot taken when they are opened, so
// writers never disturb open cursors.
type MemIndex struct {
	attribute string
	forward   Ordering
	reverse   Ordering

	fwd *btree.BTreeG[Entry]
	rev *btree.BTreeG[Entry]

	mu sync.Mutex
}

var _ Index = (*MemIndex)(nil)

// NewMemIndex creates an empty index for attribute. A nil comparator
// compares values byte-wise.
func NewMemIndex(attribute string, values ValueComparator) *MemIndex {
	fwd := NewOrdering(Forward, values)
	rev := NewOrdering(Reverse, values)
	return &MemIndex{
		attribute: strings.ToLower(attribute),
		forward:   fwd,
		reverse:   rev,
		fwd:       NewTree(fwd),
		rev:       NewTree(rev),
	}
}

// Attribute returns the indexed attribute.
func (m *MemIndex) Attribute() string {
	return m.attribute
}

// Ordering returns the ordering of the given side.
func (m *MemIndex) Ordering(dir Direction) Ordering {
	if dir == Reverse {
		return m.reverse
	}
	return m.forward
}

// Add inserts (value, id) on both sides.
func (m *MemIndex) Add(value []byte, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := NewEntry(value, id)
	m.fwd.ReplaceOrInsert(e)
	m.rev.ReplaceOrInsert(e)
}

// Remove deletes (value, id) from both sides.
func (m *MemIndex) Remove(value []byte, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := NewEntry(value, id)
	m.fwd.Delete(e)
	m.rev.Delete(e)
}

// Len returns the number of indexed tuples.
func (m *MemIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fwd.Len()
}

// snapshot clones one side; Clone mutates copy-on-write state, hence the lock.
func (m *MemIndex) snapshot(dir Direction) *btree.BTreeG[Entry] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dir == Reverse {
		return m.rev.Clone()
	}
	return m.fwd.Clone()
}

// Cursor opens a cursor over one side.
func (m *MemIndex) Cursor(dir Direction) (Cursor, error) {
	return NewTreeCursor(m.snapshot(dir), m.Ordering(dir)), nil
}

// KeyCursor opens a cursor locked to key's primary key.
func (m *MemIndex) KeyCursor(dir Direction, key Entry) (Cursor, error) {
	return NewLockedTreeCursor(m.snapshot(dir), m.Ordering(dir), key), nil
}
