// Package table defines the record table contract (entry ID -> entry) of a
// partition and an in-memory implementation of it.
package table

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/obatxn/internal/entry"
)

// ErrEntryNotFound is returned when no entry is stored under an ID.
var ErrEntryNotFound = errors.New("entry not found")

// Table is the master table of a partition.
type Table interface {
	// Get returns the entry stored under id, or ErrEntryNotFound.
	Get(id uint64) (*entry.Entry, error)
}

// MemTable is an in-memory Table. Get hands out copies so callers can never
// alter stored entries.
type MemTable struct {
	rows map[uint64]*entry.Entry
	mu   sync.RWMutex
}

var _ Table = (*MemTable)(nil)

// NewMemTable creates an empty table.
func NewMemTable() *MemTable {
	return &MemTable{rows: make(map[uint64]*entry.Entry)}
}

// Get returns a copy of the entry stored under id.
func (t *MemTable) Get(id uint64) (*entry.Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.rows[id]
	if !ok {
		return nil, errors.Wrapf(ErrEntryNotFound, "id %d", id)
	}
	return e.Clone(), nil
}

// Put stores a copy of e under id.
func (t *MemTable) Put(id uint64, e *entry.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = e.Clone()
}

// Delete removes the entry stored under id.
func (t *MemTable) Delete(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, id)
}

// Len returns the number of stored entries.
func (t *MemTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
