package txn

import (
	"strings"

	"go.uber.org/atomic"

	"github.com/KilimcininKorOglu/obatxn/internal/entry"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
)

// ReadWriteTxn is a transaction that logs edits. Until it commits or aborts
// it is owned by the context that began it; afterwards it is immutable and
// shared through other transactions' check-lists.
type ReadWriteTxn struct {
	txnBase

	// edits is the write log in append order.
	edits []LogEdit

	// refs counts the transactions pinned to this one as their snapshot.
	refs atomic.Int64

	changes     map[changeKey]*AttributeChanges
	comparators func(attribute string) index.ValueComparator

	readSet  []DnSet
	writeSet []DnSet

	// logBuf is the outgoing serialization buffer, reused across edits.
	logBuf []byte
}

var _ Transaction = (*ReadWriteTxn)(nil)

func newReadWriteTxn(comparators func(attribute string) index.ValueComparator) *ReadWriteTxn {
	if comparators == nil {
		comparators = func(string) index.ValueComparator { return nil }
	}
	return &ReadWriteTxn{
		changes:     make(map[changeKey]*AttributeChanges),
		comparators: comparators,
	}
}

// IsReadOnly returns false.
func (t *ReadWriteTxn) IsReadOnly() bool {
	return false
}

// Dependencies returns the check-list followed by the transaction itself
// while it is in flight, so that it reads its own writes.
func (t *ReadWriteTxn) Dependencies() []*ReadWriteTxn {
	if !t.isActive() {
		return t.toCheck
	}
	deps := make([]*ReadWriteTxn, 0, len(t.toCheck)+1)
	deps = append(deps, t.toCheck...)
	return append(deps, t)
}

// MergeUpdates folds the dependencies onto base.
func (t *ReadWriteTxn) MergeUpdates(partition string, entryID uint64, base *entry.Entry) *entry.Entry {
	return mergeUpdates(t.Dependencies(), partition, entryID, base)
}

// AddRead records a read footprint.
func (t *ReadWriteTxn) AddRead(set DnSet) {
	t.readSet = append(t.readSet, set)
}

// AddWrite records a write footprint. A write also counts as a read of the
// same names.
func (t *ReadWriteTxn) AddWrite(set DnSet) {
	t.writeSet = append(t.writeSet, set)
	t.readSet = append(t.readSet, set)
}

// ReadFootprint returns the read footprint.
func (t *ReadWriteTxn) ReadFootprint() []DnSet {
	return t.readSet
}

// WriteFootprint returns the write footprint.
func (t *ReadWriteTxn) WriteFootprint() []DnSet {
	return t.writeSet
}

// Edits returns the logged edits in append order.
func (t *ReadWriteTxn) Edits() []LogEdit {
	return t.edits
}

// RefCount returns the number of transactions pinned to this one.
func (t *ReadWriteTxn) RefCount() int64 {
	return t.refs.Load()
}

// Changes returns the pending index changes for (partition, attribute), or
// nil if there are none. For a transaction still in flight the caller gets a
// copy-on-write snapshot; only the owning context may ask for it.
func (t *ReadWriteTxn) Changes(partition, attribute string) *AttributeChanges {
	c := t.changes[changeKey{partition: partition, attribute: strings.ToLower(attribute)}]
	if c == nil {
		return nil
	}
	if t.isActive() {
		return c.clone()
	}
	return c
}

// IsIndexEntryDeleted reports whether the transaction deleted the tuple e
// from (partition, attribute).
func (t *ReadWriteTxn) IsIndexEntryDeleted(partition, attribute string, e index.Entry) bool {
	c := t.changes[changeKey{partition: partition, attribute: strings.ToLower(attribute)}]
	return c != nil && c.IsDeleted(e)
}

// record appends a logged edit and folds its index changes into the summary.
func (t *ReadWriteTxn) record(edit LogEdit) {
	t.edits = append(t.edits, edit)

	dc, ok := edit.(*DataChange)
	if !ok {
		return
	}
	for _, change := range dc.IndexChanges {
		attr := strings.ToLower(change.Attribute)
		key := changeKey{partition: dc.Partition, attribute: attr}
		c := t.changes[key]
		if c == nil {
			c = newAttributeChanges(t.comparators(attr))
			t.changes[key] = c
		}
		c.apply(change)
	}
}

// discard drops the edits of an aborted transaction.
func (t *ReadWriteTxn) discard() {
	t.edits = nil
	t.changes = make(map[changeKey]*AttributeChanges)
	t.logBuf = nil
}
