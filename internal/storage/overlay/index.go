package overlay

import (
	"context"

	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/txn"
)

// TransactionSource resolves the transaction bound to a context.
// *txn.Manager implements it.
type TransactionSource interface {
	CurrentTransaction(ctx context.Context) txn.Transaction
}

// Index wraps a persisted attribute index of one partition. Cursors opened
// through it show the index as the context's transaction sees it.
type Index struct {
	partition string
	base      index.Index
	txns      TransactionSource
}

// NewIndex wraps base, an index of partition.
func NewIndex(partition string, base index.Index, txns TransactionSource) *Index {
	return &Index{partition: partition, base: base, txns: txns}
}

// Attribute returns the indexed attribute.
func (i *Index) Attribute() string {
	return i.base.Attribute()
}

// Ordering returns the ordering of the given side.
func (i *Index) Ordering(dir index.Direction) index.Ordering {
	return i.base.Ordering(dir)
}

// Cursor opens a cursor over one side of the index.
func (i *Index) Cursor(ctx context.Context, dir index.Direction) (index.Cursor, error) {
	return i.open(ctx, dir, nil)
}

// KeyCursor opens a cursor over the entries of one side whose value (forward)
// or ID (reverse) equals key's.
func (i *Index) KeyCursor(ctx context.Context, dir index.Direction, key index.Entry) (index.Cursor, error) {
	return i.open(ctx, dir, &key)
}

func (i *Index) open(ctx context.Context, dir index.Direction, key *index.Entry) (index.Cursor, error) {
	var deps []*txn.ReadWriteTxn
	if t := i.txns.CurrentTransaction(ctx); t != nil {
		deps = t.Dependencies()
	}

	attr := i.base.Attribute()
	relevant := false
	var pending []*PendingCursor
	for _, d := range deps {
		changes := d.Changes(i.partition, attr)
		if changes == nil {
			continue
		}
		relevant = true
		if !changes.HasAdds() {
			continue
		}

		var (
			p   *PendingCursor
			err error
		)
		if key != nil {
			p, err = NewPendingKeyCursor(d, i.partition, attr, dir, *key)
		} else {
			p, err = NewPendingCursor(d, i.partition, attr, dir)
		}
		if err != nil {
			closeAll(pending)
			return nil, err
		}
		pending = append(pending, p)
	}

	base, err := i.baseCursor(dir, key)
	if err != nil || !relevant {
		closeAll(pending)
		return base, err
	}
	return NewMergeCursor(base, pending, deps, i.partition, attr), nil
}

func (i *Index) baseCursor(dir index.Direction, key *index.Entry) (index.Cursor, error) {
	if key != nil {
		return i.base.KeyCursor(dir, *key)
	}
	return i.base.Cursor(dir)
}

func closeAll(cursors []*PendingCursor) {
	for _, c := range cursors {
		_ = c.Close()
	}
}
