package overlay

import (
	"context"

	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/obatxn/internal/entry"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/table"
)

// Table wraps the persisted record table of one partition. Lookups through
// it return entries as the context's transaction sees them.
type Table struct {
	partition string
	base      table.Table
	txns      TransactionSource
}

// NewTable wraps base, the record table of partition.
func NewTable(partition string, base table.Table, txns TransactionSource) *Table {
	return &Table{partition: partition, base: base, txns: txns}
}

// Get returns the entry stored under id, or table.ErrEntryNotFound if it does
// not exist or the transaction's dependencies deleted it.
func (t *Table) Get(ctx context.Context, id uint64) (*entry.Entry, error) {
	e, err := t.base.Get(id)
	if err != nil && !errors.Is(err, table.ErrEntryNotFound) {
		return nil, err
	}

	tx := t.txns.CurrentTransaction(ctx)
	if tx != nil {
		e = tx.MergeUpdates(t.partition, id, e)
	}
	if e == nil {
		return nil, errors.Wrapf(table.ErrEntryNotFound, "id %d", id)
	}
	return e, nil
}
