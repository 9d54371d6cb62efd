package overlay

import (
	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/txn"
)

// ErrEmptyOverlay is returned when a pending cursor is requested for a
// transaction that added nothing to the index.
var ErrEmptyOverlay = errors.New("transaction has no pending index entries")

// PendingCursor iterates the index entries one write transaction added to
// one side of a partition's attribute index.
type PendingCursor struct {
	*index.TreeCursor
	txn *txn.ReadWriteTxn
}

var _ index.Cursor = (*PendingCursor)(nil)

// NewPendingCursor opens a cursor over the entries t added to attribute.
func NewPendingCursor(t *txn.ReadWriteTxn, partition, attribute string, dir index.Direction) (*PendingCursor, error) {
	changes, err := pendingChanges(t, partition, attribute)
	if err != nil {
		return nil, err
	}
	return &PendingCursor{
		TreeCursor: index.NewTreeCursor(changes.Adds(dir), changes.Ordering(dir)),
		txn:        t,
	}, nil
}

// NewPendingKeyCursor opens a cursor over the entries t added to attribute
// whose value (forward side) or ID (reverse side) equals key's.
func NewPendingKeyCursor(t *txn.ReadWriteTxn, partition, attribute string, dir index.Direction, key index.Entry) (*PendingCursor, error) {
	changes, err := pendingChanges(t, partition, attribute)
	if err != nil {
		return nil, err
	}
	return &PendingCursor{
		TreeCursor: index.NewLockedTreeCursor(changes.Adds(dir), changes.Ordering(dir), key),
		txn:        t,
	}, nil
}

func pendingChanges(t *txn.ReadWriteTxn, partition, attribute string) (*txn.AttributeChanges, error) {
	changes := t.Changes(partition, attribute)
	if changes == nil || !changes.HasAdds() {
		return nil, errors.Wrapf(ErrEmptyOverlay, "%s/%s at %d", partition, attribute, t.StartTime())
	}
	return changes, nil
}

// Txn returns the transaction whose entries the cursor iterates.
func (c *PendingCursor) Txn() *txn.ReadWriteTxn {
	return c.txn
}
