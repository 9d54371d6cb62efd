// Package txn implements the multi-version transaction core of the directory
// engine.
//
// A Manager hands out read-only and read-write transactions bound to a
// context.Context. Read-only transactions pin the latest committed write
// transaction and see the store as of its commit time. Read-write
// transactions take their start time from the BEGIN marker they append to
// the write-ahead log and accumulate LogEdits through the LogBridge.
//
// Every transaction carries a check-list: the committed write transactions
// whose changes are not yet visible in the persisted store, oldest first.
// Readers replay the check-list over persisted entries with MergeUpdates and
// over persisted indexes with the overlay cursors.
//
// Write transactions are verified optimistically at commit. A transaction
// whose read footprint overlaps the write footprint of any transaction that
// committed since it began fails with ErrTxnConflict.
//
// Example:
//
//	ctx, tx, err := mgr.Begin(ctx, false)
//	if err != nil {
//	    return err
//	}
//	rw := tx.(*txn.ReadWriteTxn)
//	rw.AddWrite(txn.NewDnSet(name, txn.ScopeObject))
//	if err := mgr.Log(ctx, txn.NewAddChange("users", id, e), false); err != nil {
//	    mgr.Abort(ctx)
//	    return err
//	}
//	return mgr.Commit(ctx)
package txn
