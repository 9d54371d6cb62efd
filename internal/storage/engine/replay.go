package engine

import (
	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/obatxn/internal/storage/txn"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/wal"
)

// ReplayFunc receives one decoded log edit. Returning an error stops the replay.
type ReplayFunc func(edit txn.LogEdit) error

// Replay decodes the log at path from startLSN on and hands every edit to fn.
// The edits carry their LSN as position.
func Replay(path string, startLSN uint64, fn ReplayFunc) error {
	it, closeFn, err := wal.OpenIterator(path, startLSN)
	if err != nil {
		return err
	}
	defer closeFn()

	for it.Next() {
		rec := it.Record()
		edit, err := txn.DecodeEdit(rec.Payload)
		if err != nil {
			return errors.Wrapf(err, "record at LSN %d", rec.LSN)
		}
		edit.SetPosition(rec.LSN)
		if err := fn(edit); err != nil {
			return err
		}
	}
	return it.Err()
}
