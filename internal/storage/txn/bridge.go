package txn

import (
	"context"

	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/obatxn/internal/logging"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/wal"
)

// LogBridge serializes edits and transaction markers and forwards them to
// the write-ahead log.
type LogBridge struct {
	log    wal.Log
	logger logging.Logger
}

// NewLogBridge returns a bridge over log. A nil logger discards output.
func NewLogBridge(log wal.Log, logger logging.Logger) *LogBridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogBridge{log: log, logger: logger}
}

// Log appends edit to the log on behalf of the read-write transaction
// carried by ctx and records it in that transaction. When sync is true the
// edit is durable on return. On error the edit is not recorded and the
// transaction must be treated as failed.
func (b *LogBridge) Log(ctx context.Context, edit LogEdit, sync bool) error {
	t := activeFromContext(ctx)
	if t == nil {
		return ErrNoActiveTransaction
	}
	rw, ok := t.(*ReadWriteTxn)
	if !ok {
		return ErrReadOnlyTransaction
	}

	if _, err := b.append(rw, edit, sync); err != nil {
		return err
	}
	rw.record(edit)
	return nil
}

// append serializes edit into the transaction's outgoing buffer, writes it
// and stamps the edit with the returned LSN.
func (b *LogBridge) append(t *ReadWriteTxn, edit LogEdit, sync bool) (uint64, error) {
	buf, err := AppendEdit(t.logBuf[:0], edit)
	if err != nil {
		b.logger.Error("log edit encoding failed", "kind", edit.Kind().String(), "error", err)
		return 0, err
	}
	t.logBuf = buf

	lsn, err := b.log.Append(buf, sync)
	if err != nil {
		b.logger.Error("log append failed", "kind", edit.Kind().String(), "sync", sync, "error", err)
		return 0, errors.Wrap(err, "append log edit")
	}

	edit.SetPosition(lsn)
	return lsn, nil
}

// appendMarker writes a transaction marker without recording it as an edit.
func (b *LogBridge) appendMarker(t *ReadWriteTxn, typ MarkerType, sync bool) (uint64, error) {
	return b.append(t, &TxnMarker{Type: typ, TxnStart: t.StartTime()}, sync)
}
