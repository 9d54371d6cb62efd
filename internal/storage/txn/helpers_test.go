package txn

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/obatxn/internal/dn"
	"github.com/KilimcininKorOglu/obatxn/internal/entry"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/wal"
)

var errLogFailed = errors.New("log append failed")

// memLog is an in-memory wal.Log that can be told to fail.
type memLog struct {
	mu      sync.Mutex
	lsn     uint64
	records [][]byte
	syncs   int
	fail    bool
}

var _ wal.Log = (*memLog)(nil)

func (l *memLog) Append(payload []byte, sync bool) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fail {
		return 0, errLogFailed
	}
	l.lsn++
	l.records = append(l.records, append([]byte(nil), payload...))
	if sync {
		l.syncs++
	}
	return l.lsn, nil
}

func (l *memLog) setFail(fail bool) {
	l.mu.Lock()
	l.fail = fail
	l.mu.Unlock()
}

// markers decodes every logged marker in order.
func (l *memLog) markers(t *testing.T) []MarkerType {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []MarkerType
	for _, rec := range l.records {
		edit, err := DecodeEdit(rec)
		require.NoError(t, err)
		if m, ok := edit.(*TxnMarker); ok {
			out = append(out, m.Type)
		}
	}
	return out
}

// testManager creates a manager over an in-memory log.
func testManager(t *testing.T, opts ...Option) (*Manager, *memLog, *Watermark) {
	t.Helper()
	log := &memLog{}
	wm := NewWatermark(0)
	return NewManager(NewLogBridge(log, nil), wm, opts...), log, wm
}

// commitWrite runs one write transaction that writes set and commits it.
func commitWrite(t *testing.T, m *Manager, set DnSet) *ReadWriteTxn {
	t.Helper()
	ctx, tx, err := m.Begin(context.Background(), false)
	require.NoError(t, err)
	rw := tx.(*ReadWriteTxn)
	rw.AddWrite(set)
	require.NoError(t, m.Commit(ctx))
	return rw
}

func object(s string) DnSet  { return NewDnSet(dn.MustParse(s), ScopeObject) }
func subtree(s string) DnSet { return NewDnSet(dn.MustParse(s), ScopeSubtree) }
func oneLevel(s string) DnSet {
	return NewDnSet(dn.MustParse(s), ScopeOneLevel)
}

func newTestEntry(cn string) *entry.Entry {
	e := entry.New("cn=" + cn + ",dc=com")
	e.Set("cn", cn)
	return e
}
