package engine

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/obatxn/internal/config"
	"github.com/KilimcininKorOglu/obatxn/internal/entry"
	"github.com/KilimcininKorOglu/obatxn/internal/logging"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/table"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/txn"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Metrics.Enabled = true
	return cfg
}

func openEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	eng, err := OpenWithLogger(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

// writeOne commits a transaction adding one entry to the "users" partition.
func writeOne(t *testing.T, eng *Engine, id uint64, cn string) {
	t.Helper()
	mgr := eng.Manager()

	ctx, _, err := mgr.Begin(context.Background(), false)
	require.NoError(t, err)

	e := entry.New("cn=" + cn + ",dc=com")
	e.Set("cn", cn)
	require.NoError(t, mgr.Log(ctx, txn.NewAddChange("users", id, e).AddIndex("cn", []byte(cn)), false))
	require.NoError(t, mgr.Commit(ctx))
}

// TestOpen tests that components are wired.
func TestOpen(t *testing.T) {
	eng := openEngine(t, testConfig(t))

	assert.NotNil(t, eng.Manager())
	assert.Same(t, eng.Bridge(), eng.Manager().Bridge())
	assert.Equal(t, uint64(0), eng.Watermark().FlushedTime())
	assert.NotNil(t, eng.Gatherer())
	assert.FileExists(t, eng.WALPath())
}

// TestOpenInvalidConfig tests configuration validation.
func TestOpenInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.WALFile = ""

	_, err := OpenWithLogger(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "storage.wal_file")
}

// TestMetricsDisabled tests that no registry exists without metrics.
func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	eng := openEngine(t, cfg)
	assert.Nil(t, eng.Gatherer())
}

// TestMetricsGathered tests that manager metrics reach the registry.
func TestMetricsGathered(t *testing.T) {
	eng := openEngine(t, testConfig(t))
	writeOne(t, eng, 1, "alice")

	families, err := eng.Gatherer().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["obatxn_txn_begin_total"])
	assert.True(t, names["obatxn_txn_commit_total"])
	assert.True(t, names["obatxn_txn_committed_sequence_length"])
}

// TestReopenContinuesLSN tests that a reopened engine resumes logical time.
func TestReopenContinuesLSN(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false

	eng, err := OpenWithLogger(cfg, nil)
	require.NoError(t, err)
	writeOne(t, eng, 1, "alice")
	require.NoError(t, eng.Close())
	assert.True(t, eng.IsClosed())
	assert.NoError(t, eng.Close())

	eng = openEngine(t, cfg)
	assert.Equal(t, uint64(3), eng.Watermark().FlushedTime())

	ctx, tx, err := eng.Manager().Begin(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), tx.StartTime())
	require.NoError(t, eng.Manager().Abort(ctx))
}

// TestReplay tests decoding the log back into edits.
func TestReplay(t *testing.T) {
	eng := openEngine(t, testConfig(t))
	writeOne(t, eng, 1, "alice")
	writeOne(t, eng, 2, "bob")

	var kinds []string
	var lsns []uint64
	err := Replay(eng.WALPath(), 0, func(edit txn.LogEdit) error {
		lsns = append(lsns, edit.Position())
		switch e := edit.(type) {
		case *txn.TxnMarker:
			kinds = append(kinds, e.Type.String())
		case *txn.DataChange:
			kinds = append(kinds, e.Op.String())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BEGIN", "add", "COMMIT", "BEGIN", "add", "COMMIT"}, kinds)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6}, lsns)

	var count int
	require.NoError(t, Replay(eng.WALPath(), 4, func(txn.LogEdit) error {
		count++
		return nil
	}))
	assert.Equal(t, 3, count)

	stop := errors.New("stop")
	err = Replay(eng.WALPath(), 0, func(txn.LogEdit) error { return stop })
	assert.Equal(t, stop, err)
}

// TestIndexWrapper tests overlays obtained from the engine.
func TestIndexWrapper(t *testing.T) {
	eng := openEngine(t, testConfig(t))
	cn := index.NewMemIndex("cn", nil)
	users := eng.Index("users", cn)

	writeOne(t, eng, 1, "alice")

	ctx, _, err := eng.Manager().Begin(context.Background(), true)
	require.NoError(t, err)

	c, err := users.Cursor(ctx, index.Forward)
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.Next()
	require.NoError(t, err)
	require.True(t, ok)
	e, err := c.Get()
	require.NoError(t, err)
	assert.Equal(t, "alice", string(e.Value))

	got, err := eng.Table("users", table.NewMemTable()).Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Get("cn"))
}
