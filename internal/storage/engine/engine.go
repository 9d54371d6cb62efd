package engine

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/KilimcininKorOglu/obatxn/internal/config"
	"github.com/KilimcininKorOglu/obatxn/internal/logging"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/overlay"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/table"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/txn"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/wal"
)

// Engine errors.
var (
	ErrEngineClosed  = errors.New("engine is closed")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Engine owns the write-ahead log and the transaction manager built on it.
type Engine struct {
	cfg    *config.Config
	logger logging.Logger

	wal       *wal.WAL
	bridge    *txn.LogBridge
	watermark *txn.Watermark
	manager   *txn.Manager

	registry *prometheus.Registry
	metrics  *txn.Metrics

	closed bool
	mu     sync.RWMutex
}

// Open validates cfg and opens an engine with a logger built from it.
func Open(cfg *config.Config) (*Engine, error) {
	return OpenWithLogger(cfg, logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}))
}

// OpenWithLogger opens an engine that logs to logger.
func OpenWithLogger(cfg *config.Config, logger logging.Logger) (*Engine, error) {
	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		return nil, errors.Wrap(ErrInvalidConfig, multierr.Combine(errs...).Error())
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger.WithFields("component", "engine"),
	}
	if err := e.initComponents(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) initComponents() error {
	if err := os.MkdirAll(e.cfg.Storage.DataDir, 0755); err != nil {
		return errors.Wrapf(err, "create data dir %s", e.cfg.Storage.DataDir)
	}

	path := filepath.Join(e.cfg.Storage.DataDir, e.cfg.Storage.WALFile)
	w, err := wal.OpenWithBufferSize(path, e.cfg.Storage.WALBufferSize)
	if err != nil {
		return err
	}
	e.wal = w

	// Everything already in the log is treated as flushed: recovery of
	// the persisted store is the flush process's job.
	e.watermark = txn.NewWatermark(w.CurrentLSN() - 1)

	opts := []txn.Option{
		txn.WithLogger(e.logger.WithFields("component", "txn")),
		txn.WithReclaimOnCommit(e.cfg.Txn.ReclaimOnCommit),
	}
	if e.cfg.Metrics.Enabled {
		e.registry = prometheus.NewRegistry()
		e.metrics, err = txn.NewMetrics(e.cfg.Metrics.Namespace, e.registry)
		if err != nil {
			return errors.Wrap(err, "register metrics")
		}
		opts = append(opts, txn.WithMetrics(e.metrics))
	}

	e.bridge = txn.NewLogBridge(w, e.logger.WithFields("component", "wal"))
	e.manager = txn.NewManager(e.bridge, e.watermark, opts...)

	e.logger.Info("engine opened",
		"wal", path,
		"lsn", w.CurrentLSN()-1,
		"metrics", e.cfg.Metrics.Enabled,
	)
	return nil
}

// Manager returns the transaction manager.
func (e *Engine) Manager() *txn.Manager {
	return e.manager
}

// Bridge returns the log bridge.
func (e *Engine) Bridge() *txn.LogBridge {
	return e.bridge
}

// Watermark returns the flushed watermark the flush process advances.
func (e *Engine) Watermark() *txn.Watermark {
	return e.watermark
}

// Gatherer returns the metrics registry, or nil when metrics are disabled.
func (e *Engine) Gatherer() prometheus.Gatherer {
	if e.registry == nil {
		return nil
	}
	return e.registry
}

// WALPath returns the path of the write-ahead log.
func (e *Engine) WALPath() string {
	return e.wal.Path()
}

// Index wraps a persisted index of partition so that cursors opened through
// it honour the transaction bound to their context.
func (e *Engine) Index(partition string, base index.Index) *overlay.Index {
	return overlay.NewIndex(partition, base, e.manager)
}

// Table wraps the persisted record table of partition.
func (e *Engine) Table(partition string, base table.Table) *overlay.Table {
	return overlay.NewTable(partition, base, e.manager)
}

// Close syncs and closes the log. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.wal != nil {
		err = multierr.Append(err, e.wal.Sync())
		err = multierr.Append(err, e.wal.Close())
	}
	if e.logger != nil {
		e.logger.Info("engine closed")
		// Sync of stdout fails on some platforms; nothing to do about it.
		_ = e.logger.Sync()
	}
	return err
}

// IsClosed reports whether Close has been called.
func (e *Engine) IsClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}
