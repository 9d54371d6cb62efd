package txn

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/KilimcininKorOglu/obatxn/internal/logging"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
)

// txnList is an immutable snapshot of the committed sequence.
type txnList struct {
	txns []*ReadWriteTxn
}

var emptyList = &txnList{}

// Manager assigns logical time to transactions, builds their check-lists,
// verifies write transactions for conflicts and publishes them.
//
// Two locks order the work. verifyMu is held by a committing write
// transaction from the start of its conflict scan until it is published, so
// nothing can enter the committed sequence between the two. orderMu
// serializes start-time assignment of write transactions against the
// COMMIT append and publish, and guards mutation of the committed sequence.
// activeMu guards the set of in-flight write transactions. Lock order is
// verifyMu, orderMu, activeMu.
type Manager struct {
	bridge  *LogBridge
	flushed FlushWatermark
	logger  logging.Logger
	metrics *Metrics

	comparators     map[string]index.ValueComparator
	reclaimOnCommit bool

	verifyMu sync.Mutex
	orderMu  sync.Mutex
	activeMu sync.Mutex

	// active maps in-flight write transactions to their start times.
	// Reclaim never drops a transaction one of them still has to verify
	// against.
	active map[*ReadWriteTxn]uint64

	committed       atomic.Pointer[txnList]
	latestVerified  atomic.Pointer[ReadWriteTxn]
	latestCommitted atomic.Pointer[ReadWriteTxn]
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the collectors the manager reports to.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithComparator sets the value ordering of an attribute's pending index
// changes. Attributes without one compare values bytewise.
func WithComparator(attribute string, cmp index.ValueComparator) Option {
	return func(m *Manager) {
		m.comparators[strings.ToLower(attribute)] = cmp
	}
}

// WithReclaimOnCommit makes every successful write commit run Reclaim.
func WithReclaimOnCommit(enabled bool) Option {
	return func(m *Manager) {
		m.reclaimOnCommit = enabled
	}
}

// NewManager creates a transaction manager logging through bridge. flushed
// supplies the watermark of the flush process.
func NewManager(bridge *LogBridge, flushed FlushWatermark, opts ...Option) *Manager {
	m := &Manager{
		bridge:      bridge,
		flushed:     flushed,
		logger:      logging.NewNop(),
		comparators: make(map[string]index.ValueComparator),
		active:      make(map[*ReadWriteTxn]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.committed.Store(emptyList)
	return m
}

// Bridge returns the log bridge.
func (m *Manager) Bridge() *LogBridge {
	return m.bridge
}

func (m *Manager) comparator(attribute string) index.ValueComparator {
	return m.comparators[attribute]
}

// Begin starts a transaction and returns a context carrying it. It fails
// with ErrAlreadyActive if ctx already carries an active transaction.
func (m *Manager) Begin(ctx context.Context, readOnly bool) (context.Context, Transaction, error) {
	if activeFromContext(ctx) != nil {
		return ctx, nil, ErrAlreadyActive
	}

	var (
		t   Transaction
		err error
	)
	if readOnly {
		t, err = m.beginReadOnly()
	} else {
		t, err = m.beginReadWrite()
	}
	if err != nil {
		return ctx, nil, err
	}

	m.metrics.begin(readOnly)
	m.logger.Debug("transaction started",
		"read_only", readOnly,
		"start", t.StartTime(),
		"check_list", len(t.TxnsToCheck()),
	)
	return WithTransaction(ctx, t), t, nil
}

func (m *Manager) beginReadOnly() (*ReadOnlyTxn, error) {
	t := newReadOnlyTxn()

	pin := pinLatest(&m.latestCommitted)
	snapshot := UnknownTime
	if pin != nil {
		snapshot = pin.Txn().CommitTime()
	}

	// The sequence is loaded before the watermark: anything reclaimed in
	// between is at or below the watermark read afterwards.
	list := m.committed.Load()
	t.toCheck = buildCheckList(list.txns, snapshot, m.flushed.FlushedTime())
	t.pin = pin

	if err := t.start(snapshot); err != nil {
		if pin != nil {
			pin.release()
		}
		return nil, err
	}
	return t, nil
}

func (m *Manager) beginReadWrite() (*ReadWriteTxn, error) {
	t := newReadWriteTxn(m.comparator)

	m.orderMu.Lock()
	start, err := m.bridge.appendMarker(t, MarkerBegin, false)
	if err != nil {
		m.orderMu.Unlock()
		return nil, err
	}
	m.track(t, start)
	pin := pinLatest(&m.latestVerified)
	list := m.committed.Load()
	m.orderMu.Unlock()

	snapshot := UnknownTime
	if pin != nil {
		snapshot = pin.Txn().CommitTime()
	}
	t.toCheck = buildCheckList(list.txns, snapshot, m.flushed.FlushedTime())
	t.pin = pin

	if err := t.start(start); err != nil {
		if pin != nil {
			pin.release()
		}
		m.untrack(t)
		return nil, err
	}
	return t, nil
}

func (m *Manager) track(t *ReadWriteTxn, start uint64) {
	m.activeMu.Lock()
	m.active[t] = start
	m.activeMu.Unlock()
}

func (m *Manager) untrack(t *ReadWriteTxn) {
	m.activeMu.Lock()
	delete(m.active, t)
	m.activeMu.Unlock()
}

// oldestActiveStart returns the lowest start time of an in-flight write
// transaction, or false when there is none.
func (m *Manager) oldestActiveStart() (uint64, bool) {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()

	var (
		oldest uint64
		found  bool
	)
	for _, start := range m.active {
		if !found || start < oldest {
			oldest, found = start, true
		}
	}
	return oldest, found
}

// Commit commits the transaction carried by ctx. A write transaction that
// read something written by a transaction committed since it began fails
// with ErrTxnConflict and is aborted; the caller may retry it from Begin.
func (m *Manager) Commit(ctx context.Context) error {
	t := activeFromContext(ctx)
	if t == nil {
		return ErrNoActiveTransaction
	}

	rw, ok := t.(*ReadWriteTxn)
	if err := m.releasePin(t); err != nil {
		if ok {
			if _, markErr := m.bridge.appendMarker(rw, MarkerAbort, false); markErr != nil {
				m.logger.Warn("failed to log abort marker", "start", rw.StartTime(), "error", markErr)
			}
			m.discard(rw)
			return err
		}
		_ = t.core().abort()
		m.metrics.abort(true)
		return err
	}

	if !ok {
		if err := t.core().commit(t.StartTime()); err != nil {
			m.metrics.violation()
			return err
		}
		m.metrics.commit(true)
		return nil
	}
	return m.commitReadWrite(rw)
}

func (m *Manager) commitReadWrite(t *ReadWriteTxn) error {
	m.verifyMu.Lock()
	defer m.verifyMu.Unlock()
	defer m.untrack(t)

	if err := m.verify(t); err != nil {
		m.metrics.conflict()
		if _, markErr := m.bridge.appendMarker(t, MarkerAbort, false); markErr != nil {
			m.logger.Warn("failed to log abort marker", "start", t.StartTime(), "error", markErr)
		}
		m.discard(t)
		return err
	}

	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	commitTime, err := m.bridge.appendMarker(t, MarkerCommit, true)
	if err != nil {
		m.discard(t)
		return err
	}
	if err := t.commit(commitTime); err != nil {
		m.metrics.violation()
		return err
	}
	t.logBuf = nil
	m.publish(t)

	m.metrics.commit(false)
	m.logger.Debug("transaction committed",
		"start", t.StartTime(),
		"commit", commitTime,
		"edits", len(t.edits),
	)

	if m.reclaimOnCommit {
		m.reclaimLocked()
	}
	return nil
}

// verify checks t against every transaction committed at or after its start.
// Called with verifyMu held.
func (m *Manager) verify(t *ReadWriteTxn) error {
	start := t.StartTime()
	for _, c := range m.committed.Load().txns {
		if c.CommitTime() < start {
			continue
		}
		if r, w, ok := conflicts(t, c); ok {
			m.logger.Info("transaction conflict",
				"start", start,
				"read", r.String(),
				"write", w.String(),
				"other_commit", c.CommitTime(),
			)
			return errors.Wrapf(ErrTxnConflict, "read %s overlaps write %s committed at %d", r, w, c.CommitTime())
		}
	}
	return nil
}

// publish appends t to the committed sequence and moves both latest
// pointers to it. Called with orderMu held.
func (m *Manager) publish(t *ReadWriteTxn) {
	cur := m.committed.Load().txns
	next := make([]*ReadWriteTxn, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, t)
	m.committed.Store(&txnList{txns: next})

	m.latestVerified.Store(t)
	m.latestCommitted.Store(t)
	m.metrics.committedLen(len(next))
}

func (m *Manager) discard(t *ReadWriteTxn) {
	if err := t.abort(); err != nil {
		m.metrics.violation()
		m.logger.Error("abort of failed transaction", "start", t.StartTime(), "error", err)
	}
	t.discard()
	m.untrack(t)
	m.metrics.abort(false)
}

// Abort aborts the transaction carried by ctx. It is a no-op when ctx
// carries no active transaction. A log failure is returned but the
// transaction is aborted regardless.
func (m *Manager) Abort(ctx context.Context) error {
	t := activeFromContext(ctx)
	if t == nil {
		return nil
	}

	err := m.releasePin(t)

	rw, ok := t.(*ReadWriteTxn)
	if !ok {
		err = multierr.Append(err, t.core().abort())
		m.metrics.abort(true)
		return err
	}

	if _, logErr := m.bridge.appendMarker(rw, MarkerAbort, false); logErr != nil {
		err = multierr.Append(err, logErr)
	}
	m.discard(rw)
	m.logger.Debug("transaction aborted", "start", rw.StartTime())
	return err
}

// releasePin drops the reference t holds on its snapshot transaction. A
// read-only transaction must be pinned at exactly its start time, a write
// transaction strictly before it.
func (m *Manager) releasePin(t Transaction) error {
	b := t.core()
	p := b.pin
	if p == nil {
		return nil
	}
	b.pin = nil

	pinned := p.Txn()
	var err error
	switch {
	case t.IsReadOnly() && pinned.CommitTime() != b.StartTime():
		err = errors.Wrapf(ErrInvariantViolation, "pinned commit time %d, start time %d", pinned.CommitTime(), b.StartTime())
	case !t.IsReadOnly() && pinned.CommitTime() >= b.StartTime():
		err = errors.Wrapf(ErrInvariantViolation, "pinned commit time %d not before start time %d", pinned.CommitTime(), b.StartTime())
	case pinned.RefCount() <= 0:
		err = errors.Wrapf(ErrInvariantViolation, "pinned transaction at %d has ref count %d", pinned.CommitTime(), pinned.RefCount())
	case !p.release():
		err = errors.Wrap(ErrInvariantViolation, "pin released twice")
	}

	if err != nil {
		m.metrics.violation()
		m.logger.Error("pin release failed", "start", b.StartTime(), "error", err)
	}
	return err
}

// CurrentTransaction returns the active transaction carried by ctx, or nil.
func (m *Manager) CurrentTransaction(ctx context.Context) Transaction {
	return activeFromContext(ctx)
}

// Log appends edit on behalf of the transaction carried by ctx.
func (m *Manager) Log(ctx context.Context, edit LogEdit, sync bool) error {
	return m.bridge.Log(ctx, edit, sync)
}

// Committed returns a copy of the committed sequence, oldest first.
func (m *Manager) Committed() []*ReadWriteTxn {
	txns := m.committed.Load().txns
	out := make([]*ReadWriteTxn, len(txns))
	copy(out, txns)
	return out
}

// Reclaim drops the flushed, unreferenced prefix of the committed sequence
// and returns how many transactions were dropped. Transactions committed at
// or after the start of an in-flight write transaction are kept until it
// finishes.
func (m *Manager) Reclaim() int {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()
	return m.reclaimLocked()
}

func (m *Manager) reclaimLocked() int {
	flushed := m.flushed.FlushedTime()
	latestVerified := m.latestVerified.Load()
	latestCommitted := m.latestCommitted.Load()
	oldest, writing := m.oldestActiveStart()

	txns := m.committed.Load().txns
	n := 0
	for _, t := range txns {
		// The latest pointers are checked before the ref count so that a
		// concurrent pinLatest that succeeded is always observed.
		if t.CommitTime() > flushed || t == latestVerified || t == latestCommitted {
			break
		}
		if writing && t.CommitTime() >= oldest {
			break
		}
		if t.RefCount() > 0 {
			break
		}
		n++
	}
	if n == 0 {
		return 0
	}

	rest := make([]*ReadWriteTxn, len(txns)-n)
	copy(rest, txns[n:])
	m.committed.Store(&txnList{txns: rest})
	m.metrics.committedLen(len(rest))

	m.logger.Debug("reclaimed committed transactions", "count", n, "flushed", flushed)
	return n
}
