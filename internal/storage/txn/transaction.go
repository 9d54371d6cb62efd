package txn

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/KilimcininKorOglu/obatxn/internal/entry"
)

// UnknownTime is the start time of a read-only transaction that began before
// any write transaction committed. Real LSNs start at 1.
const UnknownTime uint64 = 0

// State represents the state of a transaction.
type State int32

const (
	// StateInitial is the state of a transaction that has not started yet.
	StateInitial State = iota
	// StateRead is the state of a started transaction that can read and log.
	StateRead
	// StateCommit is the state of a committed transaction.
	StateCommit
	// StateAbort is the state of an aborted transaction.
	StateAbort
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateRead:
		return "Read"
	case StateCommit:
		return "Commit"
	case StateAbort:
		return "Abort"
	default:
		return "Unknown"
	}
}

// Transaction is a read-only or read-write transaction.
type Transaction interface {
	// StartTime returns the logical time assigned at begin.
	StartTime() uint64
	// CommitTime returns the logical time assigned at commit, or UnknownTime.
	CommitTime() uint64
	// State returns the current state.
	State() State
	// IsReadOnly reports whether the transaction may log edits.
	IsReadOnly() bool
	// TxnsToCheck returns the committed, not yet flushed write transactions
	// this transaction overlays, oldest first.
	TxnsToCheck() []*ReadWriteTxn
	// Dependencies returns TxnsToCheck followed, for an in-flight write
	// transaction, by the transaction itself.
	Dependencies() []*ReadWriteTxn
	// MergeUpdates folds the edits of every dependency onto base and returns
	// the entry as this transaction sees it, or nil if it is deleted.
	MergeUpdates(partition string, entryID uint64, base *entry.Entry) *entry.Entry

	core() *txnBase
}

// txnBase holds the state shared by both transaction kinds.
type txnBase struct {
	startTime  atomic.Uint64
	commitTime atomic.Uint64
	state      atomic.Int32

	// toCheck is written once before the transaction is handed out.
	toCheck []*ReadWriteTxn

	// pin keeps the snapshot transaction alive until commit or abort.
	pin *Pin
}

func (b *txnBase) core() *txnBase { return b }

// StartTime returns the logical start time.
func (b *txnBase) StartTime() uint64 {
	return b.startTime.Load()
}

// CommitTime returns the logical commit time.
func (b *txnBase) CommitTime() uint64 {
	return b.commitTime.Load()
}

// State returns the current state.
func (b *txnBase) State() State {
	return State(b.state.Load())
}

// TxnsToCheck returns the check-list.
func (b *txnBase) TxnsToCheck() []*ReadWriteTxn {
	return b.toCheck
}

func (b *txnBase) isActive() bool {
	return b.State() == StateRead
}

// start moves Initial -> Read.
func (b *txnBase) start(startTime uint64) error {
	if !b.state.CompareAndSwap(int32(StateInitial), int32(StateRead)) {
		return errors.Wrapf(ErrInvariantViolation, "start from state %s", b.State())
	}
	b.startTime.Store(startTime)
	return nil
}

// commit moves Read -> Commit and records the commit time.
func (b *txnBase) commit(commitTime uint64) error {
	if b.State() != StateRead {
		return errors.Wrapf(ErrInvariantViolation, "commit from state %s", b.State())
	}
	b.commitTime.Store(commitTime)
	b.state.Store(int32(StateCommit))
	return nil
}

// abort moves Initial or Read -> Abort.
func (b *txnBase) abort() error {
	for {
		s := b.State()
		if s != StateInitial && s != StateRead {
			return errors.Wrapf(ErrInvariantViolation, "abort from state %s", s)
		}
		if b.state.CompareAndSwap(int32(s), int32(StateAbort)) {
			return nil
		}
	}
}

// ReadOnlyTxn is a transaction that only reads. Its start time is the commit
// time of the write transaction it is pinned to.
type ReadOnlyTxn struct {
	txnBase
}

var _ Transaction = (*ReadOnlyTxn)(nil)

func newReadOnlyTxn() *ReadOnlyTxn {
	return &ReadOnlyTxn{}
}

// IsReadOnly returns true.
func (t *ReadOnlyTxn) IsReadOnly() bool {
	return true
}

// Dependencies returns the check-list.
func (t *ReadOnlyTxn) Dependencies() []*ReadWriteTxn {
	return t.toCheck
}

// MergeUpdates folds the check-list onto base.
func (t *ReadOnlyTxn) MergeUpdates(partition string, entryID uint64, base *entry.Entry) *entry.Entry {
	return mergeUpdates(t.Dependencies(), partition, entryID, base)
}
