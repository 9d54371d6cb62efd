package txn

import "github.com/pkg/errors"

// Conflict errors. The caller may retry the whole transaction.
var (
	// ErrTxnConflict is returned by Commit when a transaction committed after
	// this one began wrote something this one read.
	ErrTxnConflict = errors.New("transaction conflict")
)

// Misuse errors. These are protocol violations by the caller.
var (
	// ErrAlreadyActive is returned by Begin when the context already carries
	// an active transaction.
	ErrAlreadyActive = errors.New("a transaction is already active in this context")
	// ErrNoActiveTransaction is returned when an operation needs an active
	// transaction and the context has none.
	ErrNoActiveTransaction = errors.New("no active transaction")
	// ErrReadOnlyTransaction is returned when logging an edit from a
	// read-only transaction.
	ErrReadOnlyTransaction = errors.New("transaction is read-only")
)

// ErrInvariantViolation marks internal bugs: broken pin bookkeeping or an
// illegal state transition. Callers must not retry.
var ErrInvariantViolation = errors.New("transaction invariant violation")

// Log errors.
var (
	// ErrEncodeEdit is returned when a log edit cannot be serialized.
	ErrEncodeEdit = errors.New("failed to encode log edit")
	// ErrDecodeEdit is returned when a log record cannot be decoded.
	ErrDecodeEdit = errors.New("failed to decode log edit")
)
