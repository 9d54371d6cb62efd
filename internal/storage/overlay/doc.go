// Package overlay makes the pending index changes of committed but unflushed
// write transactions, and of the reader's own in-flight transaction, visible
// on top of the persisted index and record table.
package overlay
