package txn

import (
	"go.uber.org/atomic"
)

// FlushWatermark exposes the flushed watermark: every write transaction with
// a commit time at or below it is visible in the persisted store.
type FlushWatermark interface {
	FlushedTime() uint64
}

// Watermark is a monotonic FlushWatermark advanced by the flush process.
type Watermark struct {
	v atomic.Uint64
}

var _ FlushWatermark = (*Watermark)(nil)

// NewWatermark returns a watermark starting at t.
func NewWatermark(t uint64) *Watermark {
	w := &Watermark{}
	w.v.Store(t)
	return w
}

// FlushedTime returns the current watermark.
func (w *Watermark) FlushedTime() uint64 {
	return w.v.Load()
}

// Advance raises the watermark to t. It never lowers it and reports whether
// the value changed.
func (w *Watermark) Advance(t uint64) bool {
	for {
		cur := w.v.Load()
		if t <= cur {
			return false
		}
		if w.v.CompareAndSwap(cur, t) {
			return true
		}
	}
}
