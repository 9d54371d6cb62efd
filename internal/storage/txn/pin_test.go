package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// TestPinReleaseOnce tests that a pin only ever drops one reference.
func TestPinReleaseOnce(t *testing.T) {
	rw := newReadWriteTxn(nil)
	var slot atomic.Pointer[ReadWriteTxn]
	slot.Store(rw)

	p := pinLatest(&slot)
	require.NotNil(t, p)
	assert.Same(t, rw, p.Txn())
	assert.Equal(t, int64(1), rw.RefCount())

	assert.True(t, p.release())
	assert.False(t, p.release())
	assert.Equal(t, int64(0), rw.RefCount())
}

// TestPinEmptySlot tests pinning before anything committed.
func TestPinEmptySlot(t *testing.T) {
	var slot atomic.Pointer[ReadWriteTxn]
	assert.Nil(t, pinLatest(&slot))
}

// TestWatermarkMonotonic tests that the watermark never moves back.
func TestWatermarkMonotonic(t *testing.T) {
	w := NewWatermark(3)
	assert.False(t, w.Advance(2))
	assert.False(t, w.Advance(3))
	assert.True(t, w.Advance(10))
	assert.Equal(t, uint64(10), w.FlushedTime())
}
