package txn

import (
	"go.uber.org/atomic"
)

// Pin is a counted reference on a committed write transaction. While a pin
// is held the transaction stays in the committed sequence. A pin releases at
// most once, so the reference count cannot be driven below the number of
// pins actually taken.
type Pin struct {
	txn      *ReadWriteTxn
	released atomic.Bool
}

// Txn returns the pinned transaction.
func (p *Pin) Txn() *ReadWriteTxn {
	return p.txn
}

// release drops the reference. It reports false if the pin was already released.
func (p *Pin) release() bool {
	if !p.released.CompareAndSwap(false, true) {
		return false
	}
	p.txn.refs.Dec()
	return true
}

// pinLatest takes a reference on whatever slot currently holds. The count is
// raised before the slot is re-read; if the slot moved in between, the
// increment is undone and the loop retries. Reclaim never drops the current
// slot holder, so a transaction that is still in the slot after the
// increment cannot have been reclaimed. A nil return means nothing has
// committed yet.
func pinLatest(slot *atomic.Pointer[ReadWriteTxn]) *Pin {
	for {
		t := slot.Load()
		if t == nil {
			return nil
		}

		t.refs.Inc()
		if slot.Load() == t {
			return &Pin{txn: t}
		}
		t.refs.Dec()
	}
}
