package index

import (
	"github.com/google/btree"
)

// DefaultDegree is the btree degree used for index entry sets.
const DefaultDegree = 16

// NewTree returns an empty sorted set of index entries in the given ordering.
func NewTree(ord Ordering) *btree.BTreeG[Entry] {
	return btree.NewG[Entry](DefaultDegree, ord.Less)
}

// cursorState describes where a TreeCursor sits relative to its pivot.
type cursorState int

const (
	stateBeforeFirst cursorState = iota
	stateAfterLast
	// stateBefore: between the last entry < pivot and the first entry >= pivot.
	stateBefore
	// stateAfter: between the last entry <= pivot and the first entry > pivot.
	stateAfter
	// stateOn: on the pivot itself.
	stateOn
)

// TreeCursor is a Cursor over a sorted entry set. The set must not be
// modified while the cursor is open; callers hand it a clone or a set that
// has become immutable.
type TreeCursor struct {
	tree   *btree.BTreeG[Entry]
	ord    Ordering
	lock   *Entry
	state  cursorState
	pivot  Entry
	closed bool
}

var _ Cursor = (*TreeCursor)(nil)

// NewTreeCursor returns a cursor over tree, positioned before the first entry.
func NewTreeCursor(tree *btree.BTreeG[Entry], ord Ordering) *TreeCursor {
	return &TreeCursor{tree: tree, ord: ord}
}

// NewLockedTreeCursor returns a cursor restricted to the entries whose
// primary key equals key's primary key.
func NewLockedTreeCursor(tree *btree.BTreeG[Entry], ord Ordering, key Entry) *TreeCursor {
	lock := Entry{Value: key.Value, ID: key.ID}
	c := &TreeCursor{tree: tree, ord: ord, lock: &lock}
	c.state, c.pivot = stateBefore, ord.lowest(lock)
	return c
}

// Ordering returns the cursor ordering.
func (c *TreeCursor) Ordering() Ordering {
	return c.ord
}

// LockedKey returns the locked key and whether the cursor is locked.
func (c *TreeCursor) LockedKey() (Entry, bool) {
	if c.lock == nil {
		return Entry{}, false
	}
	return *c.lock, true
}

func (c *TreeCursor) checkLock(e Entry) error {
	if c.closed {
		return ErrCursorClosed
	}
	if c.lock != nil && c.ord.ComparePrimary(e, *c.lock) != 0 {
		return ErrUnsupportedPosition
	}
	return nil
}

// BeforeFirst positions the cursor before the first entry.
func (c *TreeCursor) BeforeFirst() error {
	if c.closed {
		return ErrCursorClosed
	}
	if c.lock != nil {
		c.state, c.pivot = stateBefore, c.ord.lowest(*c.lock)
		return nil
	}
	c.state = stateBeforeFirst
	return nil
}

// AfterLast positions the cursor after the last entry.
func (c *TreeCursor) AfterLast() error {
	if c.closed {
		return ErrCursorClosed
	}
	if c.lock != nil {
		c.state, c.pivot = stateAfter, c.ord.highest(*c.lock)
		return nil
	}
	c.state = stateAfterLast
	return nil
}

// Before positions the cursor just before e.
func (c *TreeCursor) Before(e Entry) error {
	if err := c.checkLock(e); err != nil {
		return err
	}
	c.state, c.pivot = stateBefore, e
	return nil
}

// After positions the cursor just after e.
func (c *TreeCursor) After(e Entry) error {
	if err := c.checkLock(e); err != nil {
		return err
	}
	c.state, c.pivot = stateAfter, e
	return nil
}

// BeforeValue positions the cursor before every entry with key's primary key.
func (c *TreeCursor) BeforeValue(key Entry) error {
	if err := c.checkLock(key); err != nil {
		return err
	}
	c.state, c.pivot = stateBefore, c.ord.lowest(key)
	return nil
}

// AfterValue positions the cursor after every entry with key's primary key.
func (c *TreeCursor) AfterValue(key Entry) error {
	if err := c.checkLock(key); err != nil {
		return err
	}
	c.state, c.pivot = stateAfter, c.ord.highest(key)
	return nil
}

// Next moves to the next entry.
func (c *TreeCursor) Next() (bool, error) {
	if c.closed {
		return false, ErrCursorClosed
	}

	var found Entry
	var ok bool

	switch c.state {
	case stateAfterLast:
		return false, nil
	case stateBeforeFirst:
		found, ok = c.tree.Min()
	case stateBefore:
		found, ok = c.ceiling(c.pivot, true)
	default:
		found, ok = c.ceiling(c.pivot, false)
	}

	if ok && c.lock != nil && c.ord.ComparePrimary(found, *c.lock) != 0 {
		ok = false
	}
	if !ok {
		if c.lock != nil {
			c.state, c.pivot = stateAfter, c.ord.highest(*c.lock)
		} else {
			c.state = stateAfterLast
		}
		return false, nil
	}

	c.state, c.pivot = stateOn, found
	return true, nil
}

// Previous moves to the previous entry.
func (c *TreeCursor) Previous() (bool, error) {
	if c.closed {
		return false, ErrCursorClosed
	}

	var found Entry
	var ok bool

	switch c.state {
	case stateBeforeFirst:
		return false, nil
	case stateAfterLast:
		found, ok = c.tree.Max()
	case stateAfter:
		found, ok = c.floor(c.pivot, true)
	default:
		found, ok = c.floor(c.pivot, false)
	}

	if ok && c.lock != nil && c.ord.ComparePrimary(found, *c.lock) != 0 {
		ok = false
	}
	if !ok {
		if c.lock != nil {
			c.state, c.pivot = stateBefore, c.ord.lowest(*c.lock)
		} else {
			c.state = stateBeforeFirst
		}
		return false, nil
	}

	c.state, c.pivot = stateOn, found
	return true, nil
}

// Get returns the current entry.
func (c *TreeCursor) Get() (Entry, error) {
	if c.closed {
		return Entry{}, ErrCursorClosed
	}
	if c.state != stateOn {
		return Entry{}, ErrInvalidPosition
	}
	return c.pivot, nil
}

// Close releases the cursor.
func (c *TreeCursor) Close() error {
	c.closed = true
	c.tree = nil
	return nil
}

// ceiling returns the smallest entry >= pivot (inclusive) or > pivot.
func (c *TreeCursor) ceiling(pivot Entry, inclusive bool) (Entry, bool) {
	var found Entry
	var ok bool
	c.tree.AscendGreaterOrEqual(pivot, func(item Entry) bool {
		if !inclusive && c.ord.Compare(item, pivot) == 0 {
			return true
		}
		found, ok = item, true
		return false
	})
	return found, ok
}

// floor returns the largest entry <= pivot (inclusive) or < pivot.
func (c *TreeCursor) floor(pivot Entry, inclusive bool) (Entry, bool) {
	var found Entry
	var ok bool
	c.tree.DescendLessOrEqual(pivot, func(item Entry) bool {
		if !inclusive && c.ord.Compare(item, pivot) == 0 {
			return true
		}
		found, ok = item, true
		return false
	})
	return found, ok
}
