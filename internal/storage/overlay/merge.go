package overlay

import (
	"go.uber.org/multierr"

	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/txn"
)

// source is one sub-cursor of a MergeCursor with its lookahead entry.
type source struct {
	cursor index.Cursor

	// dep is the position of the source's transaction in the dependency
	// list; -1 for the persisted index.
	dep int

	cur   index.Entry
	has   bool
	stale bool
}

// MergeCursor merges a persisted index cursor with the pending cursors of a
// transaction's dependencies. An entry is hidden when any dependency newer
// than the source it came from deleted it. An entry present in several
// sources is returned once.
type MergeCursor struct {
	sources   []*source
	deps      []*txn.ReadWriteTxn
	partition string
	attribute string
	ord       index.Ordering

	// dir is +1 after Next, -1 after Previous and 0 after positioning.
	dir     int
	current index.Entry
	on      bool
	closed  bool
}

var _ index.Cursor = (*MergeCursor)(nil)

// NewMergeCursor returns a cursor merging base with pending. deps is the
// dependency list of the reading transaction, oldest first; every pending
// cursor must belong to one of them.
func NewMergeCursor(base index.Cursor, pending []*PendingCursor, deps []*txn.ReadWriteTxn, partition, attribute string) *MergeCursor {
	pos := make(map[*txn.ReadWriteTxn]int, len(deps))
	for i, d := range deps {
		pos[d] = i
	}

	sources := make([]*source, 0, len(pending)+1)
	sources = append(sources, &source{cursor: base, dep: -1})
	for _, p := range pending {
		sources = append(sources, &source{cursor: p, dep: pos[p.Txn()]})
	}

	return &MergeCursor{
		sources:   sources,
		deps:      deps,
		partition: partition,
		attribute: attribute,
		ord:       base.Ordering(),
	}
}

// Ordering returns the ordering of the persisted index.
func (c *MergeCursor) Ordering() index.Ordering {
	return c.ord
}

// position applies a positioning operation to every sub-cursor.
func (c *MergeCursor) position(op func(index.Cursor) error) error {
	if c.closed {
		return index.ErrCursorClosed
	}
	c.dir, c.on = 0, false
	for _, s := range c.sources {
		s.has, s.stale = false, false
		if err := op(s.cursor); err != nil {
			return err
		}
	}
	return nil
}

// BeforeFirst positions the cursor before the first entry.
func (c *MergeCursor) BeforeFirst() error {
	return c.position(index.Cursor.BeforeFirst)
}

// AfterLast positions the cursor after the last entry.
func (c *MergeCursor) AfterLast() error {
	return c.position(index.Cursor.AfterLast)
}

// Before positions the cursor just before e.
func (c *MergeCursor) Before(e index.Entry) error {
	return c.position(func(sub index.Cursor) error { return sub.Before(e) })
}

// After positions the cursor just after e.
func (c *MergeCursor) After(e index.Entry) error {
	return c.position(func(sub index.Cursor) error { return sub.After(e) })
}

// BeforeValue positions the cursor before every entry with key's primary key.
func (c *MergeCursor) BeforeValue(key index.Entry) error {
	return c.position(func(sub index.Cursor) error { return sub.BeforeValue(key) })
}

// AfterValue positions the cursor after every entry with key's primary key.
func (c *MergeCursor) AfterValue(key index.Entry) error {
	return c.position(func(sub index.Cursor) error { return sub.AfterValue(key) })
}

// Next moves to the next visible entry.
func (c *MergeCursor) Next() (bool, error) {
	return c.move(1)
}

// Previous moves to the previous visible entry.
func (c *MergeCursor) Previous() (bool, error) {
	return c.move(-1)
}

// turn prepares the sub-cursors for iteration in dir. Sub-cursors hold the
// lookahead of the previous direction, so a reversal re-anchors them on the
// current entry.
func (c *MergeCursor) turn(dir int) error {
	if c.dir == dir {
		return nil
	}
	for _, s := range c.sources {
		if c.dir != 0 && c.on {
			var err error
			if dir > 0 {
				err = s.cursor.After(c.current)
			} else {
				err = s.cursor.Before(c.current)
			}
			if err != nil {
				return err
			}
		}
		s.has, s.stale = false, true
	}
	c.dir = dir
	return nil
}

func (c *MergeCursor) move(dir int) (bool, error) {
	if c.closed {
		return false, index.ErrCursorClosed
	}
	if err := c.turn(dir); err != nil {
		return false, err
	}

	for {
		for _, s := range c.sources {
			if !s.stale {
				continue
			}
			if err := s.step(dir); err != nil {
				c.on = false
				return false, err
			}
		}

		best := c.pick(dir)
		if best == nil {
			c.on = false
			return false, nil
		}

		e := best.cur
		for _, s := range c.sources {
			if s.has && c.ord.Equal(s.cur, e) {
				s.stale = true
			}
		}
		if c.deletedAfter(best.dep, e) {
			continue
		}

		c.current, c.on = e, true
		return true, nil
	}
}

// pick returns the source holding the next candidate in dir. Among equal
// candidates the newest source wins.
func (c *MergeCursor) pick(dir int) *source {
	var best *source
	for _, s := range c.sources {
		if !s.has {
			continue
		}
		if best == nil {
			best = s
			continue
		}
		cmp := c.ord.Compare(s.cur, best.cur) * dir
		if cmp < 0 || (cmp == 0 && s.dep > best.dep) {
			best = s
		}
	}
	return best
}

// deletedAfter reports whether a dependency newer than dep deleted e.
func (c *MergeCursor) deletedAfter(dep int, e index.Entry) bool {
	for i := dep + 1; i < len(c.deps); i++ {
		if c.deps[i].IsIndexEntryDeleted(c.partition, c.attribute, e) {
			return true
		}
	}
	return false
}

func (s *source) step(dir int) error {
	var ok bool
	var err error
	if dir > 0 {
		ok, err = s.cursor.Next()
	} else {
		ok, err = s.cursor.Previous()
	}
	s.stale = false
	if err != nil {
		s.has = false
		return err
	}
	if !ok {
		s.has = false
		return nil
	}

	s.cur, err = s.cursor.Get()
	s.has = err == nil
	return err
}

// Get returns the current entry.
func (c *MergeCursor) Get() (index.Entry, error) {
	if c.closed {
		return index.Entry{}, index.ErrCursorClosed
	}
	if !c.on {
		return index.Entry{}, index.ErrInvalidPosition
	}
	return c.current, nil
}

// Close closes every sub-cursor, continuing past failures.
func (c *MergeCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed, c.on = true, false

	var err error
	for _, s := range c.sources {
		err = multierr.Append(err, s.cursor.Close())
	}
	return err
}
