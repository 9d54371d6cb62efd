package txn

import (
	"github.com/google/btree"

	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
)

// AttributeChanges summarizes the pending index changes of one transaction
// for one (partition, attribute) pair: tuples added on the forward and
// reverse sides and tuples deleted.
type AttributeChanges struct {
	forward index.Ordering
	reverse index.Ordering

	forwardAdds *btree.BTreeG[index.Entry]
	reverseAdds *btree.BTreeG[index.Entry]
	deletes     *btree.BTreeG[index.Entry]
}

func newAttributeChanges(values index.ValueComparator) *AttributeChanges {
	fwd := index.NewOrdering(index.Forward, values)
	rev := index.NewOrdering(index.Reverse, values)
	return &AttributeChanges{
		forward:     fwd,
		reverse:     rev,
		forwardAdds: index.NewTree(fwd),
		reverseAdds: index.NewTree(rev),
		deletes:     index.NewTree(fwd),
	}
}

// apply folds one index change into the summary. A later change on the same
// tuple supersedes an earlier one.
func (c *AttributeChanges) apply(change IndexChange) {
	e := index.NewEntry(change.Entry.Value, change.Entry.ID)

	switch change.Op {
	case IndexAdd:
		c.deletes.Delete(e)
		c.forwardAdds.ReplaceOrInsert(e)
		c.reverseAdds.ReplaceOrInsert(e)
	case IndexDelete:
		c.forwardAdds.Delete(e)
		c.reverseAdds.Delete(e)
		c.deletes.ReplaceOrInsert(e)
	}
}

// Ordering returns the ordering of the given side.
func (c *AttributeChanges) Ordering(dir index.Direction) index.Ordering {
	if dir == index.Reverse {
		return c.reverse
	}
	return c.forward
}

// Adds returns the sorted set of tuples added on the given side. The set is
// owned by the transaction and must not be modified.
func (c *AttributeChanges) Adds(dir index.Direction) *btree.BTreeG[index.Entry] {
	if dir == index.Reverse {
		return c.reverseAdds
	}
	return c.forwardAdds
}

// HasAdds reports whether any tuple was added.
func (c *AttributeChanges) HasAdds() bool {
	return c.forwardAdds.Len() > 0
}

// HasDeletes reports whether any tuple was deleted.
func (c *AttributeChanges) HasDeletes() bool {
	return c.deletes.Len() > 0
}

// IsDeleted reports whether the tuple was deleted.
func (c *AttributeChanges) IsDeleted(e index.Entry) bool {
	return c.deletes.Has(index.NewEntry(e.Value, e.ID))
}

// DeletedCount returns the number of deleted tuples.
func (c *AttributeChanges) DeletedCount() int {
	return c.deletes.Len()
}

// clone returns a copy-on-write copy of the summary.
func (c *AttributeChanges) clone() *AttributeChanges {
	return &AttributeChanges{
		forward:     c.forward,
		reverse:     c.reverse,
		forwardAdds: c.forwardAdds.Clone(),
		reverseAdds: c.reverseAdds.Clone(),
		deletes:     c.deletes.Clone(),
	}
}

// changeKey addresses the summary of one attribute of one partition.
type changeKey struct {
	partition string
	attribute string
}
