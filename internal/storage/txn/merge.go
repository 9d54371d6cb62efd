package txn

import (
	"github.com/KilimcininKorOglu/obatxn/internal/entry"
)

// mergeUpdates replays the data changes of deps, in order, onto base. The
// base entry is cloned on the first mutation only; an untouched base is
// returned as is. A nil result means the entry is deleted.
func mergeUpdates(deps []*ReadWriteTxn, partition string, entryID uint64, base *entry.Entry) *entry.Entry {
	current := base
	owned := false

	uuid := ""
	if base != nil {
		uuid = base.UUID
	}

	for _, dep := range deps {
		for _, edit := range dep.edits {
			change, ok := edit.(*DataChange)
			if !ok || !change.matches(partition, entryID, uuid) {
				continue
			}

			switch change.Op {
			case ChangeAdd:
				current = change.Entry.Clone()
				owned = true
				if uuid == "" && current != nil {
					uuid = current.UUID
				}

			case ChangeDelete:
				current = nil
				owned = false

			case ChangeModify:
				if current == nil {
					continue
				}
				if !owned {
					current = current.Clone()
					owned = true
				}
				for _, mod := range change.Mods {
					mod.Apply(current)
				}
			}
		}
	}

	return current
}
