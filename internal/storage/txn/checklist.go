package txn

// buildCheckList returns the transactions of the committed sequence with
// flushed < commitTime <= snapshot, oldest first. The sequence is ordered by
// commit time, so the scan stops at the first transaction past the snapshot.
func buildCheckList(committed []*ReadWriteTxn, snapshot, flushed uint64) []*ReadWriteTxn {
	var list []*ReadWriteTxn
	for _, t := range committed {
		c := t.CommitTime()
		if c > snapshot {
			break
		}
		if c <= flushed {
			continue
		}
		list = append(list, t)
	}
	return list
}

// conflicts reports whether any read footprint of t overlaps any write
// footprint of other.
func conflicts(t, other *ReadWriteTxn) (DnSet, DnSet, bool) {
	for _, r := range t.readSet {
		for _, w := range other.writeSet {
			if r.Overlaps(w) {
				return r, w, true
			}
		}
	}
	return DnSet{}, DnSet{}, false
}
