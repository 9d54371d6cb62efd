package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func committedAt(t *testing.T, commit uint64) *ReadWriteTxn {
	t.Helper()
	rw := newReadWriteTxn(nil)
	require.NoError(t, rw.start(commit-1))
	require.NoError(t, rw.commit(commit))
	return rw
}

// TestBuildCheckList tests the (flushed, snapshot] window over the sequence.
func TestBuildCheckList(t *testing.T) {
	t1 := committedAt(t, 5)
	t2 := committedAt(t, 8)
	t3 := committedAt(t, 12)
	seq := []*ReadWriteTxn{t1, t2, t3}

	assert.Equal(t, []*ReadWriteTxn{t2}, buildCheckList(seq[:2], 8, 5))
	assert.Equal(t, []*ReadWriteTxn{t1, t2}, buildCheckList(seq, 8, 0))
	assert.Equal(t, []*ReadWriteTxn{t1, t2, t3}, buildCheckList(seq, 12, 4))
	assert.Empty(t, buildCheckList(seq, 12, 12))
	assert.Empty(t, buildCheckList(seq, UnknownTime, 0))
	assert.Empty(t, buildCheckList(nil, 8, 0))
}

// TestConflicts tests footprint comparison between two transactions.
func TestConflicts(t *testing.T) {
	a := newReadWriteTxn(nil)
	a.AddRead(subtree("ou=x,dc=com"))

	b := newReadWriteTxn(nil)
	b.AddWrite(object("ou=y,ou=x,dc=com"))

	r, w, ok := conflicts(a, b)
	require.True(t, ok)
	assert.Equal(t, ScopeSubtree, r.Scope)
	assert.Equal(t, ScopeObject, w.Scope)

	// b only read under a's subtree; a wrote nothing.
	_, _, ok = conflicts(b, a)
	assert.False(t, ok)
}

// TestWriteCountsAsRead tests that a write footprint is also read.
func TestWriteCountsAsRead(t *testing.T) {
	a := newReadWriteTxn(nil)
	a.AddWrite(object("cn=a,dc=com"))
	b := newReadWriteTxn(nil)
	b.AddWrite(object("cn=a,dc=com"))

	_, _, ok := conflicts(a, b)
	assert.True(t, ok)
	assert.Len(t, a.ReadFootprint(), 1)
	assert.Len(t, a.WriteFootprint(), 1)
}
