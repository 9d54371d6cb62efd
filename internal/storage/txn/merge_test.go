package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/obatxn/internal/entry"
)

// writer builds a started write transaction holding the given edits.
func writer(t *testing.T, edits ...LogEdit) *ReadWriteTxn {
	t.Helper()
	rw := newReadWriteTxn(nil)
	require.NoError(t, rw.start(1))
	for _, e := range edits {
		rw.record(e)
	}
	return rw
}

func replace(attr string, values ...string) entry.Modification {
	return entry.Modification{Type: entry.ModifyReplace, Attribute: attr, Values: values}
}

// TestMergeUpdatesUntouched tests that an unrelated history returns base as is.
func TestMergeUpdatesUntouched(t *testing.T) {
	base := entry.New("cn=a,dc=com")
	other := writer(t, NewModifyChange("users", 2, "", replace("sn", "x")))

	got := mergeUpdates([]*ReadWriteTxn{other}, "users", 1, base)
	assert.Same(t, base, got)
}

// TestMergeUpdatesModify tests copy-on-write modification of base.
func TestMergeUpdatesModify(t *testing.T) {
	base := entry.New("cn=a,dc=com")
	base.Set("sn", "old")

	t1 := writer(t, NewModifyChange("users", 1, base.UUID, replace("sn", "new")))
	t2 := writer(t, NewModifyChange("users", 1, base.UUID, entry.Modification{
		Type: entry.ModifyAdd, Attribute: "mail", Values: []string{"a@example.com"},
	}))

	got := mergeUpdates([]*ReadWriteTxn{t1, t2}, "users", 1, base)
	require.NotNil(t, got)
	assert.NotSame(t, base, got)
	assert.Equal(t, []string{"new"}, got.Get("sn"))
	assert.Equal(t, []string{"a@example.com"}, got.Get("mail"))
	assert.Equal(t, []string{"old"}, base.Get("sn"))
	assert.False(t, base.Has("mail"))
}

// TestMergeUpdatesAddDelete tests adds over a missing base and deletes.
func TestMergeUpdatesAddDelete(t *testing.T) {
	e := entry.New("cn=new,dc=com")
	e.Set("cn", "new")

	add := writer(t, NewAddChange("users", 5, e))
	got := mergeUpdates([]*ReadWriteTxn{add}, "users", 5, nil)
	require.NotNil(t, got)
	assert.True(t, e.Equal(got))

	del := writer(t, NewDeleteChange("users", 5, e.UUID))
	assert.Nil(t, mergeUpdates([]*ReadWriteTxn{add, del}, "users", 5, nil))

	readd := writer(t, NewAddChange("users", 5, e))
	assert.NotNil(t, mergeUpdates([]*ReadWriteTxn{add, del, readd}, "users", 5, nil))
}

// TestMergeUpdatesModifyDeleted tests that a modify of a deleted entry is ignored.
func TestMergeUpdatesModifyDeleted(t *testing.T) {
	base := entry.New("cn=a,dc=com")
	t1 := writer(t,
		NewDeleteChange("users", 1, base.UUID),
		NewModifyChange("users", 1, base.UUID, replace("sn", "x")),
	)
	assert.Nil(t, mergeUpdates([]*ReadWriteTxn{t1}, "users", 1, base))
}

// TestMergeUpdatesMatchesUUID tests that the UUID wins over the entry ID.
func TestMergeUpdatesMatchesUUID(t *testing.T) {
	base := entry.New("cn=a,dc=com")
	foreign := writer(t, NewModifyChange("users", 1, "some-other-uuid", replace("sn", "x")))
	assert.Same(t, base, mergeUpdates([]*ReadWriteTxn{foreign}, "users", 1, base))

	moved := writer(t, NewModifyChange("archive", 99, base.UUID, replace("sn", "x")))
	got := mergeUpdates([]*ReadWriteTxn{moved}, "users", 1, base)
	assert.Equal(t, []string{"x"}, got.Get("sn"))
}

// TestMergeUpdatesMatchesReplay tests that merging equals applying every
// change to a private copy one by one.
func TestMergeUpdatesMatchesReplay(t *testing.T) {
	base := entry.New("cn=a,dc=com")
	base.Set("description", "one", "two")

	mods := [][]entry.Modification{
		{replace("sn", "s1")},
		{{Type: entry.ModifyAdd, Attribute: "description", Values: []string{"three"}}},
		{{Type: entry.ModifyDelete, Attribute: "description", Values: []string{"one"}}},
		{{Type: entry.ModifyDelete, Attribute: "sn"}},
	}

	var deps []*ReadWriteTxn
	want := base.Clone()
	for _, m := range mods {
		deps = append(deps, writer(t, NewModifyChange("users", 1, base.UUID, m...)))
		for _, mod := range m {
			mod.Apply(want)
		}
	}

	got := mergeUpdates(deps, "users", 1, base)
	assert.True(t, want.Equal(got))
}
