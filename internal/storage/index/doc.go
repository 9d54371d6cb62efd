// Package index defines the cursor contract of a persisted attribute index
// and a btree-backed implementation of it.
//
// # Sides
//
// Every attribute index has two sides over the same (value, entry ID)
// tuples:
//
//	index.Forward   // ordered by value, then ID
//	index.Reverse   // ordered by ID, then value
//
// The primary key of a side is its first sort component. BeforeValue,
// AfterValue and key-locked cursors operate on primary keys.
//
// # Cursors
//
// A Cursor sits on an entry or between two entries:
//
//	cur, _ := idx.Cursor(index.Forward)
//	defer cur.Close()
//
//	cur.BeforeFirst()
//	for {
//	    ok, err := cur.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	    e, _ := cur.Get()
//	}
//
// KeyCursor restricts iteration to one value (forward) or one entry ID
// (reverse); positioning outside of it fails with ErrUnsupportedPosition.
//
// # In-Memory Index
//
// MemIndex keeps both sides in github.com/google/btree trees. Cursors work on
// a copy-on-write clone, so writers never disturb open cursors.
package index
