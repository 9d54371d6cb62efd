package txn

import (
	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/obatxn/internal/entry"
	"github.com/KilimcininKorOglu/obatxn/internal/storage/index"
)

// EditKind identifies the concrete type of a LogEdit on the wire.
type EditKind uint8

const (
	// EditTxnMarker is a transaction BEGIN, COMMIT or ABORT marker.
	EditTxnMarker EditKind = iota + 1
	// EditDataChange is a change to one entry and its index tuples.
	EditDataChange
)

// String returns the string representation of an EditKind.
func (k EditKind) String() string {
	switch k {
	case EditTxnMarker:
		return "TxnMarker"
	case EditDataChange:
		return "DataChange"
	default:
		return "Unknown"
	}
}

// LogEdit is one record of a transaction's write log.
type LogEdit interface {
	// Kind returns the wire kind of the edit.
	Kind() EditKind
	// Position returns the LSN the edit was logged at, or 0.
	Position() uint64
	// SetPosition records the LSN returned by the log.
	SetPosition(lsn uint64)
}

// MarkerType is the type of a TxnMarker.
type MarkerType uint8

const (
	// MarkerBegin opens a write transaction; its LSN is the start time.
	MarkerBegin MarkerType = iota + 1
	// MarkerCommit commits a write transaction; its LSN is the commit time.
	MarkerCommit
	// MarkerAbort aborts a write transaction.
	MarkerAbort
)

// String returns the string representation of a MarkerType.
func (m MarkerType) String() string {
	switch m {
	case MarkerBegin:
		return "BEGIN"
	case MarkerCommit:
		return "COMMIT"
	case MarkerAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}

// TxnMarker records a transaction state change in the log.
type TxnMarker struct {
	Type MarkerType `codec:"type"`

	// TxnStart is the start time of the transaction the marker belongs to.
	// It is zero on BEGIN markers, whose own LSN becomes the start time.
	TxnStart uint64 `codec:"start"`

	position uint64
}

// Kind returns EditTxnMarker.
func (m *TxnMarker) Kind() EditKind { return EditTxnMarker }

// Position returns the LSN of the marker.
func (m *TxnMarker) Position() uint64 { return m.position }

// SetPosition records the LSN of the marker.
func (m *TxnMarker) SetPosition(lsn uint64) { m.position = lsn }

// ChangeOp is the entry-level operation of a DataChange.
type ChangeOp uint8

const (
	// ChangeAdd stores a whole entry.
	ChangeAdd ChangeOp = iota + 1
	// ChangeDelete removes a whole entry.
	ChangeDelete
	// ChangeModify applies attribute modifications to an entry.
	ChangeModify
)

// String returns the string representation of a ChangeOp.
func (op ChangeOp) String() string {
	switch op {
	case ChangeAdd:
		return "add"
	case ChangeDelete:
		return "delete"
	case ChangeModify:
		return "modify"
	default:
		return "unknown"
	}
}

// IndexOp is the operation of an IndexChange.
type IndexOp uint8

const (
	// IndexAdd adds a tuple to both sides of an attribute index.
	IndexAdd IndexOp = iota + 1
	// IndexDelete removes a tuple from both sides of an attribute index.
	IndexDelete
)

// IndexChange is a pending change to one attribute index tuple.
type IndexChange struct {
	Attribute string      `codec:"attr"`
	Entry     index.Entry `codec:"entry"`
	Op        IndexOp     `codec:"op"`
}

// DataChange is a change to one entry of a partition together with the
// index maintenance it implies.
type DataChange struct {
	Partition string   `codec:"partition"`
	EntryID   uint64   `codec:"id"`
	EntryUUID string   `codec:"uuid"`
	Op        ChangeOp `codec:"op"`

	// Entry is the stored entry of a ChangeAdd.
	Entry *entry.Entry `codec:"entry"`

	// Mods are the modifications of a ChangeModify.
	Mods []entry.Modification `codec:"mods"`

	IndexChanges []IndexChange `codec:"index"`

	position uint64
}

// NewAddChange returns a DataChange storing a copy of e under id. An add
// without an entry is rejected when it is encoded.
func NewAddChange(partition string, id uint64, e *entry.Entry) *DataChange {
	c := &DataChange{Partition: partition, EntryID: id, Op: ChangeAdd}
	if e != nil {
		c.EntryUUID = e.UUID
		c.Entry = e.Clone()
	}
	return c
}

// NewDeleteChange returns a DataChange deleting the entry stored under id.
func NewDeleteChange(partition string, id uint64, uuid string) *DataChange {
	return &DataChange{Partition: partition, EntryID: id, EntryUUID: uuid, Op: ChangeDelete}
}

// NewModifyChange returns a DataChange applying mods to the entry stored under id.
func NewModifyChange(partition string, id uint64, uuid string, mods ...entry.Modification) *DataChange {
	return &DataChange{Partition: partition, EntryID: id, EntryUUID: uuid, Op: ChangeModify, Mods: mods}
}

// AddIndex records that (value, EntryID) is added to attribute's index.
func (c *DataChange) AddIndex(attribute string, value []byte) *DataChange {
	c.IndexChanges = append(c.IndexChanges, IndexChange{
		Attribute: attribute,
		Entry:     index.NewEntry(value, c.EntryID),
		Op:        IndexAdd,
	})
	return c
}

// DeleteIndex records that (value, EntryID) is removed from attribute's index.
func (c *DataChange) DeleteIndex(attribute string, value []byte) *DataChange {
	c.IndexChanges = append(c.IndexChanges, IndexChange{
		Attribute: attribute,
		Entry:     index.NewEntry(value, c.EntryID),
		Op:        IndexDelete,
	})
	return c
}

// Kind returns EditDataChange.
func (c *DataChange) Kind() EditKind { return EditDataChange }

// Position returns the LSN of the change.
func (c *DataChange) Position() uint64 { return c.position }

// SetPosition records the LSN of the change.
func (c *DataChange) SetPosition(lsn uint64) { c.position = lsn }

// matches reports whether the change targets the given entry. The entry UUID
// wins when both sides carry one.
func (c *DataChange) matches(partition string, entryID uint64, uuid string) bool {
	if uuid != "" && c.EntryUUID != "" {
		return uuid == c.EntryUUID
	}
	return c.Partition == partition && c.EntryID == entryID
}

// msgpackHandle is shared by all edit encoders and decoders.
var msgpackHandle = &codec.MsgpackHandle{}

// AppendEdit serializes edit as a kind byte followed by its msgpack body,
// appending to buf.
func AppendEdit(buf []byte, edit LogEdit) ([]byte, error) {
	if dc, ok := edit.(*DataChange); ok && dc.Op == ChangeAdd && dc.Entry == nil {
		return buf, errors.Wrapf(ErrEncodeEdit, "%s: add of entry %d has no entry", edit.Kind(), dc.EntryID)
	}

	var body []byte
	if err := codec.NewEncoderBytes(&body, msgpackHandle).Encode(edit); err != nil {
		return buf, errors.Wrapf(ErrEncodeEdit, "%s: %v", edit.Kind(), err)
	}

	buf = append(buf, byte(edit.Kind()))
	return append(buf, body...), nil
}

// DecodeEdit is the inverse of AppendEdit. The position of the returned edit
// is left at zero; callers set it from the log record.
func DecodeEdit(data []byte) (LogEdit, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrDecodeEdit, "empty record")
	}

	var edit LogEdit
	switch EditKind(data[0]) {
	case EditTxnMarker:
		edit = &TxnMarker{}
	case EditDataChange:
		edit = &DataChange{}
	default:
		return nil, errors.Wrapf(ErrDecodeEdit, "unknown edit kind %d", data[0])
	}

	if err := codec.NewDecoderBytes(data[1:], msgpackHandle).Decode(edit); err != nil {
		return nil, errors.Wrapf(ErrDecodeEdit, "%s: %v", EditKind(data[0]), err)
	}
	return edit, nil
}
