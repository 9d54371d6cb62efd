// Package wal provides the append-only write-ahead log that backs the
// transaction core. Every record is assigned a strictly increasing log
// sequence number (LSN); LSNs double as the logical clock of the engine.
package wal

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"
)

// WAL constants.
const (
	// DefaultBufferSize is the default size of the WAL write buffer.
	DefaultBufferSize = 64 * 1024

	// recordHeaderSize is the framing header of every record:
	//   - Bytes 0-3:   payload length (uint32)
	//   - Bytes 4-11:  LSN (uint64)
	//   - Bytes 12-19: xxhash64 of LSN and payload (uint64)
	recordHeaderSize = 20

	// MaxPayloadSize bounds a single record payload.
	MaxPayloadSize = 16 * 1024 * 1024
)

// WAL errors.
var (
	ErrClosed          = errors.New("WAL is closed")
	ErrChecksum        = errors.New("WAL record checksum mismatch")
	ErrPayloadTooLarge = errors.New("WAL record payload exceeds maximum size")
	ErrEmptyPayload    = errors.New("WAL record payload is empty")
	ErrFailed          = errors.New("WAL failed on an earlier write")
)

// Log is the durable append-only log consumed by the transaction core.
type Log interface {
	// Append writes payload as one record and returns its LSN. When sync is
	// true the record, and every record before it, is durable on return.
	Append(payload []byte, sync bool) (uint64, error)
}

// Record is a single record read back from the log.
type Record struct {
	LSN     uint64
	Payload []byte
}

// WAL is a file-backed Log.
type WAL struct {
	file       *os.File
	path       string
	currentLSN uint64
	buffer     []byte
	bufferPos  int
	closed     bool

	// failed is the write error that stopped the log. A failed log rejects
	// further appends and never flushes its buffer.
	failed error

	// size is the number of bytes written to the file, excluding the buffer.
	size int64

	mu sync.Mutex
}

var _ Log = (*WAL)(nil)

// Open opens or creates a WAL file at the given path with the default buffer size.
func Open(path string) (*WAL, error) {
	return OpenWithBufferSize(path, DefaultBufferSize)
}

// OpenWithBufferSize opens or creates a WAL file with the given write buffer size.
func OpenWithBufferSize(path string, bufferSize int) (*WAL, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open WAL %s", path)
	}

	w := &WAL{
		file:   file,
		path:   path,
		buffer: make([]byte, bufferSize),
	}

	if err := w.recover(); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

// recover scans existing records, truncates a torn tail and restores the LSN counter.
func (w *WAL) recover() error {
	info, err := w.file.Stat()
	if err != nil {
		return errors.Wrap(err, "stat WAL")
	}

	var offset int64
	var maxLSN uint64
	for offset < info.Size() {
		record, n, err := readRecordAt(w.file, offset)
		if err != nil {
			// Torn or corrupted tail, truncate here
			break
		}
		maxLSN = record.LSN
		offset += n
	}

	if err := w.file.Truncate(offset); err != nil {
		return errors.Wrap(err, "truncate WAL tail")
	}
	if _, err := w.file.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek WAL end")
	}

	w.size = offset
	w.currentLSN = maxLSN + 1
	return nil
}

// Append writes a record and returns its LSN.
func (w *WAL) Append(payload []byte, sync bool) (uint64, error) {
	if len(payload) == 0 {
		return 0, ErrEmptyPayload
	}
	if len(payload) > MaxPayloadSize {
		return 0, ErrPayloadTooLarge
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}
	if w.failed != nil {
		return 0, errors.Wrap(ErrFailed, w.failed.Error())
	}

	lsn := w.currentLSN
	total := recordHeaderSize + len(payload)
	recordStart := w.size + int64(w.bufferPos)

	if w.bufferPos+total > len(w.buffer) {
		if err := w.flushBuffer(); err != nil {
			return 0, w.fail(err, recordStart)
		}
	}

	if total > len(w.buffer) {
		// Oversized records bypass the buffer
		n, err := w.file.Write(encodeRecord(lsn, payload))
		w.size += int64(n)
		if err != nil {
			return 0, w.fail(errors.Wrap(err, "write WAL record"), recordStart)
		}
	} else {
		putRecord(w.buffer[w.bufferPos:], lsn, payload)
		w.bufferPos += total
	}

	if sync {
		if err := w.syncLocked(); err != nil {
			return 0, w.fail(err, recordStart)
		}
	}

	w.currentLSN++
	return lsn, nil
}

// fail stops the log after a write error. The record that started at
// recordStart was never acknowledged, so it is cut from the file and the
// buffer is dropped; a torn tail left behind is removed by recover on the
// next open.
func (w *WAL) fail(err error, recordStart int64) error {
	w.failed = err
	w.bufferPos = 0
	if w.size > recordStart {
		if terr := w.file.Truncate(recordStart); terr == nil {
			w.size = recordStart
		}
	}
	return err
}

// flushBuffer writes the buffer contents to the file.
func (w *WAL) flushBuffer() error {
	if w.bufferPos == 0 {
		return nil
	}

	n, err := w.file.Write(w.buffer[:w.bufferPos])
	w.size += int64(n)
	if err != nil {
		return errors.Wrap(err, "flush WAL buffer")
	}

	w.bufferPos = 0
	return nil
}

func (w *WAL) syncLocked() error {
	if err := w.flushBuffer(); err != nil {
		return err
	}
	return errors.Wrap(w.file.Sync(), "sync WAL")
}

// Sync ensures all WAL records are durably written to disk.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.failed != nil {
		return errors.Wrap(ErrFailed, w.failed.Error())
	}
	if err := w.syncLocked(); err != nil {
		return w.fail(err, w.size)
	}
	return nil
}

// CurrentLSN returns the LSN that the next Append will assign.
func (w *WAL) CurrentLSN() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentLSN
}

// Path returns the file path of the log.
func (w *WAL) Path() string {
	return w.path
}

// Iterator returns an iterator over all records with LSN >= startLSN.
// Buffered records are flushed first so that they are visible.
func (w *WAL) Iterator(startLSN uint64) (*Iterator, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := w.flushBuffer(); err != nil {
		return nil, err
	}

	return &Iterator{r: w.file, end: w.size, startLSN: startLSN}, nil
}

// Close flushes, syncs and closes the WAL file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if w.failed == nil {
		if err := w.syncLocked(); err != nil {
			return err
		}
	}

	w.closed = true
	return errors.Wrap(w.file.Close(), "close WAL")
}

// Iterator iterates over WAL records in LSN order.
type Iterator struct {
	r        io.ReaderAt
	end      int64
	offset   int64
	startLSN uint64
	record   Record
	err      error
}

// Next advances to the next record and returns true if one is available.
func (it *Iterator) Next() bool {
	for it.err == nil && it.offset < it.end {
		record, n, err := readRecordAt(it.r, it.offset)
		if err != nil {
			it.err = err
			return false
		}
		it.offset += n
		if record.LSN < it.startLSN {
			continue
		}
		it.record = record
		return true
	}
	return false
}

// Record returns the current record.
func (it *Iterator) Record() Record {
	return it.record
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// OpenIterator opens a WAL file read-only and iterates it from startLSN.
// The returned close function releases the file.
func OpenIterator(path string, startLSN uint64) (*Iterator, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open WAL %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, errors.Wrap(err, "stat WAL")
	}
	return &Iterator{r: file, end: info.Size(), startLSN: startLSN}, file.Close, nil
}

func checksum(lsn uint64, payload []byte) uint64 {
	h := xxhash.New64()
	var lsnBuf [8]byte
	binary.LittleEndian.PutUint64(lsnBuf[:], lsn)
	h.Write(lsnBuf[:])
	h.Write(payload)
	return h.Sum64()
}

func putRecord(buf []byte, lsn uint64, payload []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint64(buf[4:12], lsn)
	binary.LittleEndian.PutUint64(buf[12:20], checksum(lsn, payload))
	copy(buf[recordHeaderSize:], payload)
}

func encodeRecord(lsn uint64, payload []byte) []byte {
	buf := make([]byte, recordHeaderSize+len(payload))
	putRecord(buf, lsn, payload)
	return buf
}

// readRecordAt decodes the record at offset and returns it with its framed size.
func readRecordAt(r io.ReaderAt, offset int64) (Record, int64, error) {
	var header [recordHeaderSize]byte
	if _, err := r.ReadAt(header[:], offset); err != nil {
		return Record{}, 0, errors.Wrapf(err, "read WAL header at %d", offset)
	}

	length := binary.LittleEndian.Uint32(header[0:4])
	if length == 0 || length > MaxPayloadSize {
		return Record{}, 0, errors.Errorf("invalid WAL record length %d at %d", length, offset)
	}

	lsn := binary.LittleEndian.Uint64(header[4:12])
	sum := binary.LittleEndian.Uint64(header[12:20])

	payload := make([]byte, length)
	if _, err := r.ReadAt(payload, offset+recordHeaderSize); err != nil {
		return Record{}, 0, errors.Wrapf(err, "read WAL payload at %d", offset)
	}
	if checksum(lsn, payload) != sum {
		return Record{}, 0, errors.Wrapf(ErrChecksum, "LSN %d", lsn)
	}

	return Record{LSN: lsn, Payload: payload}, recordHeaderSize + int64(length), nil
}
