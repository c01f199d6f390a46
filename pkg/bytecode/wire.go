package bytecode

import (
	"bytes"
	"encoding/binary"

	ravmerr "github.com/tensorlang/ravm/errors"
)

// Writer accumulates a little-endian byte stream. It is the write half of
// the wire codec primitives: fixed-width integers, length-prefixed
// strings, and length-prefixed vectors, all little-endian per the wire
// format.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated stream. The returned slice aliases the
// Writer's internal buffer; callers that need to keep it past further
// writes, or past the lifetime of the container that produced it, must
// copy it first.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteRaw appends raw bytes with no length prefix.
func (w *Writer) WriteRaw(b []byte) {
	w.buf.Write(b)
}

// WriteUint64 appends v as 8 little-endian bytes.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteInt64 appends v as 8 little-endian bytes.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteString appends s as a u64 length prefix followed by its raw bytes.
// UTF-8 is assumed but not validated.
func (w *Writer) WriteString(s string) {
	w.WriteUint64(uint64(len(s)))
	w.buf.WriteString(s)
}

// WriteVecString appends a u64 count followed by each element via
// WriteString, in order.
func (w *Writer) WriteVecString(items []string) {
	w.WriteUint64(uint64(len(items)))
	for _, s := range items {
		w.WriteString(s)
	}
}

// Reader consumes a little-endian byte stream produced by Writer. Every
// read checks the requested size against the bytes actually remaining
// before touching the buffer, so a maliciously large length prefix fails
// with ErrTruncatedStream instead of allocating eagerly.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for reading. data is not copied; the Reader must
// not outlive mutation of the underlying array.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Pos returns the current read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// ReadRaw reads exactly n raw bytes.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ravmerr.ErrTruncatedStream
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint64 reads 8 little-endian bytes.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadRaw(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads 8 little-endian bytes as a signed integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadString reads a u64 length prefix followed by that many raw bytes.
// The length is validated against the bytes remaining before any
// allocation is made.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return "", err
	}
	if uint64(r.Remaining()) < n {
		return "", ravmerr.ErrTruncatedStream
	}
	b, err := r.ReadRaw(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadVecString reads a u64 count followed by that many strings via
// ReadString.
func (r *Reader) ReadVecString() ([]string, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	// A vector of empty strings still costs 8 bytes on the wire each
	// (their own length prefix), so bound the count against what could
	// possibly remain before allocating the slice. Divide rather than
	// multiply n by 8 to avoid overflow on an adversarial huge count.
	if n > 0 && n > uint64(r.Remaining())/8 {
		return nil, ravmerr.ErrTruncatedStream
	}
	items := make([]string, n)
	for i := range items {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		items[i] = s
	}
	return items, nil
}
