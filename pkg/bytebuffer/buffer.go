// Package bytebuffer implements the growable little-endian byte buffer the
// wire serializer writes into.
//
// Encoding rules:
//   - fixed-width integers are little-endian
//   - varints are LEB128: 7 payload bits per byte, high bit set on every byte
//     except the last, minimal length
//   - strings are varint(byteLength) followed by the UTF-8 bytes
//
// A Buffer has a single cursor shared by reads and writes. Writing at the
// cursor overwrites or extends the backing store; the written region is
// everything up to the highest offset ever written (Len).
package bytebuffer

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// DefaultCapacity is the initial capacity used by New(0).
const DefaultCapacity = 32

// MaxVarint32Len is the longest encoding of a 32-bit varint.
const MaxVarint32Len = 5

// MaxVarint64Len is the longest encoding of a 64-bit varint.
const MaxVarint64Len = 10

// Buffer is a growable byte buffer with a read/write cursor.
type Buffer struct {
	data   []byte
	offset int
	limit  int // end of the written (or wrapped) region
	mark   int
}

// New allocates an empty buffer with the given capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]byte, capacity), mark: -1}
}

// Wrap returns a buffer positioned at the start of b for reading. b is not
// copied.
func Wrap(b []byte) *Buffer {
	return &Buffer{data: b, limit: len(b), mark: -1}
}

// Offset returns the cursor position.
func (b *Buffer) Offset() int { return b.offset }

// Len returns the length of the written region.
func (b *Buffer) Len() int { return b.limit }

// Remaining returns the number of readable bytes after the cursor.
func (b *Buffer) Remaining() int { return b.limit - b.offset }

// Capacity returns the size of the backing store.
func (b *Buffer) Capacity() int { return len(b.data) }

// Seek moves the cursor to off within the written region.
func (b *Buffer) Seek(off int) error {
	if off < 0 || off > b.limit {
		return hiveerr.OutOfRange("seek to %d outside [0, %d]", off, b.limit)
	}
	b.offset = off
	return nil
}

// Mark remembers the cursor so Reset can return to it.
func (b *Buffer) Mark() { b.mark = b.offset }

// Reset moves the cursor back to the last Mark, or to the start when no mark
// was set.
func (b *Buffer) Reset() {
	if b.mark >= 0 {
		b.offset = b.mark
		return
	}
	b.offset = 0
}

// Bytes returns a copy of the written region.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.limit)
	copy(out, b.data[:b.limit])
	return out
}

// ensure grows the backing store so n more bytes fit at the cursor. Capacity
// doubles until it is large enough; existing bytes are copied over.
func (b *Buffer) ensure(n int) {
	need := b.offset + n
	if need <= len(b.data) {
		return
	}
	capacity := len(b.data)
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	for capacity < need {
		capacity *= 2
	}
	grown := make([]byte, capacity)
	copy(grown, b.data[:b.limit])
	b.data = grown
}

func (b *Buffer) advance(n int) {
	b.offset += n
	if b.offset > b.limit {
		b.limit = b.offset
	}
}

// WriteBytes appends p verbatim.
func (b *Buffer) WriteBytes(p []byte) {
	b.ensure(len(p))
	copy(b.data[b.offset:], p)
	b.advance(len(p))
}

// WriteUint8 writes a single byte.
func (b *Buffer) WriteUint8(v uint8) {
	b.ensure(1)
	b.data[b.offset] = v
	b.advance(1)
}

// WriteBool writes 0x01 for true and 0x00 for false.
func (b *Buffer) WriteBool(v bool) {
	if v {
		b.WriteUint8(1)
		return
	}
	b.WriteUint8(0)
}

// WriteUint16 writes v little-endian.
func (b *Buffer) WriteUint16(v uint16) {
	b.ensure(2)
	binary.LittleEndian.PutUint16(b.data[b.offset:], v)
	b.advance(2)
}

// WriteUint32 writes v little-endian.
func (b *Buffer) WriteUint32(v uint32) {
	b.ensure(4)
	binary.LittleEndian.PutUint32(b.data[b.offset:], v)
	b.advance(4)
}

// WriteUint64 writes v little-endian.
func (b *Buffer) WriteUint64(v uint64) {
	b.ensure(8)
	binary.LittleEndian.PutUint64(b.data[b.offset:], v)
	b.advance(8)
}

// WriteInt8 writes v as one two's complement byte.
func (b *Buffer) WriteInt8(v int8) { b.WriteUint8(uint8(v)) }

// WriteInt16 writes v as two little-endian bytes.
func (b *Buffer) WriteInt16(v int16) { b.WriteUint16(uint16(v)) }

// WriteInt32 writes v as four little-endian bytes.
func (b *Buffer) WriteInt32(v int32) { b.WriteUint32(uint32(v)) }

// WriteInt64 writes v as eight little-endian bytes.
func (b *Buffer) WriteInt64(v int64) { b.WriteUint64(uint64(v)) }

// WriteVarint32 writes v as a minimal LEB128 varint.
func (b *Buffer) WriteVarint32(v uint32) {
	b.WriteVarint64(uint64(v))
}

// WriteVarint64 writes v as a minimal LEB128 varint.
func (b *Buffer) WriteVarint64(v uint64) {
	b.ensure(MaxVarint64Len)
	n := binary.PutUvarint(b.data[b.offset:], v)
	b.advance(n)
}

// WriteVString writes varint(len(s)) followed by the bytes of s.
func (b *Buffer) WriteVString(s string) {
	b.WriteVarint32(uint32(len(s)))
	b.WriteBytes([]byte(s))
}

// WriteVBytes writes varint(len(p)) followed by p.
func (b *Buffer) WriteVBytes(p []byte) {
	b.WriteVarint32(uint32(len(p)))
	b.WriteBytes(p)
}

func (b *Buffer) need(n int, what string) error {
	if n < 0 || b.Remaining() < n {
		return errors.Wrapf(hiveerr.OutOfRange("need %d bytes at offset %d, have %d",
			n, b.offset, b.Remaining()), "read %s", what)
	}
	return nil
}

// ReadBytes reads exactly n bytes. The returned slice is a copy.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if err := b.need(n, "bytes"); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b.data[b.offset:b.offset+n])
	b.offset += n
	return out, nil
}

// ReadUint8 reads a single byte.
func (b *Buffer) ReadUint8() (uint8, error) {
	if err := b.need(1, "uint8"); err != nil {
		return 0, err
	}
	v := b.data[b.offset]
	b.offset++
	return v, nil
}

// ReadBool reads a byte and reports whether it is non-zero.
func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadUint8()
	return v != 0, err
}

// ReadUint16 reads a little-endian uint16.
func (b *Buffer) ReadUint16() (uint16, error) {
	if err := b.need(2, "uint16"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(b.data[b.offset:])
	b.offset += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (b *Buffer) ReadUint32() (uint32, error) {
	if err := b.need(4, "uint32"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(b.data[b.offset:])
	b.offset += 4
	return v, nil
}

// ReadUint64 reads a little-endian uint64.
func (b *Buffer) ReadUint64() (uint64, error) {
	if err := b.need(8, "uint64"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(b.data[b.offset:])
	b.offset += 8
	return v, nil
}

// ReadInt8 reads a signed integer from one byte.
func (b *Buffer) ReadInt8() (int8, error) {
	v, err := b.ReadUint8()
	return int8(v), err
}

// ReadInt16 reads a signed integer from two little-endian bytes.
func (b *Buffer) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

// ReadInt32 reads a signed integer from four little-endian bytes.
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads a signed integer from eight little-endian bytes.
func (b *Buffer) ReadInt64() (int64, error) {
	v, err := b.ReadUint64()
	return int64(v), err
}

// ReadVarint64 reads a LEB128 varint of at most 10 bytes.
func (b *Buffer) ReadVarint64() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < MaxVarint64Len; i++ {
		c, err := b.ReadUint8()
		if err != nil {
			return 0, errors.Wrap(err, "truncated varint")
		}
		result |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, hiveerr.Malformed("varint longer than %d bytes", MaxVarint64Len)
}

// ReadVarint32 reads a LEB128 varint that must fit in 32 bits.
func (b *Buffer) ReadVarint32() (uint32, error) {
	v, err := b.ReadVarint64()
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, hiveerr.OutOfRange("varint %d overflows uint32", v)
	}
	return uint32(v), nil
}

// ReadVBytes reads a varint length followed by that many bytes.
func (b *Buffer) ReadVBytes() ([]byte, error) {
	n, err := b.ReadVarint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(b.Remaining()) {
		return nil, hiveerr.OutOfRange("length prefix %d exceeds remaining %d", n, b.Remaining())
	}
	return b.ReadBytes(int(n))
}

// ReadVString reads a length-prefixed string. The payload must be valid UTF-8.
func (b *Buffer) ReadVString() (string, error) {
	p, err := b.ReadVBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", hiveerr.Malformed("string is not valid UTF-8")
	}
	return string(p), nil
}
