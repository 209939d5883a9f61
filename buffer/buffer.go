// Package buffer provides the growable byte buffer shared by the SSZ
// builder, the RLP encoder and the precompile outputs. A Buffer runs in one
// of three allocation modes: grow on demand, pre-sized heap storage that may
// still grow, or a fixed-capacity buffer over caller-provided memory that
// never reallocates.
package buffer

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
)

// Mode selects how a Buffer obtains memory.
type Mode uint8

const (
	// Dynamic grows the backing slice whenever more room is needed.
	Dynamic Mode = iota
	// Presized starts from a caller-chosen capacity and grows beyond it.
	Presized
	// Fixed never reallocates; writes beyond capacity are truncated.
	Fixed
)

// ErrOverflow is reported by Err when a fixed buffer dropped bytes.
var ErrOverflow = errors.New("buffer: fixed capacity exceeded")

// Buffer is an append-oriented byte buffer. The zero value is an empty
// dynamic buffer ready for use.
type Buffer struct {
	data       []byte
	mode       Mode
	overflowed bool
}

// New returns an empty dynamic buffer.
func New() *Buffer { return &Buffer{} }

// NewWithCapacity returns a buffer whose first allocation holds n bytes.
func NewWithCapacity(n int) *Buffer {
	if n < 0 {
		n = 0
	}
	return &Buffer{data: make([]byte, 0, n), mode: Presized}
}

// NewFixed returns a buffer writing into backing[:0]. The capacity of
// backing is the hard limit.
func NewFixed(backing []byte) *Buffer {
	return &Buffer{data: backing[:0], mode: Fixed}
}

// From wraps b as the current content of a dynamic buffer.
func From(b []byte) *Buffer { return &Buffer{data: b} }

// Mode returns the allocation mode.
func (b *Buffer) Mode() Mode { return b.mode }

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the current capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Bytes returns the written bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data }

// Overflowed reports whether a fixed buffer truncated a write.
func (b *Buffer) Overflowed() bool { return b.overflowed }

// Err returns ErrOverflow if bytes were dropped, nil otherwise.
func (b *Buffer) Err() error {
	if b.overflowed {
		return ErrOverflow
	}
	return nil
}

// Reset empties the buffer but keeps its memory.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.overflowed = false
}

// Grow makes room for at least n more bytes and returns how many bytes can
// actually be appended without truncation.
func (b *Buffer) Grow(n int) int {
	free := cap(b.data) - len(b.data)
	if n <= free {
		return n
	}
	if b.mode == Fixed {
		return free
	}
	newCap := 2*cap(b.data) + n
	if newCap < 64 {
		newCap = 64
	}
	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
	return n
}

// Write appends p. It never fails for growable buffers; a fixed buffer
// appends what fits and reports ErrOverflow.
func (b *Buffer) Write(p []byte) (int, error) {
	n := b.Grow(len(p))
	b.data = append(b.data, p[:n]...)
	if n < len(p) {
		b.overflowed = true
		return n, ErrOverflow
	}
	return n, nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	if b.Grow(1) < 1 {
		b.overflowed = true
		return ErrOverflow
	}
	b.data = append(b.data, c)
	return nil
}

// Append is Write without the error result.
func (b *Buffer) Append(p ...byte) *Buffer {
	b.Write(p)
	return b
}

// Zeros appends n zero bytes.
func (b *Buffer) Zeros(n int) {
	if n <= 0 {
		return
	}
	m := b.Grow(n)
	for i := 0; i < m; i++ {
		b.data = append(b.data, 0)
	}
	if m < n {
		b.overflowed = true
	}
}

func (b *Buffer) AppendUint16LE(v uint16) { b.Write(binary.LittleEndian.AppendUint16(nil, v)) }
func (b *Buffer) AppendUint32LE(v uint32) { b.Write(binary.LittleEndian.AppendUint32(nil, v)) }
func (b *Buffer) AppendUint64LE(v uint64) { b.Write(binary.LittleEndian.AppendUint64(nil, v)) }
func (b *Buffer) AppendUint16BE(v uint16) { b.Write(binary.BigEndian.AppendUint16(nil, v)) }
func (b *Buffer) AppendUint32BE(v uint32) { b.Write(binary.BigEndian.AppendUint32(nil, v)) }
func (b *Buffer) AppendUint64BE(v uint64) { b.Write(binary.BigEndian.AppendUint64(nil, v)) }

// PutUint32LE overwrites four bytes at offset. It is used to patch SSZ
// offset slots once the variable part has been laid out.
func (b *Buffer) PutUint32LE(offset int, v uint32) bool {
	if offset < 0 || offset+4 > len(b.data) {
		return false
	}
	binary.LittleEndian.PutUint32(b.data[offset:], v)
	return true
}

// Slice returns data[offset:offset+n], or nil if the range is outside the
// written bytes.
func (b *Buffer) Slice(offset, n int) []byte {
	if offset < 0 || n < 0 || offset+n > len(b.data) {
		return nil
	}
	return b.data[offset : offset+n]
}

// Splice removes del bytes at offset and inserts ins in their place. The
// offset is clamped to the written length. A fixed buffer keeps as much of
// the tail as fits.
func (b *Buffer) Splice(offset, del int, ins []byte) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.data) {
		offset = len(b.data)
	}
	if del < 0 {
		del = 0
	}
	if offset+del > len(b.data) {
		del = len(b.data) - offset
	}
	tail := append([]byte(nil), b.data[offset+del:]...)
	b.data = b.data[:offset]
	b.Write(ins)
	b.Write(tail)
}

// Clone returns a copy of the written bytes.
func (b *Buffer) Clone() []byte {
	return append([]byte(nil), b.data...)
}

// AppendHex decodes a hex string (with or without 0x prefix) and appends
// the bytes.
func (b *Buffer) AppendHex(s string) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	b.Write(raw)
	return nil
}

// Hex returns the content as a 0x-prefixed lowercase hex string.
func (b *Buffer) Hex() string {
	return "0x" + hex.EncodeToString(b.data)
}
