package ssz

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eth2030/stateless/buffer"
	"github.com/eth2030/stateless/u256"
)

// MarshalUint encodes v little-endian into size bytes.
func MarshalUint(v uint64, size int) []byte {
	out := make([]byte, size)
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], v)
	copy(out, le[:])
	return out
}

// MarshalBool encodes a boolean as a single byte.
func MarshalBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// MarshalBitvector packs bits least significant bit first.
func MarshalBitvector(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return out
}

// MarshalBitlist packs bits and appends the sentinel bit.
func MarshalBitlist(bits []bool) []byte {
	out := make([]byte, len(bits)/8+1)
	copy(out, MarshalBitvector(bits))
	out[len(bits)/8] |= 1 << (uint(len(bits)) % 8)
	return out
}

// EncodeList serializes already encoded elements of elem as a list or
// vector body, writing an offset table first for dynamic elements.
func EncodeList(elem *Def, items [][]byte) []byte {
	if !elem.IsDynamic() {
		buf := buffer.New()
		for _, it := range items {
			buf.Write(it)
		}
		return buf.Bytes()
	}
	size := len(items) * BytesPerLengthOffset
	for _, it := range items {
		size += len(it)
	}
	buf := buffer.NewWithCapacity(size)
	off := uint32(len(items) * BytesPerLengthOffset)
	for _, it := range items {
		buf.AppendUint32LE(off)
		off += uint32(len(it))
	}
	for _, it := range items {
		buf.Write(it)
	}
	return buf.Bytes()
}

// EncodeUnion serializes a union value behind its selector.
func EncodeUnion(selector byte, value []byte) []byte {
	out := make([]byte, 1+len(value))
	out[0] = selector
	copy(out[1:], value)
	return out
}

// Default returns the serialization of d's default value.
func Default(d *Def) []byte {
	switch d.Kind {
	case KindList:
		return nil
	case KindBitList:
		return []byte{1}
	case KindUnion:
		if len(d.Fields) == 0 {
			return []byte{0}
		}
		return EncodeUnion(0, Default(d.Fields[0]))
	case KindContainer:
		if d.IsDynamic() {
			out, _ := NewBuilder(d).Encode()
			return out
		}
	case KindVector:
		if d.Elem.IsDynamic() {
			items := make([][]byte, d.Limit)
			for i := range items {
				items[i] = Default(d.Elem)
			}
			return EncodeList(d.Elem, items)
		}
	}
	return make([]byte, d.FixedLength())
}

// Builder assembles a container field by field. Unset fields take their
// default value. Setters record the first error, reported by Encode.
type Builder struct {
	def    *Def
	fields [][]byte
	err    error
}

// NewBuilder starts a container of type def.
func NewBuilder(def *Def) *Builder {
	b := &Builder{def: def}
	if def.Kind != KindContainer {
		b.err = fmt.Errorf("%w: builder needs a container, got %s", ErrInvalidPath, def.Kind)
		return b
	}
	b.fields = make([][]byte, len(def.Fields))
	return b
}

func (b *Builder) slot(name string) int {
	if b.err != nil {
		return -1
	}
	idx := b.def.FieldIndex(name)
	if idx < 0 {
		b.err = fmt.Errorf("%w: %s.%s", ErrUnknownField, b.def.Name, name)
	}
	return idx
}

// SetBytes stores the serialized value of a field.
func (b *Builder) SetBytes(name string, v []byte) *Builder {
	if i := b.slot(name); i >= 0 {
		f := b.def.Fields[i]
		if !f.IsDynamic() && len(v) != f.FixedLength() {
			b.err = fmt.Errorf("%w: %s.%s wants %d bytes, got %d", ErrSize, b.def.Name, name, f.FixedLength(), len(v))
			return b
		}
		b.fields[i] = v
	}
	return b
}

// SetUint stores an unsigned integer field of any width up to 64 bits.
func (b *Builder) SetUint(name string, v uint64) *Builder {
	if i := b.slot(name); i >= 0 {
		f := b.def.Fields[i]
		if f.Kind != KindUint {
			b.err = fmt.Errorf("%w: %s.%s is a %s", ErrSize, b.def.Name, name, f.Kind)
			return b
		}
		b.fields[i] = MarshalUint(v, f.Size)
	}
	return b
}

// SetUint256 stores a wide unsigned integer field.
func (b *Builder) SetUint256(name string, v *uint256.Int) *Builder {
	if i := b.slot(name); i >= 0 {
		f := b.def.Fields[i]
		if f.Kind != KindUint {
			b.err = fmt.Errorf("%w: %s.%s is a %s", ErrSize, b.def.Name, name, f.Kind)
			return b
		}
		b.fields[i] = u256.ToLE(v, f.Size)
	}
	return b
}

// SetBool stores a boolean field.
func (b *Builder) SetBool(name string, v bool) *Builder {
	return b.SetBytes(name, MarshalBool(v))
}

// SetOb stores the bytes behind a view.
func (b *Builder) SetOb(name string, ob Ob) *Builder {
	return b.SetBytes(name, ob.Bytes)
}

// SetBuilder encodes a nested container.
func (b *Builder) SetBuilder(name string, sub *Builder) *Builder {
	v, err := sub.Encode()
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("%s.%s: %w", b.def.Name, name, err)
		}
		return b
	}
	return b.SetBytes(name, v)
}

// Encode serializes the container: fixed fields and offsets first, then
// dynamic field bodies in field order.
func (b *Builder) Encode() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	values := make([][]byte, len(b.fields))
	total := 0
	for i, f := range b.def.Fields {
		values[i] = b.fields[i]
		if values[i] == nil {
			values[i] = Default(f)
		}
		total += len(values[i])
		if f.IsDynamic() {
			total += BytesPerLengthOffset
		}
	}
	buf := buffer.NewWithCapacity(total)
	off := uint32(b.def.FixedLength())
	for i, f := range b.def.Fields {
		if f.IsDynamic() {
			buf.AppendUint32LE(off)
			off += uint32(len(values[i]))
			continue
		}
		buf.Write(values[i])
	}
	for i, f := range b.def.Fields {
		if f.IsDynamic() {
			buf.Write(values[i])
		}
	}
	return buf.Bytes(), nil
}

// Finish encodes and validates the container and returns a view of it.
func (b *Builder) Finish() (Ob, error) {
	out, err := b.Encode()
	if err != nil {
		return Ob{}, err
	}
	return New(b.def, out)
}
