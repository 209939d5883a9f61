package ssz

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Ob is a typed view into serialized SSZ bytes. It does not own Bytes: the
// view is only valid while the backing buffer is. The zero Ob (Def == nil)
// is the invalid view returned by failed navigation.
type Ob struct {
	Def   *Def
	Bytes []byte
}

// New returns a view of b as def after validating it.
func New(def *Def, b []byte) (Ob, error) {
	if err := def.Validate(b); err != nil {
		return Ob{}, err
	}
	return Ob{Def: def, Bytes: b}, nil
}

// IsValid reports whether the view refers to a type.
func (o Ob) IsValid() bool { return o.Def != nil }

func (o Ob) String() string {
	if o.Def == nil {
		return "ssz.Ob(invalid)"
	}
	return fmt.Sprintf("ssz.Ob(%s %s, %d bytes)", o.Def.Kind, o.Def.Name, len(o.Bytes))
}

func readOffset(b []byte, pos int) (int, bool) {
	if pos+BytesPerLengthOffset > len(b) {
		return 0, false
	}
	return int(binary.LittleEndian.Uint32(b[pos:])), true
}

// Get returns the named field of a container, or the value of a union
// whose selected variant has that name.
func (o Ob) Get(name string) Ob {
	if o.Def == nil {
		return Ob{}
	}
	if o.Def.Kind == KindUnion {
		v := o.Value()
		if v.Def == nil || v.Def.Name != name {
			return Ob{}
		}
		return v
	}
	if o.Def.Kind != KindContainer {
		return Ob{}
	}
	idx := o.Def.FieldIndex(name)
	if idx < 0 {
		return Ob{}
	}
	return o.field(idx)
}

// field returns container field i, resolving offsets for dynamic fields.
func (o Ob) field(i int) Ob {
	pos := 0
	for j, f := range o.Def.Fields {
		if j < i {
			if f.IsDynamic() {
				pos += BytesPerLengthOffset
			} else {
				pos += f.FixedLength()
			}
			continue
		}
		if !f.IsDynamic() {
			end := pos + f.FixedLength()
			if end > len(o.Bytes) {
				return Ob{}
			}
			return Ob{Def: f, Bytes: o.Bytes[pos:end]}
		}
		start, ok := readOffset(o.Bytes, pos)
		if !ok {
			return Ob{}
		}
		end := len(o.Bytes)
		// The field ends where the next dynamic field starts.
		next := pos + BytesPerLengthOffset
		for _, g := range o.Def.Fields[j+1:] {
			if g.IsDynamic() {
				if end, ok = readOffset(o.Bytes, next); !ok {
					return Ob{}
				}
				break
			}
			next += g.FixedLength()
		}
		if start > end || end > len(o.Bytes) {
			return Ob{}
		}
		return Ob{Def: f, Bytes: o.Bytes[start:end]}
	}
	return Ob{}
}

// Len is the number of elements of a vector or list, the number of bits of
// a bit type, or the number of fields of a container.
func (o Ob) Len() int {
	if o.Def == nil {
		return 0
	}
	switch o.Def.Kind {
	case KindVector, KindBitVector:
		return int(o.Def.Limit)
	case KindList:
		if o.Def.Elem.IsDynamic() {
			if len(o.Bytes) == 0 {
				return 0
			}
			first, ok := readOffset(o.Bytes, 0)
			if !ok {
				return 0
			}
			return first / BytesPerLengthOffset
		}
		size := o.Def.Elem.FixedLength()
		if size == 0 {
			return 0
		}
		return len(o.Bytes) / size
	case KindBitList:
		n, _ := bitListLen(o.Bytes)
		return n
	case KindContainer:
		return len(o.Def.Fields)
	default:
		return 0
	}
}

// At returns element i of a vector or list.
func (o Ob) At(i int) Ob {
	if o.Def == nil || (o.Def.Kind != KindVector && o.Def.Kind != KindList) {
		return Ob{}
	}
	n := o.Len()
	if i < 0 || i >= n {
		return Ob{}
	}
	elem := o.Def.Elem
	if !elem.IsDynamic() {
		size := elem.FixedLength()
		end := (i + 1) * size
		if end > len(o.Bytes) {
			return Ob{}
		}
		return Ob{Def: elem, Bytes: o.Bytes[i*size : end]}
	}
	start, ok := readOffset(o.Bytes, i*BytesPerLengthOffset)
	if !ok {
		return Ob{}
	}
	end := len(o.Bytes)
	if i+1 < n {
		if end, ok = readOffset(o.Bytes, (i+1)*BytesPerLengthOffset); !ok {
			return Ob{}
		}
	}
	if start > end || end > len(o.Bytes) {
		return Ob{}
	}
	return Ob{Def: elem, Bytes: o.Bytes[start:end]}
}

// Selector is the union selector byte.
func (o Ob) Selector() int {
	if o.Def == nil || o.Def.Kind != KindUnion || len(o.Bytes) == 0 {
		return -1
	}
	return int(o.Bytes[0])
}

// Value returns the selected variant of a union.
func (o Ob) Value() Ob {
	sel := o.Selector()
	if sel < 0 || sel >= len(o.Def.Fields) {
		return Ob{}
	}
	return Ob{Def: o.Def.Fields[sel], Bytes: o.Bytes[1:]}
}

// Uint64 decodes a little-endian uint of up to 8 bytes. Wider values are
// truncated to their low 64 bits.
func (o Ob) Uint64() uint64 {
	b := o.Bytes
	if len(b) > 8 {
		b = b[:8]
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Bool decodes a bool.
func (o Ob) Bool() bool { return len(o.Bytes) == 1 && o.Bytes[0] == 1 }

// Bytes32 returns the view as a 32-byte array, zero-padded or truncated.
func (o Ob) Bytes32() (out [32]byte) {
	copy(out[:], o.Bytes)
	return out
}

// Bit reports bit i of a bitvector or bitlist.
func (o Ob) Bit(i int) bool {
	if i < 0 || i/8 >= len(o.Bytes) {
		return false
	}
	if o.Def != nil && o.Def.Kind == KindBitList && i >= o.Len() {
		return false
	}
	return o.Bytes[i/8]&(1<<(uint(i)%8)) != 0
}

// bitListLen returns the bit length of a serialized bitlist, which is the
// position of its highest set bit (the sentinel).
func bitListLen(b []byte) (int, bool) {
	if len(b) == 0 || b[len(b)-1] == 0 {
		return 0, false
	}
	last := b[len(b)-1]
	return (len(b)-1)*8 + bits.Len8(last) - 1, true
}

// Bits expands a bitvector or bitlist into one bool per bit.
func (o Ob) Bits() []bool {
	if o.Def == nil || (o.Def.Kind != KindBitVector && o.Def.Kind != KindBitList) {
		return nil
	}
	out := make([]bool, o.Len())
	for i := range out {
		out[i] = o.Bytes[i/8]&(1<<(uint(i)%8)) != 0
	}
	return out
}
