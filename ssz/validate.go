package ssz

import "fmt"

// Validate checks that b is a well-formed serialization of d: sizes match,
// offsets start at the end of the fixed part, never decrease and stay in
// bounds, lists respect their limits and bool, bitfield and union
// encodings are canonical.
func (d *Def) Validate(b []byte) error {
	switch d.Kind {
	case KindNone:
		if len(b) != 0 {
			return fmt.Errorf("%w: none has %d bytes", ErrSize, len(b))
		}
	case KindUint:
		if len(b) != d.Size {
			return fmt.Errorf("%w: %s has %d bytes", ErrSize, d.Name, len(b))
		}
	case KindBool:
		if len(b) != 1 {
			return fmt.Errorf("%w: bool has %d bytes", ErrSize, len(b))
		}
		if b[0] > 1 {
			return ErrInvalidBool
		}
	case KindBitVector:
		if len(b) != d.FixedLength() {
			return fmt.Errorf("%w: bitvector[%d] has %d bytes", ErrSize, d.Limit, len(b))
		}
		if rem := d.Limit % 8; rem != 0 && b[len(b)-1]>>rem != 0 {
			return ErrBitvectorPad
		}
	case KindBitList:
		n, ok := bitListLen(b)
		if !ok {
			return ErrBitlistSentinel
		}
		if uint64(n) > d.Limit {
			return fmt.Errorf("%w: %d bits, limit %d", ErrListTooLong, n, d.Limit)
		}
	case KindVector:
		return d.validateElems(b, d.Limit)
	case KindList:
		return d.validateElems(b, 0)
	case KindContainer:
		return d.validateContainer(b)
	case KindUnion:
		if len(b) == 0 {
			return fmt.Errorf("%w: empty union", ErrSize)
		}
		if int(b[0]) >= len(d.Fields) {
			return fmt.Errorf("%w: %d of %d", ErrSelector, b[0], len(d.Fields))
		}
		if err := d.Fields[b[0]].Validate(b[1:]); err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name, d.Fields[b[0]].Name, err)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrSize, d.Kind)
	}
	return nil
}

// validateElems checks a vector (n > 0 fixes the count) or list.
func (d *Def) validateElems(b []byte, n uint64) error {
	elem := d.Elem
	if !elem.IsDynamic() {
		size := elem.FixedLength()
		if size == 0 {
			return fmt.Errorf("%w: zero-size element", ErrSize)
		}
		if len(b)%size != 0 {
			return fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrSize, len(b), size)
		}
		count := uint64(len(b) / size)
		if d.Kind == KindVector && count != n {
			return fmt.Errorf("%w: vector of %d has %d elements", ErrSize, n, count)
		}
		if d.Kind == KindList && count > d.Limit {
			return fmt.Errorf("%w: %d elements, limit %d", ErrListTooLong, count, d.Limit)
		}
		if elem.Kind == KindUint {
			return nil
		}
		for i := 0; i < int(count); i++ {
			if err := elem.Validate(b[i*size : (i+1)*size]); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	}

	if len(b) == 0 {
		if d.Kind == KindVector && n > 0 {
			return fmt.Errorf("%w: empty vector of %d", ErrSize, n)
		}
		return nil
	}
	first, ok := readOffset(b, 0)
	if !ok {
		return fmt.Errorf("%w: truncated offset table", ErrOffset)
	}
	if first%BytesPerLengthOffset != 0 || first > len(b) || first == 0 {
		return fmt.Errorf("%w: first offset %d", ErrOffset, first)
	}
	count := uint64(first / BytesPerLengthOffset)
	if d.Kind == KindVector && count != n {
		return fmt.Errorf("%w: vector of %d has %d offsets", ErrOffset, n, count)
	}
	if d.Kind == KindList && count > d.Limit {
		return fmt.Errorf("%w: %d elements, limit %d", ErrListTooLong, count, d.Limit)
	}
	offsets := make([]int, count+1)
	offsets[count] = len(b)
	for i := uint64(0); i < count; i++ {
		off, _ := readOffset(b, int(i)*BytesPerLengthOffset)
		if off < first || off > len(b) || (i > 0 && off < offsets[i-1]) {
			return fmt.Errorf("%w: offset %d = %d", ErrOffset, i, off)
		}
		offsets[i] = off
	}
	for i := uint64(0); i < count; i++ {
		if err := elem.Validate(b[offsets[i]:offsets[i+1]]); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (d *Def) validateContainer(b []byte) error {
	fixed := d.FixedLength()
	if len(b) < fixed {
		return fmt.Errorf("%w: %s needs %d bytes, has %d", ErrSize, d.Name, fixed, len(b))
	}
	if !d.IsDynamic() && len(b) != fixed {
		return fmt.Errorf("%w: %s is %d bytes, has %d", ErrSize, d.Name, fixed, len(b))
	}
	pos, prev := 0, -1
	for _, f := range d.Fields {
		if !f.IsDynamic() {
			pos += f.FixedLength()
			continue
		}
		off, _ := readOffset(b, pos)
		switch {
		case prev < 0 && off != fixed:
			return fmt.Errorf("%w: %s.%s first offset %d, want %d", ErrOffset, d.Name, f.Name, off, fixed)
		case off < prev || off > len(b):
			return fmt.Errorf("%w: %s.%s offset %d", ErrOffset, d.Name, f.Name, off)
		}
		prev = off
		pos += BytesPerLengthOffset
	}
	ob := Ob{Def: d, Bytes: b}
	for i, f := range d.Fields {
		if err := f.Validate(ob.field(i).Bytes); err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name, f.Name, err)
		}
	}
	return nil
}
