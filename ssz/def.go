package ssz

// Kind is the shape of an SSZ type.
type Kind uint8

const (
	KindNone Kind = iota
	KindUint
	KindBool
	KindContainer
	KindVector
	KindList
	KindBitVector
	KindBitList
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	case KindContainer:
		return "container"
	case KindVector:
		return "vector"
	case KindList:
		return "list"
	case KindBitVector:
		return "bitvector"
	case KindBitList:
		return "bitlist"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Def describes an SSZ type. Defs are built once at package level and never
// mutated afterwards.
//
// Fields holds the fields of a container or the variants of a union. Limit
// is the length of a vector or bitvector and the maximum length of a list
// or bitlist. Size is the byte width of a uint.
type Def struct {
	Kind   Kind
	Name   string
	Size   int
	Elem   *Def
	Limit  uint64
	Fields []*Def
}

var (
	Uint8   = &Def{Kind: KindUint, Name: "uint8", Size: 1}
	Uint16  = &Def{Kind: KindUint, Name: "uint16", Size: 2}
	Uint32  = &Def{Kind: KindUint, Name: "uint32", Size: 4}
	Uint64  = &Def{Kind: KindUint, Name: "uint64", Size: 8}
	Uint128 = &Def{Kind: KindUint, Name: "uint128", Size: 16}
	Uint256 = &Def{Kind: KindUint, Name: "uint256", Size: 32}
	Bool    = &Def{Kind: KindBool, Name: "bool", Size: 1}
	None    = &Def{Kind: KindNone, Name: "none"}

	Bytes4  = ByteVector(4)
	Bytes20 = ByteVector(20)
	Bytes32 = ByteVector(32)
	Bytes48 = ByteVector(48)
	Bytes96 = ByteVector(96)
)

// Field names a copy of def for use as a container field or union variant.
func Field(name string, def *Def) *Def {
	f := *def
	f.Name = name
	return &f
}

// Container defines a container with the given fields, in order.
func Container(name string, fields ...*Def) *Def {
	return &Def{Kind: KindContainer, Name: name, Fields: fields}
}

// Vector defines a fixed-length sequence.
func Vector(elem *Def, n uint64) *Def {
	return &Def{Kind: KindVector, Elem: elem, Limit: n}
}

// List defines a variable-length sequence of at most max elements.
func List(elem *Def, max uint64) *Def {
	return &Def{Kind: KindList, Elem: elem, Limit: max}
}

// ByteVector is Vector[uint8, n].
func ByteVector(n uint64) *Def { return Vector(Uint8, n) }

// ByteList is List[uint8, max].
func ByteList(max uint64) *Def { return List(Uint8, max) }

// BitVector defines a vector of n bits.
func BitVector(n uint64) *Def { return &Def{Kind: KindBitVector, Limit: n} }

// BitList defines a list of at most max bits.
func BitList(max uint64) *Def { return &Def{Kind: KindBitList, Limit: max} }

// Union defines a union; the selector is the index into variants. A None
// variant carries no value.
func Union(name string, variants ...*Def) *Def {
	return &Def{Kind: KindUnion, Name: name, Fields: variants}
}

// IsBasic reports whether d is a uint, bool or none.
func (d *Def) IsBasic() bool {
	return d.Kind == KindUint || d.Kind == KindBool || d.Kind == KindNone
}

// IsDynamic reports whether the serialized size of d varies.
func (d *Def) IsDynamic() bool {
	switch d.Kind {
	case KindList, KindBitList, KindUnion:
		return true
	case KindVector:
		return d.Elem.IsDynamic()
	case KindContainer:
		for _, f := range d.Fields {
			if f.IsDynamic() {
				return true
			}
		}
	}
	return false
}

// FixedLength is the serialized size of a fixed-size type, or the size of
// the fixed part (offsets included) of a dynamic container. Dynamic lists
// and unions report 0.
func (d *Def) FixedLength() int {
	switch d.Kind {
	case KindUint, KindBool:
		return d.Size
	case KindVector:
		if d.Elem.IsDynamic() {
			return int(d.Limit) * BytesPerLengthOffset
		}
		return int(d.Limit) * d.Elem.FixedLength()
	case KindBitVector:
		return int(d.Limit+7) / 8
	case KindContainer:
		n := 0
		for _, f := range d.Fields {
			if f.IsDynamic() {
				n += BytesPerLengthOffset
			} else {
				n += f.FixedLength()
			}
		}
		return n
	default:
		return 0
	}
}

// FieldIndex returns the position of the named container field or union
// variant, or -1.
func (d *Def) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// chunkLimit is the number of leaves d's data tree is padded to.
func (d *Def) chunkLimit() uint64 {
	switch d.Kind {
	case KindContainer:
		return uint64(len(d.Fields))
	case KindVector, KindList:
		if d.Elem.IsBasic() {
			return (d.Limit*uint64(d.Elem.Size) + BytesPerChunk - 1) / BytesPerChunk
		}
		return d.Limit
	case KindBitVector, KindBitList:
		return (d.Limit + 255) / 256
	default:
		return 1
	}
}

// SameType reports whether d and o describe the same serialization and
// tree shape. Their own names are ignored; field and variant names are
// compared.
func (d *Def) SameType(o *Def) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil || d.Kind != o.Kind || d.Size != o.Size ||
		d.Limit != o.Limit || len(d.Fields) != len(o.Fields) {
		return false
	}
	if (d.Elem == nil) != (o.Elem == nil) || (d.Elem != nil && !d.Elem.SameType(o.Elem)) {
		return false
	}
	for i, f := range d.Fields {
		if f.Name != o.Fields[i].Name || !f.SameType(o.Fields[i]) {
			return false
		}
	}
	return true
}
