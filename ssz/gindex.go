package ssz

import (
	"fmt"
	"math/bits"

	"github.com/eth2030/stateless/log"
)

// Gindex is a generalized index: the root is 1 and the children of g are
// 2g and 2g+1. Zero is never a valid index.
type Gindex uint64

// Depth is the distance from the root.
func (g Gindex) Depth() int { return bits.Len64(uint64(g)) - 1 }

// Parent returns g/2.
func (g Gindex) Parent() Gindex { return g >> 1 }

// Sibling returns the other child of g's parent.
func (g Gindex) Sibling() Gindex { return g ^ 1 }

// IsLeft reports whether g is a left child.
func (g Gindex) IsLeft() bool { return g&1 == 0 }

func (g Gindex) String() string { return fmt.Sprintf("%d", uint64(g)) }

// child descends depth levels from g to position pos. It returns 0 when g
// is 0 or the result needs more than 63 levels.
func child(g Gindex, depth int, pos uint64) Gindex {
	if g == 0 || g.Depth()+depth > 63 {
		return 0
	}
	return g<<uint(depth) | Gindex(pos)
}

// AddGindex concatenates two generalized indices: b is interpreted relative
// to the subtree rooted at a. A result deeper than 63 levels is logged and
// reported as 0.
func AddGindex(a, b Gindex) Gindex {
	if a == 0 || b == 0 {
		return 0
	}
	db := b.Depth()
	if a.Depth()+db > 63 {
		log.Default().Module("ssz").Error("generalized index overflow",
			"base", uint64(a), "sub", uint64(b), "depth", a.Depth()+db)
		return 0
	}
	return a<<uint(db) | (b ^ 1<<uint(db))
}

// LenField is the path element selecting the length chunk of a list.
const LenField = "__len__"

// GindexOf walks path through def and returns the generalized index of the
// node it names. Path elements are field names for containers, integer
// positions for vectors, lists and bit types, and a variant name or
// selector for unions. A basic element inside a packed chunk resolves to the
// chunk holding it and ends the path.
func GindexOf(def *Def, path ...any) (Gindex, error) {
	g := Gindex(1)
	for n, p := range path {
		if def == nil {
			return 0, fmt.Errorf("%w: element %d (%v) below a packed chunk", ErrInvalidPath, n, p)
		}
		var pos uint64
		var depth int
		switch def.Kind {
		case KindContainer:
			name, ok := p.(string)
			idx := -1
			if ok {
				idx = def.FieldIndex(name)
			}
			if idx < 0 {
				return 0, fmt.Errorf("%w: %v in %s", ErrUnknownField, p, def.Name)
			}
			pos, depth = uint64(idx), treeDepth(def.chunkLimit())
			def = def.Fields[idx]

		case KindVector, KindList, KindBitVector, KindBitList:
			isList := def.Kind == KindList || def.Kind == KindBitList
			if s, ok := p.(string); ok && isList && s == LenField {
				if g = child(g, 1, 1); g == 0 {
					return 0, overflow(path, n)
				}
				def = Uint64
				continue
			}
			i, ok := toIndex(p)
			if !ok || i >= def.Limit {
				return 0, fmt.Errorf("%w: index %v out of range", ErrInvalidPath, p)
			}
			if isList {
				if g = child(g, 1, 0); g == 0 {
					return 0, overflow(path, n)
				}
			}
			depth = treeDepth(def.chunkLimit())
			switch {
			case def.Kind == KindBitVector || def.Kind == KindBitList:
				pos, def = i/256, nil
			case def.Elem.IsBasic():
				pos, def = i*uint64(def.Elem.Size)/BytesPerChunk, nil
			default:
				pos, def = i, def.Elem
			}

		case KindUnion:
			idx := -1
			if s, ok := p.(string); ok {
				idx = def.FieldIndex(s)
			} else if i, ok := toIndex(p); ok && i < uint64(len(def.Fields)) {
				idx = int(i)
			}
			if idx < 0 {
				return 0, fmt.Errorf("%w: variant %v", ErrSelector, p)
			}
			pos, depth = 0, 1
			def = def.Fields[idx]

		default:
			return 0, fmt.Errorf("%w: cannot descend into %s", ErrInvalidPath, def.Kind)
		}
		if g = child(g, depth, pos); g == 0 {
			return 0, overflow(path, n)
		}
	}
	return g, nil
}

// overflow logs a path whose element n descends past depth 63.
func overflow(path []any, n int) error {
	log.Default().Module("ssz").Error("generalized index overflow", "path", fmt.Sprint(path), "element", n)
	return ErrGindexOverflow
}

func toIndex(p any) (uint64, bool) {
	switch v := p.(type) {
	case int:
		return uint64(v), v >= 0
	case uint64:
		return v, true
	case uint32:
		return uint64(v), true
	case Gindex:
		return uint64(v), true
	default:
		return 0, false
	}
}

// capture collects the nodes with wanted generalized indices during a
// single hashing pass.
type capture struct {
	want map[Gindex]struct{}
	got  map[Gindex][32]byte
}

func newCapture(want []Gindex) *capture {
	c := &capture{
		want: make(map[Gindex]struct{}, len(want)),
		got:  make(map[Gindex][32]byte, len(want)),
	}
	for _, g := range want {
		c.want[g] = struct{}{}
	}
	return c
}

// hit is a wanted node inside a subtree: level counts up from the leaves
// and pos is the node's position within that level.
type hit struct {
	g     Gindex
	level int
	pos   uint64
}

// within lists the wanted nodes of the depth-levels subtree rooted at g.
func (c *capture) within(g Gindex, depth int) []hit {
	if c == nil || g == 0 {
		return nil
	}
	gd := g.Depth()
	var hits []hit
	for w := range c.want {
		k := w.Depth() - gd
		if k < 0 || k > depth || w>>uint(k) != g {
			continue
		}
		hits = append(hits, hit{g: w, level: depth - k, pos: uint64(w) - uint64(g)<<uint(k)})
	}
	return hits
}

func (c *capture) record(g Gindex, node [32]byte) {
	if c == nil || g == 0 {
		return
	}
	if _, ok := c.want[g]; ok {
		c.got[g] = node
	}
}
