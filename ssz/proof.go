package ssz

import (
	"cmp"
	"fmt"
	"slices"
)

// HelperIndices returns the generalized indices of the sibling nodes needed
// to prove the given leaves, in descending order. Nodes that are themselves
// leaves, lie on a leaf's path to the root or lie under another leaf are
// excluded.
func HelperIndices(gindices []Gindex) []Gindex {
	targets := make(map[Gindex]struct{}, len(gindices))
	for _, g := range gindices {
		targets[g] = struct{}{}
	}
	helpers := make(map[Gindex]struct{})
	paths := make(map[Gindex]struct{})
	for _, g := range gindices {
		for ; g > 1; g = g.Parent() {
			helpers[g.Sibling()] = struct{}{}
			paths[g] = struct{}{}
		}
	}
	out := make([]Gindex, 0, len(helpers))
	for g := range helpers {
		if _, onPath := paths[g]; !onPath && !underAny(g, targets) {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, descending)
	return out
}

// underAny reports whether a proper ancestor of g is in set.
func underAny(g Gindex, set map[Gindex]struct{}) bool {
	for a := g.Parent(); a > 0; a = a.Parent() {
		if _, ok := set[a]; ok {
			return true
		}
	}
	return false
}

func descending(a, b Gindex) int { return cmp.Compare(b, a) }

// CreateMultiProof hashes ob once and returns the concatenated 32-byte
// witnesses for the given leaves, ordered as HelperIndices orders them.
func CreateMultiProof(ob Ob, gindices ...Gindex) ([]byte, error) {
	if ob.Def == nil {
		return nil, ErrInvalidPath
	}
	for _, g := range gindices {
		if g == 0 {
			return nil, fmt.Errorf("%w: 0", ErrUnprovable)
		}
	}
	helpers := HelperIndices(gindices)
	c := newCapture(helpers)
	hashOb(ob, 1, c)
	out := make([]byte, 0, len(helpers)*32)
	for _, g := range helpers {
		node, ok := c.got[g]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnprovable, uint64(g))
		}
		out = append(out, node[:]...)
	}
	return out, nil
}

// Leaves returns the nodes at the given generalized indices of ob's tree.
func Leaves(ob Ob, gindices ...Gindex) ([][32]byte, error) {
	if ob.Def == nil {
		return nil, ErrInvalidPath
	}
	c := newCapture(gindices)
	hashOb(ob, 1, c)
	out := make([][32]byte, len(gindices))
	for i, g := range gindices {
		node, ok := c.got[g]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnprovable, uint64(g))
		}
		out[i] = node
	}
	return out, nil
}

// VerifyMultiProof recomputes the root from leaves at gindices and the
// witnesses produced by CreateMultiProof. It reports false when the number
// of witnesses or leaves does not fit the indices or the nodes do not
// reach the root. A leaf under another leaf must hash up to it: both
// children of every such node have to be supplied and match.
func VerifyMultiProof(witnesses []byte, leaves [][32]byte, gindices []Gindex) ([32]byte, bool) {
	if len(leaves) != len(gindices) || len(gindices) == 0 || len(witnesses)%32 != 0 {
		return [32]byte{}, false
	}
	helpers := HelperIndices(gindices)
	if len(witnesses) != 32*len(helpers) {
		return [32]byte{}, false
	}
	nodes := make(map[Gindex][32]byte, 2*(len(leaves)+len(helpers)))
	for i, g := range gindices {
		if g == 0 {
			return [32]byte{}, false
		}
		nodes[g] = leaves[i]
	}
	for i, g := range helpers {
		nodes[g] = [32]byte(witnesses[i*32 : i*32+32])
	}
	keys := make([]Gindex, 0, len(nodes))
	for g := range nodes {
		keys = append(keys, g)
	}
	slices.SortFunc(keys, descending)
	// Parents are appended behind the keys that produce them, so one pass
	// over the growing slice climbs to the root. bound holds the nodes
	// folded into their parent.
	bound := make(map[Gindex]bool, len(nodes))
	for pos := 0; pos < len(keys); pos++ {
		k := keys[pos]
		if k <= 1 || bound[k] {
			continue
		}
		left, okL := nodes[k&^1]
		right, okR := nodes[k|1]
		if !okL || !okR {
			continue
		}
		node := hash(left, right)
		parent := k.Parent()
		if supplied, ok := nodes[parent]; ok {
			if supplied != node {
				return [32]byte{}, false
			}
		} else {
			nodes[parent] = node
			keys = append(keys, parent)
		}
		bound[k&^1], bound[k|1] = true, true
	}
	for _, g := range gindices {
		if g > 1 && !bound[g] {
			return [32]byte{}, false
		}
	}
	root, ok := nodes[1]
	return root, ok
}

// VerifySingleProof folds a Merkle branch (sibling hashes from the leaf
// upwards, 32 bytes each) into the root of leaf at gindex. The branch length
// must equal the depth of gindex.
func VerifySingleProof(branch []byte, leaf [32]byte, gindex Gindex) ([32]byte, bool) {
	if gindex == 0 || len(branch) != 32*gindex.Depth() {
		return [32]byte{}, false
	}
	node := leaf
	for i := 0; gindex > 1; i, gindex = i+1, gindex.Parent() {
		sibling := [32]byte(branch[i*32 : i*32+32])
		if gindex.IsLeft() {
			node = hash(node, sibling)
		} else {
			node = hash(sibling, node)
		}
	}
	return node, true
}

// CreateSingleProof returns the branch for one gindex, leaf upwards.
func CreateSingleProof(ob Ob, gindex Gindex) ([]byte, [32]byte, error) {
	if gindex == 0 {
		return nil, [32]byte{}, fmt.Errorf("%w: 0", ErrUnprovable)
	}
	want := []Gindex{gindex}
	for g := gindex; g > 1; g = g.Parent() {
		want = append(want, g.Sibling())
	}
	nodes, err := Leaves(ob, want...)
	if err != nil {
		return nil, [32]byte{}, err
	}
	branch := make([]byte, 0, 32*(len(nodes)-1))
	for _, n := range nodes[1:] {
		branch = append(branch, n[:]...)
	}
	return branch, nodes[0], nil
}
