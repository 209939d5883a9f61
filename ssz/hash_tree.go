package ssz

// HashTreeRoot returns the SSZ hash tree root of ob. The view is not
// validated; use Def.Validate or New first for untrusted bytes.
func HashTreeRoot(ob Ob) [32]byte {
	if ob.Def == nil {
		return [32]byte{}
	}
	return hashOb(ob, 1, nil)
}

// hashOb hashes ob as the subtree rooted at gindex g. g is 0 once the tree
// is too deep to address; hashing continues but nothing is recorded.
func hashOb(ob Ob, g Gindex, c *capture) [32]byte {
	var root [32]byte
	def := ob.Def
	if def == nil {
		return root
	}
	switch def.Kind {
	case KindNone:
	case KindUint, KindBool:
		copy(root[:], ob.Bytes)

	case KindContainer:
		depth := treeDepth(def.chunkLimit())
		roots := make([][32]byte, len(def.Fields))
		for i := range def.Fields {
			roots[i] = hashOb(ob.field(i), child(g, depth, uint64(i)), c)
		}
		root = merkleize(roots, depth, g, c)

	case KindVector:
		root = hashSequence(ob, g, c)

	case KindList:
		data := child(g, 1, 0)
		length := lengthChunk(uint64(ob.Len()))
		c.record(child(g, 1, 1), length)
		root = hash(hashSequence(ob, data, c), length)

	case KindBitVector:
		root = merkleize(Pack(ob.Bytes), treeDepth(def.chunkLimit()), g, c)

	case KindBitList:
		n, _ := bitListLen(ob.Bytes)
		bitsOnly := make([]byte, (n+7)/8)
		copy(bitsOnly, ob.Bytes)
		if n%8 != 0 {
			bitsOnly[len(bitsOnly)-1] &^= 1 << uint(n%8)
		}
		length := lengthChunk(uint64(n))
		c.record(child(g, 1, 1), length)
		data := merkleize(Pack(bitsOnly), treeDepth(def.chunkLimit()), child(g, 1, 0), c)
		root = hash(data, length)

	case KindUnion:
		var value [32]byte
		valueIndex := child(g, 1, 0)
		if v := ob.Value(); v.Def != nil {
			value = hashOb(v, valueIndex, c)
		} else {
			c.record(valueIndex, value)
		}
		var sel [32]byte
		if len(ob.Bytes) > 0 {
			sel[0] = ob.Bytes[0]
		}
		c.record(child(g, 1, 1), sel)
		root = hash(value, sel)
	}
	c.record(g, root)
	return root
}

// hashSequence merkleizes the elements of a vector or list, packing basic
// elements into chunks.
func hashSequence(ob Ob, g Gindex, c *capture) [32]byte {
	def := ob.Def
	depth := treeDepth(def.chunkLimit())
	if def.Elem.IsBasic() {
		return merkleize(Pack(ob.Bytes), depth, g, c)
	}
	n := ob.Len()
	roots := make([][32]byte, n)
	for i := 0; i < n; i++ {
		roots[i] = hashOb(ob.At(i), child(g, depth, uint64(i)), c)
	}
	return merkleize(roots, depth, g, c)
}
