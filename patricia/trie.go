package patricia

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/crypto"
	"github.com/eth2030/stateless/rlp"
)

// ErrNotFound is returned by Get for keys that are not in the trie.
var ErrNotFound = errors.New("patricia: not found")

type (
	node interface{}

	fullNode struct {
		Children [17]node
	}
	shortNode struct {
		Key []byte // nibbles, terminated for leaves
		Val node
	}
	valueNode []byte
)

// Trie is an in-memory Merkle-Patricia trie. It exists to build roots and
// proofs for tests and fixtures; nodes are re-encoded on every Hash.
type Trie struct {
	root node
}

// New returns an empty trie.
func New() *Trie { return &Trie{} }

// Put stores value under key. An empty value deletes the key.
func (t *Trie) Put(key, value []byte) {
	k := keybytesToHex(key)
	if len(value) == 0 {
		t.root = del(t.root, k)
		return
	}
	t.root = insert(t.root, k, valueNode(common.CopyBytes(value)))
}

// Delete removes key from the trie.
func (t *Trie) Delete(key []byte) {
	t.root = del(t.root, keybytesToHex(key))
}

// Get returns the value stored under key.
func (t *Trie) Get(key []byte) ([]byte, error) {
	n := t.root
	k := keybytesToHex(key)
	for {
		switch cur := n.(type) {
		case nil:
			return nil, ErrNotFound
		case valueNode:
			return common.CopyBytes(cur), nil
		case *shortNode:
			if prefixLen(cur.Key, k) < len(cur.Key) {
				return nil, ErrNotFound
			}
			n, k = cur.Val, k[len(cur.Key):]
		case *fullNode:
			n, k = cur.Children[k[0]], k[1:]
		}
	}
}

func insert(n node, key []byte, value node) node {
	if len(key) == 0 {
		return value
	}
	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value}

	case *shortNode:
		match := prefixLen(key, n.Key)
		if match == len(n.Key) {
			return &shortNode{Key: n.Key, Val: insert(n.Val, key[match:], value)}
		}
		branch := &fullNode{}
		branch.Children[n.Key[match]] = insert(nil, n.Key[match+1:], n.Val)
		branch.Children[key[match]] = insert(nil, key[match+1:], value)
		if match == 0 {
			return branch
		}
		return &shortNode{Key: key[:match], Val: branch}

	case *fullNode:
		c := *n
		c.Children[key[0]] = insert(n.Children[key[0]], key[1:], value)
		return &c

	default:
		panic("patricia: insert into value node")
	}
}

func del(n node, key []byte) node {
	switch n := n.(type) {
	case nil:
		return nil

	case valueNode:
		if len(key) == 0 {
			return nil
		}
		return n

	case *shortNode:
		match := prefixLen(key, n.Key)
		if match < len(n.Key) {
			return n
		}
		if match == len(key) {
			return nil
		}
		child := del(n.Val, key[match:])
		switch child := child.(type) {
		case nil:
			return nil
		case *shortNode:
			// Merge the extension with the shortened child.
			return &shortNode{Key: concat(n.Key, child.Key...), Val: child.Val}
		default:
			return &shortNode{Key: n.Key, Val: child}
		}

	case *fullNode:
		c := *n
		c.Children[key[0]] = del(n.Children[key[0]], key[1:])

		pos := -1
		for i, child := range c.Children {
			if child != nil {
				if pos >= 0 {
					return &c
				}
				pos = i
			}
		}
		switch {
		case pos < 0:
			return nil
		case pos == 16:
			return &shortNode{Key: []byte{terminator}, Val: c.Children[16]}
		}
		// A single remaining child collapses into its parent path.
		if short, ok := c.Children[pos].(*shortNode); ok {
			return &shortNode{Key: concat([]byte{byte(pos)}, short.Key...), Val: short.Val}
		}
		return &shortNode{Key: []byte{byte(pos)}, Val: c.Children[pos]}
	}
	return n
}

func concat(a []byte, b ...byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// Hash returns the root hash. The empty trie hashes to EmptyRoot.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return EmptyRoot
	}
	return crypto.Keccak256Hash(encode(t.root))
}

// encode returns the RLP encoding of n with children replaced by their
// references.
func encode(n node) []byte {
	switch n := n.(type) {
	case *shortNode:
		var val []byte
		if v, ok := n.Val.(valueNode); ok {
			val = rlp.EncodeBytes(v)
		} else {
			val = reference(n.Val)
		}
		return rlp.EncodeList(rlp.EncodeBytes(hexToCompact(n.Key)), val)
	case *fullNode:
		items := make([][]byte, 17)
		for i := 0; i < 16; i++ {
			items[i] = reference(n.Children[i])
		}
		if v, ok := n.Children[16].(valueNode); ok {
			items[16] = rlp.EncodeBytes(v)
		} else {
			items[16] = emptyString
		}
		return rlp.EncodeList(items...)
	default:
		panic("patricia: encode of value node")
	}
}

// reference is how a parent points at n: nodes shorter than 32 bytes are
// embedded, larger ones are referenced by hash.
func reference(n node) []byte {
	if n == nil {
		return emptyString
	}
	enc := encode(n)
	if len(enc) < 32 {
		return enc
	}
	return rlp.EncodeBytes(crypto.Keccak256(enc))
}

// Prove returns the nodes on the path to key, root first. Embedded nodes are
// not listed separately. For absent keys the nodes up to the divergence
// form a proof of absence.
func (t *Trie) Prove(key []byte) [][]byte {
	if t.root == nil {
		return [][]byte{emptyString}
	}
	var proof [][]byte
	k := keybytesToHex(key)
	n := t.root
	for i := 0; n != nil; i++ {
		enc := encode(n)
		if i == 0 || len(enc) >= 32 {
			proof = append(proof, enc)
		}
		switch cur := n.(type) {
		case *shortNode:
			if prefixLen(cur.Key, k) < len(cur.Key) {
				return proof
			}
			n, k = cur.Val, k[len(cur.Key):]
		case *fullNode:
			n, k = cur.Children[k[0]], k[1:]
		default:
			return proof
		}
		if _, ok := n.(valueNode); ok {
			return proof
		}
	}
	return proof
}
