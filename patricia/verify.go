// Package patricia verifies Merkle-Patricia trie proofs: an ordered list of
// RLP-encoded nodes leading from a root to the value stored under a key, or
// to the point where the key is proven absent. It also carries an in-memory
// trie that produces such proofs.
package patricia

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/crypto"
	"github.com/eth2030/stateless/rlp"
	"github.com/eth2030/stateless/u256"
)

// MaxDepth bounds the number of nodes visited, embedded nodes included.
const MaxDepth = 64

var (
	ErrEmptyProof    = errors.New("patricia: empty proof")
	ErrInvalidNode   = errors.New("patricia: invalid node")
	ErrHashMismatch  = errors.New("patricia: node hash does not match parent reference")
	ErrMissingNode   = errors.New("patricia: proof ends before the path does")
	ErrTrailingNodes = errors.New("patricia: proof continues after the terminal node")
	ErrTooDeep       = errors.New("patricia: proof exceeds max depth")
	ErrMissingValue  = errors.New("patricia: key not in trie")
	ErrValueMismatch = errors.New("patricia: value mismatch")
	ErrRootMismatch  = errors.New("patricia: root mismatch")
)

// EmptyRoot is the root hash of an empty trie, keccak256(rlp("")).
var EmptyRoot = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// Result is what a proof establishes. Root is the hash of the first node and
// must still be compared against a trusted root; VerifyRoot does that.
type Result struct {
	Root  common.Hash
	Value []byte
	Found bool
}

// Verify walks proof along key. With a nil expected value the proof may end
// in either the stored value or a proof of absence. Otherwise the key must
// be present and its value must equal expected, leading zeros ignored.
func Verify(key, expected []byte, proof [][]byte) (Result, error) {
	if len(proof) == 0 {
		return Result{}, ErrEmptyProof
	}
	res := Result{Root: crypto.Keccak256Hash(proof[0])}
	w := walker{path: keybytesToHex(key), proof: proof}
	value, found, err := w.walk()
	if err != nil {
		return res, err
	}
	res.Value, res.Found = value, found
	switch {
	case expected == nil:
	case !found:
		return res, fmt.Errorf("%w: %x", ErrMissingValue, key)
	case !u256.EqualNumeric(value, expected):
		return res, fmt.Errorf("%w: have %x, want %x", ErrValueMismatch, value, expected)
	}
	return res, nil
}

// VerifyRoot is Verify against a trusted root.
func VerifyRoot(root common.Hash, key, expected []byte, proof [][]byte) (Result, error) {
	if len(proof) == 0 {
		return Result{}, ErrEmptyProof
	}
	if got := crypto.Keccak256Hash(proof[0]); got != root {
		return Result{Root: got}, fmt.Errorf("%w: have %x, want %x", ErrRootMismatch, got, root)
	}
	return Verify(key, expected, proof)
}

type walker struct {
	path  []byte
	pos   int
	proof [][]byte
	next  int
	depth int
}

var emptyString = []byte{0x80}

func (w *walker) walk() ([]byte, bool, error) {
	node := w.proof[0]
	w.next = 1
	if bytes.Equal(node, emptyString) {
		return w.finish(nil, false)
	}
	for {
		w.depth++
		if w.depth > MaxDepth {
			return nil, false, ErrTooDeep
		}
		items, err := rlp.ListItems(node)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidNode, err)
		}

		var child []byte
		switch len(items) {
		case 17:
			nibble := w.path[w.pos]
			if nibble == terminator {
				value, err := rlp.Bytes(items[16])
				if err != nil {
					return nil, false, fmt.Errorf("%w: branch value: %v", ErrInvalidNode, err)
				}
				return w.finish(value, len(value) > 0)
			}
			w.pos++
			child = items[nibble]

		case 2:
			compact, err := rlp.Bytes(items[0])
			if err != nil {
				return nil, false, fmt.Errorf("%w: path: %v", ErrInvalidNode, err)
			}
			nibbles, ok := compactToHex(compact)
			if !ok {
				return nil, false, fmt.Errorf("%w: bad compact path %x", ErrInvalidNode, compact)
			}
			rest := w.path[w.pos:]
			if hasTerm(nibbles) {
				if !bytes.Equal(nibbles, rest) {
					// A leaf for a different key proves absence.
					return w.finish(nil, false)
				}
				value, err := rlp.Bytes(items[1])
				if err != nil {
					return nil, false, fmt.Errorf("%w: leaf value: %v", ErrInvalidNode, err)
				}
				return w.finish(value, true)
			}
			if len(nibbles) == 0 {
				return nil, false, fmt.Errorf("%w: empty extension", ErrInvalidNode)
			}
			if prefixLen(nibbles, rest) < len(nibbles) {
				return w.finish(nil, false)
			}
			w.pos += len(nibbles)
			child = items[1]

		default:
			return nil, false, fmt.Errorf("%w: %d items", ErrInvalidNode, len(items))
		}

		var empty bool
		node, empty, err = w.resolve(child)
		if err != nil {
			return nil, false, err
		}
		if empty {
			return w.finish(nil, false)
		}
	}
}

// resolve follows a child reference: embedded lists are used in place, a
// 32-byte hash must match the next proof node, and an empty string is an
// unset slot.
func (w *walker) resolve(ref []byte) (node []byte, empty bool, err error) {
	kind, content, _, err := rlp.Split(ref)
	if err != nil {
		return nil, false, fmt.Errorf("%w: child: %v", ErrInvalidNode, err)
	}
	switch {
	case kind == rlp.List:
		return ref, false, nil
	case len(content) == 0:
		return nil, true, nil
	case len(content) != common.HashLength:
		return nil, false, fmt.Errorf("%w: %d-byte child reference", ErrInvalidNode, len(content))
	}
	if w.next >= len(w.proof) {
		return nil, false, ErrMissingNode
	}
	node = w.proof[w.next]
	if !bytes.Equal(crypto.Keccak256(node), content) {
		return nil, false, fmt.Errorf("%w: node %d", ErrHashMismatch, w.next)
	}
	w.next++
	return node, false, nil
}

func (w *walker) finish(value []byte, found bool) ([]byte, bool, error) {
	if w.next != len(w.proof) {
		return nil, false, fmt.Errorf("%w: %d unused", ErrTrailingNodes, len(w.proof)-w.next)
	}
	return value, found, nil
}
