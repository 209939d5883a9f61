package ssz

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"
	"sync"
)

// BytesPerChunk is the number of bytes in each leaf chunk for Merkleization.
const BytesPerChunk = 32

// maxZeroHashDepth bounds the precomputed zero hash table; it covers every
// tree a 64-bit generalized index can address.
const maxZeroHashDepth = 64

var (
	zeroHashesOnce sync.Once
	zeroHashTable  [maxZeroHashDepth + 1][32]byte
)

// hash combines two 32-byte inputs using SHA-256.
func hash(a, b [32]byte) [32]byte {
	var combined [64]byte
	copy(combined[:32], a[:])
	copy(combined[32:], b[:])
	return sha256.Sum256(combined[:])
}

// HashPair is SHA-256(a || b), the inner node function.
func HashPair(a, b [32]byte) [32]byte { return hash(a, b) }

// ZeroHash returns the root of a subtree of the given depth whose leaves are
// all zero chunks. Depth 0 is the zero chunk itself.
func ZeroHash(depth int) [32]byte {
	zeroHashesOnce.Do(func() {
		for i := 1; i <= maxZeroHashDepth; i++ {
			zeroHashTable[i] = hash(zeroHashTable[i-1], zeroHashTable[i-1])
		}
	})
	if depth < 0 || depth > maxZeroHashDepth {
		return [32]byte{}
	}
	return zeroHashTable[depth]
}

// treeDepth is ceil(log2(limit)): the depth of a tree holding limit leaves.
func treeDepth(limit uint64) int {
	if limit <= 1 {
		return 0
	}
	return bits.Len64(limit - 1)
}

// Pack splits serialized bytes into 32-byte chunks, zero-padding the last.
// An empty input packs to no chunks.
func Pack(serialized []byte) [][32]byte {
	n := (len(serialized) + BytesPerChunk - 1) / BytesPerChunk
	chunks := make([][32]byte, n)
	for i := range chunks {
		copy(chunks[i][:], serialized[i*BytesPerChunk:])
	}
	return chunks
}

// Merkleize returns the root of chunks padded with zero chunks to limit
// leaves (rounded up to a power of two). Chunks beyond limit are ignored.
func Merkleize(chunks [][32]byte, limit uint64) [32]byte {
	return merkleize(chunks, treeDepth(limit), 0, nil)
}

// MixInLength mixes a list's data root with its length.
func MixInLength(root [32]byte, length uint64) [32]byte {
	return hash(root, lengthChunk(length))
}

// MixInSelector mixes a union's value root with its selector.
func MixInSelector(root [32]byte, selector byte) [32]byte {
	var chunk [32]byte
	chunk[0] = selector
	return hash(root, chunk)
}

func lengthChunk(length uint64) (chunk [32]byte) {
	binary.LittleEndian.PutUint64(chunk[:8], length)
	return chunk
}

// merkleize hashes chunks into a tree of the given depth rooted at gindex g.
// Missing leaves are zero chunks; levels that run out of nodes use the
// cached zero hashes instead of hashing zeros. Nodes wanted by c are
// recorded as they are produced.
func merkleize(chunks [][32]byte, depth int, g Gindex, c *capture) [32]byte {
	if depth < 63 {
		if width := uint64(1) << uint(depth); uint64(len(chunks)) > width {
			chunks = chunks[:width]
		}
	}
	hits := c.within(g, depth)
	layer := chunks
	for l := 0; ; l++ {
		for _, h := range hits {
			if h.level != l {
				continue
			}
			if h.pos < uint64(len(layer)) {
				c.got[h.g] = layer[h.pos]
			} else {
				c.got[h.g] = ZeroHash(l)
			}
		}
		if l == depth {
			break
		}
		next := make([][32]byte, (len(layer)+1)/2)
		for j := range next {
			right := ZeroHash(l)
			if 2*j+1 < len(layer) {
				right = layer[2*j+1]
			}
			next[j] = hash(layer[2*j], right)
		}
		layer = next
	}
	if len(layer) == 0 {
		return ZeroHash(depth)
	}
	return layer[0]
}
