// Package ssz implements the parts of Simple Serialize (SSZ) a stateless
// verifier needs: type definitions, zero-copy views over serialized bytes,
// hash tree roots, generalized indices and Merkle multi-proofs. Proof
// construction and a small serializer are included for the prover side.
//
// Spec: https://github.com/ethereum/consensus-specs/blob/dev/ssz/simple-serialize.md
package ssz

import "errors"

// Common errors.
var (
	ErrSize            = errors.New("ssz: invalid size")
	ErrOffset          = errors.New("ssz: invalid offset")
	ErrListTooLong     = errors.New("ssz: list exceeds maximum length")
	ErrInvalidBool     = errors.New("ssz: invalid boolean value")
	ErrBitlistSentinel = errors.New("ssz: bitlist missing sentinel bit")
	ErrBitvectorPad    = errors.New("ssz: bitvector padding bits set")
	ErrSelector        = errors.New("ssz: union selector out of range")
	ErrInvalidPath     = errors.New("ssz: invalid path")
	ErrGindexOverflow  = errors.New("ssz: generalized index overflows 64 bits")
	ErrUnprovable      = errors.New("ssz: generalized index not in tree")
	ErrUnknownField    = errors.New("ssz: unknown field")
)

// BytesPerLengthOffset is the number of bytes used for each offset in
// variable-length SSZ containers (4 bytes, little-endian uint32).
const BytesPerLengthOffset = 4
