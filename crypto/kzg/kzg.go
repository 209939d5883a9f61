// Package kzg verifies EIP-4844 KZG opening proofs and implements the
// point evaluation precompile on top of them.
//
// An opening proof shows that the polynomial committed as C = [p(s)]G1
// evaluates to y at z. With pi = [(p(s) - y) / (s - z)]G1 the check is
//
//	e(C - [y]G1, G2) * e(-pi, [s]G2 - [z]G2) == 1
package kzg

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	ErrInvalidInputLength = errors.New("kzg: invalid input length")
	ErrVersionedHash      = errors.New("kzg: versioned hash mismatch")
	ErrInvalidScalar      = errors.New("kzg: scalar not below BLS modulus")
	ErrInvalidCommitment  = errors.New("kzg: invalid commitment")
	ErrInvalidProof       = errors.New("kzg: invalid proof")
	ErrVerifyFailed       = errors.New("kzg: proof verification failed")
	ErrUnknownBackend     = errors.New("kzg: unknown backend")
)

// Sizes.
const (
	CommitmentSize       = 48
	ProofSize            = 48
	ScalarSize           = 32
	PointEvalInputSize   = 192
	FieldElementsPerBlob = 4096

	// VersionedHashVersion is the first byte of a KZG versioned hash.
	VersionedHashVersion = 0x01
)

// Verifier checks a single opening proof over compressed encodings.
type Verifier interface {
	Name() string
	VerifyProof(commitment [CommitmentSize]byte, z, y [ScalarSize]byte, proof [ProofSize]byte) error
}

// VersionedHash returns 0x01 || sha256(commitment)[1:].
func VersionedHash(commitment []byte) [32]byte {
	h := sha256.Sum256(commitment)
	h[0] = VersionedHashVersion
	return h
}

// pointEvalOutput is FIELD_ELEMENTS_PER_BLOB || BLS_MODULUS, both as 32-byte
// big-endian words.
var pointEvalOutput = func() []byte {
	out := make([]byte, 64)
	big.NewInt(FieldElementsPerBlob).FillBytes(out[:32])
	fr.Modulus().FillBytes(out[32:])
	return out
}()

// PointEvaluationOutput returns a copy of the fixed success output.
func PointEvaluationOutput() []byte { return bytes.Clone(pointEvalOutput) }

func canonicalScalar(b []byte) bool {
	return new(big.Int).SetBytes(b).Cmp(fr.Modulus()) < 0
}

// PointEvaluation runs the 0x0a precompile. The input is
// versioned_hash(32) || z(32) || y(32) || commitment(48) || proof(48).
func PointEvaluation(v Verifier, input []byte) ([]byte, error) {
	if len(input) != PointEvalInputSize {
		return nil, ErrInvalidInputLength
	}
	var (
		commitment [CommitmentSize]byte
		proof      [ProofSize]byte
		z, y       [ScalarSize]byte
	)
	copy(z[:], input[32:64])
	copy(y[:], input[64:96])
	copy(commitment[:], input[96:144])
	copy(proof[:], input[144:192])

	if vh := VersionedHash(commitment[:]); !bytes.Equal(vh[:], input[:32]) {
		return nil, ErrVersionedHash
	}
	if !canonicalScalar(z[:]) || !canonicalScalar(y[:]) {
		return nil, ErrInvalidScalar
	}
	if err := v.VerifyProof(commitment, z, y, proof); err != nil {
		return nil, err
	}
	return PointEvaluationOutput(), nil
}

// New returns the named verifier: "go-eth-kzg" (the default) uses the
// embedded mainnet setup, "gnark" pairs against tauG2, a compressed [s]G2.
func New(name string, tauG2 []byte) (Verifier, error) {
	switch name {
	case "", "go-eth-kzg":
		return NewGoEthKZG(), nil
	case "gnark":
		return NewPairingVerifier(tauG2)
	default:
		return nil, ErrUnknownBackend
	}
}
