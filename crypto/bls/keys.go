package bls

import (
	"crypto/sha256"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// SecretKey is a scalar in the BLS12-381 subgroup order field. Signing lives
// here for tests and fixture generation; verification never needs it.
type SecretKey struct {
	s fr.Element
}

// SecretKeyFromSeed derives a deterministic non-zero key from seed.
func SecretKeyFromSeed(seed []byte) *SecretKey {
	h := sha256.Sum256(seed)
	sk := &SecretKey{}
	for sk.s.SetBytes(h[:]); sk.s.IsZero(); sk.s.SetBytes(h[:]) {
		h = sha256.Sum256(h[:])
	}
	return sk
}

// SecretKeyFromBytes parses a 32-byte big-endian scalar.
func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	if len(b) != SecretKeySize {
		return nil, ErrInvalidSecretKey
	}
	sk := &SecretKey{}
	if err := sk.s.SetBytesCanonical(b); err != nil || sk.s.IsZero() {
		return nil, ErrInvalidSecretKey
	}
	return sk, nil
}

// Bytes returns the big-endian scalar.
func (sk *SecretKey) Bytes() []byte {
	b := sk.s.Bytes()
	return b[:]
}

// PublicKey returns the compressed key sk*G1.
func (sk *SecretKey) PublicKey() [PublicKeySize]byte {
	var p bls12381.G1Affine
	p.ScalarMultiplicationBase(sk.s.BigInt(new(big.Int)))
	return p.Bytes()
}

// Sign returns the compressed signature sk*H(msg).
func (sk *SecretKey) Sign(msg []byte) ([SignatureSize]byte, error) {
	h, err := bls12381.HashToG2(msg, DST)
	if err != nil {
		return [SignatureSize]byte{}, err
	}
	var s bls12381.G2Affine
	s.ScalarMultiplication(&h, sk.s.BigInt(new(big.Int)))
	return s.Bytes(), nil
}

// AggregateSignatures sums compressed signatures.
func AggregateSignatures(sigs [][]byte) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	if len(sigs) == 0 {
		return out, ErrInvalidSignature
	}
	var acc bls12381.G2Jac
	for i, b := range sigs {
		s, err := decodeSignature(b)
		if err != nil {
			return out, err
		}
		if i == 0 {
			acc.FromAffine(&s)
			continue
		}
		acc.AddMixed(&s)
	}
	var agg bls12381.G2Affine
	agg.FromJacobian(&acc)
	return agg.Bytes(), nil
}

// AggregateSecretKeys returns the sum of the keys; its signature equals the
// aggregate of the individual signatures over the same message.
func AggregateSecretKeys(keys []*SecretKey) *SecretKey {
	sum := &SecretKey{}
	for _, k := range keys {
		sum.s.Add(&sum.s, &k.s)
	}
	return sum
}
