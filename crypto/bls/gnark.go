package bls

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize holds two full sync committees of decoded keys.
const DefaultCacheSize = 1024

// GnarkVerifier verifies signatures with gnark-crypto. Decompressing a G1
// key costs a square root, so decoded keys are kept in an LRU cache.
type GnarkVerifier struct {
	keys *lru.Cache[[PublicKeySize]byte, bls12381.G1Affine]
}

// NewGnarkVerifier returns a verifier caching up to cacheSize decoded keys.
// A non-positive size disables the cache.
func NewGnarkVerifier(cacheSize int) *GnarkVerifier {
	v := &GnarkVerifier{}
	if cacheSize > 0 {
		v.keys, _ = lru.New[[PublicKeySize]byte, bls12381.G1Affine](cacheSize)
	}
	return v
}

func (v *GnarkVerifier) Name() string { return "gnark" }

// publicKey decodes a compressed key, rejecting infinity and points outside
// the subgroup.
func (v *GnarkVerifier) publicKey(b []byte) (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if len(b) != PublicKeySize {
		return p, ErrInvalidPublicKey
	}
	var k [PublicKeySize]byte
	copy(k[:], b)
	if v.keys != nil {
		if p, ok := v.keys.Get(k); ok {
			return p, nil
		}
	}
	if _, err := p.SetBytes(b); err != nil {
		return p, ErrInvalidPublicKey
	}
	if p.IsInfinity() {
		return p, ErrInvalidPublicKey
	}
	if v.keys != nil {
		v.keys.Add(k, p)
	}
	return p, nil
}

func decodeSignature(b []byte) (bls12381.G2Affine, error) {
	var s bls12381.G2Affine
	if len(b) != SignatureSize {
		return s, ErrInvalidSignature
	}
	if _, err := s.SetBytes(b); err != nil {
		return s, ErrInvalidSignature
	}
	return s, nil
}

// AggregatePublicKeys sums the decoded keys.
func (v *GnarkVerifier) AggregatePublicKeys(pubkeys [][]byte) (bls12381.G1Affine, error) {
	var agg bls12381.G1Affine
	if len(pubkeys) == 0 {
		return agg, ErrNoPublicKeys
	}
	var acc bls12381.G1Jac
	for i, b := range pubkeys {
		p, err := v.publicKey(b)
		if err != nil {
			return agg, err
		}
		if i == 0 {
			acc.FromAffine(&p)
			continue
		}
		acc.AddMixed(&p)
	}
	agg.FromJacobian(&acc)
	return agg, nil
}

func (v *GnarkVerifier) Verify(pubkey, msg, sig []byte) bool {
	pk, err := v.publicKey(pubkey)
	if err != nil {
		return false
	}
	return verifyPoint(&pk, msg, sig)
}

func (v *GnarkVerifier) FastAggregateVerify(pubkeys [][]byte, msg, sig []byte) bool {
	agg, err := v.AggregatePublicKeys(pubkeys)
	if err != nil {
		return false
	}
	return verifyPoint(&agg, msg, sig)
}

// verifyPoint checks e(pk, H(msg)) == e(G1, sig) as a two-pair product
// e(pk, H(msg)) * e(-G1, sig) == 1.
func verifyPoint(pk *bls12381.G1Affine, msg, sig []byte) bool {
	s, err := decodeSignature(sig)
	if err != nil {
		return false
	}
	h, err := bls12381.HashToG2(msg, DST)
	if err != nil {
		return false
	}
	_, _, g1, _ := bls12381.Generators()
	var negG1 bls12381.G1Affine
	negG1.Neg(&g1)
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{*pk, negG1},
		[]bls12381.G2Affine{h, s},
	)
	return err == nil && ok
}
