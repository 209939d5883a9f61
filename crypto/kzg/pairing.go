package kzg

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// PairingVerifier checks proofs with a gnark-crypto pairing against an
// injected [s]G2. It needs no setup beyond that single point, which makes it
// the verifier for custom setups and tests.
type PairingVerifier struct {
	tauG2 bls12381.G2Affine
}

// NewPairingVerifier parses a 96-byte compressed [s]G2.
func NewPairingVerifier(tauG2 []byte) (*PairingVerifier, error) {
	v := &PairingVerifier{}
	if _, err := v.tauG2.SetBytes(tauG2); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *PairingVerifier) Name() string { return "gnark" }

// TauG2 returns the compressed setup point.
func (v *PairingVerifier) TauG2() [96]byte { return v.tauG2.Bytes() }

func (v *PairingVerifier) VerifyProof(commitment [CommitmentSize]byte, z, y [ScalarSize]byte, proof [ProofSize]byte) error {
	var c, pi bls12381.G1Affine
	if _, err := c.SetBytes(commitment[:]); err != nil {
		return ErrInvalidCommitment
	}
	if _, err := pi.SetBytes(proof[:]); err != nil {
		return ErrInvalidProof
	}
	var zs, ys fr.Element
	if zs.SetBytesCanonical(z[:]) != nil || ys.SetBytesCanonical(y[:]) != nil {
		return ErrInvalidScalar
	}

	_, _, g1, g2 := bls12381.Generators()

	// C - [y]G1
	var yG1, lhs bls12381.G1Affine
	yG1.ScalarMultiplication(&g1, ys.BigInt(new(big.Int)))
	lhs.Sub(&c, &yG1)

	// [s]G2 - [z]G2
	var zG2, rhs bls12381.G2Affine
	zG2.ScalarMultiplication(&g2, zs.BigInt(new(big.Int)))
	rhs.Sub(&v.tauG2, &zG2)

	var negPi bls12381.G1Affine
	negPi.Neg(&pi)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{lhs, negPi},
		[]bls12381.G2Affine{g2, rhs},
	)
	if err != nil || !ok {
		return ErrVerifyFailed
	}
	return nil
}

// Setup is a known-secret setup for building proofs in tests. The secret
// makes it useless for anything else.
type Setup struct {
	secret fr.Element
}

// NewInsecureSetup returns a setup with the given secret.
func NewInsecureSetup(secret uint64) *Setup {
	s := &Setup{}
	s.secret.SetUint64(secret)
	return s
}

// Verifier returns a PairingVerifier for [secret]G2.
func (s *Setup) Verifier() *PairingVerifier {
	_, _, _, g2 := bls12381.Generators()
	v := &PairingVerifier{}
	v.tauG2.ScalarMultiplication(&g2, s.secret.BigInt(new(big.Int)))
	return v
}

// Commit returns [p(s)]G1 for the linear polynomial p(X) = a + b*X.
func (s *Setup) Commit(a, b uint64) [CommitmentSize]byte {
	var fa, fb, v fr.Element
	fa.SetUint64(a)
	fb.SetUint64(b)
	v.Mul(&fb, &s.secret).Add(&v, &fa)
	return g1Mul(&v).Bytes()
}

// Open returns y = p(z) and the proof [(p(s) - y) / (s - z)]G1 for
// p(X) = a + b*X.
func (s *Setup) Open(a, b, z uint64) (y [ScalarSize]byte, proof [ProofSize]byte) {
	var fa, fb, fz, fy fr.Element
	fa.SetUint64(a)
	fb.SetUint64(b)
	fz.SetUint64(z)
	fy.Mul(&fb, &fz).Add(&fy, &fa)

	// (a + b s - a - b z) / (s - z) = b
	y = fy.Bytes()
	return y, g1Mul(&fb).Bytes()
}

func g1Mul(k *fr.Element) *bls12381.G1Affine {
	var p bls12381.G1Affine
	p.ScalarMultiplicationBase(k.BigInt(new(big.Int)))
	return &p
}
