// Package bls12381 implements the EIP-2537 precompile operations on top of
// gnark-crypto's BLS12-381 arithmetic.
//
// Encodings: a base field element is a 64-byte big-endian limb whose top 16
// bytes are zero; G1 points are X||Y (128 bytes); G2 points are
// X.c0||X.c1||Y.c0||Y.c1 (256 bytes). The all-zero encoding is infinity.
package bls12381

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc"
	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	ErrInvalidLength = errors.New("bls12-381: invalid input length")
	ErrInvalidField  = errors.New("bls12-381: invalid field element")
	ErrNotOnCurve    = errors.New("bls12-381: point not on curve")
	ErrNotInSubgroup = errors.New("bls12-381: point not in subgroup")
	ErrPairing       = errors.New("bls12-381: pairing failed")
)

// Encoding sizes.
const (
	FpSize      = 64
	G1Size      = 2 * FpSize
	G2Size      = 4 * FpSize
	ScalarSize  = 32
	G1MulSize   = G1Size + ScalarSize
	G2MulSize   = G2Size + ScalarSize
	PairingSize = G1Size + G2Size
)

// decodeFp reads a 64-byte padded field element. The top 16 bytes must be
// zero and the value must be below the modulus.
func decodeFp(data []byte) (fp.Element, error) {
	var e fp.Element
	for i := 0; i < FpSize-fp.Bytes; i++ {
		if data[i] != 0 {
			return e, ErrInvalidField
		}
	}
	if err := e.SetBytesCanonical(data[FpSize-fp.Bytes : FpSize]); err != nil {
		return e, ErrInvalidField
	}
	return e, nil
}

func encodeFp(dst []byte, e *fp.Element) {
	b := e.Bytes()
	copy(dst[FpSize-fp.Bytes:FpSize], b[:])
}

func decodeFp2(data []byte) (bls.E2, error) {
	var e bls.E2
	var err error
	if e.A0, err = decodeFp(data[:FpSize]); err != nil {
		return e, err
	}
	if e.A1, err = decodeFp(data[FpSize : 2*FpSize]); err != nil {
		return e, err
	}
	return e, nil
}

func encodeFp2(dst []byte, e *bls.E2) {
	encodeFp(dst[:FpSize], &e.A0)
	encodeFp(dst[FpSize:2*FpSize], &e.A1)
}

// decodeG1 parses a 128-byte point. Infinity is accepted as is; any other
// point must be on the curve, and in the subgroup when subgroup is set.
func decodeG1(data []byte, subgroup bool) (bls.G1Affine, error) {
	var p bls.G1Affine
	var err error
	if p.X, err = decodeFp(data[:FpSize]); err != nil {
		return p, err
	}
	if p.Y, err = decodeFp(data[FpSize:G1Size]); err != nil {
		return p, err
	}
	if p.IsInfinity() {
		return p, nil
	}
	if !p.IsOnCurve() {
		return p, ErrNotOnCurve
	}
	if subgroup && !p.IsInSubGroup() {
		return p, ErrNotInSubgroup
	}
	return p, nil
}

func encodeG1(p *bls.G1Affine) []byte {
	out := make([]byte, G1Size)
	if p.IsInfinity() {
		return out
	}
	encodeFp(out[:FpSize], &p.X)
	encodeFp(out[FpSize:], &p.Y)
	return out
}

func decodeG2(data []byte, subgroup bool) (bls.G2Affine, error) {
	var p bls.G2Affine
	var err error
	if p.X, err = decodeFp2(data[:2*FpSize]); err != nil {
		return p, err
	}
	if p.Y, err = decodeFp2(data[2*FpSize : G2Size]); err != nil {
		return p, err
	}
	if p.IsInfinity() {
		return p, nil
	}
	if !p.IsOnCurve() {
		return p, ErrNotOnCurve
	}
	if subgroup && !p.IsInSubGroup() {
		return p, ErrNotInSubgroup
	}
	return p, nil
}

func encodeG2(p *bls.G2Affine) []byte {
	out := make([]byte, G2Size)
	if p.IsInfinity() {
		return out
	}
	encodeFp2(out[:2*FpSize], &p.X)
	encodeFp2(out[2*FpSize:], &p.Y)
	return out
}

// G1Add adds two G1 points (0x0b). Inputs are not subgroup checked.
func G1Add(input []byte) ([]byte, error) {
	if len(input) != 2*G1Size {
		return nil, ErrInvalidLength
	}
	a, err := decodeG1(input[:G1Size], false)
	if err != nil {
		return nil, err
	}
	b, err := decodeG1(input[G1Size:], false)
	if err != nil {
		return nil, err
	}
	var aj, bj bls.G1Jac
	aj.FromAffine(&a)
	bj.FromAffine(&b)
	aj.AddAssign(&bj)
	var r bls.G1Affine
	r.FromJacobian(&aj)
	return encodeG1(&r), nil
}

// G1MSM computes sum(k_i * P_i) over 160-byte (point, scalar) pairs (0x0c).
// A single pair is plain scalar multiplication.
func G1MSM(input []byte) ([]byte, error) {
	if len(input) == 0 || len(input)%G1MulSize != 0 {
		return nil, ErrInvalidLength
	}
	k := len(input) / G1MulSize
	points := make([]bls.G1Affine, k)
	scalars := make([]fr.Element, k)
	for i := 0; i < k; i++ {
		off := i * G1MulSize
		p, err := decodeG1(input[off:off+G1Size], true)
		if err != nil {
			return nil, err
		}
		points[i] = p
		scalars[i].SetBytes(input[off+G1Size : off+G1MulSize])
	}
	var r bls.G1Affine
	if _, err := r.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return encodeG1(&r), nil
}

// G2Add adds two G2 points (0x0d).
func G2Add(input []byte) ([]byte, error) {
	if len(input) != 2*G2Size {
		return nil, ErrInvalidLength
	}
	a, err := decodeG2(input[:G2Size], false)
	if err != nil {
		return nil, err
	}
	b, err := decodeG2(input[G2Size:], false)
	if err != nil {
		return nil, err
	}
	var aj, bj bls.G2Jac
	aj.FromAffine(&a)
	bj.FromAffine(&b)
	aj.AddAssign(&bj)
	var r bls.G2Affine
	r.FromJacobian(&aj)
	return encodeG2(&r), nil
}

// G2MSM is the G2 counterpart of G1MSM over 288-byte pairs (0x0e).
func G2MSM(input []byte) ([]byte, error) {
	if len(input) == 0 || len(input)%G2MulSize != 0 {
		return nil, ErrInvalidLength
	}
	k := len(input) / G2MulSize
	points := make([]bls.G2Affine, k)
	scalars := make([]fr.Element, k)
	for i := 0; i < k; i++ {
		off := i * G2MulSize
		p, err := decodeG2(input[off:off+G2Size], true)
		if err != nil {
			return nil, err
		}
		points[i] = p
		scalars[i].SetBytes(input[off+G2Size : off+G2MulSize])
	}
	var r bls.G2Affine
	if _, err := r.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return encodeG2(&r), nil
}

// PairingCheck reports whether the product of e(P_i, Q_i) over 384-byte
// pairs is one (0x0f). The output is a 32-byte word ending in 1 or 0.
func PairingCheck(input []byte) ([]byte, error) {
	if len(input) == 0 || len(input)%PairingSize != 0 {
		return nil, ErrInvalidLength
	}
	k := len(input) / PairingSize
	ps := make([]bls.G1Affine, 0, k)
	qs := make([]bls.G2Affine, 0, k)
	for i := 0; i < k; i++ {
		off := i * PairingSize
		p, err := decodeG1(input[off:off+G1Size], true)
		if err != nil {
			return nil, err
		}
		q, err := decodeG2(input[off+G1Size:off+PairingSize], true)
		if err != nil {
			return nil, err
		}
		if p.IsInfinity() || q.IsInfinity() {
			continue
		}
		ps = append(ps, p)
		qs = append(qs, q)
	}
	out := make([]byte, 32)
	if len(ps) == 0 {
		out[31] = 1
		return out, nil
	}
	ok, err := bls.PairingCheck(ps, qs)
	if err != nil {
		return nil, ErrPairing
	}
	if ok {
		out[31] = 1
	}
	return out, nil
}

// MapFpToG1 maps a field element to G1 with the SSWU map and cofactor
// clearing (0x10).
func MapFpToG1(input []byte) ([]byte, error) {
	if len(input) != FpSize {
		return nil, ErrInvalidLength
	}
	u, err := decodeFp(input)
	if err != nil {
		return nil, err
	}
	p := bls.MapToG1(u)
	return encodeG1(&p), nil
}

// MapFp2ToG2 maps an Fp2 element to G2 (0x11).
func MapFp2ToG2(input []byte) ([]byte, error) {
	if len(input) != 2*FpSize {
		return nil, ErrInvalidLength
	}
	u, err := decodeFp2(input)
	if err != nil {
		return nil, err
	}
	p := bls.MapToG2(u)
	return encodeG2(&p), nil
}
