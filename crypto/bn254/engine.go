package bn254

import (
	"errors"
	"math/big"
)

var (
	ErrInvalidPoint   = errors.New("bn254: invalid G1 point")
	ErrInvalidG2      = errors.New("bn254: invalid G2 point")
	ErrNotInSubgroup  = errors.New("bn254: G2 point not in subgroup")
	ErrInvalidLength  = errors.New("bn254: invalid input length")
	ErrFieldOverflow  = errors.New("bn254: coordinate not below field modulus")
	ErrUnknownBackend = errors.New("bn254: unknown engine")
)

// Encoded sizes.
const (
	G1Size      = 64
	G2Size      = 128
	ScalarSize  = 32
	PairingSize = G1Size + G2Size
)

// Engine performs the three curve operations behind the EVM precompiles.
// Inputs use EVM encodings: G1 as x||y, G2 in ETH order
// (x_im, x_re, y_im, y_re), every coordinate a 32-byte big-endian integer.
// Add and ScalarMul right-pad short input with zeros.
type Engine interface {
	Name() string
	// Add takes two G1 points (128 bytes) and returns their sum (64 bytes).
	Add(input []byte) ([]byte, error)
	// ScalarMul takes a G1 point and a scalar (96 bytes) and returns k*P.
	ScalarMul(input []byte) ([]byte, error)
	// PairingCheck takes k 192-byte (G1, G2) pairs and reports whether the
	// product of their pairings is one. An empty input is true.
	PairingCheck(input []byte) (bool, error)
}

// NewEngine returns the engine registered under name ("native" or "gnark").
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", "native":
		return NativeEngine{}, nil
	case "gnark":
		return GnarkEngine{}, nil
	default:
		return nil, ErrUnknownBackend
	}
}

// ETHToRawG2 reorders a 128-byte G2 point from (x_im, x_re, y_im, y_re) to
// (x_re, x_im, y_re, y_im).
func ETHToRawG2(b []byte) []byte {
	out := make([]byte, G2Size)
	copy(out[0:32], b[32:64])
	copy(out[32:64], b[0:32])
	copy(out[64:96], b[96:128])
	copy(out[96:128], b[64:96])
	return out
}

// RawToETHG2 is the inverse of ETHToRawG2; the swap is an involution.
func RawToETHG2(b []byte) []byte { return ETHToRawG2(b) }

func padRight(b []byte, n int) []byte {
	if len(b) >= n {
		return b[:n]
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func encodeG1(x, y *big.Int) []byte {
	out := make([]byte, G1Size)
	x.FillBytes(out[0:32])
	y.FillBytes(out[32:64])
	return out
}

// NativeEngine is the from-scratch math/big implementation.
type NativeEngine struct{}

func (NativeEngine) Name() string { return "native" }

func decodeG1(b []byte) (*g1Jac, error) {
	x := new(big.Int).SetBytes(b[0:32])
	y := new(big.Int).SetBytes(b[32:64])
	if !g1OnCurve(x, y) {
		return nil, ErrInvalidPoint
	}
	return g1FromAffine(x, y), nil
}

// decodeG2 parses an ETH-ordered G2 point and checks curve and subgroup
// membership.
func decodeG2(b []byte) (*g2Jac, error) {
	xIm := new(big.Int).SetBytes(b[0:32])
	xRe := new(big.Int).SetBytes(b[32:64])
	yIm := new(big.Int).SetBytes(b[64:96])
	yRe := new(big.Int).SetBytes(b[96:128])
	for _, c := range []*big.Int{xIm, xRe, yIm, yRe} {
		if c.Cmp(P) >= 0 {
			return nil, ErrFieldOverflow
		}
	}
	x := &gfP2{re: xRe, im: xIm}
	y := &gfP2{re: yRe, im: yIm}
	if x.isZero() && y.isZero() {
		return g2Infinity(), nil
	}
	if !g2OnCurve(x, y) {
		return nil, ErrInvalidG2
	}
	q := g2FromAffine(x, y)
	if !q.inSubgroup() {
		return nil, ErrNotInSubgroup
	}
	return q, nil
}

func (NativeEngine) Add(input []byte) ([]byte, error) {
	input = padRight(input, 2*G1Size)
	a, err := decodeG1(input[:64])
	if err != nil {
		return nil, err
	}
	b, err := decodeG1(input[64:128])
	if err != nil {
		return nil, err
	}
	return encodeG1(a.add(b).affine()), nil
}

func (NativeEngine) ScalarMul(input []byte) ([]byte, error) {
	input = padRight(input, G1Size+ScalarSize)
	p, err := decodeG1(input[:64])
	if err != nil {
		return nil, err
	}
	return encodeG1(p.mul(input[64:96]).affine()), nil
}

func (NativeEngine) PairingCheck(input []byte) (bool, error) {
	if len(input)%PairingSize != 0 {
		return false, ErrInvalidLength
	}
	k := len(input) / PairingSize
	g1 := make([]*g1Jac, k)
	g2 := make([]*g2Jac, k)
	for i := 0; i < k; i++ {
		chunk := input[i*PairingSize : (i+1)*PairingSize]
		var err error
		if g1[i], err = decodeG1(chunk[:G1Size]); err != nil {
			return false, err
		}
		if g2[i], err = decodeG2(chunk[G1Size:]); err != nil {
			return false, err
		}
	}
	return pairingProductIsOne(g1, g2), nil
}
