package bn254

import (
	"math/big"

	gnark "github.com/consensys/gnark-crypto/ecc/bn254"
)

// GnarkEngine runs the curve operations on gnark-crypto.
type GnarkEngine struct{}

func (GnarkEngine) Name() string { return "gnark" }

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func gnarkG1(b []byte) (gnark.G1Affine, error) {
	var p gnark.G1Affine
	if allZero(b[:G1Size]) {
		return p, nil
	}
	if err := p.X.SetBytesCanonical(b[0:32]); err != nil {
		return p, ErrInvalidPoint
	}
	if err := p.Y.SetBytesCanonical(b[32:64]); err != nil {
		return p, ErrInvalidPoint
	}
	if !p.IsOnCurve() {
		return p, ErrInvalidPoint
	}
	return p, nil
}

// gnarkG2 parses an ETH-ordered point; gnark's E2 is A0 + A1*i.
func gnarkG2(b []byte) (gnark.G2Affine, error) {
	var q gnark.G2Affine
	if allZero(b[:G2Size]) {
		return q, nil
	}
	raw := ETHToRawG2(b)
	if q.X.A0.SetBytesCanonical(raw[0:32]) != nil ||
		q.X.A1.SetBytesCanonical(raw[32:64]) != nil ||
		q.Y.A0.SetBytesCanonical(raw[64:96]) != nil ||
		q.Y.A1.SetBytesCanonical(raw[96:128]) != nil {
		return q, ErrFieldOverflow
	}
	if !q.IsOnCurve() {
		return q, ErrInvalidG2
	}
	if !q.IsInSubGroup() {
		return q, ErrNotInSubgroup
	}
	return q, nil
}

func gnarkEncodeG1(p *gnark.G1Affine) []byte {
	out := make([]byte, G1Size)
	if p.IsInfinity() {
		return out
	}
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[0:32], x[:])
	copy(out[32:64], y[:])
	return out
}

func (GnarkEngine) Add(input []byte) ([]byte, error) {
	input = padRight(input, 2*G1Size)
	a, err := gnarkG1(input[:64])
	if err != nil {
		return nil, err
	}
	b, err := gnarkG1(input[64:128])
	if err != nil {
		return nil, err
	}
	var r gnark.G1Affine
	r.Add(&a, &b)
	return gnarkEncodeG1(&r), nil
}

func (GnarkEngine) ScalarMul(input []byte) ([]byte, error) {
	input = padRight(input, G1Size+ScalarSize)
	p, err := gnarkG1(input[:64])
	if err != nil {
		return nil, err
	}
	var r gnark.G1Affine
	k := new(big.Int).SetBytes(input[64:96])
	r.ScalarMultiplication(&p, k.Mod(k, Order))
	return gnarkEncodeG1(&r), nil
}

func (GnarkEngine) PairingCheck(input []byte) (bool, error) {
	if len(input)%PairingSize != 0 {
		return false, ErrInvalidLength
	}
	k := len(input) / PairingSize
	if k == 0 {
		return true, nil
	}
	ps := make([]gnark.G1Affine, 0, k)
	qs := make([]gnark.G2Affine, 0, k)
	for i := 0; i < k; i++ {
		chunk := input[i*PairingSize : (i+1)*PairingSize]
		p, err := gnarkG1(chunk[:G1Size])
		if err != nil {
			return false, err
		}
		q, err := gnarkG2(chunk[G1Size:])
		if err != nil {
			return false, err
		}
		if p.IsInfinity() || q.IsInfinity() {
			continue
		}
		ps = append(ps, p)
		qs = append(qs, q)
	}
	if len(ps) == 0 {
		return true, nil
	}
	return gnark.PairingCheck(ps, qs)
}
