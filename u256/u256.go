// Package u256 converts between the byte encodings used by proofs and
// 256-bit integers. SSZ integers are little-endian, RLP and the EVM are
// big-endian with leading zeros stripped; comparisons between them go
// through this package so that both sides are normalized the same way.
package u256

import (
	"errors"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow   = errors.New("u256: value exceeds 256 bits")
	ErrInvalidHex = errors.New("u256: invalid hex quantity")
)

// FromBE interprets b as a big-endian unsigned integer. Inputs longer than
// 32 bytes are accepted when the excess high bytes are zero.
func FromBE(b []byte) (*uint256.Int, error) {
	b = TrimLeadingZeros(b)
	if len(b) > 32 {
		return nil, ErrOverflow
	}
	return new(uint256.Int).SetBytes(b), nil
}

// FromLE interprets b as a little-endian unsigned integer, the SSZ layout
// for uint8..uint256.
func FromLE(b []byte) (*uint256.Int, error) {
	return FromBE(Reverse(b))
}

// MustFromLE is FromLE for fixed-size SSZ fields that cannot overflow.
func MustFromLE(b []byte) *uint256.Int {
	v, err := FromLE(b)
	if err != nil {
		panic(err)
	}
	return v
}

// ToBE32 returns the 32-byte big-endian encoding of x.
func ToBE32(x *uint256.Int) [32]byte { return x.Bytes32() }

// ToLE returns the n-byte little-endian encoding of x, truncating high
// bytes when n < 32.
func ToLE(x *uint256.Int, n int) []byte {
	be := x.Bytes32()
	out := make([]byte, n)
	for i := 0; i < n && i < 32; i++ {
		out[i] = be[31-i]
	}
	return out
}

// Reverse returns a reversed copy of b.
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

// TrimLeadingZeros strips leading zero bytes. The result aliases b.
func TrimLeadingZeros(b []byte) []byte {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}

// EqualNumeric reports whether two big-endian byte strings encode the same
// number, ignoring leading zeros on either side.
func EqualNumeric(a, b []byte) bool {
	a, b = TrimLeadingZeros(a), TrimLeadingZeros(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EqualLE reports whether a little-endian SSZ integer equals a big-endian
// RLP integer.
func EqualLE(le, be []byte) bool {
	return EqualNumeric(Reverse(le), be)
}

// FromHex parses a 0x-prefixed quantity as used in JSON-RPC.
func FromHex(s string) (*uint256.Int, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, ErrInvalidHex
	}
	v, err := uint256.FromHex(s)
	if err != nil {
		// uint256 rejects leading zeros; accept them for tolerance.
		bi, ok := new(big.Int).SetString(s[2:], 16)
		if !ok || s[2:] == "" {
			return nil, ErrInvalidHex
		}
		v, overflow := uint256.FromBig(bi)
		if overflow {
			return nil, ErrOverflow
		}
		return v, nil
	}
	return v, nil
}

// ModExp computes base^exp mod m for operands of arbitrary length. The
// result is left-padded to len(mod) bytes. A zero modulus yields zeros.
func ModExp(base, exp, mod []byte) []byte {
	out := make([]byte, len(mod))
	m := new(big.Int).SetBytes(mod)
	if m.Sign() == 0 {
		return out
	}
	b := new(big.Int).SetBytes(base)
	e := new(big.Int).SetBytes(exp)
	var r *big.Int
	if m.Cmp(big.NewInt(1)) == 0 {
		r = new(big.Int)
	} else {
		r = new(big.Int).Exp(b, e, m)
	}
	r.FillBytes(out)
	return out
}

// BitLen returns the bit length of a big-endian byte string.
func BitLen(b []byte) int {
	b = TrimLeadingZeros(b)
	if len(b) == 0 {
		return 0
	}
	n := (len(b) - 1) * 8
	for top := b[0]; top != 0; top >>= 1 {
		n++
	}
	return n
}
