package precompiles

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/blake2b"
	"golang.org/x/crypto/ripemd160"

	"github.com/eth2030/stateless/buffer"
	"github.com/eth2030/stateless/crypto/bls12381"
	"github.com/eth2030/stateless/crypto/bn254"
	"github.com/eth2030/stateless/crypto/kzg"
	"github.com/eth2030/stateless/u256"
)

var (
	errBlake2FLength = errors.New("blake2f: invalid input length")
	errBlake2FFinal  = errors.New("blake2f: invalid final block indicator")
	errModExpLength  = errors.New("modexp: length overflow")
)

// --- ecrecover (address 0x01) ---

type ecrecover struct{}

func (c *ecrecover) RequiredGas(input []byte) uint64 { return ecrecoverGas }

// Run returns the 32-byte left-padded signer address, or empty output when
// the signature does not recover.
func (c *ecrecover) Run(input []byte) ([]byte, error) {
	input = padRight(input, 128)

	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])
	v := input[63] - 27

	// v must be a 32-byte word holding 27 or 28.
	if !allZero(input[32:63]) || !crypto.ValidateSignatureValues(v, r, s, false) {
		return nil, nil
	}
	sig := make([]byte, 65)
	copy(sig, input[64:128])
	sig[64] = v

	pub, err := crypto.Ecrecover(input[:32], sig)
	if err != nil {
		return nil, nil
	}
	return leftPadWord(crypto.Keccak256(pub[1:])[12:])
}

// --- sha256hash (address 0x02) ---

type sha256hash struct{}

func (c *sha256hash) RequiredGas(input []byte) uint64 {
	return sha256BaseGas + sha256PerWordGas*wordCount(len(input))
}

func (c *sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// --- ripemd160hash (address 0x03) ---

type ripemd160hash struct{}

func (c *ripemd160hash) RequiredGas(input []byte) uint64 {
	return ripemd160BaseGas + ripemd160PerWordGas*wordCount(len(input))
}

func (c *ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	return leftPadWord(h.Sum(nil))
}

// --- dataCopy (address 0x04) ---

type dataCopy struct{}

func (c *dataCopy) RequiredGas(input []byte) uint64 {
	return identityBaseGas + identityPerWordGas*wordCount(len(input))
}

func (c *dataCopy) Run(input []byte) ([]byte, error) {
	return append([]byte(nil), input...), nil
}

// --- bigModExp (address 0x05) ---

// modExpMaxLength bounds each operand length, as in EIP-7823.
const modExpMaxLength = 1024

type bigModExp struct{}

func (c *bigModExp) RequiredGas(input []byte) uint64 {
	return modExpGas(input)
}

func (c *bigModExp) Run(input []byte) ([]byte, error) {
	header := padRight(input, 96)
	baseLen := new(big.Int).SetBytes(header[0:32])
	expLen := new(big.Int).SetBytes(header[32:64])
	modLen := new(big.Int).SetBytes(header[64:96])
	if baseLen.BitLen() > 32 || expLen.BitLen() > 32 || modLen.BitLen() > 32 {
		return nil, errModExpLength
	}
	bLen, eLen, mLen := baseLen.Uint64(), expLen.Uint64(), modLen.Uint64()
	if bLen > modExpMaxLength || eLen > modExpMaxLength || mLen > modExpMaxLength {
		return nil, errModExpLength
	}
	if bLen == 0 && mLen == 0 {
		return []byte{}, nil
	}

	var data []byte
	if len(input) > 96 {
		data = input[96:]
	}
	base := getDataSlice(data, 0, bLen)
	exp := getDataSlice(data, bLen, eLen)
	mod := getDataSlice(data, bLen+eLen, mLen)
	return u256.ModExp(base, exp, mod), nil
}

// --- bn256Add (address 0x06), EIP-196 ---

type bn256Add struct{ engine bn254.Engine }

func (c *bn256Add) RequiredGas(input []byte) uint64 { return bn256AddGas }

func (c *bn256Add) Run(input []byte) ([]byte, error) { return c.engine.Add(input) }

// --- bn256ScalarMul (address 0x07), EIP-196 ---

type bn256ScalarMul struct{ engine bn254.Engine }

func (c *bn256ScalarMul) RequiredGas(input []byte) uint64 { return bn256ScalarMulGas }

func (c *bn256ScalarMul) Run(input []byte) ([]byte, error) { return c.engine.ScalarMul(input) }

// --- bn256Pairing (address 0x08), EIP-197 ---

type bn256Pairing struct{ engine bn254.Engine }

func (c *bn256Pairing) RequiredGas(input []byte) uint64 {
	return bn256PairingBaseGas + bn256PairingPerPointGas*uint64(len(input)/bn254.PairingSize)
}

func (c *bn256Pairing) Run(input []byte) ([]byte, error) {
	ok, err := c.engine.PairingCheck(input)
	if err != nil {
		return nil, err
	}
	if ok {
		return leftPadWord([]byte{1})
	}
	return leftPadWord(nil)
}

// --- blake2F (address 0x09), EIP-152 ---

const blake2FInputLength = 213

type blake2F struct{}

func (c *blake2F) RequiredGas(input []byte) uint64 {
	if len(input) != blake2FInputLength {
		return 0
	}
	return uint64(binary.BigEndian.Uint32(input[:4]))
}

// Run takes [4 rounds][64 h][128 m][8 t0][8 t1][1 f].
func (c *blake2F) Run(input []byte) ([]byte, error) {
	if len(input) != blake2FInputLength {
		return nil, errBlake2FLength
	}
	if input[212] > 1 {
		return nil, errBlake2FFinal
	}
	rounds := binary.BigEndian.Uint32(input[:4])
	final := input[212] == 1

	var (
		h [8]uint64
		m [16]uint64
		t [2]uint64
	)
	for i := range h {
		h[i] = binary.LittleEndian.Uint64(input[4+i*8:])
	}
	for i := range m {
		m[i] = binary.LittleEndian.Uint64(input[68+i*8:])
	}
	t[0] = binary.LittleEndian.Uint64(input[196:204])
	t[1] = binary.LittleEndian.Uint64(input[204:212])

	blake2b.F(&h, m, t, final, rounds)

	out := buffer.NewFixed(make([]byte, 0, 64))
	for i := range h {
		out.AppendUint64LE(h[i])
	}
	return out.Bytes(), out.Err()
}

// --- kzgPointEvaluation (address 0x0a), EIP-4844 ---

type kzgPointEvaluation struct{ verifier kzg.Verifier }

func (c *kzgPointEvaluation) RequiredGas(input []byte) uint64 { return pointEvaluationGas }

func (c *kzgPointEvaluation) Run(input []byte) ([]byte, error) {
	if c.verifier == nil {
		return nil, errNotImplemented
	}
	return kzg.PointEvaluation(c.verifier, input)
}

// --- BLS12-381 (addresses 0x0b..0x11), EIP-2537 ---

type bls12G1Add struct{}

func (c *bls12G1Add) RequiredGas(input []byte) uint64 { return bls12G1AddGas }

func (c *bls12G1Add) Run(input []byte) ([]byte, error) { return bls12381.G1Add(input) }

type bls12G1MSM struct{}

func (c *bls12G1MSM) RequiredGas(input []byte) uint64 {
	k := len(input) / bls12381.G1MulSize
	return msmGas(k, bls12G1MulGas, g1MSMDiscount[:], g1MSMMaxDiscount)
}

func (c *bls12G1MSM) Run(input []byte) ([]byte, error) { return bls12381.G1MSM(input) }

type bls12G2Add struct{}

func (c *bls12G2Add) RequiredGas(input []byte) uint64 { return bls12G2AddGas }

func (c *bls12G2Add) Run(input []byte) ([]byte, error) { return bls12381.G2Add(input) }

type bls12G2MSM struct{}

func (c *bls12G2MSM) RequiredGas(input []byte) uint64 {
	k := len(input) / bls12381.G2MulSize
	return msmGas(k, bls12G2MulGas, g2MSMDiscount[:], g2MSMMaxDiscount)
}

func (c *bls12G2MSM) Run(input []byte) ([]byte, error) { return bls12381.G2MSM(input) }

type bls12Pairing struct{}

func (c *bls12Pairing) RequiredGas(input []byte) uint64 {
	return bls12PairingBaseGas + bls12PairingPerPairGas*uint64(len(input)/bls12381.PairingSize)
}

func (c *bls12Pairing) Run(input []byte) ([]byte, error) { return bls12381.PairingCheck(input) }

type bls12MapG1 struct{}

func (c *bls12MapG1) RequiredGas(input []byte) uint64 { return bls12MapG1Gas }

func (c *bls12MapG1) Run(input []byte) ([]byte, error) { return bls12381.MapFpToG1(input) }

type bls12MapG2 struct{}

func (c *bls12MapG2) RequiredGas(input []byte) uint64 { return bls12MapG2Gas }

func (c *bls12MapG2) Run(input []byte) ([]byte, error) { return bls12381.MapFp2ToG2(input) }

// --- helpers ---

// wordCount returns ceil(size / 32).
func wordCount(size int) uint64 {
	return uint64((size + 31) / 32)
}

// leftPadWord returns v right-aligned in a 32-byte word. Values longer
// than a word are an error.
func leftPadWord(v []byte) ([]byte, error) {
	out := buffer.NewFixed(make([]byte, 0, 32))
	out.Zeros(32 - len(v))
	out.Write(v)
	return out.Bytes(), out.Err()
}

// padRight pads data with zeros on the right to reach at least minLen.
func padRight(data []byte, minLen int) []byte {
	if len(data) >= minLen {
		return data
	}
	padded := make([]byte, minLen)
	copy(padded, data)
	return padded
}

// getDataSlice returns length bytes of data from offset, zero-padded past
// the end of data.
func getDataSlice(data []byte, offset, length uint64) []byte {
	result := make([]byte, length)
	if offset >= uint64(len(data)) {
		return result
	}
	end := offset + length
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(result, data[offset:end])
	return result
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
