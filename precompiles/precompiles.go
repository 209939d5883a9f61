// Package precompiles dispatches the Ethereum precompiled contracts
// 0x01..0x11 and computes their gas.
package precompiles

import (
	"errors"

	"github.com/eth2030/stateless/crypto/bls12381"
	"github.com/eth2030/stateless/crypto/bn254"
	"github.com/eth2030/stateless/crypto/kzg"
)

// Status is the outcome of a precompile call.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusError
	StatusOutOfBounds
	StatusInvalidInput
	StatusInvalidAddress
	StatusNotImplemented
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusOutOfBounds:
		return "out of bounds"
	case StatusInvalidInput:
		return "invalid input"
	case StatusInvalidAddress:
		return "invalid address"
	case StatusNotImplemented:
		return "not implemented"
	default:
		return "unknown"
	}
}

// PrecompiledContract is the interface for native precompiled contracts.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// Address returns the 20-byte address of precompile n.
func Address(n byte) (a [20]byte) {
	a[19] = n
	return a
}

// MaxAddress is the highest assigned precompile (MAP_FP2_TO_G2).
const MaxAddress = 0x11

var errNotImplemented = errors.New("precompile: backend not configured")

// Set is a precompile table bound to a BN254 engine and a KZG verifier.
type Set struct {
	table [MaxAddress + 1]PrecompiledContract
}

// New builds the table. A nil engine selects the native BN254 engine; a nil
// KZG verifier makes POINT_EVALUATION report StatusNotImplemented.
func New(engine bn254.Engine, verifier kzg.Verifier) *Set {
	if engine == nil {
		engine = bn254.NativeEngine{}
	}
	s := &Set{}
	s.table[0x01] = &ecrecover{}
	s.table[0x02] = &sha256hash{}
	s.table[0x03] = &ripemd160hash{}
	s.table[0x04] = &dataCopy{}
	s.table[0x05] = &bigModExp{}
	s.table[0x06] = &bn256Add{engine}
	s.table[0x07] = &bn256ScalarMul{engine}
	s.table[0x08] = &bn256Pairing{engine}
	s.table[0x09] = &blake2F{}
	s.table[0x0a] = &kzgPointEvaluation{verifier}
	s.table[0x0b] = &bls12G1Add{}
	s.table[0x0c] = &bls12G1MSM{}
	s.table[0x0d] = &bls12G2Add{}
	s.table[0x0e] = &bls12G2MSM{}
	s.table[0x0f] = &bls12Pairing{}
	s.table[0x10] = &bls12MapG1{}
	s.table[0x11] = &bls12MapG2{}
	return s
}

var defaultSet = New(bn254.NativeEngine{}, kzg.NewGoEthKZG())

// Default returns the table with the native BN254 engine and the mainnet
// KZG setup.
func Default() *Set { return defaultSet }

// Contract returns the contract at addr.
func (s *Set) Contract(addr [20]byte) (PrecompiledContract, bool) {
	for _, b := range addr[:19] {
		if b != 0 {
			return nil, false
		}
	}
	n := addr[19]
	if n == 0 || n > MaxAddress {
		return nil, false
	}
	return s.table[n], true
}

// Run executes the precompile at addr. The gas is reported for every
// assigned address, also when the call fails.
func (s *Set) Run(addr [20]byte, input []byte) ([]byte, uint64, Status) {
	c, ok := s.Contract(addr)
	if !ok {
		return nil, 0, StatusInvalidAddress
	}
	gas := c.RequiredGas(input)
	out, err := c.Run(input)
	if err != nil {
		return nil, gas, classify(err)
	}
	return out, gas, StatusSuccess
}

// Run executes addr on the default table.
func Run(addr [20]byte, input []byte) ([]byte, uint64, Status) {
	return defaultSet.Run(addr, input)
}

var (
	outOfBounds = []error{
		bn254.ErrInvalidLength,
		bls12381.ErrInvalidLength,
		kzg.ErrInvalidInputLength,
		errBlake2FLength,
		errModExpLength,
	}
	invalidInput = []error{
		bn254.ErrInvalidPoint,
		bn254.ErrInvalidG2,
		bn254.ErrNotInSubgroup,
		bn254.ErrFieldOverflow,
		bls12381.ErrInvalidField,
		bls12381.ErrNotOnCurve,
		bls12381.ErrNotInSubgroup,
		kzg.ErrVersionedHash,
		kzg.ErrInvalidScalar,
		kzg.ErrInvalidCommitment,
		kzg.ErrInvalidProof,
		kzg.ErrVerifyFailed,
		errBlake2FFinal,
	}
)

func classify(err error) Status {
	if errors.Is(err, errNotImplemented) {
		return StatusNotImplemented
	}
	for _, e := range outOfBounds {
		if errors.Is(err, e) {
			return StatusOutOfBounds
		}
	}
	for _, e := range invalidInput {
		if errors.Is(err, e) {
			return StatusInvalidInput
		}
	}
	return StatusError
}
