// Package bls verifies Ethereum BLS signatures (min-pk: 48-byte compressed G1
// public keys, 96-byte compressed G2 signatures, proof-of-possession DST).
//
// The default backend is pure Go on gnark-crypto. Building with the blst tag
// registers a cgo backend on supranational/blst under the name "blst".
package bls

import (
	"errors"
	"sort"
)

// DST is the hash-to-curve domain separation tag of the Ethereum
// proof-of-possession scheme.
var DST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

// Encoded sizes.
const (
	PublicKeySize = 48
	SignatureSize = 96
	SecretKeySize = 32
)

var (
	ErrInvalidPublicKey = errors.New("bls: invalid public key")
	ErrInvalidSignature = errors.New("bls: invalid signature")
	ErrInvalidSecretKey = errors.New("bls: invalid secret key")
	ErrNoPublicKeys     = errors.New("bls: no public keys")
	ErrUnknownBackend   = errors.New("bls: unknown backend")
)

// Verifier checks signatures over compressed encodings. Invalid encodings
// make verification fail; they are never an error.
type Verifier interface {
	Name() string
	// Verify checks a single signature.
	Verify(pubkey, msg, sig []byte) bool
	// FastAggregateVerify checks an aggregate signature where every signer
	// signed the same message, as sync committees do.
	FastAggregateVerify(pubkeys [][]byte, msg, sig []byte) bool
}

var backends = map[string]func() Verifier{
	"gnark": func() Verifier { return NewGnarkVerifier(DefaultCacheSize) },
}

// NewVerifier returns the backend registered under name. The empty name
// selects "gnark".
func NewVerifier(name string) (Verifier, error) {
	if name == "" {
		name = "gnark"
	}
	mk, ok := backends[name]
	if !ok {
		return nil, ErrUnknownBackend
	}
	return mk(), nil
}

// Backends lists the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
