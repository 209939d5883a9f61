//go:build blst

package bls

import (
	blst "github.com/supranational/blst/bindings/go"
)

func init() {
	backends["blst"] = func() Verifier { return BlstVerifier{} }
}

// BlstVerifier verifies signatures with the supranational/blst C library.
// Build with: go build -tags blst
type BlstVerifier struct{}

func (BlstVerifier) Name() string { return "blst" }

func blstPublicKey(b []byte) *blst.P1Affine {
	if len(b) != PublicKeySize {
		return nil
	}
	pk := new(blst.P1Affine).Uncompress(b)
	if pk == nil || !pk.KeyValidate() {
		return nil
	}
	return pk
}

func blstSignature(b []byte) *blst.P2Affine {
	if len(b) != SignatureSize {
		return nil
	}
	return new(blst.P2Affine).Uncompress(b)
}

func (BlstVerifier) Verify(pubkey, msg, sig []byte) bool {
	pk := blstPublicKey(pubkey)
	s := blstSignature(sig)
	if pk == nil || s == nil {
		return false
	}
	return s.Verify(true, pk, false, msg, DST)
}

func (BlstVerifier) FastAggregateVerify(pubkeys [][]byte, msg, sig []byte) bool {
	if len(pubkeys) == 0 {
		return false
	}
	s := blstSignature(sig)
	if s == nil {
		return false
	}
	pks := make([]*blst.P1Affine, len(pubkeys))
	for i, b := range pubkeys {
		if pks[i] = blstPublicKey(b); pks[i] == nil {
			return false
		}
	}
	return s.FastAggregateVerify(true, pks, msg, DST)
}
