package bls

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
)

func testKeys(n int) []*SecretKey {
	keys := make([]*SecretKey, n)
	for i := range keys {
		keys[i] = SecretKeyFromSeed([]byte(fmt.Sprintf("bls-test-%d", i)))
	}
	return keys
}

func verifiers(t *testing.T) []Verifier {
	t.Helper()
	var out []Verifier
	for _, name := range Backends() {
		v, err := NewVerifier(name)
		if err != nil {
			t.Fatalf("NewVerifier(%s): %v", name, err)
		}
		out = append(out, v)
	}
	return out
}

func TestGeneratorPublicKey(t *testing.T) {
	one := make([]byte, SecretKeySize)
	one[31] = 1
	sk, err := SecretKeyFromBytes(one)
	if err != nil {
		t.Fatalf("SecretKeyFromBytes: %v", err)
	}
	pk := sk.PublicKey()
	want := "97f1d3a73197d7942695638c4fa9ac0fc3688c4f9774b905a14e3a3f171bac586c55e83ff97a1aeffb3af00adb22c6bb"
	if got := hex.EncodeToString(pk[:]); got != want {
		t.Fatalf("1*G1 = %s, want %s", got, want)
	}
}

func TestSecretKeyFromBytes_Invalid(t *testing.T) {
	if _, err := SecretKeyFromBytes(make([]byte, SecretKeySize)); !errors.Is(err, ErrInvalidSecretKey) {
		t.Fatalf("zero key err = %v", err)
	}
	if _, err := SecretKeyFromBytes(make([]byte, 31)); !errors.Is(err, ErrInvalidSecretKey) {
		t.Fatalf("short key err = %v", err)
	}
	over := bytes.Repeat([]byte{0xff}, SecretKeySize)
	if _, err := SecretKeyFromBytes(over); !errors.Is(err, ErrInvalidSecretKey) {
		t.Fatalf("overflowing key err = %v", err)
	}
}

func TestVerify(t *testing.T) {
	sk := testKeys(1)[0]
	pk := sk.PublicKey()
	msg := []byte("signing root")
	sig, err := sk.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	for _, v := range verifiers(t) {
		if !v.Verify(pk[:], msg, sig[:]) {
			t.Fatalf("%s: valid signature rejected", v.Name())
		}
		if v.Verify(pk[:], []byte("other"), sig[:]) {
			t.Fatalf("%s: signature accepted for other message", v.Name())
		}
		bad := sig
		bad[40] ^= 1
		if v.Verify(pk[:], msg, bad[:]) {
			t.Fatalf("%s: corrupted signature accepted", v.Name())
		}
	}
}

func TestFastAggregateVerify(t *testing.T) {
	keys := testKeys(16)
	msg := bytes.Repeat([]byte{0xab}, 32)

	pubkeys := make([][]byte, len(keys))
	sigs := make([][]byte, len(keys))
	for i, k := range keys {
		pk := k.PublicKey()
		pubkeys[i] = pk[:]
		s, err := k.Sign(msg)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		sigs[i] = s[:]
	}
	agg, err := AggregateSignatures(sigs)
	if err != nil {
		t.Fatalf("AggregateSignatures: %v", err)
	}
	viaKeys, err := AggregateSecretKeys(keys).Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if agg != viaKeys {
		t.Fatal("aggregate of signatures != signature of aggregate key")
	}

	for _, v := range verifiers(t) {
		if !v.FastAggregateVerify(pubkeys, msg, agg[:]) {
			t.Fatalf("%s: aggregate rejected", v.Name())
		}
		if v.FastAggregateVerify(pubkeys[1:], msg, agg[:]) {
			t.Fatalf("%s: aggregate accepted with a missing signer", v.Name())
		}
		if v.FastAggregateVerify(nil, msg, agg[:]) {
			t.Fatalf("%s: aggregate accepted with no keys", v.Name())
		}
	}
}

func TestPublicKeyRejections(t *testing.T) {
	v := NewGnarkVerifier(8)
	inf := make([]byte, PublicKeySize)
	inf[0] = 0xc0
	if _, err := v.publicKey(inf); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("infinity key err = %v", err)
	}
	if _, err := v.publicKey(make([]byte, 47)); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("short key err = %v", err)
	}
}

func TestGnarkVerifier_Cache(t *testing.T) {
	v := NewGnarkVerifier(2)
	keys := testKeys(3)
	for _, k := range keys {
		pk := k.PublicKey()
		if _, err := v.publicKey(pk[:]); err != nil {
			t.Fatalf("publicKey: %v", err)
		}
	}
	if n := v.keys.Len(); n != 2 {
		t.Fatalf("cache holds %d keys, want 2", n)
	}
}

func TestNewVerifier_Unknown(t *testing.T) {
	if _, err := NewVerifier("herumi"); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v", err)
	}
	if v, err := NewVerifier(""); err != nil || v.Name() != "gnark" {
		t.Fatalf("default backend = (%v, %v)", v, err)
	}
}
