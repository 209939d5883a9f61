package kzg

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

func pointEvalInput(commitment [CommitmentSize]byte, z, y [ScalarSize]byte, proof [ProofSize]byte) []byte {
	vh := VersionedHash(commitment[:])
	var in []byte
	in = append(in, vh[:]...)
	in = append(in, z[:]...)
	in = append(in, y[:]...)
	in = append(in, commitment[:]...)
	in = append(in, proof[:]...)
	return in
}

func scalar(v uint64) (out [ScalarSize]byte) {
	var e fr.Element
	e.SetUint64(v)
	return e.Bytes()
}

func TestVersionedHash(t *testing.T) {
	var c [CommitmentSize]byte
	c[0] = 0xc0
	vh := VersionedHash(c[:])
	if vh[0] != VersionedHashVersion {
		t.Fatalf("version byte = %#x", vh[0])
	}
	// sha256 of the infinity commitment, version byte replaced.
	want := "010657f37554c781402a22917dee2f75def7ab966d7b770905398eba3c444014"
	if got := hex.EncodeToString(vh[:]); got != want {
		t.Fatalf("VersionedHash(infinity) = %s, want %s", got, want)
	}
}

func TestPointEvaluationOutput(t *testing.T) {
	out := PointEvaluationOutput()
	want := "0000000000000000000000000000000000000000000000000000000000001000" +
		"73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001"
	if got := hex.EncodeToString(out); got != want {
		t.Fatalf("output = %s", got)
	}
	out[0] = 0xff
	if PointEvaluationOutput()[0] != 0 {
		t.Fatal("output is shared")
	}
}

// ---------------------------------------------------------------------------
// PairingVerifier with a known-secret setup
// ---------------------------------------------------------------------------

func TestPairingVerifier_LinearPolynomial(t *testing.T) {
	setup := NewInsecureSetup(0x5eed)
	v := setup.Verifier()

	commitment := setup.Commit(7, 3)
	z := scalar(11)
	y, proof := setup.Open(7, 3, 11)

	if y != scalar(40) {
		t.Fatalf("p(11) = %x, want 40", y)
	}
	out, err := PointEvaluation(v, pointEvalInput(commitment, z, y, proof))
	if err != nil {
		t.Fatalf("PointEvaluation: %v", err)
	}
	if !bytes.Equal(out, PointEvaluationOutput()) {
		t.Fatalf("output = %x", out)
	}

	wrongY := scalar(41)
	if _, err := PointEvaluation(v, pointEvalInput(commitment, z, wrongY, proof)); !errors.Is(err, ErrVerifyFailed) {
		t.Fatalf("wrong y err = %v", err)
	}
}

func TestPairingVerifier_RoundTripTau(t *testing.T) {
	v := NewInsecureSetup(99).Verifier()
	tau := v.TauG2()
	w, err := NewPairingVerifier(tau[:])
	if err != nil {
		t.Fatalf("NewPairingVerifier: %v", err)
	}
	if w.TauG2() != tau {
		t.Fatal("tau round trip mismatch")
	}
	if _, err := New("gnark", tau[:]); err != nil {
		t.Fatalf("New(gnark): %v", err)
	}
	if _, err := New("ckzg", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("New(ckzg) err = %v", err)
	}
}

func TestPointEvaluation_InputChecks(t *testing.T) {
	setup := NewInsecureSetup(5)
	v := setup.Verifier()
	commitment := setup.Commit(1, 2)
	y, proof := setup.Open(1, 2, 3)
	good := pointEvalInput(commitment, scalar(3), y, proof)

	if _, err := PointEvaluation(v, good[:191]); !errors.Is(err, ErrInvalidInputLength) {
		t.Fatalf("short input err = %v", err)
	}

	badHash := bytes.Clone(good)
	badHash[5] ^= 1
	if _, err := PointEvaluation(v, badHash); !errors.Is(err, ErrVersionedHash) {
		t.Fatalf("versioned hash err = %v", err)
	}

	var modulus [ScalarSize]byte
	fr.Modulus().FillBytes(modulus[:])
	bigZ := pointEvalInput(commitment, modulus, y, proof)
	if _, err := PointEvaluation(v, bigZ); !errors.Is(err, ErrInvalidScalar) {
		t.Fatalf("z = r err = %v", err)
	}
}

// ---------------------------------------------------------------------------
// go-eth-kzg with the mainnet setup
// ---------------------------------------------------------------------------

// A constant polynomial p(X) = a opens to a everywhere with the identity as
// proof, whatever the setup.
func TestGoEthKZG_ConstantPolynomial(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the trusted setup")
	}
	var five fr.Element
	five.SetUint64(5)
	_, _, g1, _ := bls12381.Generators()
	var c bls12381.G1Affine
	c.ScalarMultiplication(&g1, five.BigInt(new(big.Int)))
	commitment := c.Bytes()

	var proof [ProofSize]byte
	proof[0] = 0xc0

	v := NewGoEthKZG()
	if _, err := PointEvaluation(v, pointEvalInput(commitment, scalar(123), scalar(5), proof)); err != nil {
		t.Fatalf("PointEvaluation: %v", err)
	}
	if _, err := PointEvaluation(v, pointEvalInput(commitment, scalar(123), scalar(6), proof)); !errors.Is(err, ErrVerifyFailed) {
		t.Fatalf("wrong value err = %v", err)
	}
}
