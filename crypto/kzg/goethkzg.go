package kzg

import (
	"fmt"
	"sync"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
)

// GoEthKZG verifies proofs against the Ethereum ceremony setup embedded in
// crate-crypto/go-eth-kzg. Loading the setup takes a few seconds, so it
// happens on first use.
type GoEthKZG struct {
	once sync.Once
	ctx  *goethkzg.Context
	err  error
}

// NewGoEthKZG returns a verifier with a lazily loaded context.
func NewGoEthKZG() *GoEthKZG { return &GoEthKZG{} }

func (g *GoEthKZG) Name() string { return "go-eth-kzg" }

func (g *GoEthKZG) context() (*goethkzg.Context, error) {
	g.once.Do(func() {
		g.ctx, g.err = goethkzg.NewContext4096Secure()
		if g.err != nil {
			g.err = fmt.Errorf("kzg: load trusted setup: %w", g.err)
		}
	})
	return g.ctx, g.err
}

func (g *GoEthKZG) VerifyProof(commitment [CommitmentSize]byte, z, y [ScalarSize]byte, proof [ProofSize]byte) error {
	ctx, err := g.context()
	if err != nil {
		return err
	}
	if err := ctx.VerifyKZGProof(goethkzg.KZGCommitment(commitment), goethkzg.Scalar(z), goethkzg.Scalar(y), goethkzg.KZGProof(proof)); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	return nil
}
