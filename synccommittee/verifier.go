// Package synccommittee verifies beacon block headers against the BLS
// aggregate signatures of the Ethereum sync committee, and maintains the
// per-period committee keys by applying light-client updates.
package synccommittee

import (
	"errors"
	"fmt"

	"github.com/prysmaticlabs/go-bitfield"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/crypto/bls"
	"github.com/eth2030/stateless/log"
	"github.com/eth2030/stateless/ssz"
)

var (
	ErrInvalidSignature  = errors.New("synccommittee: invalid sync committee signature")
	ErrNoParticipants    = errors.New("synccommittee: no sync committee participants")
	ErrInvalidCommittee  = errors.New("synccommittee: invalid committee key set")
	ErrInvalidBranch     = errors.New("synccommittee: sync committee branch does not match state root")
	ErrCheckpoint        = errors.New("synccommittee: bootstrap header does not match trusted root")
	ErrInvalidHeader     = errors.New("synccommittee: invalid beacon header")
	ErrCorruptStore      = errors.New("synccommittee: corrupt stored state")
	ErrInvalidUpdate     = errors.New("synccommittee: invalid light client update")
	ErrMalformedResponse = errors.New("synccommittee: malformed response")
)

// MissingPeriodError reports that the committees of periods First..Last
// are not stored. It is a suspension, not a failure: once the updates for
// those periods are applied the same verification can be retried.
type MissingPeriodError struct {
	First, Last uint64
}

func (e *MissingPeriodError) Error() string {
	return fmt.Sprintf("synccommittee: missing sync committee periods %d..%d", e.First, e.Last)
}

// Verifier checks sync committee signatures with the keys of a Store.
type Verifier struct {
	store *Store
	spec  *beacon.ChainSpec
	bls   bls.Verifier
	log   *log.Logger
}

// NewVerifier returns a verifier for chain spec. A nil bls verifier
// selects the default backend.
func NewVerifier(store *Store, spec *beacon.ChainSpec, v bls.Verifier) *Verifier {
	if v == nil {
		v = bls.NewGnarkVerifier(bls.DefaultCacheSize)
	}
	return &Verifier{
		store: store,
		spec:  spec,
		bls:   v,
		log:   log.Default().Module("synccommittee").With("chain", spec.Name),
	}
}

// Store returns the key store.
func (v *Verifier) Store() *Store { return v.store }

// Spec returns the chain spec.
func (v *Verifier) Spec() *beacon.ChainSpec { return v.spec }

// VerifyHeader checks that the committee of the header's period signed
// the header. Quorum is not enforced; any non-empty participation whose
// aggregate signature verifies is accepted.
func (v *Verifier) VerifyHeader(header ssz.Ob, bits [beacon.SyncCommitteeBitvectorBytes]byte, sig [bls.SignatureSize]byte) error {
	if !header.Def.SameType(beacon.BeaconBlockHeader) {
		return fmt.Errorf("%w: got %s", ErrInvalidHeader, header)
	}
	slot := header.Get("slot").Uint64()
	return v.VerifyRoot(ssz.HashTreeRoot(header), slot, bits, sig)
}

// VerifyRoot checks a signature over the header root of a block at slot.
func (v *Verifier) VerifyRoot(root [32]byte, slot uint64, bits [beacon.SyncCommitteeBitvectorBytes]byte, sig [bls.SignatureSize]byte) error {
	return v.verify(root, v.spec.Period(slot), slot, bits[:], sig[:])
}

// verify checks sig against the committee of period, with the domain of
// the fork active at versionSlot.
func (v *Verifier) verify(root [32]byte, period, versionSlot uint64, bits, sig []byte) error {
	keys, found, err := v.store.Keys(period)
	if err != nil {
		return err
	}
	if !found {
		missing, err := v.store.Missing(period)
		if err != nil {
			return err
		}
		return missing
	}
	pubkeys, err := participants(keys, bits)
	if err != nil {
		return err
	}
	msg := v.spec.SyncCommitteeSigningRoot(root, versionSlot)
	if !v.bls.FastAggregateVerify(pubkeys, msg[:], sig) {
		v.log.Debug("signature rejected", "period", period, "participants", len(pubkeys))
		return ErrInvalidSignature
	}
	return nil
}

// participants selects the keys whose bit is set.
func participants(keys, bits []byte) ([][]byte, error) {
	bv := bitfield.Bitvector512(bits)
	if len(bits) != beacon.SyncCommitteeBitvectorBytes || bv.Count() == 0 {
		return nil, ErrNoParticipants
	}
	out := make([][]byte, 0, bv.Count())
	for _, i := range bv.BitIndices() {
		out = append(out, keys[i*bls.PublicKeySize:(i+1)*bls.PublicKeySize])
	}
	return out, nil
}
