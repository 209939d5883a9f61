package synccommittee

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/ssz"
)

// committeeKeys returns the concatenated pubkeys of a SyncCommittee.
func committeeKeys(committee ssz.Ob) ([]byte, error) {
	keys := committee.Get("pubkeys").Bytes
	if len(keys) != KeysSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCommittee, len(keys))
	}
	return keys, nil
}

// verifyCommitteeBranch checks that committee sits at gindex of the state
// whose root the header declares.
func verifyCommitteeBranch(header, committee, branch ssz.Ob, gindex ssz.Gindex) error {
	root, ok := ssz.VerifySingleProof(branch.Bytes, ssz.HashTreeRoot(committee), gindex)
	if !ok || root != header.Get("state_root").Bytes32() {
		return ErrInvalidBranch
	}
	return nil
}

// ApplyUpdates verifies a chain of light-client updates in order and stores
// the next committee each one proves. An update signed in a period whose
// committee is unknown stops the chain with a *MissingPeriodError.
// It returns the number of updates applied.
func (v *Verifier) ApplyUpdates(updates []ssz.Ob) (int, error) {
	for i, u := range updates {
		if err := v.applyUpdate(u); err != nil {
			return i, fmt.Errorf("update %d: %w", i, err)
		}
	}
	return len(updates), nil
}

func (v *Verifier) applyUpdate(u ssz.Ob) error {
	attested := u.Get("attested_header").Get("beacon")
	if !attested.IsValid() {
		return ErrInvalidUpdate
	}
	slot := attested.Get("slot").Uint64()
	schema, err := v.spec.SchemaAtSlot(slot)
	if err != nil {
		return err
	}
	if !u.Def.SameType(schema.LightClientUpdate) {
		return fmt.Errorf("%w: %s update at slot %d", ErrInvalidUpdate, schema.Name, slot)
	}
	signatureSlot := u.Get("signature_slot").Uint64()
	if signatureSlot <= slot {
		return fmt.Errorf("%w: signature slot %d not after attested slot %d", ErrInvalidUpdate, signatureSlot, slot)
	}

	// The sync aggregate is produced one slot before signature_slot.
	agg := u.Get("sync_aggregate")
	err = v.verify(ssz.HashTreeRoot(attested), v.spec.Period(signatureSlot), signatureSlot-1,
		agg.Get("sync_committee_bits").Bytes, agg.Get("sync_committee_signature").Bytes)
	if err != nil {
		return err
	}

	next := u.Get("next_sync_committee")
	if err := verifyCommitteeBranch(attested, next, u.Get("next_sync_committee_branch"), schema.NextSyncCommitteeGindex); err != nil {
		return err
	}
	keys, err := committeeKeys(next)
	if err != nil {
		return err
	}
	period := v.spec.Period(slot) + 1
	if err := v.store.Put(period, keys); err != nil {
		return err
	}
	v.log.Info("applied light client update", "period", period, "slot", slot)
	return nil
}

// Bootstrap verifies a LightClientBootstrap against a trusted beacon block
// root, then stores the current committee and records the root as the
// checkpoint.
func (v *Verifier) Bootstrap(b ssz.Ob, trusted common.Hash) error {
	header := b.Get("header").Get("beacon")
	if !header.IsValid() {
		return fmt.Errorf("%w: bootstrap without header", ErrInvalidHeader)
	}
	if common.Hash(ssz.HashTreeRoot(header)) != trusted {
		return ErrCheckpoint
	}
	slot := header.Get("slot").Uint64()
	schema, err := v.spec.SchemaAtSlot(slot)
	if err != nil {
		return err
	}
	if !b.Def.SameType(schema.LightClientBootstrap) {
		return fmt.Errorf("%w: expected %s bootstrap", ErrMalformedResponse, schema.Name)
	}
	current := b.Get("current_sync_committee")
	if err := verifyCommitteeBranch(header, current, b.Get("current_sync_committee_branch"), schema.CurrentSyncCommitteeGindex); err != nil {
		return err
	}
	keys, err := committeeKeys(current)
	if err != nil {
		return err
	}
	period := v.spec.Period(slot)
	if err := v.store.Put(period, keys); err != nil {
		return err
	}
	if err := v.store.SetCheckpoint(trusted); err != nil {
		return err
	}
	v.log.Info("bootstrapped sync committee", "period", period, "root", trusted)
	return nil
}

// schemas lists the distinct light-client schemas of a chain.
func schemas(spec *beacon.ChainSpec) []*beacon.Schema {
	var out []*beacon.Schema
	for _, f := range spec.Forks {
		if f.Schema == nil {
			continue
		}
		if !slices.Contains(out, f.Schema) {
			out = append(out, f.Schema)
		}
	}
	return out
}
