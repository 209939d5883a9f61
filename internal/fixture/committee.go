// Package fixture builds deterministic, fully signed proof material for
// tests and the CLI: sync committees with known secret keys, light-client
// updates and bootstraps, and complete verification requests.
package fixture

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/crypto/bls"
	"github.com/eth2030/stateless/ssz"
)

// Committee is a sync committee whose secret keys are known.
type Committee struct {
	Keys    []*bls.SecretKey
	Pubkeys []byte
}

var (
	committeesMu sync.Mutex
	committees   = map[string]*Committee{}
)

// NewCommittee derives a 512-member committee from seed. Committees are
// cached per seed; key derivation dominates fixture cost.
func NewCommittee(seed string) *Committee {
	committeesMu.Lock()
	defer committeesMu.Unlock()
	if c, ok := committees[seed]; ok {
		return c
	}
	c := &Committee{
		Keys:    make([]*bls.SecretKey, beacon.SyncCommitteeSize),
		Pubkeys: make([]byte, 0, beacon.SyncCommitteeSize*bls.PublicKeySize),
	}
	for i := range c.Keys {
		c.Keys[i] = bls.SecretKeyFromSeed([]byte(fmt.Sprintf("%s/%d", seed, i)))
		pk := c.Keys[i].PublicKey()
		c.Pubkeys = append(c.Pubkeys, pk[:]...)
	}
	committees[seed] = c
	return c
}

// Object returns the committee as an SSZ SyncCommittee.
func (c *Committee) Object() ssz.Ob {
	agg := bls.AggregateSecretKeys(c.Keys).PublicKey()
	ob, err := ssz.NewBuilder(beacon.SyncCommittee).
		SetBytes("pubkeys", c.Pubkeys).
		SetBytes("aggregate_pubkey", agg[:]).
		Finish()
	if err != nil {
		panic(err)
	}
	return ob
}

// Sign has the first n members sign the header root for the fork active
// at versionSlot, returning the participation bits and aggregate signature.
func (c *Committee) Sign(spec *beacon.ChainSpec, root [32]byte, versionSlot uint64, n int) (bits [beacon.SyncCommitteeBitvectorBytes]byte, sig [bls.SignatureSize]byte) {
	n = min(n, len(c.Keys))
	for i := 0; i < n; i++ {
		bits[i/8] |= 1 << (i % 8)
	}
	if n == 0 {
		return bits, sig
	}
	msg := spec.SyncCommitteeSigningRoot(root, versionSlot)
	sig, err := bls.AggregateSecretKeys(c.Keys[:n]).Sign(msg[:])
	if err != nil {
		panic(err)
	}
	return bits, sig
}

// SyncAggregate encodes bits and sig as an SSZ SyncAggregate.
func SyncAggregate(bits [beacon.SyncCommitteeBitvectorBytes]byte, sig [bls.SignatureSize]byte) ssz.Ob {
	ob, err := ssz.NewBuilder(beacon.SyncAggregate).
		SetBytes("sync_committee_bits", bits[:]).
		SetBytes("sync_committee_signature", sig[:]).
		Finish()
	if err != nil {
		panic(err)
	}
	return ob
}

// Branch returns a deterministic Merkle branch for leaf at gindex and the
// root it folds into.
func Branch(leaf [32]byte, gindex ssz.Gindex, seed string) ([]byte, [32]byte) {
	var branch []byte
	for i := 0; i < gindex.Depth(); i++ {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s/branch/%d", seed, i)))
		branch = append(branch, h[:]...)
	}
	root, _ := ssz.VerifySingleProof(branch, leaf, gindex)
	return branch, root
}

// Header builds a BeaconBlockHeader.
func Header(slot uint64, stateRoot, bodyRoot [32]byte) ssz.Ob {
	parent := sha256.Sum256([]byte(fmt.Sprintf("parent/%d", slot)))
	ob, err := ssz.NewBuilder(beacon.BeaconBlockHeader).
		SetUint("slot", slot).
		SetUint("proposer_index", slot%997).
		SetBytes("parent_root", parent[:]).
		SetBytes("state_root", stateRoot[:]).
		SetBytes("body_root", bodyRoot[:]).
		Finish()
	if err != nil {
		panic(err)
	}
	return ob
}

func lightClientHeader(header ssz.Ob) ssz.Ob {
	ob, err := ssz.NewBuilder(beacon.LightClientHeader).SetOb("beacon", header).Finish()
	if err != nil {
		panic(err)
	}
	return ob
}

// Update builds a LightClientUpdate attested at attestedSlot, proving next
// and signed by the first n members of signer at signatureSlot.
func Update(spec *beacon.ChainSpec, signer, next *Committee, attestedSlot, signatureSlot uint64, n int) (ssz.Ob, error) {
	schema, err := spec.SchemaAtSlot(attestedSlot)
	if err != nil {
		return ssz.Ob{}, err
	}
	nextOb := next.Object()
	branch, stateRoot := Branch(ssz.HashTreeRoot(nextOb), schema.NextSyncCommitteeGindex, fmt.Sprintf("update/%d", attestedSlot))
	header := Header(attestedSlot, stateRoot, sha256.Sum256([]byte("body")))
	bits, sig := signer.Sign(spec, ssz.HashTreeRoot(header), signatureSlot-1, n)
	return ssz.NewBuilder(schema.LightClientUpdate).
		SetOb("attested_header", lightClientHeader(header)).
		SetOb("next_sync_committee", nextOb).
		SetBytes("next_sync_committee_branch", branch).
		SetOb("sync_aggregate", SyncAggregate(bits, sig)).
		SetUint("signature_slot", signatureSlot).
		Finish()
}

// Bootstrap builds a LightClientBootstrap for c at slot and returns it
// with the block root to trust.
func Bootstrap(spec *beacon.ChainSpec, c *Committee, slot uint64) (ssz.Ob, common.Hash, error) {
	schema, err := spec.SchemaAtSlot(slot)
	if err != nil {
		return ssz.Ob{}, common.Hash{}, err
	}
	current := c.Object()
	branch, stateRoot := Branch(ssz.HashTreeRoot(current), schema.CurrentSyncCommitteeGindex, fmt.Sprintf("bootstrap/%d", slot))
	header := Header(slot, stateRoot, sha256.Sum256([]byte("body")))
	ob, err := ssz.NewBuilder(schema.LightClientBootstrap).
		SetOb("header", lightClientHeader(header)).
		SetOb("current_sync_committee", current).
		SetBytes("current_sync_committee_branch", branch).
		Finish()
	return ob, common.Hash(ssz.HashTreeRoot(header)), err
}
