// Package beacon holds the beacon-chain SSZ schemas, fork schedules and
// signing-domain helpers the light-client verifier needs.
package beacon

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/ssz"
)

// Beacon chain time constants.
const (
	SlotsPerEpoch   = 32
	EpochsPerPeriod = 256
	SlotsPerPeriod  = SlotsPerEpoch * EpochsPerPeriod
	periodShift     = 13
)

// Domain types.
var (
	DomainBeaconProposer = [4]byte{0x00, 0x00, 0x00, 0x00}
	DomainSyncCommittee  = [4]byte{0x07, 0x00, 0x00, 0x00}
)

var (
	ErrUnknownChain    = errors.New("beacon: unknown chain")
	ErrUnsupportedFork = errors.New("beacon: fork not supported")
)

// Schema groups the fork-specific types and tree positions.
type Schema struct {
	Name                 string
	BlockBody            *ssz.Def
	LightClientUpdate    *ssz.Def
	LightClientBootstrap *ssz.Def

	// Positions of the sync committees inside BeaconState.
	CurrentSyncCommitteeGindex ssz.Gindex
	NextSyncCommitteeGindex    ssz.Gindex
}

// PayloadGindex returns the position of an execution payload field inside
// the block body, e.g. "block_hash" or "state_root".
func (s *Schema) PayloadGindex(path ...any) (ssz.Gindex, error) {
	return ssz.GindexOf(s.BlockBody, append([]any{"execution_payload"}, path...)...)
}

var (
	Deneb = &Schema{
		Name:                       "deneb",
		BlockBody:                  DenebBlockBody,
		LightClientUpdate:          lightClientUpdate(5, 6),
		LightClientBootstrap:       lightClientBootstrap(5),
		CurrentSyncCommitteeGindex: 54,
		NextSyncCommitteeGindex:    55,
	}
	Electra = &Schema{
		Name:                       "electra",
		BlockBody:                  ElectraBlockBody,
		LightClientUpdate:          lightClientUpdate(6, 7),
		LightClientBootstrap:       lightClientBootstrap(6),
		CurrentSyncCommitteeGindex: 86,
		NextSyncCommitteeGindex:    87,
	}
)

// Fork is one entry of a fork schedule. Schema is nil for forks before
// Deneb, which the verifier does not support.
type Fork struct {
	Name    string
	Version [4]byte
	Epoch   uint64
	Schema  *Schema
}

// ChainSpec describes one beacon chain and the execution chain it serves.
type ChainSpec struct {
	Name                  string
	ChainID               uint64
	GenesisValidatorsRoot common.Hash
	Forks                 []Fork
	GenesisTime           uint64
	SecondsPerSlot        uint64
	SlotsPerEpoch         uint64
	EpochsPerPeriod       uint64
}

var (
	Mainnet = &ChainSpec{
		Name:                  "mainnet",
		ChainID:               1,
		GenesisValidatorsRoot: common.HexToHash("0x4b363db94e286120d76eb905340fdd4e54bfe9f06bf33ff6cf5ad27f511bfe95"),
		Forks: []Fork{
			{Name: "phase0", Version: [4]byte{0x00, 0, 0, 0}, Epoch: 0},
			{Name: "altair", Version: [4]byte{0x01, 0, 0, 0}, Epoch: 74240},
			{Name: "bellatrix", Version: [4]byte{0x02, 0, 0, 0}, Epoch: 144896},
			{Name: "capella", Version: [4]byte{0x03, 0, 0, 0}, Epoch: 194048},
			{Name: "deneb", Version: [4]byte{0x04, 0, 0, 0}, Epoch: 269568, Schema: Deneb},
			{Name: "electra", Version: [4]byte{0x05, 0, 0, 0}, Epoch: 364032, Schema: Electra},
			{Name: "fulu", Version: [4]byte{0x06, 0, 0, 0}, Epoch: 411392, Schema: Electra},
		},
		GenesisTime:     1606824023,
		SecondsPerSlot:  12,
		SlotsPerEpoch:   SlotsPerEpoch,
		EpochsPerPeriod: EpochsPerPeriod,
	}

	Sepolia = &ChainSpec{
		Name:                  "sepolia",
		ChainID:               11155111,
		GenesisValidatorsRoot: common.HexToHash("0xd8ea171f3c94aea21ebc42a1ed61052acf3f9209c00e4efbaaddac09ed9b8078"),
		Forks: []Fork{
			{Name: "phase0", Version: [4]byte{0x90, 0x00, 0x00, 0x69}, Epoch: 0},
			{Name: "altair", Version: [4]byte{0x90, 0x00, 0x00, 0x70}, Epoch: 50},
			{Name: "bellatrix", Version: [4]byte{0x90, 0x00, 0x00, 0x71}, Epoch: 100},
			{Name: "capella", Version: [4]byte{0x90, 0x00, 0x00, 0x72}, Epoch: 56832},
			{Name: "deneb", Version: [4]byte{0x90, 0x00, 0x00, 0x73}, Epoch: 132608, Schema: Deneb},
			{Name: "electra", Version: [4]byte{0x90, 0x00, 0x00, 0x74}, Epoch: 222464, Schema: Electra},
			{Name: "fulu", Version: [4]byte{0x90, 0x00, 0x00, 0x75}, Epoch: 272640, Schema: Electra},
		},
		GenesisTime:     1655733600,
		SecondsPerSlot:  12,
		SlotsPerEpoch:   SlotsPerEpoch,
		EpochsPerPeriod: EpochsPerPeriod,
	}
)

// SpecByChainID returns the built-in spec for an execution chain id.
func SpecByChainID(id uint64) (*ChainSpec, error) {
	switch id {
	case Mainnet.ChainID:
		return Mainnet, nil
	case Sepolia.ChainID:
		return Sepolia, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownChain, id)
	}
}

// Period returns the sync committee period of a slot.
func Period(slot uint64) uint64 { return slot >> periodShift }

// TimestampAtSlot is the execution payload timestamp of a block at slot.
func (s *ChainSpec) TimestampAtSlot(slot uint64) uint64 {
	return s.GenesisTime + slot*s.SecondsPerSlot
}

// Epoch returns the epoch of a slot.
func (s *ChainSpec) Epoch(slot uint64) uint64 { return slot / s.SlotsPerEpoch }

// Period returns the sync committee period of a slot under this spec.
func (s *ChainSpec) Period(slot uint64) uint64 {
	return slot / (s.SlotsPerEpoch * s.EpochsPerPeriod)
}

// ForkAtEpoch returns the fork active at epoch: the last schedule entry
// whose activation epoch is not after it.
func (s *ChainSpec) ForkAtEpoch(epoch uint64) Fork {
	f := s.Forks[0]
	for _, next := range s.Forks[1:] {
		if next.Epoch > epoch {
			break
		}
		f = next
	}
	return f
}

// ForkAtSlot returns the fork active at slot.
func (s *ChainSpec) ForkAtSlot(slot uint64) Fork { return s.ForkAtEpoch(s.Epoch(slot)) }

// ForkVersion returns the fork version active at slot.
func (s *ChainSpec) ForkVersion(slot uint64) [4]byte { return s.ForkAtSlot(slot).Version }

// SchemaAtSlot returns the schema active at slot or ErrUnsupportedFork.
func (s *ChainSpec) SchemaAtSlot(slot uint64) (*Schema, error) {
	f := s.ForkAtSlot(slot)
	if f.Schema == nil {
		return nil, fmt.Errorf("%w: %s at slot %d", ErrUnsupportedFork, f.Name, slot)
	}
	return f.Schema, nil
}

// ForkByDigest finds the fork whose digest (the first four bytes of its
// fork data root) matches.
func (s *ChainSpec) ForkByDigest(digest [4]byte) (Fork, bool) {
	for _, f := range s.Forks {
		root := ForkDataRoot(f.Version, s.GenesisValidatorsRoot)
		if [4]byte(root[:4]) == digest {
			return f, true
		}
	}
	return Fork{}, false
}

// ForkDataRoot is hash_tree_root(ForkData{version, genesis_validators_root}).
func ForkDataRoot(version [4]byte, gvr common.Hash) [32]byte {
	var v [32]byte
	copy(v[:], version[:])
	return ssz.HashPair(v, gvr)
}

// ComputeDomain returns domain_type || fork_data_root[:28].
func ComputeDomain(domainType [4]byte, version [4]byte, gvr common.Hash) [32]byte {
	root := ForkDataRoot(version, gvr)
	var domain [32]byte
	copy(domain[:4], domainType[:])
	copy(domain[4:], root[:28])
	return domain
}

// SigningRoot is hash_tree_root(SigningData{object_root, domain}).
func SigningRoot(objectRoot, domain [32]byte) [32]byte {
	return ssz.HashPair(objectRoot, domain)
}

// SyncCommitteeSigningRoot returns the message a sync committee signs for
// a header whose root is headerRoot, using the fork active at slot.
func (s *ChainSpec) SyncCommitteeSigningRoot(headerRoot [32]byte, slot uint64) [32]byte {
	domain := ComputeDomain(DomainSyncCommittee, s.ForkVersion(slot), s.GenesisValidatorsRoot)
	return SigningRoot(headerRoot, domain)
}
