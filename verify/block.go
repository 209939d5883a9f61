package verify

import (
	"errors"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/ssz"
	"github.com/eth2030/stateless/synccommittee"
	"github.com/eth2030/stateless/u256"
)

// Payload fields each proof type anchors in its BlockProof. Every list
// starts with block_number and timestamp.
var (
	HeaderFields  = []string{"block_number", "timestamp", "block_hash"}
	AccountFields = []string{"block_number", "timestamp", "block_hash", "state_root"}
	TxFields      = []string{"block_number", "timestamp", "block_hash", "base_fee_per_gas"}
	ReceiptFields = []string{"block_number", "timestamp", "block_hash", "receipts_root", "base_fee_per_gas"}
)

// valueFields are the payload values a BlockProof can carry.
var valueFields = []string{"block_number", "timestamp", "block_hash", "state_root", "receipts_root", "base_fee_per_gas"}

// provenBlock holds the payload values a BlockProof established.
type provenBlock struct {
	Slot         uint64
	Number       uint64
	Hash         common.Hash
	StateRoot    common.Hash
	ReceiptsRoot common.Hash
	BaseFee      *uint256.Int
}

// txLeaf is a transaction proven at its payload position.
type txLeaf struct {
	index uint64
	raw   ssz.Ob
}

// leaf pads a basic or 32-byte value to its chunk.
func leaf(ob ssz.Ob) (out [32]byte) {
	copy(out[:], ob.Bytes)
	return out
}

// PayloadGindices returns the positions of fields and of the transactions
// at txs inside the block body of schema, in that order.
func PayloadGindices(schema *beacon.Schema, fields []string, txs []uint64) ([]ssz.Gindex, error) {
	out := make([]ssz.Gindex, 0, len(fields)+len(txs))
	for _, f := range fields {
		g, err := schema.PayloadGindex(f)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	for _, i := range txs {
		g, err := schema.PayloadGindex("transactions", i)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// verifyBlock checks a BlockProof: the payload fields and transactions
// against the header's body root, the payload timestamp against the
// header slot, then the sync committee signature over the header.
func (c *call) verifyBlock(block ssz.Ob, fields []string, txs []txLeaf) (*provenBlock, error) {
	header := block.Get("header")
	slot := header.Get("slot").Uint64()
	schema, err := c.spec.SchemaAtSlot(slot)
	if err != nil {
		return nil, policy(err, "block at slot %d", slot)
	}

	// Values outside fields must be zero.
	for _, f := range valueFields {
		if !slices.Contains(fields, f) && slices.ContainsFunc(block.Get(f).Bytes, func(b byte) bool { return b != 0 }) {
			return nil, structural(nil, "unproven payload field %s is set", f)
		}
	}

	indices := make([]uint64, len(txs))
	leaves := make([][32]byte, 0, len(fields)+len(txs))
	for _, f := range fields {
		leaves = append(leaves, leaf(block.Get(f)))
	}
	for i, tx := range txs {
		if tx.index >= beacon.MaxTransactionsPerPayload {
			return nil, structural(nil, "transaction index %d out of range", tx.index)
		}
		indices[i] = tx.index
		leaves = append(leaves, ssz.HashTreeRoot(tx.raw))
	}
	gindices, err := PayloadGindices(schema, fields, indices)
	if err != nil {
		return nil, structural(err, "payload positions")
	}
	root, ok := ssz.VerifyMultiProof(block.Get("proof").Bytes, leaves, gindices)
	if !ok {
		return nil, structural(ErrBodyRoot, "malformed payload proof")
	}
	if bodyRoot := header.Get("body_root").Bytes32(); root != bodyRoot {
		return nil, structural(ErrBodyRoot, "have %x, want %x", root, bodyRoot)
	}

	if ts, want := block.Get("timestamp").Uint64(), c.spec.TimestampAtSlot(slot); ts != want {
		return nil, structural(nil, "payload timestamp %d does not match slot %d (want %d)", ts, slot, want)
	}

	bits := [beacon.SyncCommitteeBitvectorBytes]byte(block.Get("sync_committee_bits").Bytes)
	sig := [96]byte(block.Get("sync_committee_signature").Bytes)
	if err := c.ctx.verifier.VerifyHeader(header, bits, sig); err != nil {
		return nil, classifySync(err)
	}

	pb := &provenBlock{
		Slot:   slot,
		Number: block.Get("block_number").Uint64(),
		Hash:   common.Hash(block.Get("block_hash").Bytes32()),
	}
	// Values outside fields were not proven and stay zero.
	if slices.Contains(fields, "state_root") {
		pb.StateRoot = common.Hash(block.Get("state_root").Bytes32())
	}
	if slices.Contains(fields, "receipts_root") {
		pb.ReceiptsRoot = common.Hash(block.Get("receipts_root").Bytes32())
	}
	if slices.Contains(fields, "base_fee_per_gas") {
		pb.BaseFee = u256.MustFromLE(block.Get("base_fee_per_gas").Bytes)
	}
	return pb, nil
}

// classifySync maps sync committee errors onto the verifier taxonomy. A
// missing period is passed through untouched: it suspends, not fails.
func classifySync(err error) error {
	var missing *synccommittee.MissingPeriodError
	switch {
	case errors.As(err, &missing):
		return err
	case errors.Is(err, synccommittee.ErrInvalidSignature), errors.Is(err, synccommittee.ErrNoParticipants):
		return mathErr(err, "sync committee signature")
	case errors.Is(err, beacon.ErrUnsupportedFork):
		return policy(err, "sync committee")
	default:
		return structural(err, "sync committee")
	}
}
