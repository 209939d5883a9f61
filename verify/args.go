package verify

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockNumber is a block parameter: a number or one of the tags.
type BlockNumber int64

const (
	LatestBlockNumber    BlockNumber = -1
	PendingBlockNumber   BlockNumber = -2
	SafeBlockNumber      BlockNumber = -3
	FinalizedBlockNumber BlockNumber = -4
	EarliestBlockNumber  BlockNumber = 0
)

// UnmarshalJSON accepts tags, hex quantities and plain integers.
func (bn *BlockNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil || n < 0 {
			return fmt.Errorf("invalid block number: %s", string(data))
		}
		*bn = BlockNumber(n)
		return nil
	}
	switch s {
	case "latest":
		*bn = LatestBlockNumber
	case "pending":
		*bn = PendingBlockNumber
	case "safe":
		*bn = SafeBlockNumber
	case "finalized":
		*bn = FinalizedBlockNumber
	case "earliest":
		*bn = EarliestBlockNumber
	default:
		n, err := hexutil.DecodeUint64(s)
		if err != nil || n > 1<<63-1 {
			return fmt.Errorf("invalid block number: %s", s)
		}
		*bn = BlockNumber(n)
	}
	return nil
}

// IsTag reports whether bn names a moving block rather than a number.
func (bn BlockNumber) IsTag() bool { return bn < 0 }

func (bn BlockNumber) String() string {
	switch bn {
	case LatestBlockNumber:
		return "latest"
	case PendingBlockNumber:
		return "pending"
	case SafeBlockNumber:
		return "safe"
	case FinalizedBlockNumber:
		return "finalized"
	}
	return "0x" + strconv.FormatUint(uint64(bn), 16)
}

// BlockRef is a block parameter that may also name a block by hash, either
// as a bare 32-byte hash or an object with blockNumber or blockHash.
type BlockRef struct {
	Number *BlockNumber
	Hash   *common.Hash
}

func (r *BlockRef) UnmarshalJSON(data []byte) error {
	var obj struct {
		BlockNumber *BlockNumber `json:"blockNumber"`
		BlockHash   *common.Hash `json:"blockHash"`
	}
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if (obj.BlockNumber == nil) == (obj.BlockHash == nil) {
			return fmt.Errorf("block reference needs exactly one of blockNumber or blockHash")
		}
		r.Number, r.Hash = obj.BlockNumber, obj.BlockHash
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && len(s) == 66 {
		h := common.HexToHash(s)
		if _, err := hexutil.Decode(s); err != nil {
			return fmt.Errorf("invalid block hash: %s", s)
		}
		r.Hash = &h
		return nil
	}
	var bn BlockNumber
	if err := bn.UnmarshalJSON(data); err != nil {
		return err
	}
	r.Number = &bn
	return nil
}

// check compares a proven block against the reference. Tags match any
// block: which block is latest is not something a proof can establish.
func (r BlockRef) check(number uint64, hash common.Hash) error {
	switch {
	case r.Hash != nil && *r.Hash != hash:
		return policy(ErrArgMismatch, "block hash %s, requested %s", hash, r.Hash)
	case r.Number != nil && !r.Number.IsTag() && uint64(*r.Number) != number:
		return policy(ErrArgMismatch, "block number %d, requested %s", number, r.Number)
	}
	return nil
}

// parseArgs decodes a JSON-RPC params array into the targets, in order.
// Trailing targets may be omitted by the caller's array.
func parseArgs(raw json.RawMessage, required int, targets ...any) error {
	var params []json.RawMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return policy(ErrInvalidArgs, "params must be an array")
		}
	}
	if len(params) < required || len(params) > len(targets) {
		return policy(ErrInvalidArgs, "want %d..%d params, got %d", required, len(targets), len(params))
	}
	for i, p := range params {
		if err := json.Unmarshal(p, targets[i]); err != nil {
			return policy(ErrInvalidArgs, "param %d: %v", i, err)
		}
	}
	return nil
}

// FilterQuery is the eth_getLogs filter object.
type FilterQuery struct {
	BlockHash *common.Hash    `json:"blockHash"`
	FromBlock *BlockNumber    `json:"fromBlock"`
	ToBlock   *BlockNumber    `json:"toBlock"`
	Addresses AddressList     `json:"address"`
	Topics    []TopicSelector `json:"topics"`
}

// AddressList accepts a single address or an array of them.
type AddressList []common.Address

func (l *AddressList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var list []common.Address
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	var a common.Address
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = AddressList{a}
	return nil
}

// TopicSelector is one position of a topic filter: null matches anything,
// a hash or an array of hashes match any of them.
type TopicSelector []common.Hash

func (t *TopicSelector) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*t = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var list []common.Hash
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	var h common.Hash
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	*t = TopicSelector{h}
	return nil
}

// matches reports whether a log emitted at block number by address with
// topics passes the filter.
func (q *FilterQuery) matches(number uint64, blockHash common.Hash, addr common.Address, topics []common.Hash) bool {
	if q.BlockHash != nil && *q.BlockHash != blockHash {
		return false
	}
	if q.FromBlock != nil && !q.FromBlock.IsTag() && number < uint64(*q.FromBlock) {
		return false
	}
	if q.ToBlock != nil && !q.ToBlock.IsTag() && number > uint64(*q.ToBlock) {
		return false
	}
	if len(q.Addresses) > 0 && !slices.Contains(q.Addresses, addr) {
		return false
	}
	if len(q.Topics) > len(topics) {
		return false
	}
	for i, sel := range q.Topics {
		if len(sel) > 0 && !slices.Contains(sel, topics[i]) {
			return false
		}
	}
	return true
}

// StorageKey is a storage slot parameter. Quantities shorter than 32 bytes
// are left-padded.
type StorageKey common.Hash

func (k *StorageKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok || len(digits) == 0 || len(digits) > 2*common.HashLength {
		return fmt.Errorf("invalid storage key: %q", s)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return fmt.Errorf("invalid storage key: %q", s)
	}
	*k = StorageKey(common.BytesToHash(b))
	return nil
}
