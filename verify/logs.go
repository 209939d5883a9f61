package verify

import (
	"bytes"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/crypto"
	"github.com/eth2030/stateless/ssz"
)

// txKey locates a transaction in a proven block.
type txKey struct {
	block common.Hash
	index uint64
}

// provenLogs proves every block of a logs proof and the receipts of the
// transactions it lists. The logs come back grouped by transaction, in
// proof order.
func (c *call) provenLogs(blocks ssz.Ob) (map[txKey][]*provenLog, []txKey, error) {
	byTx := make(map[txKey][]*provenLog)
	var order []txKey
	for i := 0; i < blocks.Len(); i++ {
		lb := blocks.At(i)
		txs := lb.Get("txs")
		leaves := make([]txLeaf, txs.Len())
		for j := range leaves {
			tx := txs.At(j)
			leaves[j] = txLeaf{index: tx.Get("transaction_index").Uint64(), raw: tx.Get("transaction")}
		}
		block, err := c.verifyBlock(lb.Get("block"), ReceiptFields, leaves)
		if err != nil {
			return nil, nil, err
		}
		for j, leaf := range leaves {
			key := txKey{block: block.Hash, index: leaf.index}
			if _, dup := byTx[key]; dup {
				return nil, nil, structural(nil, "transaction %d of block %d listed twice", leaf.index, block.Number)
			}
			_, logs, err := proveReceipt(block, leaf.index, crypto.Keccak256Hash(leaf.raw.Bytes), txs.At(j).Get("receipt_proof"))
			if err != nil {
				return nil, nil, err
			}
			byTx[key] = logs
			order = append(order, key)
		}
	}
	return byTx, order, nil
}

// sameLog reports whether a LogData value carries the content of l.
func sameLog(d ssz.Ob, l *provenLog) bool {
	if common.Address(d.Get("address").Bytes) != l.Address || !bytes.Equal(d.Get("data").Bytes, l.Data) {
		return false
	}
	topics := d.Get("topics")
	if topics.Len() != len(l.Topics) {
		return false
	}
	for i, t := range l.Topics {
		if common.Hash(topics.At(i).Bytes32()) != t {
			return false
		}
	}
	return true
}

// verifyLogs serves eth_getLogs. Every log of the proven receipts that
// matches the filter is part of the result. Result data, when present,
// must list exactly those logs; it also supplies the block position of
// each log, which must be consistent within a transaction.
func verifyLogs(c *call) (any, error) {
	blocks, err := c.proofOf(ProofLogs)
	if err != nil {
		return nil, err
	}
	byTx, order, err := c.provenLogs(blocks)
	if err != nil {
		return nil, err
	}

	var filter FilterQuery
	if err := parseArgs(c.args, 1, &filter); err != nil {
		return nil, err
	}
	matched := make(map[txKey][]*provenLog, len(byTx))
	total := 0
	for _, key := range order {
		for _, l := range byTx[key] {
			if filter.matches(l.BlockNumber, l.BlockHash, l.Address, l.Topics) {
				matched[key] = append(matched[key], l)
				total++
			}
		}
	}

	d, err := c.dataOf(DataLogs)
	if err != nil {
		return nil, err
	}
	if d.IsValid() {
		if err := checkLogData(d, byTx, matched, total); err != nil {
			return nil, err
		}
	}

	out := make([]*RPCLog, 0, total)
	for _, key := range order {
		for _, l := range matched[key] {
			out = append(out, l.rpc())
		}
	}
	return out, nil
}

// checkLogData matches each data log to a proven log of its transaction,
// scanning forward, and fixes the block positions of the transaction's
// logs from the first match.
func checkLogData(d ssz.Ob, byTx, matched map[txKey][]*provenLog, total int) error {
	if d.Len() != total {
		return structural(ErrMismatch, "%d logs in result, %d proven logs match the filter", d.Len(), total)
	}
	next := make(map[txKey]int)
	offset := make(map[txKey]uint64)
	for i := 0; i < d.Len(); i++ {
		dl := d.At(i)
		key := txKey{
			block: common.Hash(dl.Get("block_hash").Bytes32()),
			index: dl.Get("transaction_index").Uint64(),
		}
		logs, ok := byTx[key]
		if !ok {
			return structural(ErrMismatch, "log %d: transaction %d of block %s not proven", i, key.index, key.block)
		}
		pos := next[key]
		for pos < len(logs) && !sameLog(dl, logs[pos]) {
			pos++
		}
		if pos == len(logs) || !slices.Contains(matched[key], logs[pos]) {
			return structural(ErrMismatch, "log %d not found in the receipt of transaction %d", i, key.index)
		}
		l := logs[pos]
		if common.Hash(dl.Get("transaction_hash").Bytes32()) != l.TxHash || dl.Get("block_number").Uint64() != l.BlockNumber {
			return structural(ErrMismatch, "log %d: transaction hash or block number", i)
		}
		if dl.Get("removed").Bool() {
			return structural(ErrMismatch, "log %d is marked removed", i)
		}
		index := dl.Get("log_index").Uint64()
		if uint64(pos) > index {
			return structural(ErrMismatch, "log %d: index %d below its receipt position %d", i, index, pos)
		}
		if off, seen := offset[key]; seen && off != index-uint64(pos) {
			return structural(ErrMismatch, "log %d: index %d breaks the order of its transaction", i, index)
		}
		offset[key] = index - uint64(pos)
		next[key] = pos + 1
	}
	for key, off := range offset {
		shiftLogs(byTx[key], off)
	}
	return nil
}
