package verify

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/eth2030/stateless/patricia"
	"github.com/eth2030/stateless/rlp"
	"github.com/eth2030/stateless/ssz"
)

// provenLog is a log of a proven receipt. Index is the position inside
// the block once known; a single receipt only proves the position inside
// the transaction.
type provenLog struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	TxIndex     uint64
	Index       uint64
}

// RPCLog is the JSON form of a log.
type RPCLog struct {
	Address          common.Address `json:"address"`
	Topics           []common.Hash  `json:"topics"`
	Data             hexutil.Bytes  `json:"data"`
	BlockNumber      hexutil.Uint64 `json:"blockNumber"`
	TransactionHash  common.Hash    `json:"transactionHash"`
	TransactionIndex hexutil.Uint64 `json:"transactionIndex"`
	BlockHash        common.Hash    `json:"blockHash"`
	LogIndex         hexutil.Uint64 `json:"logIndex"`
	Removed          bool           `json:"removed"`
}

// RPCReceipt is the eth_getTransactionReceipt result. gasUsed is left out:
// it depends on the previous receipt, which the proof does not carry.
type RPCReceipt struct {
	Type              hexutil.Uint64  `json:"type"`
	Status            hexutil.Uint64  `json:"status"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	LogsBloom         types.Bloom     `json:"logsBloom"`
	Logs              []*RPCLog       `json:"logs"`
	TransactionHash   common.Hash     `json:"transactionHash"`
	TransactionIndex  hexutil.Uint64  `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	ContractAddress   *common.Address `json:"contractAddress"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
}

func (l *provenLog) encode() ([]byte, error) {
	topics := make([][]byte, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = t.Bytes()
	}
	return ssz.NewBuilder(LogData).
		SetBytes("address", l.Address.Bytes()).
		SetBytes("topics", ssz.EncodeList(ssz.Bytes32, topics)).
		SetBytes("data", l.Data).
		SetUint("block_number", l.BlockNumber).
		SetBytes("block_hash", l.BlockHash.Bytes()).
		SetBytes("transaction_hash", l.TxHash.Bytes()).
		SetUint("transaction_index", l.TxIndex).
		SetUint("log_index", l.Index).
		Encode()
}

func (l *provenLog) rpc() *RPCLog {
	topics := l.Topics
	if topics == nil {
		topics = []common.Hash{}
	}
	return &RPCLog{
		Address:          l.Address,
		Topics:           topics,
		Data:             l.Data,
		BlockNumber:      hexutil.Uint64(l.BlockNumber),
		TransactionHash:  l.TxHash,
		TransactionIndex: hexutil.Uint64(l.TxIndex),
		BlockHash:        l.BlockHash,
		LogIndex:         hexutil.Uint64(l.Index),
	}
}

// proveReceipt checks the receipt of the transaction at index against the
// block's receipts root and returns it with its logs.
func proveReceipt(block *provenBlock, index uint64, txHash common.Hash, proof ssz.Ob) (*types.Receipt, []*provenLog, error) {
	res, err := patricia.VerifyRoot(block.ReceiptsRoot, rlp.EncodeUint64(index), nil, nodes(proof))
	if err != nil {
		return nil, nil, structural(err, "receipt proof for transaction %d", index)
	}
	if !res.Found {
		return nil, nil, structural(patricia.ErrMissingValue, "receipt for transaction %d", index)
	}
	receipt := new(types.Receipt)
	if err := receipt.UnmarshalBinary(res.Value); err != nil {
		return nil, nil, structural(err, "receipt for transaction %d", index)
	}
	logs := make([]*provenLog, len(receipt.Logs))
	for i, l := range receipt.Logs {
		logs[i] = &provenLog{
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        l.Data,
			BlockNumber: block.Number,
			BlockHash:   block.Hash,
			TxHash:      txHash,
			TxIndex:     index,
			Index:       uint64(i),
		}
	}
	return receipt, logs, nil
}

// shiftLogs moves the logs of one receipt to their block positions, given
// the block position of the first.
func shiftLogs(logs []*provenLog, first uint64) {
	for i, l := range logs {
		l.Index = first + uint64(i)
	}
}

type provenReceipt struct {
	Tx      *provenTx
	Receipt *types.Receipt
	Logs    []*provenLog
}

func (r *provenReceipt) contractAddress() *common.Address {
	if r.Tx.Tx.To() != nil {
		return nil
	}
	addr := gethcrypto.CreateAddress(r.Tx.From, r.Tx.Tx.Nonce())
	return &addr
}

func (r *provenReceipt) encode() ([]byte, error) {
	logs := make([][]byte, len(r.Logs))
	for i, l := range r.Logs {
		enc, err := l.encode()
		if err != nil {
			return nil, err
		}
		logs[i] = enc
	}
	tx, block := r.Tx.Tx, r.Tx.Block
	var contract []byte
	if addr := r.contractAddress(); addr != nil {
		contract = addr.Bytes()
	}
	return ssz.NewBuilder(ReceiptData).
		SetUint("type", uint64(r.Receipt.Type)).
		SetUint("status", r.Receipt.Status).
		SetUint("cumulative_gas_used", r.Receipt.CumulativeGasUsed).
		SetBytes("logs_bloom", r.Receipt.Bloom.Bytes()).
		SetBytes("logs", ssz.EncodeList(LogData, logs)).
		SetBytes("transaction_hash", tx.Hash().Bytes()).
		SetUint("transaction_index", r.Tx.Index).
		SetBytes("block_hash", block.Hash.Bytes()).
		SetUint("block_number", block.Number).
		SetBytes("from", r.Tx.From.Bytes()).
		SetBytes("to", optionalAddress(tx.To())).
		SetBytes("contract_address", contract).
		SetUint256("effective_gas_price", r.Tx.GasPrice).
		Encode()
}

func (r *provenReceipt) rpc() *RPCReceipt {
	out := &RPCReceipt{
		Type:              hexutil.Uint64(r.Receipt.Type),
		Status:            hexutil.Uint64(r.Receipt.Status),
		CumulativeGasUsed: hexutil.Uint64(r.Receipt.CumulativeGasUsed),
		LogsBloom:         r.Receipt.Bloom,
		Logs:              make([]*RPCLog, len(r.Logs)),
		TransactionHash:   r.Tx.Tx.Hash(),
		TransactionIndex:  hexutil.Uint64(r.Tx.Index),
		BlockHash:         r.Tx.Block.Hash,
		BlockNumber:       hexutil.Uint64(r.Tx.Block.Number),
		From:              r.Tx.From,
		To:                r.Tx.Tx.To(),
		ContractAddress:   r.contractAddress(),
		EffectiveGasPrice: (*hexutil.Big)(r.Tx.GasPrice.ToBig()),
	}
	for i, l := range r.Logs {
		out.Logs[i] = l.rpc()
	}
	return out
}

// verifyReceipt serves eth_getTransactionReceipt.
func verifyReceipt(c *call) (any, error) {
	p, err := c.proofOf(ProofReceipt)
	if err != nil {
		return nil, err
	}
	t, err := c.proveTx(p, ReceiptFields)
	if err != nil {
		return nil, err
	}
	receipt, logs, err := proveReceipt(t.Block, t.Index, t.Tx.Hash(), p.Get("receipt_proof"))
	if err != nil {
		return nil, err
	}
	if receipt.Type != t.Tx.Type() {
		return nil, structural(ErrMismatch, "receipt type %d for transaction type %d", receipt.Type, t.Tx.Type())
	}
	r := &provenReceipt{Tx: t, Receipt: receipt, Logs: logs}

	d, err := c.dataOf(DataReceipt)
	if err != nil {
		return nil, err
	}
	if d.IsValid() {
		// The block position of the first log comes from the result; the
		// rest must follow it.
		if dl := d.Get("logs"); dl.Len() > 0 {
			shiftLogs(logs, dl.At(0).Get("log_index").Uint64())
		}
		enc, err := r.encode()
		if err != nil {
			return nil, structural(err, "encode receipt")
		}
		if err := compareData(d, ReceiptData, enc); err != nil {
			return nil, err
		}
	}

	args, err := c.parseTxArgs()
	if err != nil {
		return nil, err
	}
	if err := args.check(t); err != nil {
		return nil, err
	}
	return r.rpc(), nil
}
