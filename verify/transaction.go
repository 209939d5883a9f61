package verify

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/ssz"
)

// provenTx is a transaction proven at its position in a block.
type provenTx struct {
	Tx       *types.Transaction
	Raw      []byte
	Index    uint64
	From     common.Address
	GasPrice *uint256.Int
	Block    *provenBlock
}

// RPCTransaction is the JSON form of a transaction as eth_getTransaction*
// return it.
type RPCTransaction struct {
	BlockHash           common.Hash       `json:"blockHash"`
	BlockNumber         *hexutil.Big      `json:"blockNumber"`
	From                common.Address    `json:"from"`
	Gas                 hexutil.Uint64    `json:"gas"`
	GasPrice            *hexutil.Big      `json:"gasPrice"`
	GasFeeCap           *hexutil.Big      `json:"maxFeePerGas,omitempty"`
	GasTipCap           *hexutil.Big      `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerBlobGas    *hexutil.Big      `json:"maxFeePerBlobGas,omitempty"`
	Hash                common.Hash       `json:"hash"`
	Input               hexutil.Bytes     `json:"input"`
	Nonce               hexutil.Uint64    `json:"nonce"`
	To                  *common.Address   `json:"to"`
	TransactionIndex    hexutil.Uint64    `json:"transactionIndex"`
	Value               *hexutil.Big      `json:"value"`
	Type                hexutil.Uint64    `json:"type"`
	Accesses            *types.AccessList `json:"accessList,omitempty"`
	ChainID             *hexutil.Big      `json:"chainId,omitempty"`
	BlobVersionedHashes []common.Hash     `json:"blobVersionedHashes,omitempty"`
	V                   *hexutil.Big      `json:"v"`
	R                   *hexutil.Big      `json:"r"`
	S                   *hexutil.Big      `json:"s"`
	YParity             *hexutil.Uint64   `json:"yParity,omitempty"`
}

// decodeTx decodes a raw payload transaction, recovers its sender and
// prices it against the block's base fee.
func (c *call) decodeTx(raw []byte, index uint64, block *provenBlock) (*provenTx, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, structural(err, "transaction %d", index)
	}
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(c.spec.ChainID))
	from, err := types.Sender(signer, tx)
	if err != nil {
		return nil, mathErr(err, "transaction %d sender", index)
	}
	return &provenTx{
		Tx:       tx,
		Raw:      raw,
		Index:    index,
		From:     from,
		GasPrice: effectiveGasPrice(tx, block.BaseFee),
		Block:    block,
	}, nil
}

// effectiveGasPrice is the price the sender paid per gas: the gas price of
// legacy and access-list transactions, min(feeCap, baseFee+tip) otherwise.
func effectiveGasPrice(tx *types.Transaction, baseFee *uint256.Int) *uint256.Int {
	switch tx.Type() {
	case types.LegacyTxType, types.AccessListTxType:
		return bigU256(tx.GasPrice())
	}
	price := new(uint256.Int).Add(baseFee, bigU256(tx.GasTipCap()))
	if feeCap := bigU256(tx.GasFeeCap()); feeCap.Lt(price) {
		return feeCap
	}
	return price
}

func bigU256(b *big.Int) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return v
}

func optionalAddress(a *common.Address) []byte {
	if a == nil {
		return nil
	}
	return a.Bytes()
}

// encode renders a proven transaction as TxData.
func (t *provenTx) encode() ([]byte, error) {
	tx := t.Tx
	v, r, s := tx.RawSignatureValues()
	b := ssz.NewBuilder(TxData).
		SetBytes("block_hash", t.Block.Hash[:]).
		SetUint("block_number", t.Block.Number).
		SetBytes("hash", tx.Hash().Bytes()).
		SetUint("transaction_index", t.Index).
		SetUint("type", uint64(tx.Type())).
		SetUint("nonce", tx.Nonce()).
		SetBytes("input", tx.Data()).
		SetUint256("r", bigU256(r)).
		SetUint256("s", bigU256(s)).
		SetUint("v", bigU256(v).Uint64()).
		SetUint("gas", tx.Gas()).
		SetBytes("from", t.From.Bytes()).
		SetBytes("to", optionalAddress(tx.To())).
		SetUint256("value", bigU256(tx.Value())).
		SetUint256("gas_price", t.GasPrice)
	if id := tx.ChainId(); id != nil {
		b.SetUint("chain_id", id.Uint64())
	}
	if tx.Type() >= types.DynamicFeeTxType {
		b.SetUint256("max_fee_per_gas", bigU256(tx.GasFeeCap())).
			SetUint256("max_priority_fee_per_gas", bigU256(tx.GasTipCap()))
	}
	if tx.Type() != types.LegacyTxType {
		tuples := make([][]byte, 0, len(tx.AccessList()))
		for _, tuple := range tx.AccessList() {
			keys := make([][]byte, len(tuple.StorageKeys))
			for i, k := range tuple.StorageKeys {
				keys[i] = k.Bytes()
			}
			enc, err := ssz.NewBuilder(AccessTuple).
				SetBytes("address", tuple.Address.Bytes()).
				SetBytes("storage_keys", ssz.EncodeList(ssz.Bytes32, keys)).
				Encode()
			if err != nil {
				return nil, err
			}
			tuples = append(tuples, enc)
		}
		b.SetBytes("access_list", ssz.EncodeList(AccessTuple, tuples))
	}
	if tx.Type() == types.BlobTxType {
		hashes := make([][]byte, len(tx.BlobHashes()))
		for i, h := range tx.BlobHashes() {
			hashes[i] = h.Bytes()
		}
		b.SetBytes("blob_versioned_hashes", ssz.EncodeList(ssz.Bytes32, hashes)).
			SetUint256("max_fee_per_blob_gas", bigU256(tx.BlobGasFeeCap()))
	}
	return b.Encode()
}

// EncodeTxData renders a raw payload transaction as the TxData result its
// proof verifies against. It is the prover side of verifyTransaction.
func EncodeTxData(chainID uint64, raw []byte, index, number uint64, blockHash common.Hash, baseFee *uint256.Int) ([]byte, error) {
	c := &call{spec: &beacon.ChainSpec{ChainID: chainID}}
	t, err := c.decodeTx(raw, index, &provenBlock{Number: number, Hash: blockHash, BaseFee: baseFee})
	if err != nil {
		return nil, err
	}
	return t.encode()
}

func (t *provenTx) rpc() *RPCTransaction {
	tx := t.Tx
	v, r, s := tx.RawSignatureValues()
	out := &RPCTransaction{
		BlockHash:        t.Block.Hash,
		BlockNumber:      (*hexutil.Big)(new(big.Int).SetUint64(t.Block.Number)),
		From:             t.From,
		Gas:              hexutil.Uint64(tx.Gas()),
		GasPrice:         (*hexutil.Big)(t.GasPrice.ToBig()),
		Hash:             tx.Hash(),
		Input:            hexutil.Bytes(tx.Data()),
		Nonce:            hexutil.Uint64(tx.Nonce()),
		To:               tx.To(),
		TransactionIndex: hexutil.Uint64(t.Index),
		Value:            (*hexutil.Big)(tx.Value()),
		Type:             hexutil.Uint64(tx.Type()),
		V:                (*hexutil.Big)(v),
		R:                (*hexutil.Big)(r),
		S:                (*hexutil.Big)(s),
	}
	if tx.Type() == types.LegacyTxType {
		if tx.Protected() {
			out.ChainID = (*hexutil.Big)(tx.ChainId())
		}
		return out
	}
	al := tx.AccessList()
	yparity := hexutil.Uint64(v.Uint64())
	out.Accesses = &al
	out.ChainID = (*hexutil.Big)(tx.ChainId())
	out.YParity = &yparity
	if tx.Type() >= types.DynamicFeeTxType {
		out.GasFeeCap = (*hexutil.Big)(tx.GasFeeCap())
		out.GasTipCap = (*hexutil.Big)(tx.GasTipCap())
	}
	if tx.Type() == types.BlobTxType {
		out.MaxFeePerBlobGas = (*hexutil.Big)(tx.BlobGasFeeCap())
		out.BlobVersionedHashes = tx.BlobHashes()
	}
	return out
}

// diffFields compares two values of the same container type field by
// field and names the first field that differs.
func diffFields(have, want ssz.Ob) error {
	for _, f := range want.Def.Fields {
		if !bytes.Equal(have.Get(f.Name).Bytes, want.Get(f.Name).Bytes) {
			return structural(ErrMismatch, "%s.%s", want.Def.Name, f.Name)
		}
	}
	return nil
}

// compareData checks result data against the value the proof established.
func compareData(d ssz.Ob, def *ssz.Def, proven []byte) error {
	want, err := ssz.New(def, proven)
	if err != nil {
		return structural(err, "encode proven %s", def.Name)
	}
	return diffFields(d, want)
}

// txArgs are the decoded params of the transaction lookups.
type txArgs struct {
	hash      *common.Hash
	blockHash *common.Hash
	number    *BlockNumber
	index     *hexutil.Uint64
}

func (c *call) parseTxArgs() (*txArgs, error) {
	a := new(txArgs)
	var err error
	switch c.method {
	case "eth_getTransactionByHash", "eth_getTransactionReceipt":
		err = parseArgs(c.args, 1, &a.hash)
	case "eth_getTransactionByBlockHashAndIndex":
		err = parseArgs(c.args, 2, &a.blockHash, &a.index)
	case "eth_getTransactionByBlockNumberAndIndex":
		err = parseArgs(c.args, 2, &a.number, &a.index)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// check compares the lookup against the proven transaction.
func (a *txArgs) check(t *provenTx) error {
	switch {
	case a.hash != nil && *a.hash != t.Tx.Hash():
		return policy(ErrArgMismatch, "transaction %s, requested %s", t.Tx.Hash(), a.hash)
	case a.index != nil && uint64(*a.index) != t.Index:
		return policy(ErrArgMismatch, "transaction index %d, requested %d", t.Index, uint64(*a.index))
	}
	return BlockRef{Number: a.number, Hash: a.blockHash}.check(t.Block.Number, t.Block.Hash)
}

// proveTx verifies the block of a transaction or receipt proof and decodes
// the transaction proven at its payload position.
func (c *call) proveTx(p ssz.Ob, fields []string) (*provenTx, error) {
	raw := p.Get("transaction")
	index := p.Get("transaction_index").Uint64()
	block, err := c.verifyBlock(p.Get("block"), fields, []txLeaf{{index: index, raw: raw}})
	if err != nil {
		return nil, err
	}
	return c.decodeTx(raw.Bytes, index, block)
}

// verifyTransaction serves the eth_getTransactionBy* methods.
func verifyTransaction(c *call) (any, error) {
	p, err := c.proofOf(ProofTransaction)
	if err != nil {
		return nil, err
	}
	t, err := c.proveTx(p, TxFields)
	if err != nil {
		return nil, err
	}

	d, err := c.dataOf(DataTx)
	if err != nil {
		return nil, err
	}
	if d.IsValid() {
		enc, err := t.encode()
		if err != nil {
			return nil, structural(err, "encode transaction")
		}
		if err := compareData(d, TxData, enc); err != nil {
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
	return t.rpc(), nil
}
