package fixture

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/crypto"
	"github.com/eth2030/stateless/patricia"
	"github.com/eth2030/stateless/rlp"
	"github.com/eth2030/stateless/ssz"
	"github.com/eth2030/stateless/storage"
	"github.com/eth2030/stateless/synccommittee"
	"github.com/eth2030/stateless/u256"
	"github.com/eth2030/stateless/verify"
)

var (
	trieNodes    = ssz.ByteList(verify.MaxTrieNodeSize)
	receiptNodes = ssz.ByteList(verify.MaxReceiptNodeSize)
	payloadTx    = ssz.ByteList(beacon.MaxBytesPerTransaction)
)

// Block is an execution block as far as proofs see it.
type Block struct {
	Slot         uint64
	Number       uint64
	BlockHash    common.Hash
	StateRoot    common.Hash
	ReceiptsRoot common.Hash
	BaseFee      *uint256.Int
	Transactions [][]byte
}

// Body returns the beacon block body carrying b as its execution payload.
func (b *Block) Body(spec *beacon.ChainSpec) (ssz.Ob, *beacon.Schema, error) {
	schema, err := spec.SchemaAtSlot(b.Slot)
	if err != nil {
		return ssz.Ob{}, nil, err
	}
	recipient := sha256.Sum256([]byte("fee_recipient"))
	payload := ssz.NewBuilder(beacon.ExecutionPayload).
		SetBytes("fee_recipient", recipient[:20]).
		SetBytes("state_root", b.StateRoot[:]).
		SetBytes("receipts_root", b.ReceiptsRoot[:]).
		SetUint("block_number", b.Number).
		SetUint("gas_limit", 36_000_000).
		SetUint("timestamp", spec.TimestampAtSlot(b.Slot)).
		SetUint256("base_fee_per_gas", b.BaseFee).
		SetBytes("block_hash", b.BlockHash[:]).
		SetBytes("transactions", ssz.EncodeList(payloadTx, b.Transactions))
	body, err := ssz.NewBuilder(schema.BlockBody).SetBuilder("execution_payload", payload).Finish()
	return body, schema, err
}

// Proof returns an encoded BlockProof anchoring fields and the
// transactions at txs, signed by the first n members of c.
func (b *Block) Proof(spec *beacon.ChainSpec, c *Committee, n int, fields []string, txs ...uint64) ([]byte, error) {
	body, schema, err := b.Body(spec)
	if err != nil {
		return nil, err
	}
	gindices, err := verify.PayloadGindices(schema, fields, txs)
	if err != nil {
		return nil, err
	}
	witnesses, err := ssz.CreateMultiProof(body, gindices...)
	if err != nil {
		return nil, err
	}
	state := sha256.Sum256([]byte(fmt.Sprintf("beacon_state/%d", b.Slot)))
	header := Header(b.Slot, state, ssz.HashTreeRoot(body))
	bits, sig := c.Sign(spec, ssz.HashTreeRoot(header), b.Slot, n)

	values := map[string]func(*ssz.Builder){
		"block_number":     func(p *ssz.Builder) { p.SetUint("block_number", b.Number) },
		"timestamp":        func(p *ssz.Builder) { p.SetUint("timestamp", spec.TimestampAtSlot(b.Slot)) },
		"block_hash":       func(p *ssz.Builder) { p.SetBytes("block_hash", b.BlockHash[:]) },
		"state_root":       func(p *ssz.Builder) { p.SetBytes("state_root", b.StateRoot[:]) },
		"receipts_root":    func(p *ssz.Builder) { p.SetBytes("receipts_root", b.ReceiptsRoot[:]) },
		"base_fee_per_gas": func(p *ssz.Builder) { p.SetUint256("base_fee_per_gas", b.BaseFee) },
	}
	p := ssz.NewBuilder(verify.BlockProof)
	for _, f := range fields {
		values[f](p)
	}
	return p.SetBytes("proof", witnesses).
		SetOb("header", header).
		SetBytes("sync_committee_bits", bits[:]).
		SetBytes("sync_committee_signature", sig[:]).
		Encode()
}

// Request encodes a request envelope. An empty dataKind sends no result
// data; nil updates send no sync data.
func Request(proofKind string, proof []byte, dataKind string, data []byte, updates []byte) []byte {
	version := append([]byte{verify.ChainTypeETH}, verify.FormatVersion[:]...)
	dataSel := 0
	if dataKind != "" {
		dataSel = verify.Data.FieldIndex(dataKind)
	}
	sync := ssz.EncodeUnion(0, nil)
	if updates != nil {
		sync = ssz.EncodeUnion(1, updates)
	}
	out, err := ssz.NewBuilder(verify.Request).
		SetBytes("version", version).
		SetBytes("data", ssz.EncodeUnion(byte(dataSel), data)).
		SetBytes("proof", ssz.EncodeUnion(byte(verify.Proof.FieldIndex(proofKind)), proof)).
		SetBytes("sync_data", sync).
		Encode()
	if err != nil {
		panic(err)
	}
	return out
}

// Account is an execution account with its storage.
type Account struct {
	Nonce   uint64
	Balance *uint256.Int
	Code    []byte
	Storage map[common.Hash]common.Hash
}

func (a *Account) storageTrie() *patricia.Trie {
	t := patricia.New()
	for k, v := range a.Storage {
		if v == (common.Hash{}) {
			continue
		}
		t.Put(crypto.Keccak256(k[:]), rlp.EncodeBytes(u256.TrimLeadingZeros(v[:])))
	}
	return t
}

func (a *Account) encode() []byte {
	return rlp.EncodeList(
		rlp.EncodeUint64(a.Nonce),
		rlp.EncodeBytes(u256.TrimLeadingZeros(a.Balance.Bytes())),
		rlp.EncodeBytes(a.storageTrie().Hash().Bytes()),
		rlp.EncodeBytes(crypto.Keccak256(a.Code)),
	)
}

// State is an execution state trie.
type State struct {
	Accounts map[common.Address]*Account
}

func (s *State) trie() *patricia.Trie {
	t := patricia.New()
	for addr, acc := range s.Accounts {
		t.Put(crypto.Keccak256(addr[:]), acc.encode())
	}
	return t
}

// Root returns the state root.
func (s *State) Root() common.Hash { return s.trie().Hash() }

// AccountProof encodes the account and storage proofs of addr around an
// encoded BlockProof.
func (s *State) AccountProof(addr common.Address, block []byte, keys ...common.Hash) ([]byte, error) {
	st := patricia.New()
	if acc, ok := s.Accounts[addr]; ok {
		st = acc.storageTrie()
	}
	slots := make([][]byte, len(keys))
	for i, k := range keys {
		enc, err := ssz.NewBuilder(verify.StorageProof).
			SetBytes("key", k[:]).
			SetBytes("proof", ssz.EncodeList(trieNodes, st.Prove(crypto.Keccak256(k[:])))).
			Encode()
		if err != nil {
			return nil, err
		}
		slots[i] = enc
	}
	return ssz.NewBuilder(verify.AccountProof).
		SetBytes("account_proof", ssz.EncodeList(trieNodes, s.trie().Prove(crypto.Keccak256(addr[:])))).
		SetBytes("address", addr[:]).
		SetBytes("storage_proof", ssz.EncodeList(verify.StorageProof, slots)).
		SetBytes("block", block).
		Encode()
}

// Key returns a deterministic secp256k1 key.
func Key(seed string) *ecdsa.PrivateKey {
	h := sha256.Sum256([]byte("key/" + seed))
	key, err := gethcrypto.ToECDSA(h[:])
	if err != nil {
		panic(err)
	}
	return key
}

// Well-known values of the mainnet example chain.
var (
	BalanceAddress  = common.HexToAddress("0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5")
	BalanceValue    = uint256.MustFromDecimal("1234567890000000000")
	ContractAddress = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	ContractCode    = []byte{0x60, 0x80, 0x60, 0x40, 0x52, 0x34, 0x80, 0x15}
	TransferTopic   = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
)

const (
	BalanceBlock = 0x14d0303
	// BalanceSlot is a Deneb slot in sync committee period 1325.
	BalanceSlot = 10_860_000
)

// Env is a signed chain segment: one execution block with known state,
// transactions and receipts, and the committee that signs it.
type Env struct {
	Spec      *beacon.ChainSpec
	Committee *Committee
	Signers   int
	Block     *Block
	State     *State
	Sender    *ecdsa.PrivateKey
	Txs       []*types.Transaction
	Receipts  []*types.Receipt
}

// NewEnv builds the mainnet example chain: block 0x14d0303 holding the
// account 0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5, a contract with code
// and storage, and three transactions of different types.
func NewEnv() *Env {
	spec := beacon.Mainnet
	env := &Env{
		Spec:      spec,
		Committee: NewCommittee("mainnet/1325"),
		Signers:   400,
		Sender:    Key("sender"),
	}
	sender := gethcrypto.PubkeyToAddress(env.Sender.PublicKey)
	env.State = &State{Accounts: map[common.Address]*Account{
		BalanceAddress: {Nonce: 7, Balance: BalanceValue},
		ContractAddress: {
			Nonce:   1,
			Balance: uint256.NewInt(0),
			Code:    ContractCode,
			Storage: map[common.Hash]common.Hash{
				common.HexToHash("0x00"): common.HexToHash("0x2a"),
				common.HexToHash("0x01"): common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000000"),
			},
		},
		sender: {Nonce: 3, Balance: uint256.MustFromDecimal("5000000000000000000")},
	}}

	baseFee := uint256.NewInt(12_000_000_000)
	chainID := new(big.Int).SetUint64(spec.ChainID)
	signer := types.LatestSignerForChainID(chainID)
	to := BalanceAddress
	txdata := []types.TxData{
		&types.LegacyTx{Nonce: 0, GasPrice: big.NewInt(20_000_000_000), Gas: 21000, To: &to, Value: big.NewInt(1)},
		&types.AccessListTx{ChainID: chainID, Nonce: 1, GasPrice: big.NewInt(15_000_000_000), Gas: 50000, To: &ContractAddress,
			AccessList: types.AccessList{{Address: ContractAddress, StorageKeys: []common.Hash{common.HexToHash("0x01")}}}},
		&types.DynamicFeeTx{ChainID: chainID, Nonce: 2, GasTipCap: big.NewInt(1_000_000_000), GasFeeCap: big.NewInt(30_000_000_000),
			Gas: 100000, Data: ContractCode},
	}
	var raws [][]byte
	var cumulative uint64
	receipts := patricia.New()
	for i, d := range txdata {
		tx := types.MustSignNewTx(env.Sender, signer, d)
		raw, err := tx.MarshalBinary()
		if err != nil {
			panic(err)
		}
		raws = append(raws, raw)
		env.Txs = append(env.Txs, tx)

		cumulative += tx.Gas()
		r := &types.Receipt{Type: tx.Type(), Status: types.ReceiptStatusSuccessful, CumulativeGasUsed: cumulative}
		for j := 0; j < i; j++ {
			from := common.BytesToHash(sender[:])
			r.Logs = append(r.Logs, &types.Log{
				Address: ContractAddress,
				Topics:  []common.Hash{TransferTopic, from, common.BytesToHash(to[:])},
				Data:    common.LeftPadBytes(big.NewInt(int64(100*(i+j))).Bytes(), 32),
			})
		}
		for _, l := range r.Logs {
			r.Bloom.Add(l.Address.Bytes())
			for _, t := range l.Topics {
				r.Bloom.Add(t.Bytes())
			}
		}
		enc, err := r.MarshalBinary()
		if err != nil {
			panic(err)
		}
		receipts.Put(rlp.EncodeUint64(uint64(i)), enc)
		env.Receipts = append(env.Receipts, r)
	}

	env.Block = &Block{
		Slot:         BalanceSlot,
		Number:       BalanceBlock,
		BlockHash:    sha256.Sum256([]byte(fmt.Sprintf("block/%d", BalanceBlock))),
		StateRoot:    env.State.Root(),
		ReceiptsRoot: receipts.Hash(),
		BaseFee:      baseFee,
		Transactions: raws,
	}
	return env
}

// Period is the sync committee period of the block.
func (e *Env) Period() uint64 { return e.Spec.Period(e.Block.Slot) }

// Storage returns an in-memory store holding the committee of the block's
// period.
func (e *Env) Storage() storage.Storage {
	db := storage.NewMemory(0)
	if err := synccommittee.NewStore(db).Put(e.Period(), e.Committee.Pubkeys); err != nil {
		panic(err)
	}
	return db
}

// BlockProof signs the block with the env's committee.
func (e *Env) BlockProof(fields []string, txs ...uint64) []byte {
	p, err := e.Block.Proof(e.Spec, e.Committee, e.Signers, fields, txs...)
	if err != nil {
		panic(err)
	}
	return p
}

// AccountRequest proves addr and the storage keys; data is the result of
// dataKind, or nothing for an empty kind.
func (e *Env) AccountRequest(addr common.Address, keys []common.Hash, dataKind string, data []byte) []byte {
	p, err := e.State.AccountProof(addr, e.BlockProof(verify.AccountFields), keys...)
	if err != nil {
		panic(err)
	}
	return Request(verify.ProofAccount, p, dataKind, data, nil)
}

// BalanceRequest is the eth_getBalance request for BalanceAddress with the
// balance as result data.
func (e *Env) BalanceRequest() []byte {
	return e.AccountRequest(BalanceAddress, nil, verify.DataValue, u256.ToLE(BalanceValue, 32))
}

// TransactionRequest proves the transaction at index.
func (e *Env) TransactionRequest(index int, dataKind string, data []byte) []byte {
	p, err := ssz.NewBuilder(verify.TransactionProof).
		SetBytes("transaction", e.Block.Transactions[index]).
		SetUint("transaction_index", uint64(index)).
		SetBytes("block", e.BlockProof(verify.TxFields, uint64(index))).
		Encode()
	if err != nil {
		panic(err)
	}
	return Request(verify.ProofTransaction, p, dataKind, data, nil)
}

// receiptProof returns the receipt trie proof of the transaction at index.
func (e *Env) receiptProof(index int) []byte {
	t := patricia.New()
	for i, r := range e.Receipts {
		enc, err := r.MarshalBinary()
		if err != nil {
			panic(err)
		}
		t.Put(rlp.EncodeUint64(uint64(i)), enc)
	}
	return ssz.EncodeList(receiptNodes, t.Prove(rlp.EncodeUint64(uint64(index))))
}

// ReceiptRequest proves the receipt of the transaction at index.
func (e *Env) ReceiptRequest(index int) []byte {
	p, err := ssz.NewBuilder(verify.ReceiptProof).
		SetBytes("transaction", e.Block.Transactions[index]).
		SetUint("transaction_index", uint64(index)).
		SetBytes("receipt_proof", e.receiptProof(index)).
		SetBytes("block", e.BlockProof(verify.ReceiptFields, uint64(index))).
		Encode()
	if err != nil {
		panic(err)
	}
	return Request(verify.ProofReceipt, p, "", nil, nil)
}

// LogsRequest proves the receipts of the transactions at indices.
func (e *Env) LogsRequest(indices ...int) []byte {
	sort.Ints(indices)
	txs := make([][]byte, len(indices))
	positions := make([]uint64, len(indices))
	for i, idx := range indices {
		enc, err := ssz.NewBuilder(verify.LogsTx).
			SetBytes("transaction", e.Block.Transactions[idx]).
			SetUint("transaction_index", uint64(idx)).
			SetBytes("receipt_proof", e.receiptProof(idx)).
			Encode()
		if err != nil {
			panic(err)
		}
		txs[i], positions[i] = enc, uint64(idx)
	}
	block, err := ssz.NewBuilder(verify.LogsBlock).
		SetBytes("txs", ssz.EncodeList(verify.LogsTx, txs)).
		SetBytes("block", e.BlockProof(verify.ReceiptFields, positions...)).
		Encode()
	if err != nil {
		panic(err)
	}
	return Request(verify.ProofLogs, ssz.EncodeList(verify.LogsBlock, [][]byte{block}), "", nil, nil)
}

// HeaderRequest proves the block number and hash.
func (e *Env) HeaderRequest(dataKind string, data []byte) []byte {
	p, err := ssz.NewBuilder(verify.HeaderProof).SetBytes("block", e.BlockProof(verify.HeaderFields)).Encode()
	if err != nil {
		panic(err)
	}
	return Request(verify.ProofHeader, p, dataKind, data, nil)
}
