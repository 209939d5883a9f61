package verify

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/eth2030/stateless/crypto"
	"github.com/eth2030/stateless/patricia"
	"github.com/eth2030/stateless/rlp"
	"github.com/eth2030/stateless/ssz"
	"github.com/eth2030/stateless/u256"
)

// account is an account state proven against a state root.
type account struct {
	Address     common.Address
	Nonce       uint64
	Balance     *uint256.Int
	StorageHash common.Hash
	CodeHash    common.Hash
	Proof       [][]byte
	Storage     []storageSlot
}

type storageSlot struct {
	Key   common.Hash
	Value common.Hash
	Proof [][]byte
}

// AccountResult is the eth_getProof result.
type AccountResult struct {
	Address      common.Address  `json:"address"`
	AccountProof []hexutil.Bytes `json:"accountProof"`
	Balance      *hexutil.Big    `json:"balance"`
	CodeHash     common.Hash     `json:"codeHash"`
	Nonce        hexutil.Uint64  `json:"nonce"`
	StorageHash  common.Hash     `json:"storageHash"`
	StorageProof []StorageResult `json:"storageProof"`
}

type StorageResult struct {
	Key   common.Hash     `json:"key"`
	Value *hexutil.Big    `json:"value"`
	Proof []hexutil.Bytes `json:"proof"`
}

// nodes copies the entries of an SSZ list of byte lists.
func nodes(list ssz.Ob) [][]byte {
	out := make([][]byte, list.Len())
	for i := range out {
		out[i] = list.At(i).Bytes
	}
	return out
}

func hexNodes(nodes [][]byte) []hexutil.Bytes {
	out := make([]hexutil.Bytes, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// decodeAccount decodes the trie value [nonce, balance, storageRoot, codeHash].
func decodeAccount(value []byte, acc *account) error {
	items, err := rlp.ListItems(value)
	if err != nil {
		return err
	}
	if len(items) != 4 {
		return rlp.ErrIndexOutOfRange
	}
	if acc.Nonce, _, err = rlp.SplitUint64(items[0]); err != nil {
		return err
	}
	bal, err := rlp.Bytes(items[1])
	if err != nil {
		return err
	}
	if acc.Balance, err = u256.FromBE(bal); err != nil {
		return err
	}
	for i, dst := range []*common.Hash{&acc.StorageHash, &acc.CodeHash} {
		h, err := rlp.Bytes(items[2+i])
		if err != nil {
			return err
		}
		if len(h) != common.HashLength {
			return rlp.ErrCanonSize
		}
		*dst = common.BytesToHash(h)
	}
	return nil
}

// proveAccount checks the account and storage proofs against the state
// root. A proof of absence yields the empty account.
func proveAccount(stateRoot common.Hash, p ssz.Ob) (*account, error) {
	acc := &account{
		Address:     common.Address(p.Get("address").Bytes),
		Balance:     new(uint256.Int),
		StorageHash: patricia.EmptyRoot,
		CodeHash:    types.EmptyCodeHash,
		Proof:       nodes(p.Get("account_proof")),
	}
	res, err := patricia.VerifyRoot(stateRoot, crypto.Keccak256(acc.Address[:]), nil, acc.Proof)
	if err != nil {
		return nil, structural(err, "account proof for %s", acc.Address)
	}
	if res.Found {
		if err := decodeAccount(res.Value, acc); err != nil {
			return nil, structural(err, "account %s", acc.Address)
		}
	}

	sp := p.Get("storage_proof")
	for i := 0; i < sp.Len(); i++ {
		entry := sp.At(i)
		slot := storageSlot{
			Key:   common.Hash(entry.Get("key").Bytes32()),
			Proof: nodes(entry.Get("proof")),
		}
		res, err := patricia.VerifyRoot(acc.StorageHash, crypto.Keccak256(slot.Key[:]), nil, slot.Proof)
		if err != nil {
			return nil, structural(err, "storage proof for %s", slot.Key)
		}
		if res.Found {
			v, err := rlp.Bytes(res.Value)
			if err != nil || len(v) > common.HashLength {
				return nil, structural(err, "storage value for %s", slot.Key)
			}
			slot.Value = common.BytesToHash(v)
		}
		acc.Storage = append(acc.Storage, slot)
	}
	return acc, nil
}

// accountArgs are the decoded params of the account methods.
type accountArgs struct {
	address common.Address
	keys    []common.Hash
	block   BlockRef
}

func (c *call) parseAccountArgs() (*accountArgs, error) {
	a := new(accountArgs)
	switch c.method {
	case "eth_getStorageAt":
		var key StorageKey
		if err := parseArgs(c.args, 2, &a.address, &key, &a.block); err != nil {
			return nil, err
		}
		a.keys = []common.Hash{common.Hash(key)}
	case "eth_getProof":
		var keys []StorageKey
		if err := parseArgs(c.args, 2, &a.address, &keys, &a.block); err != nil {
			return nil, err
		}
		for _, k := range keys {
			a.keys = append(a.keys, common.Hash(k))
		}
	default:
		if err := parseArgs(c.args, 1, &a.address, &a.block); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// verifyAccount serves eth_getBalance, eth_getTransactionCount,
// eth_getCode, eth_getStorageAt and eth_getProof.
func verifyAccount(c *call) (any, error) {
	p, err := c.proofOf(ProofAccount)
	if err != nil {
		return nil, err
	}
	block, err := c.verifyBlock(p.Get("block"), AccountFields, nil)
	if err != nil {
		return nil, err
	}
	acc, err := proveAccount(block.StateRoot, p)
	if err != nil {
		return nil, err
	}

	result, err := c.accountResult(acc)
	if err != nil {
		return nil, err
	}

	args, err := c.parseAccountArgs()
	if err != nil {
		return nil, err
	}
	if args.address != acc.Address {
		return nil, policy(ErrArgMismatch, "proof is for %s, requested %s", acc.Address, args.address)
	}
	if len(args.keys) > 0 || c.method == "eth_getProof" {
		if len(args.keys) != len(acc.Storage) {
			return nil, policy(ErrArgMismatch, "%d storage proofs for %d requested keys", len(acc.Storage), len(args.keys))
		}
		for i, k := range args.keys {
			if acc.Storage[i].Key != k {
				return nil, policy(ErrArgMismatch, "storage proof %d is for %s, requested %s", i, acc.Storage[i].Key, k)
			}
		}
	}
	if err := args.block.check(block.Number, block.Hash); err != nil {
		return nil, err
	}
	return result, nil
}

// accountResult builds the method's result from the proven account and
// compares it with the result data the request carries.
func (c *call) accountResult(acc *account) (any, error) {
	switch c.method {
	case "eth_getBalance", "eth_getTransactionCount":
		v := acc.Balance
		if c.method == "eth_getTransactionCount" {
			v = uint256.NewInt(acc.Nonce)
		}
		d, err := c.dataOf(DataValue)
		if err != nil {
			return nil, err
		}
		if d.IsValid() && !u256.MustFromLE(d.Bytes).Eq(v) {
			return nil, structural(ErrMismatch, "%s: proven %s", c.method, v.Dec())
		}
		if c.method == "eth_getTransactionCount" {
			return hexutil.Uint64(acc.Nonce), nil
		}
		return (*hexutil.Big)(v.ToBig()), nil

	case "eth_getCode":
		d, err := c.dataOf(DataBytes)
		if err != nil {
			return nil, err
		}
		if !d.IsValid() {
			return nil, policy(ErrDataType, "eth_getCode needs the code as result data")
		}
		if crypto.Keccak256Hash(d.Bytes) != acc.CodeHash {
			return nil, structural(ErrMismatch, "code does not hash to %s", acc.CodeHash)
		}
		return hexutil.Bytes(bytes.Clone(d.Bytes)), nil

	case "eth_getStorageAt":
		if len(acc.Storage) != 1 {
			return nil, structural(nil, "want 1 storage proof, have %d", len(acc.Storage))
		}
		v := acc.Storage[0].Value
		d, err := c.dataOf(DataHash)
		if err != nil {
			return nil, err
		}
		if d.IsValid() && common.Hash(d.Bytes32()) != v {
			return nil, structural(ErrMismatch, "storage value: proven %s", v)
		}
		return v, nil

	default:
		d, err := c.dataOf(DataAccount)
		if err != nil {
			return nil, err
		}
		if d.IsValid() {
			if err := compareAccount(d, acc); err != nil {
				return nil, err
			}
		}
		return newAccountResult(acc), nil
	}
}

func compareAccount(d ssz.Ob, acc *account) error {
	switch {
	case common.Address(d.Get("address").Bytes) != acc.Address:
		return structural(ErrMismatch, "account address")
	case !u256.MustFromLE(d.Get("balance").Bytes).Eq(acc.Balance):
		return structural(ErrMismatch, "account balance")
	case d.Get("nonce").Uint64() != acc.Nonce:
		return structural(ErrMismatch, "account nonce")
	case common.Hash(d.Get("code_hash").Bytes32()) != acc.CodeHash:
		return structural(ErrMismatch, "account code hash")
	case common.Hash(d.Get("storage_hash").Bytes32()) != acc.StorageHash:
		return structural(ErrMismatch, "account storage hash")
	}
	storage := d.Get("storage")
	if storage.Len() != len(acc.Storage) {
		return structural(ErrMismatch, "%d storage values for %d proofs", storage.Len(), len(acc.Storage))
	}
	for i, slot := range acc.Storage {
		s := storage.At(i)
		if common.Hash(s.Get("key").Bytes32()) != slot.Key || common.Hash(s.Get("value").Bytes32()) != slot.Value {
			return structural(ErrMismatch, "storage slot %s", slot.Key)
		}
	}
	return nil
}

func newAccountResult(acc *account) *AccountResult {
	r := &AccountResult{
		Address:      acc.Address,
		AccountProof: hexNodes(acc.Proof),
		Balance:      (*hexutil.Big)(acc.Balance.ToBig()),
		CodeHash:     acc.CodeHash,
		Nonce:        hexutil.Uint64(acc.Nonce),
		StorageHash:  acc.StorageHash,
		StorageProof: make([]StorageResult, 0, len(acc.Storage)),
	}
	for _, s := range acc.Storage {
		r.StorageProof = append(r.StorageProof, StorageResult{
			Key:   s.Key,
			Value: (*hexutil.Big)(s.Value.Big()),
			Proof: hexNodes(s.Proof),
		})
	}
	return r
}
