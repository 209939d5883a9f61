package verify

import (
	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/ssz"
)

// Chain types carried in the first version byte of a request.
const (
	ChainTypeETH = 1
	ChainTypeOP  = 2
)

// FormatVersion is the envelope format carried in version bytes 1..3.
var FormatVersion = [3]byte{0, 0, 1}

// Size limits of the request schema.
const (
	MaxTrieNodes       = 64
	MaxTrieNodeSize    = 1 << 10
	MaxReceiptNodeSize = 1 << 24
	MaxWitnesses       = 512
	MaxStorageSlots    = 256
	MaxAccessList      = 1024
	MaxStorageKeys     = 256
	MaxBlobHashes      = 16
	MaxLogs            = 1024
	MaxLogTopics       = 4
	MaxLogData         = 1 << 24
	MaxCodeSize        = 1 << 24
	MaxProofBlocks     = 256
	MaxBlockTxs        = 256
	MaxSyncDataSize    = 1 << 26
)

var (
	trieNode    = ssz.ByteList(MaxTrieNodeSize)
	rawTx       = ssz.ByteList(beacon.MaxBytesPerTransaction)
	address     = ssz.Bytes20
	optAddress  = ssz.ByteList(20)
	receiptNode = ssz.ByteList(MaxReceiptNodeSize)

	// BlockProof anchors execution payload values in a signed beacon
	// header: the values sit at their payload positions under the header's
	// body root, proven by the witnesses in proof. Each proof type proves a
	// subset of the value fields; the others stay zero.
	BlockProof = ssz.Container("EthBlockProof",
		ssz.Field("block_number", ssz.Uint64),
		ssz.Field("timestamp", ssz.Uint64),
		ssz.Field("block_hash", ssz.Bytes32),
		ssz.Field("state_root", ssz.Bytes32),
		ssz.Field("receipts_root", ssz.Bytes32),
		ssz.Field("base_fee_per_gas", ssz.Uint256),
		ssz.Field("proof", ssz.List(ssz.Bytes32, MaxWitnesses)),
		ssz.Field("header", beacon.BeaconBlockHeader),
		ssz.Field("sync_committee_bits", ssz.BitVector(beacon.SyncCommitteeSize)),
		ssz.Field("sync_committee_signature", ssz.Bytes96),
	)

	StorageProof = ssz.Container("EthStorageProof",
		ssz.Field("key", ssz.Bytes32),
		ssz.Field("proof", ssz.List(trieNode, MaxTrieNodes)),
	)

	AccountProof = ssz.Container("EthAccountProof",
		ssz.Field("account_proof", ssz.List(trieNode, MaxTrieNodes)),
		ssz.Field("address", address),
		ssz.Field("storage_proof", ssz.List(StorageProof, MaxStorageSlots)),
		ssz.Field("block", BlockProof),
	)

	TransactionProof = ssz.Container("EthTransactionProof",
		ssz.Field("transaction", rawTx),
		ssz.Field("transaction_index", ssz.Uint32),
		ssz.Field("block", BlockProof),
	)

	ReceiptProof = ssz.Container("EthReceiptProof",
		ssz.Field("transaction", rawTx),
		ssz.Field("transaction_index", ssz.Uint32),
		ssz.Field("receipt_proof", ssz.List(receiptNode, MaxTrieNodes)),
		ssz.Field("block", BlockProof),
	)

	LogsTx = ssz.Container("EthLogsTx",
		ssz.Field("transaction", rawTx),
		ssz.Field("transaction_index", ssz.Uint32),
		ssz.Field("receipt_proof", ssz.List(receiptNode, MaxTrieNodes)),
	)

	LogsBlock = ssz.Container("EthLogsBlock",
		ssz.Field("txs", ssz.List(LogsTx, MaxBlockTxs)),
		ssz.Field("block", BlockProof),
	)

	HeaderProof = ssz.Container("EthHeaderProof",
		ssz.Field("block", BlockProof),
	)
)

// Result data: the RPC answer in SSZ form, checked against the proof.
var (
	StorageSlot = ssz.Container("EthStorageSlot",
		ssz.Field("key", ssz.Bytes32),
		ssz.Field("value", ssz.Bytes32),
	)

	AccountData = ssz.Container("EthAccountData",
		ssz.Field("address", address),
		ssz.Field("balance", ssz.Uint256),
		ssz.Field("nonce", ssz.Uint64),
		ssz.Field("code_hash", ssz.Bytes32),
		ssz.Field("storage_hash", ssz.Bytes32),
		ssz.Field("storage", ssz.List(StorageSlot, MaxStorageSlots)),
	)

	AccessTuple = ssz.Container("EthAccessTuple",
		ssz.Field("address", address),
		ssz.Field("storage_keys", ssz.List(ssz.Bytes32, MaxStorageKeys)),
	)

	TxData = ssz.Container("EthTxData",
		ssz.Field("block_hash", ssz.Bytes32),
		ssz.Field("block_number", ssz.Uint64),
		ssz.Field("hash", ssz.Bytes32),
		ssz.Field("transaction_index", ssz.Uint32),
		ssz.Field("type", ssz.Uint8),
		ssz.Field("nonce", ssz.Uint64),
		ssz.Field("input", rawTx),
		ssz.Field("r", ssz.Uint256),
		ssz.Field("s", ssz.Uint256),
		ssz.Field("chain_id", ssz.Uint64),
		ssz.Field("v", ssz.Uint64),
		ssz.Field("gas", ssz.Uint64),
		ssz.Field("from", address),
		ssz.Field("to", optAddress),
		ssz.Field("value", ssz.Uint256),
		ssz.Field("gas_price", ssz.Uint256),
		ssz.Field("max_fee_per_gas", ssz.Uint256),
		ssz.Field("max_priority_fee_per_gas", ssz.Uint256),
		ssz.Field("access_list", ssz.List(AccessTuple, MaxAccessList)),
		ssz.Field("blob_versioned_hashes", ssz.List(ssz.Bytes32, MaxBlobHashes)),
		ssz.Field("max_fee_per_blob_gas", ssz.Uint256),
	)

	LogData = ssz.Container("EthLogData",
		ssz.Field("address", address),
		ssz.Field("topics", ssz.List(ssz.Bytes32, MaxLogTopics)),
		ssz.Field("data", ssz.ByteList(MaxLogData)),
		ssz.Field("block_number", ssz.Uint64),
		ssz.Field("block_hash", ssz.Bytes32),
		ssz.Field("transaction_hash", ssz.Bytes32),
		ssz.Field("transaction_index", ssz.Uint32),
		ssz.Field("log_index", ssz.Uint32),
		ssz.Field("removed", ssz.Bool),
	)

	ReceiptData = ssz.Container("EthReceiptData",
		ssz.Field("type", ssz.Uint8),
		ssz.Field("status", ssz.Uint8),
		ssz.Field("cumulative_gas_used", ssz.Uint64),
		ssz.Field("logs_bloom", ssz.ByteVector(beacon.BytesPerLogsBloom)),
		ssz.Field("logs", ssz.List(LogData, MaxLogs)),
		ssz.Field("transaction_hash", ssz.Bytes32),
		ssz.Field("transaction_index", ssz.Uint32),
		ssz.Field("block_hash", ssz.Bytes32),
		ssz.Field("block_number", ssz.Uint64),
		ssz.Field("from", address),
		ssz.Field("to", optAddress),
		ssz.Field("contract_address", optAddress),
		ssz.Field("effective_gas_price", ssz.Uint256),
	)
)

// Union variant names, in selector order.
const (
	DataNone        = "none"
	DataHash        = "hash"
	DataBytes       = "bytes"
	DataValue       = "value"
	DataAccount     = "account"
	DataTx          = "tx"
	DataReceipt     = "receipt"
	DataLogs        = "logs"
	DataBlockNumber = "block_number"

	ProofAccount     = "account"
	ProofTransaction = "transaction"
	ProofReceipt     = "receipt"
	ProofLogs        = "logs"
	ProofHeader      = "header"

	SyncUpdates = "updates"
)

var (
	Data = ssz.Union("EthData",
		ssz.None,
		ssz.Field(DataHash, ssz.Bytes32),
		ssz.Field(DataBytes, ssz.ByteList(MaxCodeSize)),
		ssz.Field(DataValue, ssz.Uint256),
		ssz.Field(DataAccount, AccountData),
		ssz.Field(DataTx, TxData),
		ssz.Field(DataReceipt, ReceiptData),
		ssz.Field(DataLogs, ssz.List(LogData, MaxLogs)),
		ssz.Field(DataBlockNumber, ssz.Uint64),
	)

	Proof = ssz.Union("EthProof",
		ssz.None,
		ssz.Field(ProofAccount, AccountProof),
		ssz.Field(ProofTransaction, TransactionProof),
		ssz.Field(ProofReceipt, ReceiptProof),
		ssz.Field(ProofLogs, ssz.List(LogsBlock, MaxProofBlocks)),
		ssz.Field(ProofHeader, HeaderProof),
	)

	// SyncData carries light-client updates in the beacon-API response
	// encoding, applied before the proof is checked.
	SyncData = ssz.Union("SyncData",
		ssz.None,
		ssz.Field(SyncUpdates, ssz.ByteList(MaxSyncDataSize)),
	)

	// Request is the proof envelope. The first version byte names the
	// chain type; the remaining three are the encoder's version.
	Request = ssz.Container("C4Request",
		ssz.Field("version", ssz.Bytes4),
		ssz.Field("data", Data),
		ssz.Field("proof", Proof),
		ssz.Field("sync_data", SyncData),
	)
)
