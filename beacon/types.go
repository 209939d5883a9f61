package beacon

import "github.com/eth2030/stateless/ssz"

// Mainnet preset sizes used by the schemas.
const (
	SyncCommitteeSize           = 512
	MaxProposerSlashings        = 16
	MaxDeposits                 = 16
	MaxVoluntaryExits           = 16
	MaxBLSToExecutionChanges    = 16
	MaxBlobCommitmentsPerBlock  = 4096
	MaxValidatorsPerCommittee   = 2048
	MaxCommitteesPerSlot        = 64
	MaxTransactionsPerPayload   = 1 << 20
	MaxBytesPerTransaction      = 1 << 30
	MaxWithdrawalsPerPayload    = 16
	MaxExtraDataBytes           = 32
	BytesPerLogsBloom           = 256
	DepositContractTreeDepth    = 32
	MaxDepositRequests          = 8192
	MaxWithdrawalRequests       = 16
	MaxConsolidationRequests    = 2
	ExecutionBranchLength       = 4
	SyncCommitteeBitvectorBytes = SyncCommitteeSize / 8
)

var (
	BeaconBlockHeader = ssz.Container("BeaconBlockHeader",
		ssz.Field("slot", ssz.Uint64),
		ssz.Field("proposer_index", ssz.Uint64),
		ssz.Field("parent_root", ssz.Bytes32),
		ssz.Field("state_root", ssz.Bytes32),
		ssz.Field("body_root", ssz.Bytes32),
	)

	SignedBeaconBlockHeader = ssz.Container("SignedBeaconBlockHeader",
		ssz.Field("message", BeaconBlockHeader),
		ssz.Field("signature", ssz.Bytes96),
	)

	SyncCommittee = ssz.Container("SyncCommittee",
		ssz.Field("pubkeys", ssz.Vector(ssz.Bytes48, SyncCommitteeSize)),
		ssz.Field("aggregate_pubkey", ssz.Bytes48),
	)

	SyncAggregate = ssz.Container("SyncAggregate",
		ssz.Field("sync_committee_bits", ssz.BitVector(SyncCommitteeSize)),
		ssz.Field("sync_committee_signature", ssz.Bytes96),
	)

	ForkData = ssz.Container("ForkData",
		ssz.Field("current_version", ssz.Bytes4),
		ssz.Field("genesis_validators_root", ssz.Bytes32),
	)

	SigningData = ssz.Container("SigningData",
		ssz.Field("object_root", ssz.Bytes32),
		ssz.Field("domain", ssz.Bytes32),
	)

	Eth1Data = ssz.Container("Eth1Data",
		ssz.Field("deposit_root", ssz.Bytes32),
		ssz.Field("deposit_count", ssz.Uint64),
		ssz.Field("block_hash", ssz.Bytes32),
	)

	Checkpoint = ssz.Container("Checkpoint",
		ssz.Field("epoch", ssz.Uint64),
		ssz.Field("root", ssz.Bytes32),
	)

	AttestationData = ssz.Container("AttestationData",
		ssz.Field("slot", ssz.Uint64),
		ssz.Field("index", ssz.Uint64),
		ssz.Field("beacon_block_root", ssz.Bytes32),
		ssz.Field("source", Checkpoint),
		ssz.Field("target", Checkpoint),
	)

	ProposerSlashing = ssz.Container("ProposerSlashing",
		ssz.Field("signed_header_1", SignedBeaconBlockHeader),
		ssz.Field("signed_header_2", SignedBeaconBlockHeader),
	)

	DepositData = ssz.Container("DepositData",
		ssz.Field("pubkey", ssz.Bytes48),
		ssz.Field("withdrawal_credentials", ssz.Bytes32),
		ssz.Field("amount", ssz.Uint64),
		ssz.Field("signature", ssz.Bytes96),
	)

	Deposit = ssz.Container("Deposit",
		ssz.Field("proof", ssz.Vector(ssz.Bytes32, DepositContractTreeDepth+1)),
		ssz.Field("data", DepositData),
	)

	SignedVoluntaryExit = ssz.Container("SignedVoluntaryExit",
		ssz.Field("message", ssz.Container("VoluntaryExit",
			ssz.Field("epoch", ssz.Uint64),
			ssz.Field("validator_index", ssz.Uint64),
		)),
		ssz.Field("signature", ssz.Bytes96),
	)

	SignedBLSToExecutionChange = ssz.Container("SignedBLSToExecutionChange",
		ssz.Field("message", ssz.Container("BLSToExecutionChange",
			ssz.Field("validator_index", ssz.Uint64),
			ssz.Field("from_bls_pubkey", ssz.Bytes48),
			ssz.Field("to_execution_address", ssz.Bytes20),
		)),
		ssz.Field("signature", ssz.Bytes96),
	)

	Withdrawal = ssz.Container("Withdrawal",
		ssz.Field("index", ssz.Uint64),
		ssz.Field("validator_index", ssz.Uint64),
		ssz.Field("address", ssz.Bytes20),
		ssz.Field("amount", ssz.Uint64),
	)

	// ExecutionPayload is unchanged from Deneb through Fulu.
	ExecutionPayload = ssz.Container("ExecutionPayload",
		ssz.Field("parent_hash", ssz.Bytes32),
		ssz.Field("fee_recipient", ssz.Bytes20),
		ssz.Field("state_root", ssz.Bytes32),
		ssz.Field("receipts_root", ssz.Bytes32),
		ssz.Field("logs_bloom", ssz.ByteVector(BytesPerLogsBloom)),
		ssz.Field("prev_randao", ssz.Bytes32),
		ssz.Field("block_number", ssz.Uint64),
		ssz.Field("gas_limit", ssz.Uint64),
		ssz.Field("gas_used", ssz.Uint64),
		ssz.Field("timestamp", ssz.Uint64),
		ssz.Field("extra_data", ssz.ByteList(MaxExtraDataBytes)),
		ssz.Field("base_fee_per_gas", ssz.Uint256),
		ssz.Field("block_hash", ssz.Bytes32),
		ssz.Field("transactions", ssz.List(ssz.ByteList(MaxBytesPerTransaction), MaxTransactionsPerPayload)),
		ssz.Field("withdrawals", ssz.List(Withdrawal, MaxWithdrawalsPerPayload)),
		ssz.Field("blob_gas_used", ssz.Uint64),
		ssz.Field("excess_blob_gas", ssz.Uint64),
	)

	ExecutionPayloadHeader = ssz.Container("ExecutionPayloadHeader",
		ssz.Field("parent_hash", ssz.Bytes32),
		ssz.Field("fee_recipient", ssz.Bytes20),
		ssz.Field("state_root", ssz.Bytes32),
		ssz.Field("receipts_root", ssz.Bytes32),
		ssz.Field("logs_bloom", ssz.ByteVector(BytesPerLogsBloom)),
		ssz.Field("prev_randao", ssz.Bytes32),
		ssz.Field("block_number", ssz.Uint64),
		ssz.Field("gas_limit", ssz.Uint64),
		ssz.Field("gas_used", ssz.Uint64),
		ssz.Field("timestamp", ssz.Uint64),
		ssz.Field("extra_data", ssz.ByteList(MaxExtraDataBytes)),
		ssz.Field("base_fee_per_gas", ssz.Uint256),
		ssz.Field("block_hash", ssz.Bytes32),
		ssz.Field("transactions_root", ssz.Bytes32),
		ssz.Field("withdrawals_root", ssz.Bytes32),
		ssz.Field("blob_gas_used", ssz.Uint64),
		ssz.Field("excess_blob_gas", ssz.Uint64),
	)

	LightClientHeader = ssz.Container("LightClientHeader",
		ssz.Field("beacon", BeaconBlockHeader),
		ssz.Field("execution", ExecutionPayloadHeader),
		ssz.Field("execution_branch", ssz.Vector(ssz.Bytes32, ExecutionBranchLength)),
	)
)

func indexedAttestation(maxIndices uint64) *ssz.Def {
	return ssz.Container("IndexedAttestation",
		ssz.Field("attesting_indices", ssz.List(ssz.Uint64, maxIndices)),
		ssz.Field("data", AttestationData),
		ssz.Field("signature", ssz.Bytes96),
	)
}

func attesterSlashing(maxIndices uint64) *ssz.Def {
	att := indexedAttestation(maxIndices)
	return ssz.Container("AttesterSlashing",
		ssz.Field("attestation_1", att),
		ssz.Field("attestation_2", att),
	)
}

var (
	denebAttestation = ssz.Container("Attestation",
		ssz.Field("aggregation_bits", ssz.BitList(MaxValidatorsPerCommittee)),
		ssz.Field("data", AttestationData),
		ssz.Field("signature", ssz.Bytes96),
	)

	electraAttestation = ssz.Container("Attestation",
		ssz.Field("aggregation_bits", ssz.BitList(MaxValidatorsPerCommittee*MaxCommitteesPerSlot)),
		ssz.Field("data", AttestationData),
		ssz.Field("signature", ssz.Bytes96),
		ssz.Field("committee_bits", ssz.BitVector(MaxCommitteesPerSlot)),
	)

	ExecutionRequests = ssz.Container("ExecutionRequests",
		ssz.Field("deposits", ssz.List(ssz.Container("DepositRequest",
			ssz.Field("pubkey", ssz.Bytes48),
			ssz.Field("withdrawal_credentials", ssz.Bytes32),
			ssz.Field("amount", ssz.Uint64),
			ssz.Field("signature", ssz.Bytes96),
			ssz.Field("index", ssz.Uint64),
		), MaxDepositRequests)),
		ssz.Field("withdrawals", ssz.List(ssz.Container("WithdrawalRequest",
			ssz.Field("source_address", ssz.Bytes20),
			ssz.Field("validator_pubkey", ssz.Bytes48),
			ssz.Field("amount", ssz.Uint64),
		), MaxWithdrawalRequests)),
		ssz.Field("consolidations", ssz.List(ssz.Container("ConsolidationRequest",
			ssz.Field("source_address", ssz.Bytes20),
			ssz.Field("source_pubkey", ssz.Bytes48),
			ssz.Field("target_pubkey", ssz.Bytes48),
		), MaxConsolidationRequests)),
	)

	DenebBlockBody = ssz.Container("BeaconBlockBody",
		ssz.Field("randao_reveal", ssz.Bytes96),
		ssz.Field("eth1_data", Eth1Data),
		ssz.Field("graffiti", ssz.Bytes32),
		ssz.Field("proposer_slashings", ssz.List(ProposerSlashing, MaxProposerSlashings)),
		ssz.Field("attester_slashings", ssz.List(attesterSlashing(MaxValidatorsPerCommittee), 2)),
		ssz.Field("attestations", ssz.List(denebAttestation, 128)),
		ssz.Field("deposits", ssz.List(Deposit, MaxDeposits)),
		ssz.Field("voluntary_exits", ssz.List(SignedVoluntaryExit, MaxVoluntaryExits)),
		ssz.Field("sync_aggregate", SyncAggregate),
		ssz.Field("execution_payload", ExecutionPayload),
		ssz.Field("bls_to_execution_changes", ssz.List(SignedBLSToExecutionChange, MaxBLSToExecutionChanges)),
		ssz.Field("blob_kzg_commitments", ssz.List(ssz.Bytes48, MaxBlobCommitmentsPerBlock)),
	)

	ElectraBlockBody = ssz.Container("BeaconBlockBody",
		ssz.Field("randao_reveal", ssz.Bytes96),
		ssz.Field("eth1_data", Eth1Data),
		ssz.Field("graffiti", ssz.Bytes32),
		ssz.Field("proposer_slashings", ssz.List(ProposerSlashing, MaxProposerSlashings)),
		ssz.Field("attester_slashings", ssz.List(attesterSlashing(MaxValidatorsPerCommittee*MaxCommitteesPerSlot), 1)),
		ssz.Field("attestations", ssz.List(electraAttestation, 8)),
		ssz.Field("deposits", ssz.List(Deposit, MaxDeposits)),
		ssz.Field("voluntary_exits", ssz.List(SignedVoluntaryExit, MaxVoluntaryExits)),
		ssz.Field("sync_aggregate", SyncAggregate),
		ssz.Field("execution_payload", ExecutionPayload),
		ssz.Field("bls_to_execution_changes", ssz.List(SignedBLSToExecutionChange, MaxBLSToExecutionChanges)),
		ssz.Field("blob_kzg_commitments", ssz.List(ssz.Bytes48, MaxBlobCommitmentsPerBlock)),
		ssz.Field("execution_requests", ExecutionRequests),
	)
)

func lightClientUpdate(committeeDepth, finalityDepth uint64) *ssz.Def {
	return ssz.Container("LightClientUpdate",
		ssz.Field("attested_header", LightClientHeader),
		ssz.Field("next_sync_committee", SyncCommittee),
		ssz.Field("next_sync_committee_branch", ssz.Vector(ssz.Bytes32, committeeDepth)),
		ssz.Field("finalized_header", LightClientHeader),
		ssz.Field("finality_branch", ssz.Vector(ssz.Bytes32, finalityDepth)),
		ssz.Field("sync_aggregate", SyncAggregate),
		ssz.Field("signature_slot", ssz.Uint64),
	)
}

func lightClientBootstrap(committeeDepth uint64) *ssz.Def {
	return ssz.Container("LightClientBootstrap",
		ssz.Field("header", LightClientHeader),
		ssz.Field("current_sync_committee", SyncCommittee),
		ssz.Field("current_sync_committee_branch", ssz.Vector(ssz.Bytes32, committeeDepth)),
	)
}
