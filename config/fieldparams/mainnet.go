package field_params

const (
	Preset                     = "mainnet"
	BlockRootsLength           = 8192          // SLOTS_PER_HISTORICAL_ROOT
	RandaoMixesLength          = 65536         // EPOCHS_PER_HISTORICAL_VECTOR
	ValidatorRegistryLimit     = 1099511627776 // VALIDATOR_REGISTRY_LIMIT
	BuilderRegistryLimit       = 1099511627776 // BUILDER_REGISTRY_LIMIT
	RootLength                 = 32            // RootLength defines the byte length of a Merkle root.
	BLSSignatureLength         = 96            // BLSSignatureLength defines the byte length of a BLSSignature.
	BLSPubkeyLength            = 48            // BLSPubkeyLength defines the byte length of a BLSSignature.
	BLSSecretKeyLength         = 32            // BLSSecretKeyLength defines the byte length of a BLS secret key.
	MaxTxsPerPayloadLength     = 1048576       // MaxTxsPerPayloadLength defines the maximum number of transactions that can be included in a payload.
	MaxBytesPerTxLength        = 1073741824    // MaxBytesPerTxLength defines the maximum number of bytes that can be included in a transaction.
	FeeRecipientLength         = 20            // FeeRecipientLength defines the byte length of a fee recipient.
	LogsBloomLength            = 256           // LogsBloomLength defines the byte length of a logs bloom.
	MaxExtraDataLength         = 32            // MaxExtraDataLength defines the maximum byte length of payload extra data.
	VersionLength              = 4             // VersionLength defines the byte length of a fork version number.
	SlotsPerEpoch              = 32            // SlotsPerEpoch defines the number of slots per epoch.
	MaxWithdrawalsPerPayload   = 16            // MaxWithdrawalsPerPayload defines the maximum number of withdrawals that can be included in a payload.
	MaxBlobCommitmentsPerBlock = 4096          // MaxBlobCommitmentsPerBlock defines the theoretical limit of blobs can be included in a block.
	KzgCommitmentLength        = 48            // KzgCommitmentLength defines the byte length of a KZG commitment.
	PTCSize                    = 512           // PTC_SIZE, the number of seats in a payload timeliness committee.
	PTCBitvectorLength         = 64            // PTCBitvectorLength is the byte length of PTC aggregation bits.
	MaxPayloadAttestations     = 4             // MAX_PAYLOAD_ATTESTATIONS per block.
	MaxProposerSlashings       = 16            // MAX_PROPOSER_SLASHINGS per block.
	MaxBuilderPendingPayments  = 64            // 2 * SLOTS_PER_EPOCH, ring capacity of builder pending payments.
	MaxBuilderWithdrawals      = 1048576       // BUILDER_PENDING_WITHDRAWALS_LIMIT
)
