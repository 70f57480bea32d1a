package params

import (
	"math"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig
}

var mainnetBeaconConfig = &BeaconChainConfig{
	PresetBase: "mainnet",
	ConfigName: "mainnet",

	// Constants (Non-configurable)
	FarFutureEpoch: math.MaxUint64,
	GenesisSlot:    0,
	GenesisEpoch:   0,
	ZeroHash:       [32]byte{},

	// Misc constant.
	TargetCommitteeSize:  128,
	MaxCommitteesPerSlot: 64,
	ShuffleRoundCount:    90,

	// Gwei value constants.
	MinDepositAmount:          1 * 1e9,
	MaxEffectiveBalance:       2048 * 1e9,
	EffectiveBalanceIncrement: 1 * 1e9,

	// Time parameter constants.
	SecondsPerSlot:                   12,
	SlotsPerEpoch:                    32,
	MinSeedLookahead:                 1,
	MaxSeedLookahead:                 4,
	SlotsPerHistoricalRoot:           8192,
	MinValidatorWithdrawabilityDelay: 256,
	ProposerScoreBoost:               40,
	IntervalsPerSlot:                 3,

	// State list length constants.
	EpochsPerHistoricalVector: 65536,

	// Reward and penalty quotients constants.
	WhistleBlowerRewardQuotient: 4096,
	MinSlashingPenaltyQuotient:  4096,

	// Max operations per block constants.
	MaxProposerSlashings:   16,
	MaxPayloadAttestations: 4,

	// BLS domain values.
	DomainBeaconProposer: primitives.DomainType{0x00, 0x00, 0x00, 0x00},
	DomainBeaconAttester: primitives.DomainType{0x01, 0x00, 0x00, 0x00},
	DomainRandao:         primitives.DomainType{0x02, 0x00, 0x00, 0x00},
	DomainBeaconBuilder:  primitives.DomainType{0x0B, 0x00, 0x00, 0x00},
	DomainPTCAttester:    primitives.DomainType{0x0C, 0x00, 0x00, 0x00},

	// Fork related values.
	GenesisForkVersion: []byte{0, 0, 0, 0},
	EPBSForkVersion:    []byte{7, 0, 0, 0},

	// ePBS values.
	PTCSize:                            512,
	BuilderPaymentThresholdNumerator:   6,
	BuilderPaymentThresholdDenominator: 10,
	PaymentQuorumBasis:                 QuorumBasisPTCSeats,
	MaxBlobsPerBlock:                   9,
	MaxBuilderWithdrawalsPerPayload:    16,
	BuilderPaymentWithdrawalDelay:      0,
	BuilderIndexSelfBuild:              math.MaxUint64,

	PayloadEnvelopeBufferSlots: 2,
	EquivocationCacheSize:      1 << 14,
	EquivocationEvidenceSize:   1 << 10,
	HotStateCacheSize:          64,
}
