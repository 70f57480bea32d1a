// Package params defines important constants that are essential to the beacon chain
// and the enshrined proposer-builder separation rules built on top of it.
package params

import (
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// Payment quorum bases understood by the builder payment processor.
const (
	// QuorumBasisPTCSeats counts one unit of weight per PTC seat and measures the
	// quorum against PTC_SIZE.
	QuorumBasisPTCSeats = "ptc_seats"
	// QuorumBasisActiveBalance counts the effective balance of each seat and measures
	// the quorum against the per-slot share of the total active balance.
	QuorumBasisActiveBalance = "active_balance"
)

// BeaconChainConfig contains constant configs for node to participate in beacon chain.
type BeaconChainConfig struct {
	PresetBase string `yaml:"PRESET_BASE" spec:"true"`
	ConfigName string `yaml:"CONFIG_NAME" spec:"true"`

	// Constants (non-configurable)
	FarFutureEpoch primitives.Epoch `yaml:"FAR_FUTURE_EPOCH"`
	GenesisSlot    primitives.Slot  `yaml:"GENESIS_SLOT"`
	GenesisEpoch   primitives.Epoch `yaml:"GENESIS_EPOCH"`
	ZeroHash       [32]byte

	// Misc constants.
	TargetCommitteeSize  uint64 `yaml:"TARGET_COMMITTEE_SIZE" spec:"true"`
	MaxCommitteesPerSlot uint64 `yaml:"MAX_COMMITTEES_PER_SLOT" spec:"true"`
	ShuffleRoundCount    uint64 `yaml:"SHUFFLE_ROUND_COUNT" spec:"true"`

	// Gwei value constants.
	MinDepositAmount          uint64 `yaml:"MIN_DEPOSIT_AMOUNT" spec:"true"`
	MaxEffectiveBalance       uint64 `yaml:"MAX_EFFECTIVE_BALANCE" spec:"true"`
	EffectiveBalanceIncrement uint64 `yaml:"EFFECTIVE_BALANCE_INCREMENT" spec:"true"`

	// Time parameters constants.
	SecondsPerSlot                   uint64           `yaml:"SECONDS_PER_SLOT" spec:"true"`
	SlotsPerEpoch                    primitives.Slot  `yaml:"SLOTS_PER_EPOCH" spec:"true"`
	MinSeedLookahead                 primitives.Epoch `yaml:"MIN_SEED_LOOKAHEAD" spec:"true"`
	MaxSeedLookahead                 primitives.Epoch `yaml:"MAX_SEED_LOOKAHEAD" spec:"true"`
	SlotsPerHistoricalRoot           primitives.Slot  `yaml:"SLOTS_PER_HISTORICAL_ROOT" spec:"true"`
	MinValidatorWithdrawabilityDelay primitives.Epoch `yaml:"MIN_VALIDATOR_WITHDRAWABILITY_DELAY" spec:"true"`
	ProposerScoreBoost               uint64           `yaml:"PROPOSER_SCORE_BOOST" spec:"true"`
	IntervalsPerSlot                 uint64           `yaml:"INTERVALS_PER_SLOT" spec:"true"`

	// State list lengths.
	EpochsPerHistoricalVector primitives.Epoch `yaml:"EPOCHS_PER_HISTORICAL_VECTOR" spec:"true"`

	// Reward and penalty quotients.
	WhistleBlowerRewardQuotient uint64 `yaml:"WHISTLEBLOWER_REWARD_QUOTIENT" spec:"true"`
	MinSlashingPenaltyQuotient  uint64 `yaml:"MIN_SLASHING_PENALTY_QUOTIENT" spec:"true"`

	// Max operations per block.
	MaxProposerSlashings   uint64 `yaml:"MAX_PROPOSER_SLASHINGS" spec:"true"`
	MaxPayloadAttestations uint64 `yaml:"MAX_PAYLOAD_ATTESTATIONS" spec:"true"`

	// Signature domains.
	DomainBeaconProposer primitives.DomainType `yaml:"DOMAIN_BEACON_PROPOSER" spec:"true"`
	DomainBeaconAttester primitives.DomainType `yaml:"DOMAIN_BEACON_ATTESTER" spec:"true"`
	DomainRandao         primitives.DomainType `yaml:"DOMAIN_RANDAO" spec:"true"`
	DomainBeaconBuilder  primitives.DomainType `yaml:"DOMAIN_BEACON_BUILDER" spec:"true"`
	DomainPTCAttester    primitives.DomainType `yaml:"DOMAIN_PTC_ATTESTER" spec:"true"`

	// Fork versions.
	GenesisForkVersion []byte `yaml:"GENESIS_FORK_VERSION" spec:"true"`
	EPBSForkVersion    []byte `yaml:"EPBS_FORK_VERSION" spec:"true"`

	// Enshrined proposer-builder separation.
	PTCSize                            uint64                  `yaml:"PTC_SIZE" spec:"true"`
	BuilderPaymentThresholdNumerator   uint64                  `yaml:"BUILDER_PAYMENT_THRESHOLD_NUMERATOR" spec:"true"`
	BuilderPaymentThresholdDenominator uint64                  `yaml:"BUILDER_PAYMENT_THRESHOLD_DENOMINATOR" spec:"true"`
	PaymentQuorumBasis                 string                  `yaml:"PAYMENT_QUORUM_BASIS"`
	MaxBlobsPerBlock                   uint64                  `yaml:"MAX_BLOBS_PER_BLOCK" spec:"true"`
	MaxBuilderWithdrawalsPerPayload    uint64                  `yaml:"MAX_BUILDER_WITHDRAWALS_PER_PAYLOAD" spec:"true"`
	BuilderPaymentWithdrawalDelay      primitives.Epoch        `yaml:"BUILDER_PAYMENT_WITHDRAWAL_DELAY"`
	BuilderIndexSelfBuild              primitives.BuilderIndex `yaml:"BUILDER_INDEX_SELF_BUILD" spec:"true"`

	// Node-local knobs.
	PayloadEnvelopeBufferSlots primitives.Slot // how long an early envelope waits for its block
	EquivocationCacheSize      int             // entries kept per equivocation cache
	EquivocationEvidenceSize   int             // equivocation proofs retained after pruning
	HotStateCacheSize          int             // post-block and post-payload states kept in memory
}

// Validate checks the ePBS parameters for internal consistency.
func (b *BeaconChainConfig) Validate() error {
	if b.SlotsPerEpoch == 0 {
		return errors.New("slots per epoch must be non-zero")
	}
	if uint64(b.SlotsPerEpoch)*2 > fieldparams.MaxBuilderPendingPayments {
		return errors.Errorf("2 * SLOTS_PER_EPOCH=%d exceeds pending payment capacity %d", uint64(b.SlotsPerEpoch)*2, fieldparams.MaxBuilderPendingPayments)
	}
	if b.PTCSize == 0 || b.PTCSize > fieldparams.PTCSize {
		return errors.Errorf("PTC_SIZE=%d must be in (0, %d]", b.PTCSize, fieldparams.PTCSize)
	}
	if b.BuilderPaymentThresholdDenominator == 0 {
		return errors.New("builder payment threshold denominator must be non-zero")
	}
	if b.BuilderPaymentThresholdNumerator > b.BuilderPaymentThresholdDenominator {
		return errors.New("builder payment threshold must not exceed one")
	}
	switch b.PaymentQuorumBasis {
	case QuorumBasisPTCSeats, QuorumBasisActiveBalance:
	default:
		return errors.Errorf("unknown payment quorum basis %q", b.PaymentQuorumBasis)
	}
	if b.MaxBlobsPerBlock > fieldparams.MaxBlobCommitmentsPerBlock {
		return errors.Errorf("MAX_BLOBS_PER_BLOCK=%d exceeds commitment limit %d", b.MaxBlobsPerBlock, fieldparams.MaxBlobCommitmentsPerBlock)
	}
	return nil
}

// PaymentQuorumUsesSeats reports whether payment weight is counted per PTC seat.
func (b *BeaconChainConfig) PaymentQuorumUsesSeats() bool {
	return b.PaymentQuorumBasis != QuorumBasisActiveBalance
}
