// Package state_native defines the in-memory beacon state used by the node.
// All access goes through the methods on BeaconState, which serialize readers and
// writers with a single RWMutex and never hand out references to internal data.
package state_native

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
)

var _ state.BeaconState = (*BeaconState)(nil)

// BeaconState defines a struct containing utilities for the beacon state.
type BeaconState struct {
	genesisTime                  uint64
	genesisValidatorsRoot        [32]byte
	slot                         primitives.Slot
	fork                         *blocks.Fork
	latestBlockHeader            *blocks.BeaconBlockHeader
	blockRoots                   [][32]byte
	validators                   []*validator.Validator
	balances                     []uint64
	randaoMixes                  [][32]byte
	currentJustifiedCheckpoint   *blocks.Checkpoint
	finalizedCheckpoint          *blocks.Checkpoint
	builders                     []*epbs.Builder
	builderPendingPayments       []*epbs.BuilderPendingPayment
	builderPendingWithdrawals    []*epbs.BuilderPendingWithdrawal
	latestExecutionPayloadBid    *epbs.ExecutionPayloadBid
	latestBlockHash              [32]byte
	latestFullSlot               primitives.Slot
	executionPayloadAvailability bitfield.Bitvector64
	payloadExpectedWithdrawals   []*epbs.Withdrawal
	nextWithdrawalIndex          uint64

	lock sync.RWMutex
}

// Snapshot is the exported, serializable form of a beacon state.
type Snapshot struct {
	GenesisTime                  uint64                           `json:"genesis_time"`
	GenesisValidatorsRoot        [32]byte                         `json:"genesis_validators_root"`
	Slot                         primitives.Slot                  `json:"slot"`
	Fork                         *blocks.Fork                     `json:"fork"`
	LatestBlockHeader            *blocks.BeaconBlockHeader        `json:"latest_block_header"`
	BlockRoots                   [][32]byte                       `json:"block_roots"`
	Validators                   []*validator.Validator           `json:"validators"`
	Balances                     []uint64                         `json:"balances"`
	RandaoMixes                  [][32]byte                       `json:"randao_mixes"`
	CurrentJustifiedCheckpoint   *blocks.Checkpoint               `json:"current_justified_checkpoint"`
	FinalizedCheckpoint          *blocks.Checkpoint               `json:"finalized_checkpoint"`
	Builders                     []*epbs.Builder                  `json:"builders"`
	BuilderPendingPayments       []*epbs.BuilderPendingPayment    `json:"builder_pending_payments"`
	BuilderPendingWithdrawals    []*epbs.BuilderPendingWithdrawal `json:"builder_pending_withdrawals"`
	LatestExecutionPayloadBid    *epbs.ExecutionPayloadBid        `json:"latest_execution_payload_bid"`
	LatestBlockHash              [32]byte                         `json:"latest_block_hash"`
	LatestFullSlot               primitives.Slot                  `json:"latest_full_slot"`
	ExecutionPayloadAvailability bitfield.Bitvector64             `json:"execution_payload_availability"`
	PayloadExpectedWithdrawals   []*epbs.Withdrawal               `json:"payload_expected_withdrawals"`
	NextWithdrawalIndex          uint64                           `json:"next_withdrawal_index"`
}

// InitializeFromSnapshot builds a beacon state from its serialized form. The
// snapshot is deep copied, so the caller may keep using it.
func InitializeFromSnapshot(s *Snapshot) (*BeaconState, error) {
	if s == nil {
		return nil, state.ErrNilParentState
	}
	cfg := params.BeaconConfig()
	paymentsLen := int(2 * cfg.SlotsPerEpoch)
	if s.BuilderPendingPayments != nil && len(s.BuilderPendingPayments) != paymentsLen {
		return nil, errors.Errorf("builder pending payments length %d, expected %d", len(s.BuilderPendingPayments), paymentsLen)
	}
	if len(s.BlockRoots) > int(cfg.SlotsPerHistoricalRoot) {
		return nil, errors.Errorf("block roots length %d exceeds %d", len(s.BlockRoots), cfg.SlotsPerHistoricalRoot)
	}
	if len(s.Balances) != len(s.Validators) {
		return nil, errors.Errorf("balances length %d does not match validators length %d", len(s.Balances), len(s.Validators))
	}

	b := &BeaconState{
		genesisTime:                s.GenesisTime,
		genesisValidatorsRoot:      s.GenesisValidatorsRoot,
		slot:                       s.Slot,
		fork:                       copyFork(s.Fork),
		latestBlockHeader:          s.LatestBlockHeader.Copy(),
		blockRoots:                 copyRoots(s.BlockRoots),
		validators:                 copyValidators(s.Validators),
		balances:                   copyUint64s(s.Balances),
		randaoMixes:                copyRoots(s.RandaoMixes),
		currentJustifiedCheckpoint: copyCheckpoint(s.CurrentJustifiedCheckpoint),
		finalizedCheckpoint:        copyCheckpoint(s.FinalizedCheckpoint),
		builders:                   copyBuilders(s.Builders),
		builderPendingWithdrawals:  copyPendingWithdrawals(s.BuilderPendingWithdrawals),
		latestExecutionPayloadBid:  s.LatestExecutionPayloadBid.Copy(),
		latestBlockHash:            s.LatestBlockHash,
		latestFullSlot:             s.LatestFullSlot,
		payloadExpectedWithdrawals: copyWithdrawals(s.PayloadExpectedWithdrawals),
		nextWithdrawalIndex:        s.NextWithdrawalIndex,
	}
	if len(b.blockRoots) == 0 {
		b.blockRoots = make([][32]byte, cfg.SlotsPerHistoricalRoot)
	}
	if len(b.randaoMixes) == 0 {
		b.randaoMixes = make([][32]byte, cfg.EpochsPerHistoricalVector)
	}
	if b.latestBlockHeader == nil {
		b.latestBlockHeader = &blocks.BeaconBlockHeader{}
	}
	if b.currentJustifiedCheckpoint == nil {
		b.currentJustifiedCheckpoint = &blocks.Checkpoint{}
	}
	if b.finalizedCheckpoint == nil {
		b.finalizedCheckpoint = &blocks.Checkpoint{}
	}
	if b.latestExecutionPayloadBid == nil {
		b.latestExecutionPayloadBid = &epbs.ExecutionPayloadBid{}
	}
	b.builderPendingPayments = make([]*epbs.BuilderPendingPayment, paymentsLen)
	for i := range b.builderPendingPayments {
		if i < len(s.BuilderPendingPayments) && s.BuilderPendingPayments[i] != nil {
			b.builderPendingPayments[i] = s.BuilderPendingPayments[i].Copy()
		} else {
			b.builderPendingPayments[i] = epbs.NewBuilderPendingPayment()
		}
		if len(b.builderPendingPayments[i].Participation) != fieldparams.PTCBitvectorLength {
			b.builderPendingPayments[i].Participation = bitfield.NewBitvector512()
		}
	}
	if s.ExecutionPayloadAvailability != nil {
		if len(s.ExecutionPayloadAvailability) != len(bitfield.NewBitvector64()) {
			return nil, errors.New("execution payload availability has wrong length")
		}
		b.executionPayloadAvailability = bitfield.Bitvector64(copyBytes(s.ExecutionPayloadAvailability))
	} else {
		b.executionPayloadAvailability = bitfield.NewBitvector64()
	}
	return b, nil
}

// Snapshot returns a deep copy of the state in its serializable form.
func (b *BeaconState) Snapshot() *Snapshot {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return &Snapshot{
		GenesisTime:                  b.genesisTime,
		GenesisValidatorsRoot:        b.genesisValidatorsRoot,
		Slot:                         b.slot,
		Fork:                         copyFork(b.fork),
		LatestBlockHeader:            b.latestBlockHeader.Copy(),
		BlockRoots:                   copyRoots(b.blockRoots),
		Validators:                   copyValidators(b.validators),
		Balances:                     copyUint64s(b.balances),
		RandaoMixes:                  copyRoots(b.randaoMixes),
		CurrentJustifiedCheckpoint:   copyCheckpoint(b.currentJustifiedCheckpoint),
		FinalizedCheckpoint:          copyCheckpoint(b.finalizedCheckpoint),
		Builders:                     copyBuilders(b.builders),
		BuilderPendingPayments:       copyPendingPayments(b.builderPendingPayments),
		BuilderPendingWithdrawals:    copyPendingWithdrawals(b.builderPendingWithdrawals),
		LatestExecutionPayloadBid:    b.latestExecutionPayloadBid.Copy(),
		LatestBlockHash:              b.latestBlockHash,
		LatestFullSlot:               b.latestFullSlot,
		ExecutionPayloadAvailability: bitfield.Bitvector64(copyBytes(b.executionPayloadAvailability)),
		PayloadExpectedWithdrawals:   copyWithdrawals(b.payloadExpectedWithdrawals),
		NextWithdrawalIndex:          b.nextWithdrawalIndex,
	}
}

// Copy returns a deep copy of the beacon state.
func (b *BeaconState) Copy() state.BeaconState {
	st, err := InitializeFromSnapshot(b.Snapshot())
	if err != nil {
		// The snapshot of a valid state always passes validation.
		panic(err)
	}
	return st
}
