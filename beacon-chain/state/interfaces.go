// Package state defines the actual beacon state interface used
// by a Prysm beacon node, also containing useful, scoped interfaces such as
// a ReadOnlyState and WriteOnlyBeaconState.
package state

import (
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
)

// BeaconState has read and write access to beacon state methods.
type BeaconState interface {
	ReadOnlyBeaconState
	WriteOnlyBeaconState
	Copy() BeaconState
}

// ReadOnlyBeaconState defines a struct which only has read access to beacon state methods.
type ReadOnlyBeaconState interface {
	ReadOnlyBlockRoots
	ReadOnlyRandaoMixes
	ReadOnlyValidators
	ReadOnlyBalances
	ReadOnlyCheckpoint
	ReadOnlyBuilders
	ReadOnlyEPBSFields
	GenesisTime() uint64
	GenesisValidatorsRoot() [32]byte
	Slot() primitives.Slot
	Fork() *blocks.Fork
	LatestBlockHeader() *blocks.BeaconBlockHeader
}

// WriteOnlyBeaconState defines a struct which only has write access to beacon state methods.
type WriteOnlyBeaconState interface {
	WriteOnlyBlockRoots
	WriteOnlyRandaoMixes
	WriteOnlyValidators
	WriteOnlyBalances
	WriteOnlyCheckpoint
	WriteOnlyBuilders
	WriteOnlyEPBSFields
	SetGenesisTime(val uint64) error
	SetGenesisValidatorsRoot(val [32]byte) error
	SetSlot(val primitives.Slot) error
	SetFork(val *blocks.Fork) error
	SetLatestBlockHeader(val *blocks.BeaconBlockHeader) error
}

// ReadOnlyBlockRoots defines a struct which only has read access to block roots methods.
type ReadOnlyBlockRoots interface {
	BlockRootAtIndex(idx uint64) ([32]byte, error)
}

// WriteOnlyBlockRoots defines a struct which only has write access to block roots methods.
type WriteOnlyBlockRoots interface {
	UpdateBlockRootAtIndex(idx uint64, blockRoot [32]byte) error
}

// ReadOnlyRandaoMixes defines a struct which only has read access to randao mixes methods.
type ReadOnlyRandaoMixes interface {
	RandaoMixAtIndex(idx uint64) ([32]byte, error)
	RandaoMixesLength() int
}

// WriteOnlyRandaoMixes defines a struct which only has write access to randao mixes methods.
type WriteOnlyRandaoMixes interface {
	UpdateRandaoMixesAtIndex(idx uint64, val [32]byte) error
}

// ReadOnlyValidators defines a struct which only has read access to validators methods.
type ReadOnlyValidators interface {
	Validators() []*validator.Validator
	ValidatorAtIndex(idx primitives.ValidatorIndex) (*validator.Validator, error)
	PubkeyAtIndex(idx primitives.ValidatorIndex) [48]byte
	NumValidators() int
	ReadFromEveryValidator(f func(idx int, val *validator.Validator) error) error
}

// WriteOnlyValidators defines a struct which only has write access to validators methods.
type WriteOnlyValidators interface {
	SetValidators(val []*validator.Validator) error
	UpdateValidatorAtIndex(idx primitives.ValidatorIndex, val *validator.Validator) error
	AppendValidator(val *validator.Validator) error
}

// ReadOnlyBalances defines a struct which only has read access to balances methods.
type ReadOnlyBalances interface {
	Balances() []uint64
	BalanceAtIndex(idx primitives.ValidatorIndex) (uint64, error)
}

// WriteOnlyBalances defines a struct which only has write access to balances methods.
type WriteOnlyBalances interface {
	SetBalances(val []uint64) error
	UpdateBalancesAtIndex(idx primitives.ValidatorIndex, val uint64) error
	AppendBalance(bal uint64) error
}

// ReadOnlyCheckpoint defines a struct which only has read access to checkpoint methods.
type ReadOnlyCheckpoint interface {
	CurrentJustifiedCheckpoint() *blocks.Checkpoint
	FinalizedCheckpoint() *blocks.Checkpoint
	FinalizedCheckpointEpoch() primitives.Epoch
}

// WriteOnlyCheckpoint defines a struct which only has write access to checkpoint methods.
type WriteOnlyCheckpoint interface {
	SetCurrentJustifiedCheckpoint(val *blocks.Checkpoint) error
	SetFinalizedCheckpoint(val *blocks.Checkpoint) error
}

// ReadOnlyBuilders defines a struct which only has read access to the builder registry.
type ReadOnlyBuilders interface {
	BuilderAtIndex(idx primitives.BuilderIndex) (*epbs.Builder, error)
	NumBuilders() int
	ReadFromEveryBuilder(f func(idx int, b *epbs.Builder) error) error
}

// WriteOnlyBuilders defines a struct which only has write access to the builder registry.
type WriteOnlyBuilders interface {
	AppendBuilder(b *epbs.Builder) (primitives.BuilderIndex, error)
	UpdateBuilderAtIndex(idx primitives.BuilderIndex, b *epbs.Builder) error
}

// ReadOnlyEPBSFields defines read access to the payment, bid and payload tracking fields.
type ReadOnlyEPBSFields interface {
	BuilderPendingPaymentAtIndex(idx uint64) (*epbs.BuilderPendingPayment, error)
	BuilderPendingPayments() []*epbs.BuilderPendingPayment
	BuilderPendingWithdrawals() []*epbs.BuilderPendingWithdrawal
	LatestExecutionPayloadBid() *epbs.ExecutionPayloadBid
	LatestBlockHash() [32]byte
	LatestFullSlot() primitives.Slot
	IsParentBlockFull() bool
	ExecutionPayloadAvailability(slot primitives.Slot) bool
	PayloadExpectedWithdrawals() []*epbs.Withdrawal
	NextWithdrawalIndex() uint64
}

// WriteOnlyEPBSFields defines write access to the payment, bid and payload tracking fields.
type WriteOnlyEPBSFields interface {
	SetBuilderPendingPaymentAtIndex(idx uint64, p *epbs.BuilderPendingPayment) error
	AppendBuilderPendingWithdrawal(w *epbs.BuilderPendingWithdrawal) error
	DequeueBuilderPendingWithdrawals(n uint64) error
	SetLatestExecutionPayloadBid(bid *epbs.ExecutionPayloadBid) error
	SetLatestBlockHash(hash [32]byte) error
	SetLatestFullSlot(slot primitives.Slot) error
	SetExecutionPayloadAvailability(slot primitives.Slot, available bool) error
	SetPayloadExpectedWithdrawals(w []*epbs.Withdrawal) error
	SetNextWithdrawalIndex(i uint64) error
}
