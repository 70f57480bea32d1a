package state_native

import (
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// BuilderPendingPaymentAtIndex returns a copy of the pending payment stored at idx.
func (b *BeaconState) BuilderPendingPaymentAtIndex(idx uint64) (*epbs.BuilderPendingPayment, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if idx >= uint64(len(b.builderPendingPayments)) {
		return nil, state.NewIndexOutOfRangeError("builder pending payments", idx, len(b.builderPendingPayments))
	}
	return b.builderPendingPayments[idx].Copy(), nil
}

// BuilderPendingPayments returns a copy of the whole payment ring.
func (b *BeaconState) BuilderPendingPayments() []*epbs.BuilderPendingPayment {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyPendingPayments(b.builderPendingPayments)
}

// BuilderPendingWithdrawals returns a copy of the builder withdrawal queue.
func (b *BeaconState) BuilderPendingWithdrawals() []*epbs.BuilderPendingWithdrawal {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyPendingWithdrawals(b.builderPendingWithdrawals)
}

// LatestExecutionPayloadBid returns the bid committed by the latest processed block.
func (b *BeaconState) LatestExecutionPayloadBid() *epbs.ExecutionPayloadBid {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.latestExecutionPayloadBid.Copy()
}

// LatestBlockHash returns the hash of the latest execution payload that was revealed.
func (b *BeaconState) LatestBlockHash() [32]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.latestBlockHash
}

// LatestFullSlot returns the slot of the latest revealed execution payload.
func (b *BeaconState) LatestFullSlot() primitives.Slot {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.latestFullSlot
}

// IsParentBlockFull returns true if the payload committed by the latest bid was
// revealed.
//
// Spec pseudocode definition:
//
//	def is_parent_block_full(state: BeaconState) -> bool:
//	  return state.latest_execution_payload_bid.block_hash == state.latest_block_hash
func (b *BeaconState) IsParentBlockFull() bool {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.latestExecutionPayloadBid == nil {
		return false
	}
	return b.latestExecutionPayloadBid.BlockHash == b.latestBlockHash
}

// ExecutionPayloadAvailability returns whether the payload of the given slot was
// attested as available. Only the last two epochs are tracked.
func (b *BeaconState) ExecutionPayloadAvailability(slot primitives.Slot) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.executionPayloadAvailability.BitAt(availabilityIndex(slot))
}

// PayloadExpectedWithdrawals returns the withdrawals the next revealed payload must carry.
func (b *BeaconState) PayloadExpectedWithdrawals() []*epbs.Withdrawal {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyWithdrawals(b.payloadExpectedWithdrawals)
}

// NextWithdrawalIndex returns the index that will be assigned to the next withdrawal.
func (b *BeaconState) NextWithdrawalIndex() uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.nextWithdrawalIndex
}

// availabilityIndex maps a slot onto the two-epoch availability ring.
func availabilityIndex(slot primitives.Slot) uint64 {
	return uint64(slot % (2 * params.BeaconConfig().SlotsPerEpoch))
}
