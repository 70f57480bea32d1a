package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// SetBuilderPendingPaymentAtIndex overwrites the payment stored at idx of the ring.
func (b *BeaconState) SetBuilderPendingPaymentAtIndex(idx uint64, p *epbs.BuilderPendingPayment) error {
	if p == nil {
		return errors.New("nil builder pending payment")
	}
	if len(p.Participation) != fieldparams.PTCBitvectorLength {
		return errors.Errorf("participation bits have byte length %d, expected %d", len(p.Participation), fieldparams.PTCBitvectorLength)
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.builderPendingPayments)) {
		return state.NewIndexOutOfRangeError("builder pending payments", idx, len(b.builderPendingPayments))
	}
	b.builderPendingPayments[idx] = p.Copy()
	return nil
}

// AppendBuilderPendingWithdrawal queues a withdrawal owed by a builder.
func (b *BeaconState) AppendBuilderPendingWithdrawal(w *epbs.BuilderPendingWithdrawal) error {
	if w == nil {
		return errors.New("nil builder pending withdrawal")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.builderPendingWithdrawals)) >= fieldparams.MaxBuilderWithdrawals {
		return errors.New("builder pending withdrawal queue is full")
	}
	c := *w
	b.builderPendingWithdrawals = append(b.builderPendingWithdrawals, &c)
	return nil
}

// DequeueBuilderPendingWithdrawals removes the first n withdrawals of the queue.
func (b *BeaconState) DequeueBuilderPendingWithdrawals(n uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if n > uint64(len(b.builderPendingWithdrawals)) {
		return errors.New("cannot dequeue more withdrawals than are in the queue")
	}
	if n == 0 {
		return nil
	}
	remaining := make([]*epbs.BuilderPendingWithdrawal, len(b.builderPendingWithdrawals)-int(n))
	copy(remaining, b.builderPendingWithdrawals[n:])
	b.builderPendingWithdrawals = remaining
	return nil
}

// SetLatestExecutionPayloadBid records the bid committed by the block being processed.
func (b *BeaconState) SetLatestExecutionPayloadBid(bid *epbs.ExecutionPayloadBid) error {
	if bid == nil {
		return errors.New("nil execution payload bid")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.latestExecutionPayloadBid = bid.Copy()
	return nil
}

// SetLatestBlockHash sets the hash of the latest revealed execution payload.
func (b *BeaconState) SetLatestBlockHash(hash [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.latestBlockHash = hash
	return nil
}

// SetLatestFullSlot sets the slot of the latest revealed execution payload.
func (b *BeaconState) SetLatestFullSlot(slot primitives.Slot) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.latestFullSlot = slot
	return nil
}

// SetExecutionPayloadAvailability sets the availability bit of slot.
func (b *BeaconState) SetExecutionPayloadAvailability(slot primitives.Slot, available bool) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.executionPayloadAvailability.SetBitAt(availabilityIndex(slot), available)
	return nil
}

// SetPayloadExpectedWithdrawals sets the withdrawals the next revealed payload must carry.
func (b *BeaconState) SetPayloadExpectedWithdrawals(w []*epbs.Withdrawal) error {
	if uint64(len(w)) > fieldparams.MaxWithdrawalsPerPayload {
		return errors.Errorf("%d withdrawals exceed the per payload limit", len(w))
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.payloadExpectedWithdrawals = copyWithdrawals(w)
	return nil
}

// SetNextWithdrawalIndex sets the index of the next withdrawal.
func (b *BeaconState) SetNextWithdrawalIndex(i uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextWithdrawalIndex = i
	return nil
}
