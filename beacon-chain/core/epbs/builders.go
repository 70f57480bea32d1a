package epbs

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/math"
)

// BuilderIndexFlag marks a withdrawal's validator index as referring to a builder.
const BuilderIndexFlag = uint64(1) << 40

// BuilderIndexToValidatorIndex maps a builder index into the withdrawal index space.
func BuilderIndexToValidatorIndex(idx primitives.BuilderIndex) primitives.ValidatorIndex {
	return primitives.ValidatorIndex(uint64(idx) | BuilderIndexFlag)
}

// AddBuilder inserts a builder into the registry. The first index whose builder
// has passed its withdrawable epoch with a zero balance is reused; otherwise the
// registry grows.
func AddBuilder(st state.BeaconState, b *epbstypes.Builder) (primitives.BuilderIndex, error) {
	if b == nil {
		return 0, errors.New("nil builder")
	}
	epoch := primitives.Epoch(st.Slot().Div(uint64(params.BeaconConfig().SlotsPerEpoch)))
	reusable := -1
	errFound := errors.New("found")
	err := st.ReadFromEveryBuilder(func(idx int, existing *epbstypes.Builder) error {
		if existing.WithdrawableEpoch <= epoch && existing.Balance == 0 {
			reusable = idx
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return 0, err
	}
	if reusable >= 0 {
		idx := primitives.BuilderIndex(reusable)
		if err := st.UpdateBuilderAtIndex(idx, b); err != nil {
			return 0, err
		}
		return idx, nil
	}
	return st.AppendBuilder(b)
}

// IsActiveBuilder returns true if the builder may have its bids included.
func IsActiveBuilder(st state.ReadOnlyBeaconState, idx primitives.BuilderIndex) (bool, error) {
	b, err := st.BuilderAtIndex(idx)
	if err != nil {
		return false, errors.Wrap(ErrUnknownBuilder, err.Error())
	}
	return b.IsActive(st.FinalizedCheckpointEpoch(), params.BeaconConfig().FarFutureEpoch), nil
}

// PendingBalanceToWithdraw returns the amount of a builder's balance that is
// already promised to unsettled pending payments.
func PendingBalanceToWithdraw(st state.ReadOnlyBeaconState, idx primitives.BuilderIndex) primitives.Gwei {
	total := uint64(0)
	for _, p := range st.BuilderPendingPayments() {
		if p.Settled || p.Withdrawal.Amount == 0 || p.Withdrawal.BuilderIndex != idx {
			continue
		}
		total = math.SaturatingAdd(total, uint64(p.Withdrawal.Amount))
	}
	return primitives.Gwei(total)
}

// CanBuilderCoverBid verifies that the builder keeps at least the minimum deposit
// after paying the bid and every payment it already owes.
//
// Spec pseudocode definition:
//
//	def can_builder_cover_bid(state: BeaconState, builder_index: BuilderIndex, bid_amount: Gwei) -> bool:
//	    builder_balance = state.builders[builder_index].balance
//	    pending_withdrawals_amount = get_pending_balance_to_withdraw_for_builder(state, builder_index)
//	    min_balance = MIN_DEPOSIT_AMOUNT + pending_withdrawals_amount
//	    if builder_balance < min_balance:
//	        return False
//	    return builder_balance - min_balance >= bid_amount
func CanBuilderCoverBid(st state.ReadOnlyBeaconState, idx primitives.BuilderIndex, value primitives.Gwei) error {
	b, err := st.BuilderAtIndex(idx)
	if err != nil {
		return errors.Wrap(ErrUnknownBuilder, err.Error())
	}
	minBalance, err := math.Add64(params.BeaconConfig().MinDepositAmount, uint64(PendingBalanceToWithdraw(st, idx)))
	if err != nil {
		return ErrInsufficientBalance
	}
	if uint64(b.Balance) < minBalance || uint64(b.Balance)-minBalance < uint64(value) {
		return errors.Wrapf(ErrInsufficientBalance, "balance %d, owed %d, bid %d", b.Balance, minBalance, value)
	}
	return nil
}
