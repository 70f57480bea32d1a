package epbs

import (
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
)

// ExpectedBuilderWithdrawals returns the due builder withdrawals at the head of the
// queue, at most MaxBuilderWithdrawalsPerPayload of them, numbered from the state's
// next withdrawal index. The queue is ordered by withdrawable epoch so the sweep
// stops at the first withdrawal that is not due yet.
func ExpectedBuilderWithdrawals(st state.ReadOnlyBeaconState) []*epbstypes.Withdrawal {
	epoch := slots.ToEpoch(st.Slot())
	limit := params.BeaconConfig().MaxBuilderWithdrawalsPerPayload
	next := st.NextWithdrawalIndex()
	var out []*epbstypes.Withdrawal
	for _, w := range st.BuilderPendingWithdrawals() {
		if uint64(len(out)) >= limit || w.WithdrawableEpoch > epoch {
			break
		}
		out = append(out, &epbstypes.Withdrawal{
			Index:          next,
			ValidatorIndex: BuilderIndexToValidatorIndex(w.BuilderIndex),
			Address:        w.FeeRecipient,
			Amount:         w.Amount,
		})
		next++
	}
	return out
}

// ProcessBuilderWithdrawalSweep moves due builder withdrawals into the list the next
// revealed payload has to carry. When the parent payload was never revealed the
// previous list is still owed and is left untouched.
//
// Spec pseudocode definition:
//
//	def process_withdrawals(state: BeaconState) -> None:
//	    if not is_parent_block_full(state):
//	        return
//	    withdrawals, processed_builder_withdrawals_count = get_expected_withdrawals(state)
//	    state.payload_expected_withdrawals = withdrawals
//	    state.builder_pending_withdrawals = state.builder_pending_withdrawals[processed_builder_withdrawals_count:]
//	    if len(withdrawals) != 0:
//	        state.next_withdrawal_index = withdrawals[-1].index + 1
func ProcessBuilderWithdrawalSweep(st state.BeaconState) error {
	if !st.IsParentBlockFull() {
		return nil
	}
	expected := ExpectedBuilderWithdrawals(st)
	if err := st.SetPayloadExpectedWithdrawals(expected); err != nil {
		return err
	}
	if len(expected) == 0 {
		return nil
	}
	if err := st.DequeueBuilderPendingWithdrawals(uint64(len(expected))); err != nil {
		return err
	}
	return st.SetNextWithdrawalIndex(expected[len(expected)-1].Index + 1)
}
