package epbs_test

import (
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func TestProcessBuilderWithdrawalSweep(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 8, 100*gwei)
	require.NoError(t, st.SetNextWithdrawalIndex(10))
	for i, epoch := range []primitives.Epoch{0, 0, 5} {
		require.NoError(t, st.AppendBuilderPendingWithdrawal(&epbstypes.BuilderPendingWithdrawal{
			FeeRecipient:      [20]byte{byte(i + 1)},
			Amount:            primitives.Gwei(i+1) * gwei,
			BuilderIndex:      primitives.BuilderIndex(i % 2),
			WithdrawableEpoch: epoch,
		}))
	}

	require.NoError(t, epbs.ProcessBuilderWithdrawalSweep(st))

	expected := st.PayloadExpectedWithdrawals()
	require.Equal(t, 2, len(expected))
	assert.DeepEqual(t, &epbstypes.Withdrawal{
		Index:          10,
		ValidatorIndex: epbs.BuilderIndexToValidatorIndex(0),
		Address:        [20]byte{1},
		Amount:         gwei,
	}, expected[0])
	assert.Equal(t, uint64(11), expected[1].Index)
	assert.Equal(t, epbs.BuilderIndexToValidatorIndex(1), expected[1].ValidatorIndex)
	assert.Equal(t, uint64(12), st.NextWithdrawalIndex())
	queue := st.BuilderPendingWithdrawals()
	require.Equal(t, 1, len(queue))
	assert.Equal(t, primitives.Epoch(5), queue[0].WithdrawableEpoch)
}

func TestProcessBuilderWithdrawalSweep_Limit(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 8, 100*gwei)
	limit := params.BeaconConfig().MaxBuilderWithdrawalsPerPayload
	for i := uint64(0); i < limit+4; i++ {
		require.NoError(t, st.AppendBuilderPendingWithdrawal(&epbstypes.BuilderPendingWithdrawal{Amount: 1}))
	}
	require.NoError(t, epbs.ProcessBuilderWithdrawalSweep(st))
	assert.Equal(t, int(limit), len(st.PayloadExpectedWithdrawals()))
	assert.Equal(t, 4, len(st.BuilderPendingWithdrawals()))
}

func TestProcessBuilderWithdrawalSweep_ParentEmpty(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 8, 100*gwei)
	owed := []*epbstypes.Withdrawal{{Index: 3, Amount: 5}}
	require.NoError(t, st.SetPayloadExpectedWithdrawals(owed))
	require.NoError(t, st.AppendBuilderPendingWithdrawal(&epbstypes.BuilderPendingWithdrawal{Amount: 1}))
	// The latest bid's payload was never revealed.
	require.NoError(t, st.SetLatestBlockHash([32]byte{'o', 'l', 'd'}))

	require.NoError(t, epbs.ProcessBuilderWithdrawalSweep(st))
	assert.DeepEqual(t, owed, st.PayloadExpectedWithdrawals())
	assert.Equal(t, 1, len(st.BuilderPendingWithdrawals()))
}

func TestProcessBuilderWithdrawalSweep_NothingDue(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _, _ := setupState(t, 8, 100*gwei)
	require.NoError(t, st.SetPayloadExpectedWithdrawals([]*epbstypes.Withdrawal{{Index: 3, Amount: 5}}))
	require.NoError(t, epbs.ProcessBuilderWithdrawalSweep(st))
	assert.Equal(t, 0, len(st.PayloadExpectedWithdrawals()))
	assert.Equal(t, uint64(0), st.NextWithdrawalIndex())
}
