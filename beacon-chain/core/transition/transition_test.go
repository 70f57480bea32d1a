package transition_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/transition"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/testing/util"
)

const gwei = primitives.Gwei(1e9)

func advanced(t *testing.T, st state.BeaconState, slot primitives.Slot) state.BeaconState {
	pre := st.Copy()
	require.NoError(t, transition.ProcessSlots(context.Background(), pre, slot))
	return pre
}

func TestProcessSlots_EpochBoundary(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	helpers.ClearCache()
	st, _ := util.DeterministicGenesisState(t, 16)
	genesisRoot := util.GenesisBlockRoot(t, st)
	spe := params.BeaconConfig().SlotsPerEpoch
	require.NoError(t, st.SetExecutionPayloadAvailability(spe+1, true))
	require.NoError(t, st.SetExecutionPayloadAvailability(spe+2, true))
	require.NoError(t, st.UpdateRandaoMixesAtIndex(0, [32]byte{'m'}))

	require.NoError(t, transition.ProcessSlots(context.Background(), st, spe+1))
	assert.Equal(t, spe+1, st.Slot())
	for i := uint64(0); i <= uint64(spe); i++ {
		root, err := st.BlockRootAtIndex(i)
		require.NoError(t, err)
		assert.Equal(t, genesisRoot, root)
	}
	assert.Equal(t, false, st.ExecutionPayloadAvailability(spe+1), "availability of a processed slot is cleared")
	assert.Equal(t, true, st.ExecutionPayloadAvailability(spe+2))
	mix, err := st.RandaoMixAtIndex(1)
	require.NoError(t, err)
	assert.Equal(t, [32]byte{'m'}, mix)

	require.ErrorContains(t, "expected state.slot", transition.ProcessSlots(context.Background(), st, spe))
}

func TestProcessSlots_Canceled(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	st, _ := util.DeterministicGenesisState(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, transition.ProcessSlots(ctx, st, 5), context.Canceled)
}

// Builds a short chain: an externally built block with its reveal, a block whose PTC
// votes settle the builder payment, and a block whose payload pays the withdrawal out.
func TestExecuteStateTransition_BuilderPaymentLifecycle(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	helpers.ClearCache()
	ctx := context.Background()
	var st state.BeaconState
	genesis, keys := util.DeterministicGenesisState(t, 64)
	builderKeys := util.DeterministicBuilders(t, genesis, 1, 100*gwei)
	require.NoError(t, genesis.SetFinalizedCheckpoint(&blocks.Checkpoint{Epoch: 1}))
	st = genesis

	// Slot 1: external bid of 2 ETH, revealed.
	pre := advanced(t, st, 1)
	bid := util.SignBid(t, pre, util.BidForState(t, pre, 0, 2*gwei, util.PayloadHash(1, 0)), builderKeys[0])
	blk1 := util.GenerateBlock(t, pre, keys, bid, nil)
	require.NoError(t, transition.ExecuteStateTransition(ctx, st, blk1))
	require.NoError(t, transition.ProcessExecutionPayload(ctx, st, util.GenerateEnvelope(t, st, builderKeys[0]), true))
	assert.Equal(t, util.PayloadHash(1, 0), st.LatestBlockHash())
	root1, err := blk1.Block.HashTreeRoot()
	require.NoError(t, err)

	// Slot 2: self-built block carrying a quorum of presence votes for slot 1.
	pre = advanced(t, st, 2)
	ptc, err := epbs.GetPTC(ctx, pre, 1)
	require.NoError(t, err)
	data := &epbstypes.PayloadAttestationData{BeaconBlockRoot: root1, Slot: 1, PayloadPresent: true}
	att := util.GeneratePayloadAttestation(t, pre, data, ptc, util.Seats(307), keys)
	blk2 := util.GenerateBlock(t, pre, keys, nil, []*epbstypes.PayloadAttestation{att})
	require.NoError(t, transition.ExecuteStateTransition(ctx, st, blk2))

	b, err := st.BuilderAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, 98*gwei, b.Balance)
	assert.Equal(t, true, st.ExecutionPayloadAvailability(1))
	require.Equal(t, 1, len(st.BuilderPendingWithdrawals()))

	proposer2 := blk2.Block.ProposerIndex
	require.NoError(t, transition.ProcessExecutionPayload(ctx, st, util.GenerateEnvelope(t, st, keys[proposer2]), true))

	// Slot 3: the sweep moves the due withdrawal into the next payload.
	pre = advanced(t, st, 3)
	blk3 := util.GenerateBlock(t, pre, keys, nil, nil)
	require.NoError(t, transition.ExecuteStateTransition(ctx, st, blk3))
	expected := st.PayloadExpectedWithdrawals()
	require.Equal(t, 1, len(expected))
	assert.Equal(t, primitives.Gwei(2*gwei), expected[0].Amount)
	assert.Equal(t, epbs.BuilderIndexToValidatorIndex(0), expected[0].ValidatorIndex)
	assert.Equal(t, 0, len(st.BuilderPendingWithdrawals()))

	env := util.GenerateEnvelope(t, st, keys[blk3.Block.ProposerIndex])
	assert.Equal(t, 1, len(env.Message.Payload.Withdrawals))
	require.NoError(t, transition.ProcessExecutionPayload(ctx, st, env, true))
	assert.Equal(t, primitives.Slot(3), st.LatestFullSlot())
}

func TestExecuteStateTransition_EmptyParentSkipsSweep(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	helpers.ClearCache()
	ctx := context.Background()
	st, keys := util.DeterministicGenesisState(t, 64)
	builderKeys := util.DeterministicBuilders(t, st, 1, 100*gwei)
	require.NoError(t, st.SetFinalizedCheckpoint(&blocks.Checkpoint{Epoch: 1}))

	pre := advanced(t, st, 1)
	bid := util.SignBid(t, pre, util.BidForState(t, pre, 0, gwei, util.PayloadHash(1, 0)), builderKeys[0])
	require.NoError(t, transition.ExecuteStateTransition(ctx, st, util.GenerateBlock(t, pre, keys, bid, nil)))
	// The builder withholds; the next block builds on the last revealed payload.
	pre = advanced(t, st, 2)
	blk2 := util.GenerateBlock(t, pre, keys, nil, nil)
	assert.Equal(t, util.GenesisBlockHash, blk2.Block.Body.SignedExecutionPayloadBid.Message.ParentBlockHash)
	require.NoError(t, transition.ExecuteStateTransition(ctx, st, blk2))
	assert.Equal(t, primitives.Slot(0), st.LatestFullSlot())
}

func TestExecuteStateTransition_Rejections(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	helpers.ClearCache()
	ctx := context.Background()
	st, keys := util.DeterministicGenesisState(t, 64)

	pre := advanced(t, st, 1)
	blk := util.GenerateBlock(t, pre, keys, nil, nil)
	blk.Signature = [96]byte{}
	require.ErrorContains(t, "invalid block signature", transition.ExecuteStateTransition(ctx, st.Copy(), blk))

	blk = util.GenerateBlock(t, pre, keys, nil, nil)
	blk.Block.Body.RandaoReveal = [96]byte{}
	blk = util.SignBlock(t, pre, blk.Block, keys[blk.Block.ProposerIndex])
	blk = util.SignBlock(t, pre, blk.Block, keys[blk.Block.ProposerIndex])
	require.ErrorContains(t, "could not process randao", transition.ExecuteStateTransition(ctx, st.Copy(), blk))

	require.ErrorIs(t, transition.ExecuteStateTransition(ctx, st, nil), blocks.ErrNilBlock)
}
