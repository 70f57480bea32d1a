package protoarray

import (
	"context"
	"testing"

	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func TestVotes_CanFindHead(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a, b := [32]byte{'a'}, [32]byte{'b'}
	insertBlock(t, f, 1, a, genesisRoot, true, true)
	insertBlock(t, f, 1, b, genesisRoot, false, true)
	require.NoError(t, f.NewSlot(ctx, 5))
	balances := uniformBalances(3, 10)

	f.ProcessAttestation(ctx, []uint64{0, 1}, a, 2, false)
	f.ProcessAttestation(ctx, []uint64{2}, b, 2, false)
	head, err := f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, node(a, primitives.PayloadEmpty), head)
	w, err := f.Weight(node(genesisRoot, primitives.PayloadFull))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), w)
	w, err = f.Weight(node(genesisRoot, primitives.PayloadEmpty))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), w)

	// Moving both votes switches the head to the branch built on the empty tree root.
	f.ProcessAttestation(ctx, []uint64{0, 1}, b, 3, false)
	head, err = f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, node(b, primitives.PayloadEmpty), head)
	w, err = f.Weight(pendingKey(genesisRoot))
	require.NoError(t, err)
	assert.Equal(t, uint64(30), w)
	w, err = f.Weight(node(genesisRoot, primitives.PayloadFull))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w)
	assert.Equal(t, true, f.IsCanonical(b))
	assert.Equal(t, false, f.IsCanonical(a))
}

func TestVotes_OlderMessageIgnored(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a, b := [32]byte{'a'}, [32]byte{'b'}
	insertBlock(t, f, 1, a, genesisRoot, true, true)
	insertBlock(t, f, 1, b, genesisRoot, true, true)

	f.ProcessAttestation(ctx, []uint64{4}, a, 3, true)
	f.ProcessAttestation(ctx, []uint64{4}, b, 2, false)
	f.ProcessAttestation(ctx, []uint64{4}, b, 3, false)
	msg, err := f.LatestMessage(4)
	require.NoError(t, err)
	assert.DeepEqual(t, &forkchoicetypes.LatestMessage{Slot: 3, Root: a, PayloadPresent: true}, msg)

	_, err = f.LatestMessage(3)
	require.ErrorIs(t, err, errUnknownVote)
	_, err = f.LatestMessage(100)
	require.ErrorIs(t, err, errUnknownVote)
}

func TestVotes_BalanceChange(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := [32]byte{'a'}
	insertBlock(t, f, 1, a, genesisRoot, true, true)
	require.NoError(t, f.NewSlot(ctx, 3))
	f.ProcessAttestation(ctx, []uint64{0, 1}, a, 2, false)

	_, err := f.Head(ctx, []uint64{10, 10})
	require.NoError(t, err)
	_, err = f.Head(ctx, []uint64{4, 30})
	require.NoError(t, err)
	w, err := f.Weight(pendingKey(a))
	require.NoError(t, err)
	assert.Equal(t, uint64(34), w)

	// A validator missing from the balances carries no weight.
	_, err = f.Head(ctx, []uint64{4})
	require.NoError(t, err)
	w, err = f.Weight(pendingKey(a))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), w)
}

func TestVotes_SlashedIndexLosesWeight(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a, b := [32]byte{'a'}, [32]byte{'b'}
	insertBlock(t, f, 1, a, genesisRoot, true, true)
	insertBlock(t, f, 1, b, genesisRoot, true, true)
	require.NoError(t, f.NewSlot(ctx, 3))
	f.ProcessAttestation(ctx, []uint64{0, 1}, a, 2, false)
	f.ProcessAttestation(ctx, []uint64{2}, b, 2, false)
	balances := uniformBalances(3, 10)

	head, err := f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, a, head.Root)

	f.InsertSlashedIndex(ctx, 0)
	f.InsertSlashedIndex(ctx, 1)
	assert.Equal(t, true, f.IsSlashed(1))
	assert.Equal(t, false, f.IsSlashed(2))
	head, err = f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, b, head.Root)
	w, err := f.Weight(pendingKey(a))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w)
}

// A vote moves from the PENDING node to the FULL node once the payload it voted
// present for is revealed.
func TestVotes_FollowPayloadReveal(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := [32]byte{'a'}
	insertBlock(t, f, 1, a, genesisRoot, true, false)
	require.NoError(t, f.NewSlot(ctx, 4))
	f.ProcessAttestation(ctx, []uint64{0}, a, 2, true)

	_, err := f.Head(ctx, []uint64{8})
	require.NoError(t, err)
	w, err := f.Weight(pendingKey(a))
	require.NoError(t, err)
	assert.Equal(t, uint64(8), w)
	w, err = f.Weight(node(a, primitives.PayloadEmpty))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w)

	reveal(t, f, a)
	head, err := f.Head(ctx, []uint64{8})
	require.NoError(t, err)
	assert.Equal(t, node(a, primitives.PayloadFull), head)
	w, err = f.Weight(node(a, primitives.PayloadFull))
	require.NoError(t, err)
	assert.Equal(t, uint64(8), w)
	w, err = f.Weight(pendingKey(a))
	require.NoError(t, err)
	assert.Equal(t, uint64(8), w)
}

// An externally built block whose payload is withheld never becomes head while an
// alternative exists, whatever its weight.
func TestHead_WithheldPayloadNotViable(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a, b := [32]byte{'a'}, [32]byte{'b'}
	insertBlock(t, f, 1, a, genesisRoot, true, false)
	insertBlock(t, f, 1, b, genesisRoot, true, true)
	require.NoError(t, f.NewSlot(ctx, 3))
	f.ProcessAttestation(ctx, []uint64{0, 1}, a, 2, false)
	f.ProcessAttestation(ctx, []uint64{2}, b, 2, false)
	balances := uniformBalances(3, 10)

	head, err := f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, node(b, primitives.PayloadEmpty), head)
	aIdx := f.store.nodesIndices[pendingKey(a)]
	assert.Equal(t, false, f.store.viableForHead(f.store.nodes[aIdx]))

	reveal(t, f, a)
	head, err = f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, node(a, primitives.PayloadEmpty), head)
	assert.Equal(t, true, f.store.viableForHead(f.store.nodes[aIdx]))
}

func TestHead_WithheldPayloadOnlyChain(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := [32]byte{'a'}
	insertBlock(t, f, 1, a, genesisRoot, true, false)
	require.NoError(t, f.NewSlot(ctx, 3))
	f.ProcessAttestation(ctx, []uint64{0}, a, 2, false)

	head, err := f.Head(ctx, []uint64{10})
	require.NoError(t, err)
	assert.Equal(t, node(genesisRoot, primitives.PayloadFull), head)
}

// The EMPTY and FULL nodes of the previous slot's block rank with zero weight and
// are ordered by the payload tiebreak.
func TestHead_PreviousSlotTiebreak(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	ctx := context.Background()
	f := setup(t)
	a, c := [32]byte{'a'}, [32]byte{'c'}
	insertBlock(t, f, 1, a, genesisRoot, true, true)
	reveal(t, f, a)
	require.NoError(t, f.NewSlot(ctx, 2))
	f.ProcessAttestation(ctx, []uint64{0}, a, 2, true)
	balances := uniformBalances(32, 10)

	head, err := f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, node(a, primitives.PayloadFull), head, "no boost means the payload is extended")
	w, err := f.Weight(node(a, primitives.PayloadFull))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), w)
	aFull := f.store.nodes[f.store.nodesIndices[node(a, primitives.PayloadFull)]]
	assert.Equal(t, uint64(0), f.store.effectiveWeight(aFull))

	// A timely block building on the empty branch takes the boost and the tiebreak.
	insertBlock(t, f, 2, c, a, false, true)
	require.NoError(t, f.BoostProposerRoot(ctx, &forkchoicetypes.BoostProposerRootArgs{BlockRoot: c, BlockSlot: 2, CurrentSlot: 2}))
	head, err = f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, node(c, primitives.PayloadEmpty), head)
	assert.Equal(t, uint8(0), f.store.payloadStatusTiebreaker(aFull))

	// A PTC majority for the payload makes it timely and the FULL branch wins again.
	seats := make([]uint64, params.BeaconConfig().PTCSize/2+1)
	for i := range seats {
		seats[i] = uint64(i)
	}
	f.ProcessPayloadAttestation(ctx, a, seats, true)
	head, err = f.Head(ctx, balances)
	require.NoError(t, err)
	assert.Equal(t, node(a, primitives.PayloadFull), head)
}

func TestProcessPayloadAttestation_FirstVoteCounts(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	ctx := context.Background()
	f := setup(t)
	a := [32]byte{'a'}
	insertBlock(t, f, 1, a, genesisRoot, true, true)
	reveal(t, f, a)
	size := params.BeaconConfig().PTCSize

	f.ProcessPayloadAttestation(ctx, a, []uint64{0, 1, 2}, false)
	f.ProcessPayloadAttestation(ctx, a, []uint64{0, 1, 2, 3, size, size + 7}, true)
	n := f.store.nodes[f.store.nodesIndices[pendingKey(a)]]
	assert.Equal(t, uint64(1), n.ptcPresent.Count())
	assert.Equal(t, uint64(4), n.ptcSeen.Count())
	assert.Equal(t, false, f.store.isPayloadTimely(a))

	// Unknown roots are ignored.
	f.ProcessPayloadAttestation(ctx, [32]byte{'u'}, []uint64{0}, true)
}

func TestProposerBoost(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	ctx := context.Background()
	a := [32]byte{'a'}
	balances := uniformBalances(32, 10)

	tests := []struct {
		name            string
		secondsIntoSlot uint64
		blockSlot       primitives.Slot
		want            uint64
	}{
		{name: "timely", secondsIntoSlot: 0, blockSlot: 1, want: 4},
		{name: "late", secondsIntoSlot: 4, blockSlot: 1, want: 0},
		{name: "old block", secondsIntoSlot: 0, blockSlot: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			insertBlock(t, f, 1, a, genesisRoot, true, true)
			require.NoError(t, f.NewSlot(ctx, 1))
			require.NoError(t, f.BoostProposerRoot(ctx, &forkchoicetypes.BoostProposerRootArgs{
				BlockRoot:       a,
				BlockSlot:       tt.blockSlot,
				CurrentSlot:     1,
				SecondsIntoSlot: tt.secondsIntoSlot,
			}))
			_, err := f.Head(ctx, balances)
			require.NoError(t, err)
			w, err := f.Weight(pendingKey(a))
			require.NoError(t, err)
			assert.Equal(t, tt.want, w)

			// The boost expires with the slot.
			require.NoError(t, f.NewSlot(ctx, 2))
			_, err = f.Head(ctx, balances)
			require.NoError(t, err)
			w, err = f.Weight(pendingKey(a))
			require.NoError(t, err)
			assert.Equal(t, uint64(0), w)
		})
	}

	f := setup(t)
	err := f.BoostProposerRoot(ctx, &forkchoicetypes.BoostProposerRootArgs{SecondsIntoSlot: params.BeaconConfig().SecondsPerSlot})
	require.ErrorContains(t, "exceeds seconds per slot", err)
	require.ErrorContains(t, "nil function args", f.BoostProposerRoot(ctx, nil))
}
