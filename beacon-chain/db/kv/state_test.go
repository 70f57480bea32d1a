package kv

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	state_native "github.com/prysmaticlabs/prysm-epbs/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/testing/util"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func TestStore_State_Roundtrip(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	db := setupDB(t)
	ctx := context.Background()

	st, _ := util.DeterministicGenesisState(t, 16)
	util.DeterministicBuilders(t, st, 2, primitives.Gwei(100*params.BeaconConfig().MaxEffectiveBalance))
	require.NoError(t, st.SetSlot(3))
	root := [32]byte{'a'}

	got, err := db.State(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, state.BeaconState(nil), got)
	assert.Equal(t, false, db.HasState(ctx, root))

	require.NoError(t, db.SaveState(ctx, st, root))
	assert.Equal(t, true, db.HasState(ctx, root))
	assert.Equal(t, false, db.HasExecutionPayloadState(ctx, root), "Payload states are stored separately")

	got, err = db.State(ctx, root)
	require.NoError(t, err)
	loaded, ok := got.(*state_native.BeaconState)
	require.Equal(t, true, ok)
	assert.DeepEqual(t, st.Snapshot(), loaded.Snapshot())
}

func TestStore_ExecutionPayloadState(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	db := setupDB(t)
	ctx := context.Background()

	st, _ := util.DeterministicGenesisState(t, 8)
	root := [32]byte{'b'}
	empty := st.Copy()
	require.NoError(t, st.SetLatestBlockHash([32]byte{'f'}))
	require.NoError(t, db.SaveState(ctx, empty, root))
	require.NoError(t, db.SaveExecutionPayloadState(ctx, st, root))

	full, err := db.ExecutionPayloadState(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, [32]byte{'f'}, full.LatestBlockHash())
	pre, err := db.State(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, util.GenesisBlockHash, pre.LatestBlockHash())
}

func TestStore_ExecutionPayloadEnvelope(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	env := &epbs.SignedExecutionPayloadEnvelope{
		Message: &epbs.ExecutionPayloadEnvelope{
			Payload: &epbs.ExecutionPayload{
				BlockHash:    [32]byte{'h'},
				Transactions: [][]byte{{1, 2, 3}},
				Withdrawals:  []*epbs.Withdrawal{{Index: 1, Amount: 2}},
			},
			BuilderIndex:    4,
			BeaconBlockRoot: [32]byte{'r'},
			Slot:            9,
		},
		Signature: [96]byte{'s'},
	}
	require.NoError(t, db.SaveExecutionPayloadEnvelope(ctx, env))
	got, err := db.ExecutionPayloadEnvelope(ctx, [32]byte{'r'})
	require.NoError(t, err)
	assert.DeepEqual(t, env, got)

	missing, err := db.ExecutionPayloadEnvelope(ctx, [32]byte{'x'})
	require.NoError(t, err)
	assert.Equal(t, (*epbs.SignedExecutionPayloadEnvelope)(nil), missing)
	require.ErrorIs(t, db.SaveExecutionPayloadEnvelope(ctx, nil), errNilValue)
}

func TestStore_DeleteStatesBelowSlot(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	db := setupDB(t)
	ctx := context.Background()

	st, _ := util.DeterministicGenesisState(t, 8)
	genesis := [32]byte{'g'}
	require.NoError(t, db.SaveGenesisBlockRoot(ctx, genesis))
	require.NoError(t, db.SaveState(ctx, st, genesis))

	roots := [][32]byte{{1}, {2}, {3}, {4}}
	for i, root := range roots {
		s := st.Copy()
		require.NoError(t, s.SetSlot(primitives.Slot(i+1)))
		require.NoError(t, db.SaveState(ctx, s, root))
		require.NoError(t, db.SaveExecutionPayloadState(ctx, s, root))
	}
	require.NoError(t, db.SaveFinalizedCheckpoint(ctx, &blocks.Checkpoint{Epoch: 0, Root: roots[0]}))

	deleted, err := db.DeleteStatesBelowSlot(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, true, db.HasState(ctx, genesis), "Genesis state is kept")
	assert.Equal(t, true, db.HasState(ctx, roots[0]), "Finalized state is kept")
	assert.Equal(t, false, db.HasState(ctx, roots[1]))
	assert.Equal(t, false, db.HasExecutionPayloadState(ctx, roots[1]))
	assert.Equal(t, true, db.HasState(ctx, roots[2]))
	assert.Equal(t, true, db.HasExecutionPayloadState(ctx, roots[3]))
}

type unsupportedState struct {
	state.ReadOnlyBeaconState
}

func TestStore_SaveState_Unsupported(t *testing.T) {
	db := setupDB(t)
	err := db.SaveState(context.Background(), &unsupportedState{}, [32]byte{})
	require.ErrorIs(t, err, ErrUnsupportedState)
}

func TestStore_HasAfterClose(t *testing.T) {
	hook := logTest.NewGlobal()
	ctx := context.Background()
	db, err := NewKVStore(ctx, t.TempDir())
	require.NoError(t, err)
	root := [32]byte{'a'}
	require.NoError(t, db.Close())

	assert.Equal(t, false, db.HasState(ctx, root))
	assert.Equal(t, false, db.HasExecutionPayloadState(ctx, root))
	assert.Equal(t, false, db.HasBlock(ctx, root))
	require.LogsContain(t, hook, "Could not check key existence")
}
