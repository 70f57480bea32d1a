package epbs_test

import (
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	state_native "github.com/prysmaticlabs/prysm-epbs/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/prysmaticlabs/prysm-epbs/testing/util"
)

const gwei = primitives.Gwei(1e9)

// setupState returns a state at slot 1 with two active builders holding builderBalance.
func setupState(t *testing.T, numVals uint64, builderBalance primitives.Gwei) (*state_native.BeaconState, []bls.SecretKey, []bls.SecretKey) {
	helpers.ClearCache()
	st, keys := util.DeterministicGenesisState(t, numVals)
	builderKeys := util.DeterministicBuilders(t, st, 2, builderBalance)
	require.NoError(t, st.SetFinalizedCheckpoint(&blocks.Checkpoint{Epoch: 1}))
	require.NoError(t, st.SetSlot(1))
	return st, keys, builderKeys
}

func helpersProposerAt(st *state_native.BeaconState, slot primitives.Slot) (primitives.ValidatorIndex, error) {
	return helpers.BeaconProposerIndexAtSlot(st, slot)
}
