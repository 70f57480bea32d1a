package interop_test

import (
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/runtime/interop"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func TestDeterministicallyGenerateKeys(t *testing.T) {
	priv, pub, err := interop.DeterministicallyGenerateKeys(0, 4)
	require.NoError(t, err)
	require.Equal(t, 4, len(priv))
	require.Equal(t, 4, len(pub))

	again, _, err := interop.DeterministicallyGenerateKeys(2, 2)
	require.NoError(t, err)
	assert.DeepEqual(t, priv[2].Marshal(), again[0].Marshal())
	assert.DeepEqual(t, priv[3].PublicKey().Marshal(), pub[3].Marshal())
	assert.DeepNotEqual(t, priv[0].Marshal(), priv[1].Marshal())
}

func TestGenerateGenesisState(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := &interop.GenesisConfig{
		GenesisTime:        1700000000,
		NumValidators:      64,
		NumBuilders:        2,
		BuilderBalance:     primitives.Gwei(params.BeaconConfig().MinDepositAmount),
		ExecutionBlockHash: [32]byte{'e', 'l'},
	}
	st, err := interop.GenerateGenesisState(cfg)
	require.NoError(t, err)
	assert.Equal(t, 64, st.NumValidators())
	assert.Equal(t, 2, st.NumBuilders())
	assert.Equal(t, uint64(1700000000), st.GenesisTime())
	assert.Equal(t, cfg.ExecutionBlockHash, st.LatestBlockHash())
	assert.NotEqual(t, [32]byte{}, st.GenesisValidatorsRoot())

	_, pub, err := interop.DeterministicallyGenerateKeys(0, 66)
	require.NoError(t, err)
	key := st.PubkeyAtIndex(5)
	assert.DeepEqual(t, pub[5].Marshal(), key[:])
	b, err := st.BuilderAtIndex(1)
	require.NoError(t, err)
	assert.DeepEqual(t, pub[65].Marshal(), b.Pubkey[:])
	assert.Equal(t, cfg.BuilderBalance, b.Balance)

	other, err := interop.GenerateGenesisState(cfg)
	require.NoError(t, err)
	assert.Equal(t, st.GenesisValidatorsRoot(), other.GenesisValidatorsRoot())
}

func TestGenerateGenesisState_NoValidators(t *testing.T) {
	_, err := interop.GenerateGenesisState(&interop.GenesisConfig{})
	require.ErrorContains(t, "at least one validator", err)
}
