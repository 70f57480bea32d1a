package node

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/blockchain"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/execution"
	regularsync "github.com/prysmaticlabs/prysm-epbs/beacon-chain/sync"
	"github.com/prysmaticlabs/prysm-epbs/cmd"
	"github.com/prysmaticlabs/prysm-epbs/cmd/beacon-chain/flags"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/runtime/interop"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/urfave/cli/v2"
)

// nodeContext builds a cli context with monitoring disabled and the given flags set.
func nodeContext(t *testing.T, dataDir string, values map[string]string) *cli.Context {
	set := flag.NewFlagSet("test", 0)
	set.String(cmd.DataDirFlag.Name, dataDir, "")
	set.Bool(cmd.DisableMonitoringFlag.Name, true, "")
	set.Bool(cmd.MinimalConfigFlag.Name, true, "")
	set.Bool(cmd.ForceClearDB.Name, false, "")
	set.String(cmd.ChainConfigFileFlag.Name, "", "")
	set.String(flags.ExecutionEngineEndpoint.Name, "", "")
	set.String(flags.ExecutionJWTSecretFlag.Name, "", "")
	set.Int(flags.ChainWorkersFlag.Name, 2, "")
	set.Int(flags.GossipWorkersFlag.Name, 2, "")
	set.Int(flags.MaxPendingBlocksFlag.Name, 16, "")
	set.String(flags.GenesisStateFlag.Name, "", "")
	set.Uint64(flags.InteropGenesisTimeFlag.Name, 0, "")
	set.Uint64(flags.InteropNumValidatorsFlag.Name, 0, "")
	set.Uint64(flags.InteropNumBuildersFlag.Name, 0, "")
	set.Uint64(flags.InteropBuilderBalanceFlag.Name, 32_000_000_000, "")
	set.String(flags.InteropExecutionBlockHashFlag.Name, "", "")
	for name, value := range values {
		require.NoError(t, set.Set(name, value))
	}
	return cli.NewContext(&cli.App{}, set, nil)
}

func interopFlags(genesisTime uint64) map[string]string {
	return map[string]string{
		flags.InteropGenesisTimeFlag.Name:   strconv.FormatUint(genesisTime, 10),
		flags.InteropNumValidatorsFlag.Name: "64",
		flags.InteropNumBuildersFlag.Name:   "2",
	}
}

func TestNodeClose_OK(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	hook := logTest.NewGlobal()

	node, err := New(nodeContext(t, t.TempDir(), interopFlags(1_600_000_000)))
	require.NoError(t, err)

	var chain *blockchain.Service
	require.NoError(t, node.services.FetchService(&chain))
	var rs *regularsync.Service
	require.NoError(t, node.services.FetchService(&rs))
	assert.NoError(t, chain.Status())
	assert.Equal(t, uint64(1_600_000_000), uint64(chain.GenesisTime().Unix()))
	assert.Equal(t, params.MinimalSpecConfig().SlotsPerEpoch, params.BeaconConfig().SlotsPerEpoch)

	node.Close()
	require.LogsContain(t, hook, "Generated interop genesis state")
	require.LogsContain(t, hook, "Stopping beacon node")
	select {
	case <-node.stop:
	default:
		t.Fatal("stop channel not closed")
	}
}

func TestNode_NoGenesis(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	_, err := New(nodeContext(t, t.TempDir(), nil))
	require.ErrorIs(t, err, errNoGenesis)
}

func TestNode_RestartKeepsStoredGenesis(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	hook := logTest.NewGlobal()
	dataDir := t.TempDir()

	first, err := New(nodeContext(t, dataDir, interopFlags(1_600_000_000)))
	require.NoError(t, err)
	wantRoot, err := first.db.GenesisBlockRoot(context.Background())
	require.NoError(t, err)
	first.Close()

	// A different interop genesis is ignored once the database holds one.
	second, err := New(nodeContext(t, dataDir, interopFlags(1_700_000_000)))
	require.NoError(t, err)
	defer second.Close()
	gotRoot, err := second.db.GenesisBlockRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)

	var chain *blockchain.Service
	require.NoError(t, second.services.FetchService(&chain))
	assert.Equal(t, int64(1_600_000_000), chain.GenesisTime().Unix())
	require.LogsContain(t, hook, "ignoring genesis flags")
}

func TestNode_ForceClearDB(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	dataDir := t.TempDir()

	first, err := New(nodeContext(t, dataDir, interopFlags(1_600_000_000)))
	require.NoError(t, err)
	first.Close()

	values := interopFlags(1_700_000_000)
	values[cmd.ForceClearDB.Name] = "true"
	second, err := New(nodeContext(t, dataDir, values))
	require.NoError(t, err)
	defer second.Close()

	var chain *blockchain.Service
	require.NoError(t, second.services.FetchService(&chain))
	assert.Equal(t, int64(1_700_000_000), chain.GenesisTime().Unix())
}

func TestNode_GenesisStateFile(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.OverrideBeaconConfig(params.MinimalSpecConfig())
	genesis, err := interop.GenerateGenesisState(&interop.GenesisConfig{
		GenesisTime:   1_650_000_000,
		NumValidators: 64,
	})
	require.NoError(t, err)
	enc, err := json.Marshal(genesis.Snapshot())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, enc, 0600))

	node, err := New(nodeContext(t, t.TempDir(), map[string]string{flags.GenesisStateFlag.Name: path}))
	require.NoError(t, err)
	defer node.Close()

	var chain *blockchain.Service
	require.NoError(t, node.services.FetchService(&chain))
	head, err := chain.HeadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_650_000_000), head.GenesisTime())
	assert.Equal(t, 64, head.NumValidators())
}

func TestNode_BuilderActivityFollowsGenesisFinality(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.OverrideBeaconConfig(params.MinimalSpecConfig())
	snapshotPath := func(finalized bool) string {
		genesis, err := interop.GenerateGenesisState(&interop.GenesisConfig{
			GenesisTime:    1_650_000_000,
			NumValidators:  64,
			NumBuilders:    2,
			BuilderBalance: 32_000_000_000,
		})
		require.NoError(t, err)
		if finalized {
			require.NoError(t, genesis.SetFinalizedCheckpoint(&blocks.Checkpoint{Epoch: 1}))
		}
		enc, err := json.Marshal(genesis.Snapshot())
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "genesis.json")
		require.NoError(t, os.WriteFile(path, enc, 0600))
		return path
	}

	tests := []struct {
		name   string
		values map[string]string
		active bool
	}{
		{name: "interop genesis", values: interopFlags(1_600_000_000), active: false},
		{name: "snapshot without finality", values: map[string]string{flags.GenesisStateFlag.Name: snapshotPath(false)}, active: false},
		{name: "snapshot finalized past deposit epoch", values: map[string]string{flags.GenesisStateFlag.Name: snapshotPath(true)}, active: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := New(nodeContext(t, t.TempDir(), tt.values))
			require.NoError(t, err)
			defer node.Close()

			var chain *blockchain.Service
			require.NoError(t, node.services.FetchService(&chain))
			head, err := chain.HeadState(context.Background())
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				active, err := epbs.IsActiveBuilder(head, primitives.BuilderIndex(i))
				require.NoError(t, err)
				assert.Equal(t, tt.active, active)
			}
		})
	}
}

func TestNode_InvalidInteropBlockHash(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	values := interopFlags(1_600_000_000)
	values[flags.InteropExecutionBlockHashFlag.Name] = "0x1234"
	_, err := New(nodeContext(t, t.TempDir(), values))
	require.ErrorContains(t, "must be 32 bytes", err)
}

func TestNode_InvalidJWTSecret(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	secretPath := filepath.Join(t.TempDir(), "jwt.hex")
	require.NoError(t, os.WriteFile(secretPath, []byte("0xabcd"), 0600))

	values := interopFlags(1_600_000_000)
	values[flags.ExecutionEngineEndpoint.Name] = "http://127.0.0.1:8551"
	values[flags.ExecutionJWTSecretFlag.Name] = secretPath
	_, err := New(nodeContext(t, t.TempDir(), values))
	require.ErrorIs(t, err, execution.ErrInvalidJWTSecret)
}

func TestConfigureChainConfig_File(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PRESET_BASE: 'minimal'\nCONFIG_NAME: 'epbs-devnet'\n"), 0600))

	cliCtx := nodeContext(t, t.TempDir(), map[string]string{
		cmd.MinimalConfigFlag.Name:   "false",
		cmd.ChainConfigFileFlag.Name: path,
	})
	require.NoError(t, configureChainConfig(cliCtx))
	assert.Equal(t, "epbs-devnet", params.BeaconConfig().ConfigName)
	assert.Equal(t, params.MinimalSpecConfig().SlotsPerEpoch, params.BeaconConfig().SlotsPerEpoch)
}
