package node

import (
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/db/kv"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	state_native "github.com/prysmaticlabs/prysm-epbs/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/prysm-epbs/cmd/beacon-chain/flags"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/runtime/interop"
	"github.com/urfave/cli/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errNoGenesis is returned when no genesis source is configured and the database holds none.
var errNoGenesis = errors.New("no genesis state: set --genesis-state or --interop-num-validators")

// genesisState picks the state the chain starts from. A genesis already stored in the
// database wins over the flags, so a restarted node stays on its chain.
func (b *BeaconNode) genesisState(cliCtx *cli.Context) (state.BeaconState, error) {
	root, err := b.db.GenesisBlockRoot(b.ctx)
	switch {
	case err == nil:
		if cliCtx.IsSet(flags.GenesisStateFlag.Name) || cliCtx.IsSet(flags.InteropNumValidatorsFlag.Name) {
			log.Warn("Genesis state already exists in the database, ignoring genesis flags")
		}
		st, err := b.db.State(b.ctx, root)
		if err != nil {
			return nil, errors.Wrap(err, "could not read stored genesis state")
		}
		return st, nil
	case !errors.Is(err, kv.ErrNotFoundGenesisBlockRoot):
		return nil, errors.Wrap(err, "could not read genesis block root")
	}

	if path := cliCtx.String(flags.GenesisStateFlag.Name); path != "" {
		return loadGenesisSnapshot(path)
	}
	if cliCtx.Uint64(flags.InteropNumValidatorsFlag.Name) > 0 {
		return interopGenesis(cliCtx)
	}
	return nil, errNoGenesis
}

// loadGenesisSnapshot reads a JSON state snapshot from path.
func loadGenesisSnapshot(path string) (state.BeaconState, error) {
	enc, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read genesis state file")
	}
	snapshot := &state_native.Snapshot{}
	if err := json.Unmarshal(enc, snapshot); err != nil {
		return nil, errors.Wrap(err, "could not decode genesis state file")
	}
	st, err := state_native.InitializeFromSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Info("Loaded genesis state from file")
	return st, nil
}

func interopGenesis(cliCtx *cli.Context) (state.BeaconState, error) {
	cfg := &interop.GenesisConfig{
		GenesisTime:    cliCtx.Uint64(flags.InteropGenesisTimeFlag.Name),
		NumValidators:  cliCtx.Uint64(flags.InteropNumValidatorsFlag.Name),
		NumBuilders:    cliCtx.Uint64(flags.InteropNumBuildersFlag.Name),
		BuilderBalance: primitives.Gwei(cliCtx.Uint64(flags.InteropBuilderBalanceFlag.Name)),
	}
	if cfg.GenesisTime == 0 {
		cfg.GenesisTime = uint64(time.Now().Unix())
	}
	if h := cliCtx.String(flags.InteropExecutionBlockHashFlag.Name); h != "" {
		hash, err := hexutil.Decode(h)
		if err != nil {
			return nil, errors.Wrap(err, "could not decode interop execution block hash")
		}
		if len(hash) != 32 {
			return nil, errors.Errorf("interop execution block hash must be 32 bytes, got %d", len(hash))
		}
		cfg.ExecutionBlockHash = bytesutil.ToBytes32(hash)
	}
	st, err := interop.GenerateGenesisState(cfg)
	if err != nil {
		return nil, err
	}
	log.WithField("validators", cfg.NumValidators).
		WithField("builders", cfg.NumBuilders).
		WithField("genesisTime", time.Unix(int64(cfg.GenesisTime), 0)).
		Info("Generated interop genesis state")
	return st, nil
}
