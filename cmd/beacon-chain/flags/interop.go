package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// GenesisStateFlag defines a flag for the beacon node to load its genesis state from a
	// JSON state snapshot.
	GenesisStateFlag = &cli.StringFlag{
		Name:  "genesis-state",
		Usage: "Load the genesis state from a JSON state snapshot file",
	}
	// InteropGenesisTimeFlag specifies genesis time for state generation.
	InteropGenesisTimeFlag = &cli.Uint64Flag{
		Name: "interop-genesis-time",
		Usage: "Specify the genesis time for interop genesis state generation. Must be used with " +
			"--interop-num-validators",
	}
	// InteropNumValidatorsFlag specifies number of genesis validators for state generation.
	InteropNumValidatorsFlag = &cli.Uint64Flag{
		Name:  "interop-num-validators",
		Usage: "Specify number of genesis validators to generate for interop. Must be used with --interop-genesis-time",
	}
	// InteropNumBuildersFlag specifies number of builders registered in the interop genesis.
	InteropNumBuildersFlag = &cli.Uint64Flag{
		Name:  "interop-num-builders",
		Usage: "Number of builders registered in the interop genesis state, keyed after the validators",
	}
	// InteropBuilderBalanceFlag specifies the balance of every interop builder, in gwei.
	InteropBuilderBalanceFlag = &cli.Uint64Flag{
		Name:  "interop-builder-balance",
		Usage: "Balance in gwei credited to every interop builder",
		Value: 32_000_000_000,
	}
	// InteropExecutionBlockHashFlag specifies the execution block the interop chain starts on.
	InteropExecutionBlockHashFlag = &cli.StringFlag{
		Name:  "interop-execution-block-hash",
		Usage: "Hex encoded hash of the execution block the interop genesis builds on",
	}
)
