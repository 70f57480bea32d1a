package node

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/cmd"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/urfave/cli/v2"
)

// configureChainConfig selects the preset and then applies any chain config file on top.
func configureChainConfig(cliCtx *cli.Context) error {
	if cliCtx.Bool(cmd.MinimalConfigFlag.Name) {
		log.Warn("Using minimal config")
		params.OverrideBeaconConfig(params.MinimalSpecConfig())
	}
	if cliCtx.IsSet(cmd.ChainConfigFileFlag.Name) {
		chainConfigFileName := cliCtx.String(cmd.ChainConfigFileFlag.Name)
		if err := params.LoadChainConfigFile(chainConfigFileName, params.BeaconConfig()); err != nil {
			return errors.Wrap(err, "could not load chain config file")
		}
	}
	return nil
}
