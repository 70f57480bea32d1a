// Package main defines the beacon node binary, which follows the ePBS beacon chain
// and validates its gossip.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/node"
	"github.com/prysmaticlabs/prysm-epbs/cmd"
	"github.com/prysmaticlabs/prysm-epbs/cmd/beacon-chain/flags"
	jwtcommands "github.com/prysmaticlabs/prysm-epbs/cmd/beacon-chain/jwt"
	"github.com/prysmaticlabs/prysm-epbs/io/logs"
	"github.com/prysmaticlabs/prysm-epbs/monitoring/prometheus"
	"github.com/prysmaticlabs/prysm-epbs/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/wercker/journalhook"
	_ "go.uber.org/automaxprocs"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	cmd.DataDirFlag,
	cmd.VerbosityFlag,
	cmd.LogFormat,
	cmd.LogFileName,
	cmd.ChainConfigFileFlag,
	cmd.MinimalConfigFlag,
	cmd.ForceClearDB,
	cmd.DisableMonitoringFlag,
	cmd.MonitoringHostFlag,
	flags.MonitoringPortFlag,
	flags.ExecutionEngineEndpoint,
	flags.ExecutionJWTSecretFlag,
	flags.ExecutionTimeoutFlag,
	flags.ChainWorkersFlag,
	flags.GossipWorkersFlag,
	flags.MaxPendingBlocksFlag,
	flags.GenesisStateFlag,
	flags.InteropGenesisTimeFlag,
	flags.InteropNumValidatorsFlag,
	flags.InteropNumBuildersFlag,
	flags.InteropBuilderBalanceFlag,
	flags.InteropExecutionBlockHashFlag,
}

func main() {
	app := cli.App{}
	app.Name = "beacon-chain"
	app.Usage = "this is an ePBS beacon chain implementation for Ethereum"
	app.Action = startNode
	app.Version = version.Version()
	app.Commands = []*cli.Command{
		jwtcommands.Command,
	}
	app.Flags = appFlags
	app.Before = before

	defer func() {
		if x := recover(); x != nil {
			log.Errorf("Runtime panic: %v\n%v", x, string(debug.Stack()))
			panic(x)
		}
	}()

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// before configures logging for every command the binary runs.
func before(ctx *cli.Context) error {
	verbosity := ctx.String(cmd.VerbosityFlag.Name)
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	format := ctx.String(cmd.LogFormat.Name)
	if format == "journald" {
		journalhook.Enable()
	} else {
		formatter, err := logs.Formatter(format, false)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("could not configure %q log format", format))
		}
		logrus.SetFormatter(formatter)
	}

	if logFileName := ctx.String(cmd.LogFileName.Name); logFileName != "" {
		if err := logs.ConfigurePersistentLogging(logFileName); err != nil {
			log.WithError(err).Error("Failed to configuring logging to disk.")
		}
	}
	if !ctx.Bool(cmd.DisableMonitoringFlag.Name) {
		logrus.AddHook(prometheus.NewLogrusCollector())
	}

	return nil
}

func startNode(ctx *cli.Context) error {
	beacon, err := node.New(ctx)
	if err != nil {
		return err
	}
	beacon.Start()
	return nil
}
