package main

import (
	"flag"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/cmd"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func beforeContext(t *testing.T, verbosity, format string) *cli.Context {
	set := flag.NewFlagSet("test", 0)
	set.String(cmd.VerbosityFlag.Name, verbosity, "")
	set.String(cmd.LogFormat.Name, format, "")
	set.String(cmd.LogFileName.Name, "", "")
	set.Bool(cmd.DisableMonitoringFlag.Name, true, "")
	return cli.NewContext(&cli.App{}, set, nil)
}

func TestBefore(t *testing.T) {
	level, formatter := logrus.GetLevel(), logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetLevel(level)
		logrus.SetFormatter(formatter)
	})

	require.NoError(t, before(beforeContext(t, "debug", "json")))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.Equal(t, true, ok)

	require.ErrorContains(t, "not a valid logrus Level", before(beforeContext(t, "loud", "text")))
	require.ErrorContains(t, "could not configure \"xml\" log format", before(beforeContext(t, "info", "xml")))
}
