// Package flags defines the beacon node specific runtime flags.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// ExecutionEngineEndpoint provides an HTTP access endpoint to the execution client's engine API.
	ExecutionEngineEndpoint = &cli.StringFlag{
		Name:  "execution-endpoint",
		Usage: "An execution client engine API http endpoint. Payload reveals are imported optimistically when unset",
	}
	// ExecutionJWTSecretFlag provides a path to a file containing the hex-encoded secret
	// shared with the execution client.
	ExecutionJWTSecretFlag = &cli.StringFlag{
		Name:  "jwt-secret",
		Usage: "Path to a file containing a hex-encoded 32 byte secret used to authenticate with the execution client",
	}
	// ExecutionTimeoutFlag bounds a single engine API call.
	ExecutionTimeoutFlag = &cli.DurationFlag{
		Name:  "execution-timeout",
		Usage: "Timeout of a single engine API request",
	}
	// MonitoringPortFlag defines the http port used to serve prometheus metrics.
	MonitoringPortFlag = &cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "Port used to listening and respond metrics for prometheus.",
		Value: 8080,
	}
	// ChainWorkersFlag bounds the state transitions and signature checks run by the chain service at once.
	ChainWorkersFlag = &cli.IntFlag{
		Name:  "chain-workers",
		Usage: "Number of state transitions the chain service may run concurrently",
		Value: 4,
	}
	// GossipWorkersFlag bounds the gossip validation work in flight. Work beyond it is dropped.
	GossipWorkersFlag = &cli.IntFlag{
		Name:  "gossip-workers",
		Usage: "Number of gossip signature checks that may run concurrently before messages are ignored",
		Value: 8,
	}
	// MaxPendingBlocksFlag bounds the blocks parked while waiting for their parent.
	MaxPendingBlocksFlag = &cli.IntFlag{
		Name:  "max-pending-blocks",
		Usage: "Maximum number of blocks kept while their parent block or payload is unknown",
		Value: 256,
	}
)
