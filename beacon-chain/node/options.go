package node

import (
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/blockchain"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/execution"
)

// Option for beacon node configuration.
type Option func(bn *BeaconNode) error

// WithBlockchainFlagOptions includes functional options for the blockchain service related to CLI flags.
func WithBlockchainFlagOptions(opts []blockchain.Option) Option {
	return func(bn *BeaconNode) error {
		bn.chainFlagOpts = opts
		return nil
	}
}

// WithExecutionEngineOptions includes functional options for the execution engine client.
func WithExecutionEngineOptions(opts []execution.Option) Option {
	return func(bn *BeaconNode) error {
		bn.engineFlagOpts = opts
		return nil
	}
}
