// Package iface defines the actual database interface used
// by a beacon node, also containing useful, scoped interfaces such as
// a ReadOnlyDatabase.
package iface

import (
	"context"
	"io"

	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// ReadOnlyDatabase defines a struct which only has read access to database methods.
// Missing entries are reported as a nil value and a nil error.
type ReadOnlyDatabase interface {
	// Block related methods.
	Block(ctx context.Context, blockRoot [32]byte) (*blocks.SignedBeaconBlock, error)
	BlockRootsBySlot(ctx context.Context, slot primitives.Slot) ([][32]byte, error)
	HasBlock(ctx context.Context, blockRoot [32]byte) bool
	GenesisBlockRoot(ctx context.Context) ([32]byte, error)
	HeadBlockRoot(ctx context.Context) ([32]byte, error)
	// State related methods. State returns the post-block state, ExecutionPayloadState the
	// state after the block's payload was revealed.
	State(ctx context.Context, blockRoot [32]byte) (state.BeaconState, error)
	HasState(ctx context.Context, blockRoot [32]byte) bool
	ExecutionPayloadState(ctx context.Context, blockRoot [32]byte) (state.BeaconState, error)
	HasExecutionPayloadState(ctx context.Context, blockRoot [32]byte) bool
	ExecutionPayloadEnvelope(ctx context.Context, blockRoot [32]byte) (*epbs.SignedExecutionPayloadEnvelope, error)
	// Checkpoint operations.
	JustifiedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error)
	FinalizedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error)
}

// NoHeadAccessDatabase defines a struct without access to chain head data.
type NoHeadAccessDatabase interface {
	ReadOnlyDatabase

	// Block related methods.
	SaveBlock(ctx context.Context, block *blocks.SignedBeaconBlock) error
	SaveGenesisBlockRoot(ctx context.Context, blockRoot [32]byte) error
	// State related methods.
	SaveState(ctx context.Context, st state.ReadOnlyBeaconState, blockRoot [32]byte) error
	SaveExecutionPayloadState(ctx context.Context, st state.ReadOnlyBeaconState, blockRoot [32]byte) error
	SaveExecutionPayloadEnvelope(ctx context.Context, env *epbs.SignedExecutionPayloadEnvelope) error
	DeleteStatesBelowSlot(ctx context.Context, slot primitives.Slot) (int, error)
	// Checkpoint operations.
	SaveJustifiedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error
	SaveFinalizedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error
}

// HeadAccessDatabase defines a struct with access to reading chain head data.
type HeadAccessDatabase interface {
	NoHeadAccessDatabase

	SaveHeadBlockRoot(ctx context.Context, blockRoot [32]byte) error
}

// Database interface with full access.
type Database interface {
	io.Closer
	HeadAccessDatabase

	DatabasePath() string
	ClearDB() error
}
