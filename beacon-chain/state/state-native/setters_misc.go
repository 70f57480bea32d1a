package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// SetGenesisTime for the beacon state.
func (b *BeaconState) SetGenesisTime(val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.genesisTime = val
	return nil
}

// SetGenesisValidatorsRoot for the beacon state.
func (b *BeaconState) SetGenesisValidatorsRoot(val [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.genesisValidatorsRoot = val
	return nil
}

// SetSlot for the beacon state.
func (b *BeaconState) SetSlot(val primitives.Slot) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.slot = val
	return nil
}

// SetFork version for the beacon chain.
func (b *BeaconState) SetFork(val *blocks.Fork) error {
	if val == nil {
		return errors.New("nil fork")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.fork = copyFork(val)
	return nil
}

// SetLatestBlockHeader in the beacon state.
func (b *BeaconState) SetLatestBlockHeader(val *blocks.BeaconBlockHeader) error {
	if val == nil {
		return errors.New("nil block header")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.latestBlockHeader = val.Copy()
	return nil
}

// UpdateBlockRootAtIndex for the beacon state. Updates the block root
// at a specific index to a new value.
func (b *BeaconState) UpdateBlockRootAtIndex(idx uint64, blockRoot [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.blockRoots)) {
		return state.NewIndexOutOfRangeError("block roots", idx, len(b.blockRoots))
	}
	b.blockRoots[idx] = blockRoot
	return nil
}

// UpdateRandaoMixesAtIndex for the beacon state. Updates the randao mixes
// at a specific index to a new value.
func (b *BeaconState) UpdateRandaoMixesAtIndex(idx uint64, val [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if idx >= uint64(len(b.randaoMixes)) {
		return state.NewIndexOutOfRangeError("randao mixes", idx, len(b.randaoMixes))
	}
	b.randaoMixes[idx] = val
	return nil
}

// SetCurrentJustifiedCheckpoint for the beacon state.
func (b *BeaconState) SetCurrentJustifiedCheckpoint(val *blocks.Checkpoint) error {
	if val == nil {
		return errors.New("nil checkpoint")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.currentJustifiedCheckpoint = copyCheckpoint(val)
	return nil
}

// SetFinalizedCheckpoint for the beacon state.
func (b *BeaconState) SetFinalizedCheckpoint(val *blocks.Checkpoint) error {
	if val == nil {
		return errors.New("nil checkpoint")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.finalizedCheckpoint = copyCheckpoint(val)
	return nil
}
