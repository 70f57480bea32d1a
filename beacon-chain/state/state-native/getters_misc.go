package state_native

import (
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// GenesisTime of the beacon state as a uint64.
func (b *BeaconState) GenesisTime() uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.genesisTime
}

// GenesisValidatorsRoot of the beacon state.
func (b *BeaconState) GenesisValidatorsRoot() [32]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.genesisValidatorsRoot
}

// Slot of the current beacon chain state.
func (b *BeaconState) Slot() primitives.Slot {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.slot
}

// Fork version of the beacon chain.
func (b *BeaconState) Fork() *blocks.Fork {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyFork(b.fork)
}

// LatestBlockHeader stored within the beacon state.
func (b *BeaconState) LatestBlockHeader() *blocks.BeaconBlockHeader {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.latestBlockHeader.Copy()
}

// BlockRootAtIndex retrieves a specific block root based on an
// input index value.
func (b *BeaconState) BlockRootAtIndex(idx uint64) ([32]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if idx >= uint64(len(b.blockRoots)) {
		return [32]byte{}, state.NewIndexOutOfRangeError("block roots", idx, len(b.blockRoots))
	}
	return b.blockRoots[idx], nil
}

// RandaoMixAtIndex retrieves a specific block root based on an
// input index value.
func (b *BeaconState) RandaoMixAtIndex(idx uint64) ([32]byte, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if idx >= uint64(len(b.randaoMixes)) {
		return [32]byte{}, state.NewIndexOutOfRangeError("randao mixes", idx, len(b.randaoMixes))
	}
	return b.randaoMixes[idx], nil
}

// RandaoMixesLength returns the length of the randao mixes slice.
func (b *BeaconState) RandaoMixesLength() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.randaoMixes)
}

// CurrentJustifiedCheckpoint denoting an epoch and block root.
func (b *BeaconState) CurrentJustifiedCheckpoint() *blocks.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyCheckpoint(b.currentJustifiedCheckpoint)
}

// FinalizedCheckpoint denoting an epoch and block root.
func (b *BeaconState) FinalizedCheckpoint() *blocks.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return copyCheckpoint(b.finalizedCheckpoint)
}

// FinalizedCheckpointEpoch returns the epoch value of the finalized checkpoint.
func (b *BeaconState) FinalizedCheckpointEpoch() primitives.Epoch {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.finalizedCheckpoint == nil {
		return 0
	}
	return b.finalizedCheckpoint.Epoch
}
