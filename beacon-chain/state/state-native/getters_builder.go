package state_native

import (
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// BuilderAtIndex returns a copy of the builder at the given registry index.
func (b *BeaconState) BuilderAtIndex(idx primitives.BuilderIndex) (*epbs.Builder, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if uint64(idx) >= uint64(len(b.builders)) {
		return nil, state.NewIndexOutOfRangeError("builders", uint64(idx), len(b.builders))
	}
	return b.builders[idx].Copy(), nil
}

// NumBuilders returns the size of the builder registry.
func (b *BeaconState) NumBuilders() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.builders)
}

// ReadFromEveryBuilder applies f to every builder in the registry.
//
// WARNING: This method is potentially unsafe, as it exposes the actual builder registry.
func (b *BeaconState) ReadFromEveryBuilder(f func(idx int, builder *epbs.Builder) error) error {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for i, builder := range b.builders {
		if err := f(i, builder); err != nil {
			return err
		}
	}
	return nil
}
