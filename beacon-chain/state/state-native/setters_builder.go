package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

var errNilBuilder = errors.New("nil builder")

// AppendBuilder adds a builder at the end of the registry and returns its index.
func (b *BeaconState) AppendBuilder(builder *epbs.Builder) (primitives.BuilderIndex, error) {
	if builder == nil {
		return 0, errNilBuilder
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.builders)) >= fieldparams.BuilderRegistryLimit {
		return 0, errors.New("builder registry is full")
	}
	b.builders = append(b.builders, builder.Copy())
	return primitives.BuilderIndex(len(b.builders) - 1), nil
}

// UpdateBuilderAtIndex replaces the builder at idx.
func (b *BeaconState) UpdateBuilderAtIndex(idx primitives.BuilderIndex, builder *epbs.Builder) error {
	if builder == nil {
		return errNilBuilder
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(idx) >= uint64(len(b.builders)) {
		return state.NewIndexOutOfRangeError("builders", uint64(idx), len(b.builders))
	}
	b.builders[idx] = builder.Copy()
	return nil
}
