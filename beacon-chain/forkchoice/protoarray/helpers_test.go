package protoarray

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

var genesisRoot = [32]byte{'g'}

func hashOf(root [32]byte) [32]byte {
	return [32]byte{'h', root[0]}
}

// setup returns a store holding only the tree root.
func setup(t *testing.T) *ForkChoice {
	f := New()
	insertBlock(t, f, 0, genesisRoot, [32]byte{}, true, true)
	return f
}

// insertBlock adds a block whose bid either extends the parent's payload (onFull)
// or builds on the parent without it.
func insertBlock(t *testing.T, f *ForkChoice, slot primitives.Slot, root, parent [32]byte, onFull, selfBuild bool) {
	parentBlockHash := [32]byte{'x', parent[0]}
	if onFull {
		parentBlockHash = hashOf(parent)
	}
	require.NoError(t, insertArgsFor(f, &insertArgs{
		slot:            slot,
		root:            root,
		parentRoot:      parent,
		blockHash:       hashOf(root),
		parentBlockHash: parentBlockHash,
		selfBuild:       selfBuild,
	}))
}

func insertArgsFor(f *ForkChoice, a *insertArgs) error {
	f.store.nodesLock.Lock()
	defer f.store.nodesLock.Unlock()
	return f.store.insert(context.Background(), a)
}

func reveal(t *testing.T, f *ForkChoice, root [32]byte) {
	require.NoError(t, f.InsertPayloadEnvelope(context.Background(), &epbs.ExecutionPayloadEnvelope{
		BeaconBlockRoot: root,
		Payload:         &epbs.ExecutionPayload{BlockHash: hashOf(root)},
	}))
}

func uniformBalances(n int, b uint64) []uint64 {
	balances := make([]uint64, n)
	for i := range balances {
		balances[i] = b
	}
	return balances
}
