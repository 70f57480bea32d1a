package sync

import (
	"testing"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/prysmaticlabs/prysm-epbs/testing/require"
)

func poolBid(slot primitives.Slot, builder primitives.BuilderIndex, value primitives.Gwei, parentHash byte) *epbs.SignedExecutionPayloadBid {
	return &epbs.SignedExecutionPayloadBid{
		Message: &epbs.ExecutionPayloadBid{
			Slot:            slot,
			BuilderIndex:    builder,
			Value:           value,
			ParentBlockHash: [32]byte{parentHash},
		},
	}
}

func TestBidPool_InsertOrdersByValue(t *testing.T) {
	p := newBidPool()
	p.insert(poolBid(1, 3, 100, 0))
	p.insert(poolBid(1, 2, 300, 0))
	p.insert(poolBid(1, 1, 100, 0))

	bids := p.forSlot(1)
	require.Equal(t, 3, len(bids))
	assert.Equal(t, primitives.BuilderIndex(2), bids[0].Message.BuilderIndex)
	assert.Equal(t, primitives.BuilderIndex(1), bids[1].Message.BuilderIndex, "ties break on builder index")
	assert.Equal(t, primitives.BuilderIndex(3), bids[2].Message.BuilderIndex)
	assert.Equal(t, 0, len(p.forSlot(2)))
}

func TestBidPool_InsertReplacesBuilderBid(t *testing.T) {
	p := newBidPool()
	p.insert(poolBid(1, 1, 100, 0))
	p.insert(poolBid(1, 2, 200, 0))
	p.insert(poolBid(1, 1, 500, 0))

	bids := p.forSlot(1)
	require.Equal(t, 2, len(bids))
	assert.Equal(t, primitives.BuilderIndex(1), bids[0].Message.BuilderIndex)
	assert.Equal(t, primitives.Gwei(500), bids[0].Message.Value)
}

func TestBidPool_Bounded(t *testing.T) {
	p := newBidPool()
	for i := 0; i < maxBidsPerSlot+5; i++ {
		p.insert(poolBid(1, primitives.BuilderIndex(i), primitives.Gwei(i+1), 0))
	}
	bids := p.forSlot(1)
	require.Equal(t, maxBidsPerSlot, len(bids))
	assert.Equal(t, primitives.Gwei(maxBidsPerSlot+5), bids[0].Message.Value)
	assert.Equal(t, primitives.Gwei(6), bids[maxBidsPerSlot-1].Message.Value, "lowest bids are evicted")
}

func TestBidPool_ForSlotReturnsCopies(t *testing.T) {
	p := newBidPool()
	p.insert(poolBid(1, 1, 100, 0))
	bids := p.forSlot(1)
	bids[0].Message.Value = 1
	assert.Equal(t, primitives.Gwei(100), p.forSlot(1)[0].Message.Value)
}

func TestBidPool_Best(t *testing.T) {
	p := newBidPool()
	p.insert(poolBid(1, 1, 900, 'a'))
	p.insert(poolBid(1, 2, 400, 'b'))
	p.insert(poolBid(1, 3, 300, 'b'))

	best, ok := p.best(1, [32]byte{'b'})
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.BuilderIndex(2), best.Message.BuilderIndex)

	best, ok = p.best(1, [32]byte{'a'})
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Gwei(900), best.Message.Value)

	_, ok = p.best(1, [32]byte{'c'})
	assert.Equal(t, false, ok)
	_, ok = p.best(2, [32]byte{'a'})
	assert.Equal(t, false, ok)
}

func TestBidPool_Prune(t *testing.T) {
	p := newBidPool()
	p.insert(poolBid(1, 1, 100, 0))
	p.insert(poolBid(1, 2, 100, 0))
	p.insert(poolBid(4, 1, 100, 0))
	p.insert(poolBid(5, 1, 100, 0))

	assert.Equal(t, 3, p.prune(4))
	assert.Equal(t, 0, len(p.forSlot(1)))
	assert.Equal(t, 0, len(p.forSlot(4)))
	assert.Equal(t, 1, len(p.forSlot(5)))
	assert.Equal(t, 0, p.prune(4))
}
