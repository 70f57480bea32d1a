package sync

import (
	"sort"
	gosync "sync"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// maxBidsPerSlot bounds the bids kept for a single slot. Lowest-value bids are
// evicted first.
const maxBidsPerSlot = 64

// bidPool keeps the validated bids proposers may commit to, one per builder and slot.
type bidPool struct {
	lock gosync.RWMutex
	bids map[primitives.Slot][]*epbs.SignedExecutionPayloadBid
}

func newBidPool() *bidPool {
	return &bidPool{bids: make(map[primitives.Slot][]*epbs.SignedExecutionPayloadBid)}
}

// insert adds bid, replacing an earlier bid of the same builder for the slot.
func (p *bidPool) insert(bid *epbs.SignedExecutionPayloadBid) {
	p.lock.Lock()
	defer p.lock.Unlock()
	slot := bid.Message.Slot
	existing := p.bids[slot]
	for i, b := range existing {
		if b.Message.BuilderIndex == bid.Message.BuilderIndex {
			existing[i] = bid
			p.sortSlot(slot)
			return
		}
	}
	p.bids[slot] = append(existing, bid)
	p.sortSlot(slot)
	if len(p.bids[slot]) > maxBidsPerSlot {
		p.bids[slot] = p.bids[slot][:maxBidsPerSlot]
	}
	bidPoolSize.Set(float64(p.countLocked()))
}

// sortSlot orders a slot's bids by descending value, then ascending builder index.
func (p *bidPool) sortSlot(slot primitives.Slot) {
	bids := p.bids[slot]
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Message.Value != bids[j].Message.Value {
			return bids[i].Message.Value > bids[j].Message.Value
		}
		return bids[i].Message.BuilderIndex < bids[j].Message.BuilderIndex
	})
}

func (p *bidPool) forSlot(slot primitives.Slot) []*epbs.SignedExecutionPayloadBid {
	p.lock.RLock()
	defer p.lock.RUnlock()
	bids := p.bids[slot]
	out := make([]*epbs.SignedExecutionPayloadBid, len(bids))
	for i, b := range bids {
		out[i] = b.Copy()
	}
	return out
}

func (p *bidPool) best(slot primitives.Slot, parentHash [32]byte) (*epbs.SignedExecutionPayloadBid, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, b := range p.bids[slot] {
		if b.Message.ParentBlockHash == parentHash {
			return b.Copy(), true
		}
	}
	return nil, false
}

// prune drops bids at or below the finalized slot and returns how many were removed.
func (p *bidPool) prune(finalized primitives.Slot) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	pruned := 0
	for slot, bids := range p.bids {
		if slot <= finalized {
			pruned += len(bids)
			delete(p.bids, slot)
		}
	}
	bidPoolSize.Set(float64(p.countLocked()))
	return pruned
}

func (p *bidPool) countLocked() int {
	n := 0
	for _, bids := range p.bids {
		n += len(bids)
	}
	return n
}
