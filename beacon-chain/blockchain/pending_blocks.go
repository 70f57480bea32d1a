package blockchain

import (
	"context"
	"fmt"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
)

// pendingBlock is a block waiting for its parent block or parent payload.
type pendingBlock struct {
	block *blocks.SignedBeaconBlock
	root  [32]byte
}

// addPendingBlock parks a block under the root of the parent it waits for. It returns
// parked=false when the block was already parked or the queue is full. When the parent
// block or payload was imported after the block's pre-state lookup failed, the block is
// not parked and retry is true: the importer of the parent has already drained the queue.
func (s *Service) addPendingBlock(ctx context.Context, b *blocks.SignedBeaconBlock, root [32]byte) (parked, retry bool) {
	parent := b.Block.ParentRoot
	s.pendingLock.Lock()
	defer s.pendingLock.Unlock()
	if s.parentAvailable(ctx, b.Block) {
		return false, true
	}
	for _, p := range s.pendingBlocks[parent] {
		if p.root == root {
			return false, false
		}
	}
	if s.pendingCount >= s.cfg.MaxPendingBlocks {
		log.WithFields(logrus.Fields{
			"slot": b.Block.Slot,
			"root": fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		}).Debug("Pending block queue is full, dropping block")
		return false, false
	}
	s.pendingBlocks[parent] = append(s.pendingBlocks[parent], &pendingBlock{block: b, root: root})
	s.pendingCount++
	pendingBlocksGauge.Set(float64(s.pendingCount))
	deferredBlocksCount.Inc()
	return true, false
}

// parentAvailable reports whether everything getBlockPreState needs for b is stored.
// Importers store the parent before draining its pending children, so a check made under
// pendingLock cannot miss a wakeup.
func (s *Service) parentAvailable(ctx context.Context, b *blocks.BeaconBlock) bool {
	parent := b.ParentRoot
	if !s.cfg.ForkChoiceStore.HasNode(parent) {
		return false
	}
	bid := b.Bid()
	if bid == nil {
		return false
	}
	parentHash, err := s.cfg.ForkChoiceStore.BlockHash(parent)
	if err != nil {
		return false
	}
	if bid.ParentBlockHash != parentHash {
		return true
	}
	return s.cfg.BeaconDB.HasExecutionPayloadState(ctx, parent)
}

// popPendingChildren removes and returns the blocks waiting on parent.
func (s *Service) popPendingChildren(parent [32]byte) []*pendingBlock {
	s.pendingLock.Lock()
	defer s.pendingLock.Unlock()
	children := s.pendingBlocks[parent]
	delete(s.pendingBlocks, parent)
	s.pendingCount -= len(children)
	pendingBlocksGauge.Set(float64(s.pendingCount))
	return children
}

// prunePendingBlocks drops parked blocks at or below the finalized slot.
func (s *Service) prunePendingBlocks(finalized primitives.Slot) int {
	s.pendingLock.Lock()
	defer s.pendingLock.Unlock()
	pruned := 0
	for parent, children := range s.pendingBlocks {
		kept := children[:0]
		for _, c := range children {
			if c.block.Block.Slot <= finalized {
				pruned++
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			delete(s.pendingBlocks, parent)
		} else {
			s.pendingBlocks[parent] = kept
		}
	}
	s.pendingCount -= pruned
	pendingBlocksGauge.Set(float64(s.pendingCount))
	return pruned
}

// PendingBlockCount returns the number of blocks waiting for a parent.
func (s *Service) PendingBlockCount() int {
	s.pendingLock.Lock()
	defer s.pendingLock.Unlock()
	return s.pendingCount
}

// importPendingChildren imports the blocks that were waiting on root. A child that
// still misses something is parked again by ReceiveBlock.
func (s *Service) importPendingChildren(ctx context.Context, root [32]byte) {
	for _, p := range s.popPendingChildren(root) {
		if err := s.ReceiveBlock(ctx, p.block, p.root); err != nil && !IsDeferrable(err) {
			log.WithError(err).WithFields(logrus.Fields{
				"slot": p.block.Block.Slot,
				"root": fmt.Sprintf("%#x", bytesutil.Trunc(p.root[:])),
			}).Debug("Could not import pending block")
		}
	}
}
