package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/transition"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// maxDeferredRetries bounds the re-imports of a block whose parent arrived while it was
// being deferred. The parent block and the parent payload are the only two dependencies.
const maxDeferredRetries = 2

// BlockReceiver interface defines the methods of chain service for receiving and processing new blocks.
type BlockReceiver interface {
	ReceiveBlock(ctx context.Context, block *blocks.SignedBeaconBlock, blockRoot [32]byte) error
	HasBlock(ctx context.Context, root [32]byte) bool
}

// ReceiveBlock is a function that defines the operations (minus pubsub)
// that are performed on a block that is received from regular sync service. The operations consist of:
//  1. Select the pre-state from the parent's payload status and apply the state transition
//  2. Save the block and its post-state and insert it into fork choice
//  3. Replay a buffered payload envelope for the block, if any
//  4. Update the head and import blocks that were waiting on this one
//
// A block whose parent or parent payload is unknown is parked and an error satisfying
// IsDeferrable is returned. Block import is not droppable: the transition is queued on the
// worker pool and runs to completion or returns an explicit error.
func (s *Service) ReceiveBlock(ctx context.Context, block *blocks.SignedBeaconBlock, blockRoot [32]byte) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.ReceiveBlock")
	defer span.End()
	receivedTime := time.Now()

	if err := blocks.BeaconBlockIsNil(block); err != nil {
		return err
	}
	if s.cfg.ForkChoiceStore.HasNode(blockRoot) {
		return nil
	}
	blockCopy := block.Copy()

	for attempt := 0; ; attempt++ {
		err := s.onBlock(ctx, blockCopy, blockRoot)
		if err == nil {
			break
		}
		if !IsDeferrable(err) {
			return errors.Wrap(err, "could not process block")
		}
		parked, retry := s.addPendingBlock(ctx, blockCopy, blockRoot)
		if retry && attempt < maxDeferredRetries {
			continue
		}
		if parked {
			log.WithFields(logrus.Fields{
				"slot":       blockCopy.Block.Slot,
				"root":       fmt.Sprintf("%#x", bytesutil.Trunc(blockRoot[:])),
				"parentRoot": fmt.Sprintf("%#x", bytesutil.Trunc(blockCopy.Block.ParentRoot[:])),
			}).WithError(err).Debug("Deferred block until its parent arrives")
		}
		return err
	}
	processedBlocksCount.Inc()

	s.replayBufferedEnvelope(ctx, blockCopy.Block, blockRoot)

	if err := s.updateHead(ctx); err != nil {
		log.WithError(err).Warn("Could not update head")
	}
	logBlockSyncStatus(blockCopy.Block, blockRoot, s.cfg.ForkChoiceStore.FinalizedCheckpoint().Epoch, receivedTime)

	s.importPendingChildren(ctx, blockRoot)
	return nil
}

// onBlock applies the state transition of a block on top of its pre-state, persists the
// result and inserts the block into fork choice.
func (s *Service) onBlock(ctx context.Context, signed *blocks.SignedBeaconBlock, blockRoot [32]byte) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.onBlock")
	defer span.End()

	b := signed.Block
	if finalized := s.finalizedSlot(); finalized > 0 && b.Slot <= finalized {
		return invalidBlock{error: errors.Wrapf(errBlockBeforeFinalized, "slot %d", b.Slot), root: blockRoot}
	}
	preState, err := s.getBlockPreState(ctx, b)
	if err != nil {
		return err
	}

	if err := s.cfg.Pool.Run(ctx, func(ctx context.Context) error {
		return transition.ExecuteStateTransition(ctx, preState, signed)
	}); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return invalidBlock{error: err, root: blockRoot}
	}
	postState := preState

	if err := s.cfg.BeaconDB.SaveBlock(ctx, signed); err != nil {
		return errors.Wrapf(err, "could not save block from slot %d", b.Slot)
	}
	if err := s.cfg.BeaconDB.SaveState(ctx, postState, blockRoot); err != nil {
		return errors.Wrap(err, "could not save state")
	}
	if err := s.cfg.ForkChoiceStore.InsertNode(ctx, postState, blockRoot); err != nil {
		return errors.Wrapf(err, "could not insert block %d to fork choice store", b.Slot)
	}
	for _, slashing := range b.Body.ProposerSlashings {
		s.cfg.ForkChoiceStore.InsertSlashedIndex(ctx, slashing.Header_1.Header.ProposerIndex)
	}
	if s.CurrentSlot() == b.Slot {
		if err := s.cfg.ForkChoiceStore.BoostProposerRoot(ctx, &forkchoicetypes.BoostProposerRootArgs{
			BlockRoot:       blockRoot,
			BlockSlot:       b.Slot,
			CurrentSlot:     s.CurrentSlot(),
			SecondsIntoSlot: s.secondsIntoSlot(),
		}); err != nil {
			return errors.Wrap(err, "could not boost proposer root")
		}
	}
	return nil
}

// getBlockPreState returns the state the block's transition starts from: the parent's
// payload state when the block's bid extends the parent's payload, the parent's block
// state otherwise.
func (s *Service) getBlockPreState(ctx context.Context, b *blocks.BeaconBlock) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blockChain.getBlockPreState")
	defer span.End()

	parentRoot := b.ParentRoot
	if !s.cfg.ForkChoiceStore.HasNode(parentRoot) {
		return nil, errors.Wrapf(ErrUnknownParent, "parent %#x", bytesutil.Trunc(parentRoot[:]))
	}
	parentHash, err := s.cfg.ForkChoiceStore.BlockHash(parentRoot)
	if err != nil {
		return nil, fatal(err, "could not get parent block hash from fork choice")
	}

	var preState state.BeaconState
	if b.Bid().ParentBlockHash == parentHash {
		if !s.cfg.BeaconDB.HasExecutionPayloadState(ctx, parentRoot) {
			return nil, errors.Wrapf(ErrUnknownParentPayload, "parent %#x", bytesutil.Trunc(parentRoot[:]))
		}
		preState, err = s.cfg.BeaconDB.ExecutionPayloadState(ctx, parentRoot)
	} else {
		preState, err = s.cfg.BeaconDB.State(ctx, parentRoot)
	}
	if err != nil {
		return nil, fatal(err, "could not read parent state")
	}
	if preState == nil {
		return nil, fatalError{error: errors.Errorf("no state stored for known parent %#x", bytesutil.Trunc(parentRoot[:]))}
	}
	return preState, nil
}

// replayBufferedEnvelope imports an envelope that arrived before its block.
func (s *Service) replayBufferedEnvelope(ctx context.Context, b *blocks.BeaconBlock, root [32]byte) {
	bid := b.Bid()
	env, ok := s.cfg.EnvelopeBuffer.Take(b.Slot, bid.BuilderIndex, root)
	if !ok {
		return
	}
	if err := s.ReceiveExecutionPayloadEnvelope(ctx, env); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"slot":    b.Slot,
			"builder": bid.BuilderIndex,
		}).Debug("Could not import buffered payload envelope")
	}
}

// HasBlock returns true if the block was imported into fork choice.
func (s *Service) HasBlock(_ context.Context, root [32]byte) bool {
	return s.cfg.ForkChoiceStore.HasNode(root)
}
