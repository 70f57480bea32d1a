package blockchain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/transition"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// ChainInfoFetcher defines a common interface for methods in blockchain service which
// directly retrieve chain info related data.
type ChainInfoFetcher interface {
	HeadFetcher
	FinalizationFetcher
	PTCFetcher
	CurrentSlot() primitives.Slot
}

// HeadFetcher defines a common interface for methods in blockchain service which
// directly retrieve head related data.
type HeadFetcher interface {
	Head(ctx context.Context) (forkchoicetypes.ForkChoiceNode, error)
	HeadRoot(ctx context.Context) ([]byte, error)
	HeadSlot() primitives.Slot
	HeadState(ctx context.Context) (state.BeaconState, error)
}

// FinalizationFetcher defines a common interface for methods in blockchain service which
// directly retrieve finalization and justification related data.
type FinalizationFetcher interface {
	FinalizedCheckpt() *blocks.Checkpoint
	CurrentJustifiedCheckpt() *blocks.Checkpoint
}

// PTCFetcher retrieves payload timeliness committees and payload statuses.
type PTCFetcher interface {
	PTCCommittee(ctx context.Context, slot primitives.Slot) ([]primitives.ValidatorIndex, error)
	PayloadStatus(root [32]byte) (primitives.PayloadStatus, error)
}

// Head recomputes the fork choice head and returns it.
func (s *Service) Head(ctx context.Context) (forkchoicetypes.ForkChoiceNode, error) {
	if err := s.updateHead(ctx); err != nil {
		return forkchoicetypes.ForkChoiceNode{}, err
	}
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil {
		return forkchoicetypes.ForkChoiceNode{}, errNotInitialized
	}
	return s.head.node, nil
}

// HeadRoot returns the root of the cached head block.
func (s *Service) HeadRoot(ctx context.Context) ([]byte, error) {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head != nil {
		r := s.head.node.Root
		return r[:], nil
	}
	r, err := s.cfg.BeaconDB.HeadBlockRoot(ctx)
	if err != nil {
		return nil, err
	}
	return r[:], nil
}

// HeadSlot returns the slot of the cached head block.
func (s *Service) HeadSlot() primitives.Slot {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil {
		return 0
	}
	return s.head.slot
}

// HeadState returns a copy of the state at the head node.
func (s *Service) HeadState(ctx context.Context) (state.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "blockChain.HeadState")
	defer span.End()
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil {
		return nil, errNotInitialized
	}
	return s.head.copy().state, nil
}

// PayloadStatus returns the payload status of a block known to fork choice.
func (s *Service) PayloadStatus(root [32]byte) (primitives.PayloadStatus, error) {
	return s.cfg.ForkChoiceStore.PayloadStatus(root)
}

// PTCCommittee returns the payload timeliness committee of slot on the canonical chain.
// The head state is advanced to the slot's epoch first when the slot lies ahead of it.
func (s *Service) PTCCommittee(ctx context.Context, slot primitives.Slot) ([]primitives.ValidatorIndex, error) {
	ctx, span := trace.StartSpan(ctx, "blockChain.PTCCommittee")
	defer span.End()

	st, err := s.HeadState(ctx)
	if err != nil {
		return nil, err
	}
	var ptc []primitives.ValidatorIndex
	err = s.cfg.Pool.Run(ctx, func(ctx context.Context) error {
		if slots.ToEpoch(slot) > slots.ToEpoch(st.Slot()) {
			start, err := slots.EpochStart(slots.ToEpoch(slot))
			if err != nil {
				return err
			}
			if err := transition.ProcessSlots(ctx, st, start); err != nil {
				return errors.Wrap(err, "could not advance head state")
			}
		}
		var err error
		ptc, err = epbs.GetPTC(ctx, st, slot)
		return err
	})
	return ptc, err
}

// FinalizedCheckpt returns the latest finalized checkpoint known to fork choice.
func (s *Service) FinalizedCheckpt() *blocks.Checkpoint {
	cp := s.cfg.ForkChoiceStore.FinalizedCheckpoint()
	return &blocks.Checkpoint{Epoch: cp.Epoch, Root: cp.Root}
}

// CurrentJustifiedCheckpt returns the current justified checkpoint known to fork choice.
func (s *Service) CurrentJustifiedCheckpt() *blocks.Checkpoint {
	cp := s.cfg.ForkChoiceStore.JustifiedCheckpoint()
	return &blocks.Checkpoint{Epoch: cp.Epoch, Root: cp.Root}
}

// GenesisTime returns the genesis time of the chain.
func (s *Service) GenesisTime() time.Time {
	return s.genesisTime
}

// UpdateJustifiedCheckpoint moves the justified checkpoint head selection starts from.
func (s *Service) UpdateJustifiedCheckpoint(ctx context.Context, cp *blocks.Checkpoint) error {
	if cp == nil {
		return errors.New("nil justified checkpoint")
	}
	if !s.cfg.ForkChoiceStore.HasNode(cp.Root) {
		return errors.Wrap(ErrUnknownBlock, "justified root")
	}
	if err := s.cfg.ForkChoiceStore.UpdateJustifiedCheckpoint(&forkchoicetypes.Checkpoint{Epoch: cp.Epoch, Root: cp.Root}); err != nil {
		return err
	}
	return s.cfg.BeaconDB.SaveJustifiedCheckpoint(ctx, cp)
}

// UpdateFinalizedCheckpoint finalizes cp: fork choice drops every branch that does not
// descend from it, block states below it are deleted, and subscribers prune their caches.
func (s *Service) UpdateFinalizedCheckpoint(ctx context.Context, cp *blocks.Checkpoint) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.UpdateFinalizedCheckpoint")
	defer span.End()
	if cp == nil {
		return errors.New("nil finalized checkpoint")
	}
	current := s.cfg.ForkChoiceStore.FinalizedCheckpoint()
	if current != nil && cp.Epoch <= current.Epoch && cp.Root == current.Root {
		return nil
	}
	if !s.cfg.ForkChoiceStore.HasNode(cp.Root) {
		return errors.Wrap(ErrUnknownBlock, "finalized root")
	}
	if err := s.cfg.ForkChoiceStore.UpdateFinalizedCheckpoint(ctx, &forkchoicetypes.Checkpoint{Epoch: cp.Epoch, Root: cp.Root}); err != nil {
		return errors.Wrap(err, "could not update fork choice finalized checkpoint")
	}
	if err := s.cfg.BeaconDB.SaveFinalizedCheckpoint(ctx, cp); err != nil {
		return errors.Wrap(err, "could not save finalized checkpoint")
	}
	slot, err := slots.EpochStart(cp.Epoch)
	if err != nil {
		return err
	}
	deleted, err := s.cfg.BeaconDB.DeleteStatesBelowSlot(ctx, slot)
	if err != nil {
		return errors.Wrap(err, "could not delete finalized states")
	}
	pruned := s.prunePendingBlocks(slot)
	s.pruneOptimistic(slot)
	s.notifyFinalized(slot)
	finalizedEpochGauge.Set(float64(cp.Epoch))
	log.WithFields(logrus.Fields{
		"epoch":         cp.Epoch,
		"deletedStates": deleted,
		"prunedBlocks":  pruned,
	}).Info("Finalized checkpoint updated")
	return nil
}
