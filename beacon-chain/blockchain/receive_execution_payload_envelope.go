package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/transition"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/execution"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"
)

// ExecutionPayloadReceiver interface defines the methods of chain service for receiving
// revealed execution payloads.
type ExecutionPayloadReceiver interface {
	ReceiveExecutionPayloadEnvelope(ctx context.Context, env *epbs.SignedExecutionPayloadEnvelope) error
}

// ReceiveExecutionPayloadEnvelope processes the payload a builder revealed for a block:
//  1. Buffer it if the block is unknown, ignore it if the payload is already imported
//  2. Apply the payload to the block's post-state and notify the execution engine, in parallel
//  3. Save the envelope and the payload state and insert the FULL node into fork choice
//  4. Update the head and import blocks that were waiting on the payload
//
// Envelopes for blocks at or below the finalized slot are dropped without error.
func (s *Service) ReceiveExecutionPayloadEnvelope(ctx context.Context, signed *epbs.SignedExecutionPayloadEnvelope) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.ReceiveExecutionPayloadEnvelope")
	defer span.End()
	receivedTime := time.Now()

	if signed == nil || signed.Message == nil || signed.Message.Payload == nil {
		return errNilEnvelope
	}
	env := signed.Message
	root := env.BeaconBlockRoot
	if finalized := s.finalizedSlot(); finalized > 0 && env.Slot <= finalized {
		log.WithField("slot", env.Slot).Debug("Dropping payload envelope for finalized slot")
		return nil
	}
	if !s.cfg.ForkChoiceStore.HasNode(root) {
		added, err := s.cfg.EnvelopeBuffer.Add(signed)
		if err != nil {
			return err
		}
		if added {
			bufferedEnvelopesCount.Inc()
			log.WithFields(logrus.Fields{
				"slot":    env.Slot,
				"builder": env.BuilderIndex,
				"root":    fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
			}).Debug("Buffered payload envelope for unknown block")
		}
		return nil
	}
	if s.cfg.ForkChoiceStore.HasPayload(root) {
		return nil
	}

	preState, err := s.cfg.BeaconDB.State(ctx, root)
	if err != nil {
		return fatal(err, "could not read block state")
	}
	if preState == nil {
		return fatalError{error: errors.Errorf("no state stored for known block %#x", bytesutil.Trunc(root[:]))}
	}
	parentRoot := preState.LatestBlockHeader().ParentRoot
	envCopy := signed.Copy()

	var postState state.BeaconState
	var isValidPayload bool
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return s.cfg.Pool.Run(egCtx, func(ctx context.Context) error {
			if err := transition.ProcessExecutionPayload(ctx, preState, envCopy, true); err != nil {
				return invalidBlock{error: errors.Wrap(err, "could not process execution payload"), root: root}
			}
			postState = preState
			return nil
		})
	})
	eg.Go(func() error {
		var err error
		isValidPayload, err = s.notifyNewEnvelope(egCtx, envCopy.Message, parentRoot)
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	if err := s.cfg.BeaconDB.SaveExecutionPayloadEnvelope(ctx, envCopy); err != nil {
		return errors.Wrap(err, "could not save execution payload envelope")
	}
	if err := s.cfg.BeaconDB.SaveExecutionPayloadState(ctx, postState, root); err != nil {
		return errors.Wrap(err, "could not save execution payload state")
	}
	if err := s.cfg.ForkChoiceStore.InsertPayloadEnvelope(ctx, envCopy.Message); err != nil {
		return errors.Wrap(err, "could not insert payload into fork choice")
	}
	if !isValidPayload {
		s.setOptimistic(root, env.Slot)
		processedPayloadsCount.WithLabelValues("optimistic").Inc()
	} else {
		processedPayloadsCount.WithLabelValues("valid").Inc()
	}

	if err := s.updateHead(ctx); err != nil {
		log.WithError(err).Warn("Could not update head")
	}
	logPayloadRevealed(envCopy.Message, !isValidPayload, receivedTime)

	s.importPendingChildren(ctx, root)
	return nil
}

// notifyNewEnvelope hands the payload to the execution engine. It returns true if the
// engine validated the payload and false if the engine is syncing, in which case the
// payload is imported optimistically.
func (s *Service) notifyNewEnvelope(ctx context.Context, env *epbs.ExecutionPayloadEnvelope, parentRoot [32]byte) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "blockChain.notifyNewEnvelope")
	defer span.End()

	if s.cfg.ExecutionEngineCaller == nil {
		return true, nil
	}
	lastValidHash, err := s.cfg.ExecutionEngineCaller.NewPayload(ctx, env.Payload, env.VersionedHashes(), parentRoot)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, execution.ErrAcceptedSyncingPayloadStatus):
		log.WithFields(logrus.Fields{
			"slot":             env.Slot,
			"payloadBlockHash": fmt.Sprintf("%#x", bytesutil.Trunc(env.Payload.BlockHash[:])),
		}).Info("Called new payload with optimistic envelope")
		return false, nil
	case errors.Is(err, execution.ErrInvalidPayloadStatus):
		processedPayloadsCount.WithLabelValues("invalid").Inc()
		return false, invalidBlock{
			error:         errors.Wrap(ErrInvalidPayload, err.Error()),
			root:          env.BeaconBlockRoot,
			lastValidHash: lastValidHash,
		}
	default:
		return false, errors.WithMessage(ErrUndefinedExecutionEngineError, err.Error())
	}
}

func (s *Service) setOptimistic(root [32]byte, slot primitives.Slot) {
	s.optimisticLock.Lock()
	defer s.optimisticLock.Unlock()
	s.optimisticRoots[root] = slot
}

// pruneOptimistic forgets optimistic marks at or below the finalized slot.
func (s *Service) pruneOptimistic(finalized primitives.Slot) {
	s.optimisticLock.Lock()
	defer s.optimisticLock.Unlock()
	for root, slot := range s.optimisticRoots {
		if slot <= finalized {
			delete(s.optimisticRoots, root)
		}
	}
}

// IsOptimisticForRoot returns true if the payload of the block was imported while the
// execution engine was still syncing.
func (s *Service) IsOptimisticForRoot(root [32]byte) bool {
	s.optimisticLock.RLock()
	defer s.optimisticLock.RUnlock()
	_, ok := s.optimisticRoots[root]
	return ok
}
