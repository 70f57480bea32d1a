package sync

import (
	"context"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/blockchain"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"go.opencensus.io/trace"
)

// validateExecutionPayloadEnvelope checks a revealed payload. Its signature and contents
// can only be judged against the post-state of the committing block, so an envelope
// that passes the cheap checks is imported by the chain service right away and the
// import outcome decides the result. Envelopes for unknown blocks are queued by the
// chain service and ignored here.
func (s *Service) validateExecutionPayloadEnvelope(ctx context.Context, msg interface{}) (pubsub.ValidationResult, error) {
	ctx, span := trace.StartSpan(ctx, "sync.validateExecutionPayloadEnvelope")
	defer span.End()

	signed, ok := msg.(*epbstypes.SignedExecutionPayloadEnvelope)
	if !ok {
		return pubsub.ValidationReject, errWrongMessageType
	}
	if signed.Message == nil || signed.Message.Payload == nil {
		return pubsub.ValidationReject, errNilMessage
	}
	env := signed.Message
	root := env.BeaconBlockRoot

	finalized, err := s.finalizedSlot()
	if err != nil {
		return pubsub.ValidationIgnore, err
	}
	if finalized > 0 && env.Slot <= finalized {
		return pubsub.ValidationIgnore, errFinalizedSlot
	}
	if s.hasSeenEnvelope(root) {
		return pubsub.ValidationIgnore, errDuplicateMessage
	}
	if !s.cfg.chain.HasBlock(ctx, root) {
		if err := s.cfg.chain.ReceiveExecutionPayloadEnvelope(ctx, signed); err != nil {
			log.WithError(err).WithField("slot", env.Slot).Debug("Could not queue payload envelope")
		}
		return pubsub.ValidationIgnore, errors.Wrapf(errUnknownBlock, "%#x", bytesutil.Trunc(root[:]))
	}
	if status, err := s.cfg.chain.PayloadStatus(root); err == nil && status == primitives.PayloadFull {
		return pubsub.ValidationIgnore, errPayloadKnown
	}

	if err := s.cfg.chain.ReceiveExecutionPayloadEnvelope(ctx, signed); err != nil {
		if blockchain.IsInvalidBlock(err) {
			return pubsub.ValidationReject, err
		}
		return pubsub.ValidationIgnore, err
	}
	return pubsub.ValidationAccept, nil
}

// executionPayloadEnvelopeSubscriber marks the block's payload as seen. The payload was
// imported during validation.
func (s *Service) executionPayloadEnvelopeSubscriber(_ context.Context, msg interface{}) error {
	signed, ok := msg.(*epbstypes.SignedExecutionPayloadEnvelope)
	if !ok {
		return errWrongMessageType
	}
	s.setSeenEnvelope(signed.Message.BeaconBlockRoot)
	return nil
}

func (s *Service) finalizedSlot() (primitives.Slot, error) {
	cp := s.cfg.chain.FinalizedCheckpt()
	if cp == nil {
		return 0, nil
	}
	return slots.EpochStart(cp.Epoch)
}
