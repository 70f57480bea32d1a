package sync

import (
	"context"
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// validateExecutionPayloadBid checks a builder bid gossiped ahead of the block that
// may commit to it:
//   - the bid is for the current or the next slot and comes from an external builder
//   - it is the first bid seen from the builder for the slot
//   - the parent block is known
//   - the builder is active and can cover the bid
//   - the builder signature is valid
func (s *Service) validateExecutionPayloadBid(ctx context.Context, msg interface{}) (pubsub.ValidationResult, error) {
	ctx, span := trace.StartSpan(ctx, "sync.validateExecutionPayloadBid")
	defer span.End()

	signed, ok := msg.(*epbstypes.SignedExecutionPayloadBid)
	if !ok {
		return pubsub.ValidationReject, errWrongMessageType
	}
	if signed.Message == nil {
		return pubsub.ValidationReject, errNilMessage
	}
	bid := signed.Message
	if bid.IsSelfBuild() {
		return pubsub.ValidationReject, errSelfBuildOnGossip
	}
	current := s.cfg.chain.CurrentSlot()
	if bid.Slot != current && bid.Slot != current+1 {
		return pubsub.ValidationIgnore, errors.Wrapf(errBidSlotNotCurrent, "bid slot %d, current slot %d", bid.Slot, current)
	}
	if uint64(len(bid.BlobKzgCommitments)) > params.BeaconConfig().MaxBlobsPerBlock {
		return pubsub.ValidationReject, errors.Wrapf(epbs.ErrTooManyBlobCommitments, "%d commitments", len(bid.BlobKzgCommitments))
	}
	bidRoot, err := bid.HashTreeRoot()
	if err != nil {
		return pubsub.ValidationReject, err
	}
	if seen, ok := s.bidCache.Seen(bid.BuilderIndex, bid.Slot); ok && seen == bidRoot {
		return pubsub.ValidationIgnore, errDuplicateMessage
	}
	if !s.cfg.chain.HasBlock(ctx, bid.ParentBlockRoot) {
		return pubsub.ValidationIgnore, errors.Wrapf(errUnknownParentBlock, "%#x", bytesutil.Trunc(bid.ParentBlockRoot[:]))
	}

	st, err := s.cfg.chain.HeadState(ctx)
	if err != nil {
		return pubsub.ValidationIgnore, err
	}
	if err := epbs.ValidatePayloadBidAgainstBuilder(st, signed); err != nil {
		if errors.Is(err, epbs.ErrInsufficientBalance) {
			// The builder may be able to cover the bid once pending payments settle.
			return pubsub.ValidationIgnore, err
		}
		return pubsub.ValidationReject, err
	}
	if res, err := verificationResult(s.cfg.pool.TryRun(ctx, func(context.Context) error {
		return epbs.VerifyExecutionPayloadBidSignature(st, signed)
	})); res != pubsub.ValidationAccept {
		return res, err
	}

	if err := s.bidCache.Observe(bid.BuilderIndex, bid.Slot, bidRoot); err != nil {
		var equivocation *cache.BuilderEquivocationError
		if errors.As(err, &equivocation) {
			equivocationsObservedCounter.WithLabelValues(ExecutionBidTopic).Inc()
			log.WithFields(logrus.Fields{
				"builder": bid.BuilderIndex,
				"slot":    bid.Slot,
				"first":   fmt.Sprintf("%#x", bytesutil.Trunc(equivocation.First[:])),
				"second":  fmt.Sprintf("%#x", bytesutil.Trunc(equivocation.Second[:])),
			}).Debug("Builder equivocation")
			return pubsub.ValidationReject, err
		}
		return pubsub.ValidationIgnore, err
	}
	return pubsub.ValidationAccept, nil
}

// executionPayloadBidSubscriber keeps an accepted bid for proposers of its slot.
func (s *Service) executionPayloadBidSubscriber(_ context.Context, msg interface{}) error {
	signed, ok := msg.(*epbstypes.SignedExecutionPayloadBid)
	if !ok {
		return errWrongMessageType
	}
	s.bids.insert(signed.Copy())
	return nil
}
