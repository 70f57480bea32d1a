package sync

import (
	"context"
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// validatePayloadAttestationMessage checks a single PTC member's vote:
//   - the vote is for the current slot and references a known block
//   - it is the first vote seen from the validator for the slot
//   - the validator holds a seat in the slot's committee
//   - the signature is valid
//
// A second, conflicting vote from the same validator is rejected and the validator
// is ignored for the rest of the slot.
func (s *Service) validatePayloadAttestationMessage(ctx context.Context, msg interface{}) (pubsub.ValidationResult, error) {
	ctx, span := trace.StartSpan(ctx, "sync.validatePayloadAttestationMessage")
	defer span.End()

	m, ok := msg.(*epbstypes.PayloadAttestationMessage)
	if !ok {
		return pubsub.ValidationReject, errWrongMessageType
	}
	if m.Data == nil {
		return pubsub.ValidationReject, errNilMessage
	}
	data := m.Data
	if current := s.cfg.chain.CurrentSlot(); data.Slot != current {
		return pubsub.ValidationIgnore, errors.Wrapf(errNotCurrentSlot, "attestation slot %d, current slot %d", data.Slot, current)
	}
	if s.attCache.IsEquivocating(m.ValidatorIndex, data.Slot) {
		return pubsub.ValidationIgnore, errDuplicateMessage
	}
	dataRoot, err := data.HashTreeRoot()
	if err != nil {
		return pubsub.ValidationReject, err
	}
	if seen, ok := s.attCache.Seen(m.ValidatorIndex, data.Slot); ok && seen == dataRoot {
		return pubsub.ValidationIgnore, errDuplicateMessage
	}
	if !s.cfg.chain.HasBlock(ctx, data.BeaconBlockRoot) {
		return pubsub.ValidationIgnore, errors.Wrapf(errUnknownBlock, "%#x", bytesutil.Trunc(data.BeaconBlockRoot[:]))
	}

	ptc, err := s.cfg.chain.PTCCommittee(ctx, data.Slot)
	if err != nil {
		return pubsub.ValidationIgnore, err
	}
	if len(epbs.PTCSeats(ptc, m.ValidatorIndex)) == 0 {
		return pubsub.ValidationReject, errors.Wrapf(epbs.ErrNotInPTC, "validator %d", m.ValidatorIndex)
	}
	st, err := s.cfg.chain.HeadState(ctx)
	if err != nil {
		return pubsub.ValidationIgnore, err
	}
	if res, err := verificationResult(s.cfg.pool.TryRun(ctx, func(context.Context) error {
		return epbs.VerifyPayloadAttestationMessage(st, m)
	})); res != pubsub.ValidationAccept {
		return res, err
	}

	if err := s.attCache.Observe(m.ValidatorIndex, data.Slot, dataRoot); err != nil {
		var equivocation *cache.ValidatorEquivocationError
		if errors.As(err, &equivocation) {
			equivocationsObservedCounter.WithLabelValues(PayloadAttestationTopic).Inc()
			log.WithFields(logrus.Fields{
				"validator": m.ValidatorIndex,
				"slot":      data.Slot,
				"first":     fmt.Sprintf("%#x", bytesutil.Trunc(equivocation.First[:])),
				"second":    fmt.Sprintf("%#x", bytesutil.Trunc(equivocation.Second[:])),
			}).Debug("Payload attestation equivocation")
			return pubsub.ValidationReject, err
		}
		return pubsub.ValidationIgnore, err
	}
	return pubsub.ValidationAccept, nil
}

// payloadAttestationSubscriber records an accepted vote in fork choice.
func (s *Service) payloadAttestationSubscriber(ctx context.Context, msg interface{}) error {
	m, ok := msg.(*epbstypes.PayloadAttestationMessage)
	if !ok {
		return errWrongMessageType
	}
	return s.cfg.chain.ReceivePayloadAttestationMessage(ctx, m)
}
