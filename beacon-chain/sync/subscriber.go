package sync

import (
	"context"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/async"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// Gossip topics of the ePBS messages.
const (
	ExecutionBidTopic       = "execution_bid"
	ExecutionPayloadTopic   = "execution_payload"
	PayloadAttestationTopic = "payload_attestation"
)

// validator checks a decoded gossip message. The error explains a non-accept result.
type validator func(ctx context.Context, msg interface{}) (pubsub.ValidationResult, error)

// subHandler processes a message that passed validation.
type subHandler func(ctx context.Context, msg interface{}) error

type topicHandler struct {
	validate validator
	handle   subHandler
}

func (s *Service) registerSubscribers() {
	s.subHandler = map[string]*topicHandler{
		ExecutionBidTopic: {
			validate: s.validateExecutionPayloadBid,
			handle:   s.executionPayloadBidSubscriber,
		},
		ExecutionPayloadTopic: {
			validate: s.validateExecutionPayloadEnvelope,
			handle:   s.executionPayloadEnvelopeSubscriber,
		},
		PayloadAttestationTopic: {
			validate: s.validatePayloadAttestationMessage,
			handle:   s.payloadAttestationSubscriber,
		},
	}
}

// OnGossip validates a decoded message received on topic and, if it is accepted, hands
// it to the topic's subscriber. The result tells the wire layer whether to forward the
// message and whether to penalize the sender.
func (s *Service) OnGossip(ctx context.Context, topic string, msg interface{}) pubsub.ValidationResult {
	h, ok := s.subHandler[topic]
	if !ok {
		log.WithError(errUnknownTopic).WithField("topic", topic).Debug("Dropping gossip message")
		return pubsub.ValidationIgnore
	}
	res, _ := s.wrapAndReportValidation(topic, h.validate)(ctx, msg)
	if res != pubsub.ValidationAccept {
		return res
	}
	ctx, span := trace.StartSpan(ctx, "sync.subscriber."+topic)
	defer span.End()
	if err := h.handle(ctx, msg); err != nil {
		messageFailedProcessingCounter.WithLabelValues(topic).Inc()
		log.WithError(err).WithField("topic", topic).Debug("Could not process gossip message")
	}
	return res
}

// wrapAndReportValidation adds the checks every topic shares and reports the outcome.
func (s *Service) wrapAndReportValidation(topic string, v validator) validator {
	return func(ctx context.Context, msg interface{}) (pubsub.ValidationResult, error) {
		ctx, cancel := context.WithTimeout(ctx, pubsubMessageTimeout)
		defer cancel()
		messageReceivedCounter.WithLabelValues(topic).Inc()

		var res pubsub.ValidationResult
		var err error
		switch {
		case msg == nil:
			res, err = pubsub.ValidationReject, errNilMessage
		case s.isSyncing():
			// The head state is too far behind to judge gossip.
			res, err = pubsub.ValidationIgnore, errSyncing
		default:
			res, err = v(ctx, msg)
		}
		switch res {
		case pubsub.ValidationReject:
			messageFailedValidationCounter.WithLabelValues(topic).Inc()
			log.WithError(err).WithFields(logrus.Fields{"topic": topic}).Debug("Rejected gossip message")
		case pubsub.ValidationIgnore:
			messageIgnoredValidationCounter.WithLabelValues(topic).Inc()
			log.WithError(err).WithFields(logrus.Fields{"topic": topic}).Trace("Ignored gossip message")
		}
		return res, err
	}
}

// verificationResult maps the error of a check run on the worker pool to a validation
// result. Gossip work is droppable: a saturated pool or a cancelled context ignores the
// message, any other failure rejects it.
func verificationResult(err error) (pubsub.ValidationResult, error) {
	switch {
	case err == nil:
		return pubsub.ValidationAccept, nil
	case errors.Is(err, async.ErrPoolSaturated), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pubsub.ValidationIgnore, err
	default:
		return pubsub.ValidationReject, err
	}
}
