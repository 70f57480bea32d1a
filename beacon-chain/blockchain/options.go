package blockchain

import (
	"github.com/prysmaticlabs/prysm-epbs/async"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/db"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/execution"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice"
)

// Option configures the chain service.
type Option func(s *Service) error

// WithDatabase for head access.
func WithDatabase(beaconDB db.HeadAccessDatabase) Option {
	return func(s *Service) error {
		s.cfg.BeaconDB = beaconDB
		return nil
	}
}

// WithForkChoiceStore to update an optimistic fork choice.
func WithForkChoiceStore(f forkchoice.ForkChoicer) Option {
	return func(s *Service) error {
		s.cfg.ForkChoiceStore = f
		return nil
	}
}

// WithExecutionEngineCaller to call the execution engine when a payload is revealed.
func WithExecutionEngineCaller(c execution.EngineCaller) Option {
	return func(s *Service) error {
		s.cfg.ExecutionEngineCaller = c
		return nil
	}
}

// WithPool sets the worker pool that state transitions and head computations run on.
func WithPool(p *async.Pool) Option {
	return func(s *Service) error {
		s.cfg.Pool = p
		return nil
	}
}

// WithPayloadEnvelopeBuffer sets the buffer holding envelopes that arrive before their block.
func WithPayloadEnvelopeBuffer(b *cache.PayloadEnvelopeBuffer) Option {
	return func(s *Service) error {
		s.cfg.EnvelopeBuffer = b
		return nil
	}
}

// WithFinalizationSubscriber registers a component notified of every new finalized slot.
func WithFinalizationSubscriber(sub FinalizationSubscriber) Option {
	return func(s *Service) error {
		s.cfg.FinalizationSubscribers = append(s.cfg.FinalizationSubscribers, sub)
		return nil
	}
}

// WithMaxPendingBlocks bounds the number of blocks waiting for their parent.
func WithMaxPendingBlocks(n int) Option {
	return func(s *Service) error {
		s.cfg.MaxPendingBlocks = n
		return nil
	}
}
