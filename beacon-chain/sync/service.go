// Package sync validates the ePBS gossip topics before their messages reach the chain
// service, and keeps the pool of gossiped builder bids proposers choose from.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/async"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/blockchain"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

const (
	recentlySeenRootsSize = int64(1 << 16)
	// pubsubMessageTimeout bounds how long a single gossip message may be validated.
	pubsubMessageTimeout = 30 * time.Second
)

var _ blockchain.FinalizationSubscriber = (*Service)(nil)

// blockchainService is the part of the chain service gossip validation depends on.
type blockchainService interface {
	blockchain.ChainInfoFetcher
	blockchain.ExecutionPayloadReceiver
	HasBlock(ctx context.Context, root [32]byte) bool
	ReceivePayloadAttestationMessage(ctx context.Context, msg *epbs.PayloadAttestationMessage) error
}

// Checker reports whether the node is still catching up with the chain.
type Checker interface {
	Syncing() bool
}

type config struct {
	chain       blockchainService
	pool        *async.Pool
	initialSync Checker
}

// Service validates gossip messages and hands accepted ones to the chain service.
type Service struct {
	cfg        *config
	ctx        context.Context
	cancel     context.CancelFunc
	subHandler map[string]*topicHandler

	bidCache *cache.BuilderEquivocationCache
	attCache *cache.PayloadAttestationCache
	bids     *bidPool

	// seenEnvelopeCache holds the block roots whose envelope already passed validation.
	seenEnvelopeLock  gosync.Mutex
	seenEnvelopeCache *ristretto.Cache
}

// Option configures the sync service.
type Option func(s *Service) error

// WithChainService sets the chain service accepted messages are forwarded to.
func WithChainService(c blockchainService) Option {
	return func(s *Service) error {
		s.cfg.chain = c
		return nil
	}
}

// WithPool sets the worker pool signature checks and imports run on.
func WithPool(p *async.Pool) Option {
	return func(s *Service) error {
		s.cfg.pool = p
		return nil
	}
}

// WithInitialSync sets the checker gossip is ignored against while the node catches up.
func WithInitialSync(c Checker) Option {
	return func(s *Service) error {
		s.cfg.initialSync = c
		return nil
	}
}

// NewService initializes the gossip validation service.
func NewService(ctx context.Context, opts ...Option) (*Service, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cfg:    &config{},
		ctx:    ctx,
		cancel: cancel,
		bids:   newBidPool(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			cancel()
			return nil, err
		}
	}
	if s.cfg.chain == nil {
		cancel()
		return nil, errors.New("no chain service provided")
	}
	if s.cfg.pool == nil {
		s.cfg.pool = async.NewPool(1)
	}
	var err error
	if s.bidCache, err = cache.NewBuilderEquivocationCache(); err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not create bid cache")
	}
	if s.attCache, err = cache.NewPayloadAttestationCache(); err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not create payload attestation cache")
	}
	s.seenEnvelopeCache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: recentlySeenRootsSize,
		MaxCost:     recentlySeenRootsSize,
		BufferItems: 64,
	})
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not create seen envelope cache")
	}
	s.registerSubscribers()
	return s, nil
}

// Start the gossip validation service.
func (s *Service) Start() {}

// Stop the service and release the seen envelope cache.
func (s *Service) Stop() error {
	s.cancel()
	s.seenEnvelopeCache.Close()
	return nil
}

// Status of the service.
func (s *Service) Status() error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	return nil
}

// OnFinalized drops gossip state that can no longer matter once slot is finalized.
// Equivocation evidence is kept by the caches beyond the observations themselves.
func (s *Service) OnFinalized(slot primitives.Slot) {
	bids := s.bidCache.Prune(slot)
	atts := s.attCache.Prune(slot)
	pool := s.bids.prune(slot)
	log.WithField("finalizedSlot", slot).
		WithField("bidObservations", bids).
		WithField("attestationObservations", atts).
		WithField("pooledBids", pool).
		Debug("Pruned gossip caches")
}

// BidsForSlot returns the gossiped bids for slot, highest value first.
func (s *Service) BidsForSlot(slot primitives.Slot) []*epbs.SignedExecutionPayloadBid {
	return s.bids.forSlot(slot)
}

// BestBid returns the highest-value bid for slot that builds on parentHash.
func (s *Service) BestBid(slot primitives.Slot, parentHash [32]byte) (*epbs.SignedExecutionPayloadBid, bool) {
	return s.bids.best(slot, parentHash)
}

func (s *Service) isSyncing() bool {
	return s.cfg.initialSync != nil && s.cfg.initialSync.Syncing()
}

func (s *Service) hasSeenEnvelope(root [32]byte) bool {
	s.seenEnvelopeLock.Lock()
	defer s.seenEnvelopeLock.Unlock()
	_, seen := s.seenEnvelopeCache.Get(string(root[:]))
	return seen
}

func (s *Service) setSeenEnvelope(root [32]byte) {
	s.seenEnvelopeLock.Lock()
	defer s.seenEnvelopeLock.Unlock()
	s.seenEnvelopeCache.Set(string(root[:]), true, 1)
}
