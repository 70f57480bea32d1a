// Package blockchain defines the life-cycle of the blockchain at the core of
// Ethereum, including processing of new blocks and revealed payloads using
// the ePBS fork choice rule.
package blockchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/async"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/cache"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/db"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/execution"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

const defaultMaxPendingBlocks = 128

// pendingPruneInterval is how often parked blocks below the finalized slot are dropped.
var pendingPruneInterval = 30 * time.Second

// FinalizationSubscriber is notified when the finalized checkpoint moves forward.
type FinalizationSubscriber interface {
	OnFinalized(slot primitives.Slot)
}

// config options for the service.
type config struct {
	BeaconDB                db.HeadAccessDatabase
	ForkChoiceStore         forkchoice.ForkChoicer
	ExecutionEngineCaller   execution.EngineCaller
	Pool                    *async.Pool
	EnvelopeBuffer          *cache.PayloadEnvelopeBuffer
	FinalizationSubscribers []FinalizationSubscriber
	MaxPendingBlocks        int
}

// Service represents a service that handles the internal
// logic of managing the full PoS beacon chain.
//
// Lock order: the fork choice store's own lock, then headLock. Neither is held while
// the execution engine is called.
type Service struct {
	cfg         *config
	ctx         context.Context
	cancel      context.CancelFunc
	genesisTime time.Time
	genesisRoot [32]byte
	now         func() time.Time

	headLock sync.RWMutex
	head     *head

	pendingLock   sync.Mutex
	pendingBlocks map[[32]byte][]*pendingBlock
	pendingCount  int

	balancesLock      sync.Mutex
	balancesRoot      [32]byte
	justifiedBalances []uint64

	ptcCache *lru.Cache

	optimisticLock  sync.RWMutex
	optimisticRoots map[[32]byte]primitives.Slot
}

// NewService instantiates a new block service instance that will
// be registered into a running beacon node.
func NewService(ctx context.Context, opts ...Option) (*Service, error) {
	ctx, cancel := context.WithCancel(ctx)
	srv := &Service{
		ctx:             ctx,
		cancel:          cancel,
		cfg:             &config{MaxPendingBlocks: defaultMaxPendingBlocks},
		now:             time.Now,
		pendingBlocks:   make(map[[32]byte][]*pendingBlock),
		optimisticRoots: make(map[[32]byte]primitives.Slot),
		ptcCache:        newPTCCache(),
	}
	for _, opt := range opts {
		if err := opt(srv); err != nil {
			cancel()
			return nil, err
		}
	}
	if srv.cfg.BeaconDB == nil {
		cancel()
		return nil, errors.New("no database provided")
	}
	if srv.cfg.ForkChoiceStore == nil {
		cancel()
		return nil, errors.New("no fork choice store provided")
	}
	if srv.cfg.Pool == nil {
		srv.cfg.Pool = async.NewPool(1)
	}
	if srv.cfg.EnvelopeBuffer == nil {
		srv.cfg.EnvelopeBuffer = cache.NewPayloadEnvelopeBuffer()
	}
	return srv, nil
}

// Start the chain service. It follows the wall clock slot by slot and periodically
// drops parked blocks that can no longer become canonical.
func (s *Service) Start() {
	if s.genesisTime.IsZero() {
		log.Warn("Starting chain service without genesis data")
		return
	}
	ticker := slots.NewSlotTicker(s.genesisTime, params.BeaconConfig().SecondsPerSlot)
	go func() {
		defer ticker.Done()
		for {
			select {
			case <-s.ctx.Done():
				return
			case slot := <-ticker.C():
				if err := s.OnTick(s.ctx, slot); err != nil {
					log.WithError(err).Error("Could not process new slot")
				}
			}
		}
	}()
	async.RunEvery(s.ctx, pendingPruneInterval, func() {
		s.prunePendingBlocks(s.finalizedSlot())
	})
}

// Stop the blockchain service's main event loop and associated goroutines.
func (s *Service) Stop() error {
	defer s.cancel()
	headRoot := s.headRoot()
	if headRoot == params.BeaconConfig().ZeroHash {
		return nil
	}
	return s.cfg.BeaconDB.SaveHeadBlockRoot(s.ctx, headRoot)
}

// Status always returns nil unless there is an error condition that causes
// this service to be unhealthy.
func (s *Service) Status() error {
	if s.genesisTime.IsZero() {
		return errNotInitialized
	}
	return nil
}

// SaveGenesisData saves the genesis state as the root of the chain. The genesis block
// counts as carrying its payload, so its state is stored as both the block state and
// the payload state.
func (s *Service) SaveGenesisData(ctx context.Context, genesisState state.BeaconState) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.SaveGenesisData")
	defer span.End()
	if genesisState == nil {
		return errors.New("nil genesis state")
	}
	header := genesisState.LatestBlockHeader()
	if header == nil {
		return errors.New("genesis state has no latest block header")
	}
	root, err := header.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not get genesis block root")
	}
	if err := s.cfg.BeaconDB.SaveState(ctx, genesisState, root); err != nil {
		return errors.Wrap(err, "could not save genesis state")
	}
	if err := s.cfg.BeaconDB.SaveExecutionPayloadState(ctx, genesisState, root); err != nil {
		return errors.Wrap(err, "could not save genesis payload state")
	}
	if err := s.cfg.BeaconDB.SaveGenesisBlockRoot(ctx, root); err != nil {
		return errors.Wrap(err, "could not save genesis block root")
	}
	if err := s.cfg.BeaconDB.SaveHeadBlockRoot(ctx, root); err != nil {
		return errors.Wrap(err, "could not save head block root")
	}
	if err := s.cfg.ForkChoiceStore.InsertNode(ctx, genesisState, root); err != nil {
		return errors.Wrap(err, "could not insert genesis block in fork choice")
	}
	cp := &forkchoicetypes.Checkpoint{Epoch: slots.ToEpoch(genesisState.Slot()), Root: root}
	if err := s.cfg.ForkChoiceStore.UpdateJustifiedCheckpoint(cp); err != nil {
		return errors.Wrap(err, "could not set justified checkpoint")
	}
	if err := s.cfg.ForkChoiceStore.UpdateFinalizedCheckpoint(ctx, cp); err != nil {
		return errors.Wrap(err, "could not set finalized checkpoint")
	}

	s.genesisRoot = root
	s.genesisTime = time.Unix(int64(genesisState.GenesisTime()), 0)
	s.setHead(&head{
		node:  forkchoicetypes.ForkChoiceNode{Root: root, PayloadStatus: primitives.PayloadFull},
		slot:  genesisState.Slot(),
		state: genesisState.Copy(),
	})
	log.WithFields(logrus.Fields{
		"root":        fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		"genesisTime": s.genesisTime,
	}).Info("Initialized chain from genesis state")
	return nil
}

// OnTick moves the fork choice clock to slot.
func (s *Service) OnTick(ctx context.Context, slot primitives.Slot) error {
	if err := s.cfg.ForkChoiceStore.NewSlot(ctx, slot); err != nil {
		return errors.Wrap(err, "could not update fork choice slot")
	}
	if err := s.updateHead(ctx); err != nil {
		return errors.Wrap(err, "could not update head")
	}
	return nil
}

// CurrentSlot returns the wall clock slot.
func (s *Service) CurrentSlot() primitives.Slot {
	if s.genesisTime.IsZero() {
		return 0
	}
	now := s.now()
	if now.Before(s.genesisTime) {
		return 0
	}
	return primitives.Slot(uint64(now.Sub(s.genesisTime).Seconds()) / params.BeaconConfig().SecondsPerSlot)
}

func (s *Service) secondsIntoSlot() uint64 {
	if s.genesisTime.IsZero() || s.now().Before(s.genesisTime) {
		return 0
	}
	return uint64(s.now().Sub(s.genesisTime).Seconds()) % params.BeaconConfig().SecondsPerSlot
}

func (s *Service) finalizedSlot() primitives.Slot {
	cp := s.cfg.ForkChoiceStore.FinalizedCheckpoint()
	if cp == nil {
		return 0
	}
	slot, err := slots.EpochStart(cp.Epoch)
	if err != nil {
		return 0
	}
	return slot
}

// AddFinalizationSubscriber registers sub for finalization updates. It must be called
// before Start.
func (s *Service) AddFinalizationSubscriber(sub FinalizationSubscriber) {
	s.cfg.FinalizationSubscribers = append(s.cfg.FinalizationSubscribers, sub)
}

// notifyFinalized hands the new finalized slot to every subscriber.
func (s *Service) notifyFinalized(slot primitives.Slot) {
	for _, sub := range s.cfg.FinalizationSubscribers {
		sub.OnFinalized(slot)
	}
}
