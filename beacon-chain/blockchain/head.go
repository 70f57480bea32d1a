package blockchain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// head is the canonical chain tip: the fork choice node plus the state at that node.
// For a FULL head the state is the one after the payload was applied.
type head struct {
	node  forkchoicetypes.ForkChoiceNode
	slot  primitives.Slot
	state state.BeaconState
}

func (h *head) copy() *head {
	return &head{node: h.node, slot: h.slot, state: h.state.Copy()}
}

// updateHead recomputes the fork choice head on the worker pool and, when it moved,
// loads the matching state into the head cache.
func (s *Service) updateHead(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "blockChain.updateHead")
	defer span.End()

	balances, err := s.justifiedBalancesForHead(ctx)
	if err != nil {
		return err
	}
	var node forkchoicetypes.ForkChoiceNode
	if err := s.cfg.Pool.Run(ctx, func(ctx context.Context) error {
		var err error
		node, err = s.cfg.ForkChoiceStore.Head(ctx, balances)
		return err
	}); err != nil {
		return errors.Wrap(err, "could not compute fork choice head")
	}

	s.headLock.RLock()
	current := s.head
	s.headLock.RUnlock()
	if current != nil && current.node == node {
		return nil
	}

	st, err := s.stateForNode(ctx, node)
	if err != nil {
		return err
	}
	newHead := &head{node: node, slot: st.LatestBlockHeader().Slot, state: st}
	if current != nil && current.node.Root != node.Root {
		if ancestor, err := s.cfg.ForkChoiceStore.AncestorRoot(ctx, node.Root, current.slot); err == nil && ancestor != current.node.Root {
			reorgCount.Inc()
			log.WithFields(logrus.Fields{
				"oldHead": current.node.String(),
				"newHead": node.String(),
				"oldSlot": current.slot,
				"newSlot": newHead.slot,
			}).Info("Chain reorg occurred")
		}
	}
	s.setHead(newHead)
	reportSlotMetrics(st.Slot(), newHead.slot, node.PayloadStatus)
	log.WithFields(logrus.Fields{
		"slot": newHead.slot,
		"head": node.String(),
	}).Debug("Head changed")
	return nil
}

// stateForNode returns the stored state matching a fork choice node. A missing state
// for a node fork choice knows about means the database lost data.
func (s *Service) stateForNode(ctx context.Context, node forkchoicetypes.ForkChoiceNode) (state.BeaconState, error) {
	var st state.BeaconState
	var err error
	if node.PayloadStatus == primitives.PayloadFull {
		st, err = s.cfg.BeaconDB.ExecutionPayloadState(ctx, node.Root)
	} else {
		st, err = s.cfg.BeaconDB.State(ctx, node.Root)
	}
	if err != nil {
		return nil, fatal(err, fmt.Sprintf("could not read state of %s", node))
	}
	if st == nil {
		return nil, fatalError{error: errors.Errorf("no state stored for known node %s", node)}
	}
	return st, nil
}

func (s *Service) setHead(h *head) {
	s.headLock.Lock()
	defer s.headLock.Unlock()
	s.head = h
}

func (s *Service) headRoot() [32]byte {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil {
		return params.BeaconConfig().ZeroHash
	}
	return s.head.node.Root
}

// justifiedBalancesForHead returns the effective balances of the validators active in the
// justified state, zero for inactive ones. The result is cached per justified root.
func (s *Service) justifiedBalancesForHead(ctx context.Context) ([]uint64, error) {
	root := s.genesisRoot
	if cp := s.cfg.ForkChoiceStore.JustifiedCheckpoint(); cp != nil && cp.Root != params.BeaconConfig().ZeroHash {
		root = cp.Root
	}

	s.balancesLock.Lock()
	defer s.balancesLock.Unlock()
	if s.justifiedBalances != nil && s.balancesRoot == root {
		return s.justifiedBalances, nil
	}
	st, err := s.cfg.BeaconDB.State(ctx, root)
	if err != nil {
		return nil, fatal(err, "could not read justified state")
	}
	if st == nil {
		return nil, fatalError{error: errors.Errorf("no state for justified root %#x", bytesutil.Trunc(root[:]))}
	}
	epoch := slots.ToEpoch(st.Slot())
	vals := st.Validators()
	balances := make([]uint64, len(vals))
	for i, v := range vals {
		if v.IsActive(epoch) {
			balances[i] = v.EffectiveBalance
		}
	}
	s.balancesRoot = root
	s.justifiedBalances = balances
	return balances, nil
}
