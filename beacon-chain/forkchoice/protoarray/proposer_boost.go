package protoarray

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// BoostProposerRoot sets the block root which should be boosted during
// the LMD fork choice algorithm calculations. This is meant to reward timely,
// proposed blocks which occur before a cutoff interval set to
// SECONDS_PER_SLOT // INTERVALS_PER_SLOT.
//
//	time_into_slot = (store.time - store.genesis_time) % SECONDS_PER_SLOT
//	is_before_attesting_interval = time_into_slot < SECONDS_PER_SLOT // INTERVALS_PER_SLOT
//	if get_current_slot(store) == block.slot and is_before_attesting_interval:
//	    store.proposer_boost_root = hash_tree_root(block)
func (f *ForkChoice) BoostProposerRoot(_ context.Context, args *forkchoicetypes.BoostProposerRootArgs) error {
	if args == nil {
		return errors.New("nil function args provided to BoostProposerRoot")
	}
	cfg := params.BeaconConfig()
	if args.SecondsIntoSlot >= cfg.SecondsPerSlot {
		return fmt.Errorf("seconds into slot %d exceeds seconds per slot %d", args.SecondsIntoSlot, cfg.SecondsPerSlot)
	}

	// Only update the boosted proposer root to the incoming block root
	// if the block is for the current, clock-based slot and the block was timely.
	attestationThreshold := cfg.SecondsPerSlot / cfg.IntervalsPerSlot
	if args.BlockSlot == args.CurrentSlot && args.SecondsIntoSlot < attestationThreshold {
		f.store.proposerBoostLock.Lock()
		f.store.proposerBoostRoot = args.BlockRoot
		f.store.proposerBoostLock.Unlock()
	}
	return nil
}

// NewSlot moves the store's clock to slot. The proposer boost only lasts for the slot
// it was granted in.
func (f *ForkChoice) NewSlot(_ context.Context, slot primitives.Slot) error {
	f.store.nodesLock.Lock()
	f.store.currentSlot = slot
	f.store.nodesLock.Unlock()

	f.store.proposerBoostLock.Lock()
	f.store.proposerBoostRoot = [32]byte{}
	f.store.proposerBoostLock.Unlock()
	return nil
}

// applyProposerBoostScore moves the boost score off the previously boosted block and
// onto the current one. The boost is a fraction of one slot's committee weight and
// supports the boosted block's PENDING node, like a vote cast in its own slot.
// This function requires a lock in Store.nodesLock.
func (s *Store) applyProposerBoostScore(deltas []int64, balances []uint64) error {
	s.proposerBoostLock.Lock()
	defer s.proposerBoostLock.Unlock()

	proposerScore := uint64(0)
	if s.previousProposerBoostRoot != params.BeaconConfig().ZeroHash {
		if idx, ok := s.nodesIndices[pendingKey(s.previousProposerBoostRoot)]; ok {
			deltas[idx] -= int64(s.previousProposerBoostScore)
		}
	}

	if s.proposerBoostRoot != params.BeaconConfig().ZeroHash {
		idx, ok := s.nodesIndices[pendingKey(s.proposerBoostRoot)]
		if !ok {
			log.WithError(errInvalidProposerBoostRoot).Errorf("invalid current root %#x", s.proposerBoostRoot)
		} else {
			var total uint64
			for _, b := range balances {
				total += b
			}
			committeeWeight := total / uint64(params.BeaconConfig().SlotsPerEpoch)
			proposerScore = (committeeWeight * params.BeaconConfig().ProposerScoreBoost) / 100
			deltas[idx] += int64(proposerScore)
		}
	}
	s.previousProposerBoostRoot = s.proposerBoostRoot
	s.previousProposerBoostScore = proposerScore
	return nil
}

// proposerBoost of fork choice store.
func (s *Store) proposerBoost() [fieldparams.RootLength]byte {
	s.proposerBoostLock.RLock()
	defer s.proposerBoostLock.RUnlock()
	return s.proposerBoostRoot
}
