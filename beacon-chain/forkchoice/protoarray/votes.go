package protoarray

import (
	"context"

	"github.com/pkg/errors"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"go.opencensus.io/trace"
)

var errUnknownVote = errors.New("no vote recorded for validator")

// ProcessAttestation records the latest fork choice message of every validator in
// validatorIndices. A message only replaces an older one from a strictly earlier slot.
func (f *ForkChoice) ProcessAttestation(ctx context.Context, validatorIndices []uint64, blockRoot [32]byte, slot primitives.Slot, payloadPresent bool) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.ProcessAttestation")
	defer span.End()

	f.votesLock.Lock()
	defer f.votesLock.Unlock()

	for _, index := range validatorIndices {
		// Validator indices will grow the vote cache.
		for index >= uint64(len(f.votes)) {
			f.votes = append(f.votes, Vote{})
		}
		v := &f.votes[index]
		if v.hasMessage && slot <= v.message.Slot {
			continue
		}
		v.message = forkchoicetypes.LatestMessage{Slot: slot, Root: blockRoot, PayloadPresent: payloadPresent}
		v.hasMessage = true
	}
	processedAttestationCount.Inc()
}

// InsertSlashedIndex excludes a validator's weight from every future head computation.
// It is used both for slashed validators and for validators caught equivocating.
func (f *ForkChoice) InsertSlashedIndex(_ context.Context, index primitives.ValidatorIndex) {
	f.votesLock.Lock()
	defer f.votesLock.Unlock()
	f.slashedIndices[index] = true
}

// IsSlashed returns true if the given index is excluded from fork choice weight.
func (f *ForkChoice) IsSlashed(index primitives.ValidatorIndex) bool {
	f.votesLock.RLock()
	defer f.votesLock.RUnlock()
	return f.slashedIndices[index]
}

// LatestMessage returns the latest fork choice message recorded for a validator.
func (f *ForkChoice) LatestMessage(index primitives.ValidatorIndex) (*forkchoicetypes.LatestMessage, error) {
	f.votesLock.RLock()
	defer f.votesLock.RUnlock()
	if uint64(index) >= uint64(len(f.votes)) || !f.votes[index].hasMessage {
		return nil, errors.Wrapf(errUnknownVote, "index %d", index)
	}
	m := f.votes[index].message
	return &m, nil
}

// computeDeltas returns, per arena index, how much weight moves onto or off the node
// since the last head computation. A vote weighs on the deepest node it supports; a
// vote whose target changed, whose balance changed or whose validator got slashed is
// moved. This function requires a write lock in both Store.nodesLock and ForkChoice.votesLock.
func (f *ForkChoice) computeDeltas(newBalances []uint64) []int64 {
	s := f.store
	deltas := make([]int64, len(s.nodes))
	for i := range f.votes {
		v := &f.votes[i]
		var newBalance uint64
		if i < len(newBalances) {
			newBalance = newBalances[i]
		}
		var target forkchoicetypes.ForkChoiceNode
		ok := false
		if v.hasMessage && !f.slashedIndices[primitives.ValidatorIndex(i)] {
			target, ok = s.voteTarget(&v.message)
		}
		if !ok {
			newBalance = 0
			target = forkchoicetypes.ForkChoiceNode{}
		}
		if v.hasApplied == ok && v.applied == target && v.appliedBalance == newBalance {
			continue
		}
		if v.hasApplied {
			// Votes resting on pruned nodes have nothing left to subtract from.
			if idx, exists := s.nodesIndices[v.applied]; exists {
				deltas[idx] -= int64(v.appliedBalance)
			}
		}
		v.hasApplied = ok
		v.applied = target
		v.appliedBalance = newBalance
		if ok {
			deltas[s.nodesIndices[target]] += int64(newBalance)
		}
	}
	return deltas
}

// voteTarget returns the deepest node supported by m: the EMPTY or FULL node of the
// voted block when the vote was cast after the block's slot and that node exists,
// otherwise the block's PENDING node.
func (s *Store) voteTarget(m *forkchoicetypes.LatestMessage) (forkchoicetypes.ForkChoiceNode, bool) {
	key := pendingKey(m.Root)
	idx, ok := s.nodesIndices[key]
	if !ok {
		return forkchoicetypes.ForkChoiceNode{}, false
	}
	if m.Slot > s.nodes[idx].slot {
		status := primitives.PayloadEmpty
		if m.PayloadPresent {
			status = primitives.PayloadFull
		}
		k := forkchoicetypes.ForkChoiceNode{Root: m.Root, PayloadStatus: status}
		if _, ok := s.nodesIndices[k]; ok {
			key = k
		}
	}
	return key, true
}
