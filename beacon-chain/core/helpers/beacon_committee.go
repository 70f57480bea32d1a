package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/math"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
)

// SlotCommitteeCount returns the number of beacon committees of a slot.
//
// Spec pseudocode definition:
//
//	def get_committee_count_per_slot(state: BeaconState, epoch: Epoch) -> uint64:
//	  """
//	  Return the number of committees in each slot for the given ``epoch``.
//	  """
//	  return max(uint64(1), min(
//	      MAX_COMMITTEES_PER_SLOT,
//	      uint64(len(get_active_validator_indices(state, epoch))) // SLOTS_PER_EPOCH // TARGET_COMMITTEE_SIZE,
//	  ))
func SlotCommitteeCount(activeValidatorCount uint64) uint64 {
	cfg := params.BeaconConfig()
	committeesPerSlot := activeValidatorCount / uint64(cfg.SlotsPerEpoch) / cfg.TargetCommitteeSize
	return math.Max(1, math.Min(cfg.MaxCommitteesPerSlot, committeesPerSlot))
}

// BeaconCommittees returns every beacon committee of the given slot, in committee index order.
func BeaconCommittees(st state.ReadOnlyBeaconState, slot primitives.Slot) ([][]primitives.ValidatorIndex, error) {
	epoch := slots.ToEpoch(slot)
	seed, err := Seed(st, epoch, params.BeaconConfig().DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get seed")
	}
	indices, err := ActiveValidatorIndices(st, epoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not get active indices")
	}
	shuffled, err := ShuffledActiveIndices(indices, seed)
	if err != nil {
		return nil, err
	}
	committeesPerSlot := SlotCommitteeCount(uint64(len(indices)))
	count := committeesPerSlot * uint64(params.BeaconConfig().SlotsPerEpoch)
	committees := make([][]primitives.ValidatorIndex, committeesPerSlot)
	for i := uint64(0); i < committeesPerSlot; i++ {
		index := uint64(slot%params.BeaconConfig().SlotsPerEpoch)*committeesPerSlot + i
		committees[i] = committeeSlice(shuffled, index, count)
	}
	return committees, nil
}

// BeaconCommittee returns the beacon committee of a given slot and committee index.
//
// Spec pseudocode definition:
//
//	def get_beacon_committee(state: BeaconState, slot: Slot, index: CommitteeIndex) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the beacon committee at ``slot`` for ``index``.
//	  """
//	  epoch = compute_epoch_at_slot(slot)
//	  committees_per_slot = get_committee_count_per_slot(state, epoch)
//	  return compute_committee(
//	      indices=get_active_validator_indices(state, epoch),
//	      seed=get_seed(state, epoch, DOMAIN_BEACON_ATTESTER),
//	      index=(slot % SLOTS_PER_EPOCH) * committees_per_slot + index,
//	      count=committees_per_slot * SLOTS_PER_EPOCH,
//	  )
func BeaconCommittee(st state.ReadOnlyBeaconState, slot primitives.Slot, committeeIndex primitives.CommitteeIndex) ([]primitives.ValidatorIndex, error) {
	committees, err := BeaconCommittees(st, slot)
	if err != nil {
		return nil, err
	}
	if uint64(committeeIndex) >= uint64(len(committees)) {
		return nil, errors.Errorf("committee index %d out of range, %d committees", committeeIndex, len(committees))
	}
	return committees[committeeIndex], nil
}

// ShuffledActiveIndices returns the full permutation of indices under seed. Results are cached
// by seed and length; the returned slice must not be modified.
func ShuffledActiveIndices(indices []primitives.ValidatorIndex, seed [32]byte) ([]primitives.ValidatorIndex, error) {
	if shuffled, ok := cachedShuffle(seed, indices); ok {
		return shuffled, nil
	}
	n := uint64(len(indices))
	shuffled := make([]primitives.ValidatorIndex, n)
	for i := uint64(0); i < n; i++ {
		permuted, err := ShuffledIndex(primitives.ValidatorIndex(i), n, seed)
		if err != nil {
			return nil, errors.Wrapf(err, "could not get shuffled index at index %d", i)
		}
		shuffled[i] = indices[permuted]
	}
	saveShuffle(seed, len(indices), shuffled)
	return shuffled, nil
}

// committeeSlice returns the index-th of count committees out of a shuffled list.
//
// Spec pseudocode definition:
//
//	def compute_committee(indices: Sequence[ValidatorIndex],
//	                      seed: Bytes32,
//	                      index: uint64,
//	                      count: uint64) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the committee corresponding to ``indices``, ``seed``, ``index``, and committee ``count``.
//	  """
//	  start = (len(indices) * index) // count
//	  end = (len(indices) * uint64(index + 1)) // count
//	  return [indices[compute_shuffled_index(uint64(i), uint64(len(indices)), seed)] for i in range(start, end)]
func committeeSlice(shuffled []primitives.ValidatorIndex, index, count uint64) []primitives.ValidatorIndex {
	n := uint64(len(shuffled))
	start := n * index / count
	end := n * (index + 1) / count
	committee := make([]primitives.ValidatorIndex, end-start)
	copy(committee, shuffled[start:end])
	return committee
}
