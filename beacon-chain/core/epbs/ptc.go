package epbs

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
	"github.com/prysmaticlabs/prysm-epbs/crypto/hash"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"go.opencensus.io/trace"
)

// GetPTC returns the payload timeliness committee of a slot. Seat i of the result
// corresponds to bit i of a payload attestation's aggregation bits. A validator may
// hold more than one seat.
//
// Spec pseudocode definition:
//
//	def get_ptc(state: BeaconState, slot: Slot) -> Vector[ValidatorIndex, PTC_SIZE]:
//	    epoch = compute_epoch_at_slot(slot)
//	    seed = hash(get_seed(state, epoch, DOMAIN_PTC_ATTESTER) + uint_to_bytes(slot))
//	    indices: List[ValidatorIndex] = []
//	    committees_per_slot = get_committee_count_per_slot(state, epoch)
//	    for i in range(committees_per_slot):
//	        committee = get_beacon_committee(state, slot, CommitteeIndex(i))
//	        indices.extend(committee)
//	    return compute_balance_weighted_selection(
//	        state, indices, seed, size=PTC_SIZE, shuffle_indices=False
//	    )
func GetPTC(ctx context.Context, st state.ReadOnlyBeaconState, slot primitives.Slot) ([]primitives.ValidatorIndex, error) {
	_, span := trace.StartSpan(ctx, "epbs.GetPTC")
	defer span.End()

	epoch := slots.ToEpoch(slot)
	seed, err := helpers.Seed(st, epoch, params.BeaconConfig().DomainPTCAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get ptc seed")
	}
	seed = hash.Hash(append(seed[:], bytesutil.Bytes8(uint64(slot))...))

	committees, err := helpers.BeaconCommittees(st, slot)
	if err != nil {
		return nil, errors.Wrap(err, "could not get beacon committees")
	}
	var indices []primitives.ValidatorIndex
	for _, c := range committees {
		indices = append(indices, c...)
	}
	return balanceWeightedSelection(st, indices, seed, params.BeaconConfig().PTCSize)
}

// balanceWeightedSelection samples size entries of indices without shuffling, accepting
// each candidate with probability proportional to its effective balance.
//
// Spec pseudocode definition:
//
//	def compute_balance_weighted_selection(state, indices, seed, size, shuffle_indices) -> Sequence[ValidatorIndex]:
//	    total = uint64(len(indices))
//	    assert total > 0
//	    selected: List[ValidatorIndex] = []
//	    i = uint64(0)
//	    while len(selected) < size:
//	        next_index = i % total
//	        if shuffle_indices:
//	            next_index = compute_shuffled_index(next_index, total, seed)
//	        candidate_index = indices[next_index]
//	        if compute_balance_weighted_acceptance(state, candidate_index, seed, i):
//	            selected.append(candidate_index)
//	        i += 1
//	    return selected
func balanceWeightedSelection(st state.ReadOnlyBeaconState, indices []primitives.ValidatorIndex, seed [32]byte, size uint64) ([]primitives.ValidatorIndex, error) {
	total := uint64(len(indices))
	if total == 0 {
		return nil, ErrEmptyPTC
	}
	balances := make(map[primitives.ValidatorIndex]uint64, total)
	for _, idx := range indices {
		balances[idx] = 0
	}
	if err := st.ReadFromEveryValidator(func(i int, v *validator.Validator) error {
		if _, ok := balances[primitives.ValidatorIndex(i)]; ok {
			balances[primitives.ValidatorIndex(i)] = v.EffectiveBalance
		}
		return nil
	}); err != nil {
		return nil, err
	}
	var positive bool
	for _, b := range balances {
		if b > 0 {
			positive = true
			break
		}
	}
	if !positive {
		return nil, ErrEmptyPTC
	}

	hashFunc := hash.CustomSHA256Hasher()
	selected := make([]primitives.ValidatorIndex, 0, size)
	for i := uint64(0); uint64(len(selected)) < size; i++ {
		candidate := indices[i%total]
		if helpers.AcceptByEffectiveBalance(hashFunc, seed, i, balances[candidate]) {
			selected = append(selected, candidate)
		}
	}
	return selected, nil
}

// PTCSeats returns the seats held by a validator in a committee.
func PTCSeats(ptc []primitives.ValidatorIndex, idx primitives.ValidatorIndex) []uint64 {
	var seats []uint64
	for i, member := range ptc {
		if member == idx {
			seats = append(seats, uint64(i))
		}
	}
	return seats
}
