package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
	"github.com/prysmaticlabs/prysm-epbs/crypto/hash"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/prysmaticlabs/prysm-epbs/math"
)

// ErrNoActiveValidators is returned when an epoch has no active validators.
var ErrNoActiveValidators = errors.New("no active validators")

// maxRandomValue is the largest 16-bit sample used by balance weighted selection.
const maxRandomValue = uint64(1<<16 - 1)

// ActiveValidatorIndices filters out active validators based on validator status
// and returns their indices in a list.
//
// Spec pseudocode definition:
//
//	def get_active_validator_indices(state: BeaconState, epoch: Epoch) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the sequence of active validator indices at ``epoch``.
//	  """
//	  return [ValidatorIndex(i) for i, v in enumerate(state.validators) if is_active_validator(v, epoch)]
func ActiveValidatorIndices(st state.ReadOnlyBeaconState, epoch primitives.Epoch) ([]primitives.ValidatorIndex, error) {
	var indices []primitives.ValidatorIndex
	if err := st.ReadFromEveryValidator(func(idx int, val *validator.Validator) error {
		if val.IsActive(epoch) {
			indices = append(indices, primitives.ValidatorIndex(idx))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return indices, nil
}

// ActiveValidatorCount returns the number of active validators in the state
// at the given epoch.
func ActiveValidatorCount(st state.ReadOnlyBeaconState, epoch primitives.Epoch) (uint64, error) {
	count := uint64(0)
	if err := st.ReadFromEveryValidator(func(idx int, val *validator.Validator) error {
		if val.IsActive(epoch) {
			count++
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return count, nil
}

// TotalActiveBalance returns the total amount at stake in Gwei
// of active validators.
//
// Spec pseudocode definition:
//
//	def get_total_active_balance(state: BeaconState) -> Gwei:
//	  """
//	  Return the combined effective balance of the active validators.
//	  Note: ``get_total_balance`` returns ``EFFECTIVE_BALANCE_INCREMENT`` Gwei minimum to avoid divisions by zero.
//	  """
//	  return get_total_balance(state, set(get_active_validator_indices(state, get_current_epoch(state))))
func TotalActiveBalance(st state.ReadOnlyBeaconState) (uint64, error) {
	total := uint64(0)
	epoch := CurrentEpoch(st)
	if err := st.ReadFromEveryValidator(func(idx int, val *validator.Validator) error {
		if val.IsActive(epoch) {
			total = math.SaturatingAdd(total, val.EffectiveBalance)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return math.Max(params.BeaconConfig().EffectiveBalanceIncrement, total), nil
}

// BeaconProposerIndex returns proposer index of a current slot.
func BeaconProposerIndex(st state.ReadOnlyBeaconState) (primitives.ValidatorIndex, error) {
	return BeaconProposerIndexAtSlot(st, st.Slot())
}

// BeaconProposerIndexAtSlot returns proposer index at the given slot of the state's epoch.
//
// Spec pseudocode definition:
//
//	def get_beacon_proposer_index(state: BeaconState) -> ValidatorIndex:
//	  """
//	  Return the beacon proposer index at the current slot.
//	  """
//	  epoch = get_current_epoch(state)
//	  seed = hash(get_seed(state, epoch, DOMAIN_BEACON_PROPOSER) + uint_to_bytes(state.slot))
//	  indices = get_active_validator_indices(state, epoch)
//	  return compute_proposer_index(state, indices, seed)
func BeaconProposerIndexAtSlot(st state.ReadOnlyBeaconState, slot primitives.Slot) (primitives.ValidatorIndex, error) {
	e := primitives.Epoch(slot.Div(uint64(params.BeaconConfig().SlotsPerEpoch)))
	seed, err := Seed(st, e, params.BeaconConfig().DomainBeaconProposer)
	if err != nil {
		return 0, errors.Wrap(err, "could not generate seed")
	}
	seedWithSlot := append(seed[:], bytesutil.Bytes8(uint64(slot))...)
	seedWithSlotHash := hash.Hash(seedWithSlot)

	indices, err := ActiveValidatorIndices(st, e)
	if err != nil {
		return 0, errors.Wrap(err, "could not get active indices")
	}
	return ComputeProposerIndex(st, indices, seedWithSlotHash)
}

// ComputeProposerIndex returns the index sampled by effective balance, which is used to calculate proposer.
//
// Spec pseudocode definition:
//
//	def compute_proposer_index(state: BeaconState, indices: Sequence[ValidatorIndex], seed: Bytes32) -> ValidatorIndex:
//	  """
//	  Return from ``indices`` a random index sampled by effective balance.
//	  """
//	  assert len(indices) > 0
//	  MAX_RANDOM_VALUE = 2**16 - 1
//	  i = uint64(0)
//	  total = uint64(len(indices))
//	  while True:
//	      candidate_index = indices[compute_shuffled_index(i % total, total, seed)]
//	      random_bytes = hash(seed + uint_to_bytes(i // 16))
//	      offset = i % 16 * 2
//	      random_value = bytes_to_uint64(random_bytes[offset:offset + 2])
//	      effective_balance = state.validators[candidate_index].effective_balance
//	      if effective_balance * MAX_RANDOM_VALUE >= MAX_EFFECTIVE_BALANCE * random_value:
//	          return candidate_index
//	      i += 1
func ComputeProposerIndex(st state.ReadOnlyValidators, activeIndices []primitives.ValidatorIndex, seed [32]byte) (primitives.ValidatorIndex, error) {
	length := uint64(len(activeIndices))
	if length == 0 {
		return 0, ErrNoActiveValidators
	}
	hashFunc := hash.CustomSHA256Hasher()
	for i := uint64(0); ; i++ {
		candidateIndex, err := ShuffledIndex(primitives.ValidatorIndex(i%length), length, seed)
		if err != nil {
			return 0, err
		}
		candidateIndex = activeIndices[candidateIndex]
		if uint64(candidateIndex) >= uint64(st.NumValidators()) {
			return 0, errors.New("active index out of range")
		}
		v, err := st.ValidatorAtIndex(candidateIndex)
		if err != nil {
			return 0, err
		}
		if AcceptByEffectiveBalance(hashFunc, seed, i, v.EffectiveBalance) {
			return candidateIndex, nil
		}
	}
}

// AcceptByEffectiveBalance reports whether the i-th candidate of a balance weighted
// selection with the given seed is accepted.
func AcceptByEffectiveBalance(hashFunc func([]byte) [32]byte, seed [32]byte, i uint64, effectiveBalance uint64) bool {
	b := make([]byte, 0, 40)
	b = append(b, seed[:]...)
	b = append(b, bytesutil.Bytes8(i/16)...)
	randomBytes := hashFunc(b)
	offset := (i % 16) * 2
	randomValue := uint64(bytesutil.FromBytes2(randomBytes[offset : offset+2]))
	return math.AtLeastFraction(effectiveBalance, params.BeaconConfig().MaxEffectiveBalance, randomValue, maxRandomValue)
}

// IncreaseBalance increases validator with the given 'index' balance by 'delta' in Gwei.
//
// Spec pseudocode definition:
//
//	def increase_balance(state: BeaconState, index: ValidatorIndex, delta: Gwei) -> None:
//	  """
//	  Increase the validator balance at index ``index`` by ``delta``.
//	  """
//	  state.balances[index] += delta
func IncreaseBalance(st state.BeaconState, idx primitives.ValidatorIndex, delta uint64) error {
	balAtIdx, err := st.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	newBal, err := math.Add64(balAtIdx, delta)
	if err != nil {
		return err
	}
	return st.UpdateBalancesAtIndex(idx, newBal)
}

// DecreaseBalance decreases validator with the given 'index' balance by 'delta' in Gwei.
//
// Spec pseudocode definition:
//
//	def decrease_balance(state: BeaconState, index: ValidatorIndex, delta: Gwei) -> None:
//	  """
//	  Decrease the validator balance at index ``index`` by ``delta``, with underflow protection.
//	  """
//	  state.balances[index] = 0 if delta > state.balances[index] else state.balances[index] - delta
func DecreaseBalance(st state.BeaconState, idx primitives.ValidatorIndex, delta uint64) error {
	balAtIdx, err := st.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	return st.UpdateBalancesAtIndex(idx, math.SaturatingSub(balAtIdx, delta))
}
