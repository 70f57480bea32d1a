package state_native

import (
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/validator"
)

// SetValidators for the beacon state. Updates the entire
// validator registry to a new value.
func (b *BeaconState) SetValidators(val []*validator.Validator) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.validators = copyValidators(val)
	return nil
}

// UpdateValidatorAtIndex for the beacon state. Updates the validator
// at a specific index to a new value.
func (b *BeaconState) UpdateValidatorAtIndex(idx primitives.ValidatorIndex, val *validator.Validator) error {
	if val == nil {
		return errors.New("nil validator")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.validators)) <= uint64(idx) {
		e := NewValidatorIndexOutOfRangeError(idx)
		return &e
	}
	b.validators[idx] = val.Copy()
	return nil
}

// AppendValidator for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendValidator(val *validator.Validator) error {
	if val == nil {
		return errors.New("nil validator")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.validators)) >= fieldparams.ValidatorRegistryLimit {
		return errors.New("validator registry is full")
	}
	b.validators = append(b.validators, val.Copy())
	return nil
}

// SetBalances for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetBalances(val []uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.balances = copyUint64s(val)
	return nil
}

// UpdateBalancesAtIndex for the beacon state. This method updates the balance
// at a specific index to a new value.
func (b *BeaconState) UpdateBalancesAtIndex(idx primitives.ValidatorIndex, val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.balances)) <= uint64(idx) {
		return errors.Errorf("invalid index provided %d", idx)
	}
	b.balances[idx] = val
	return nil
}

// AppendBalance for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendBalance(bal uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.balances = append(b.balances, bal)
	return nil
}
