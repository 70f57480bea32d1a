// Package validator defines the validator registry entry of the beacon state.
package validator

import (
	ssz "github.com/prysmaticlabs/fastssz"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// Validator is a consensus-layer staker.
type Validator struct {
	PublicKey                  [fieldparams.BLSPubkeyLength]byte
	WithdrawalCredentials      [32]byte
	EffectiveBalance           uint64
	Slashed                    bool
	ActivationEligibilityEpoch primitives.Epoch
	ActivationEpoch            primitives.Epoch
	ExitEpoch                  primitives.Epoch
	WithdrawableEpoch          primitives.Epoch
}

// IsActive checks if a validator is active at the given epoch.
//
// Spec pseudocode definition:
//
//	def is_active_validator(validator: Validator, epoch: Epoch) -> bool:
//	  """
//	  Check if ``validator`` is active.
//	  """
//	  return validator.activation_epoch <= epoch < validator.exit_epoch
func (v *Validator) IsActive(epoch primitives.Epoch) bool {
	return v != nil && v.ActivationEpoch <= epoch && epoch < v.ExitEpoch
}

// IsSlashable returns true if the validator can still be slashed at epoch.
//
// Spec pseudocode definition:
//
//	def is_slashable_validator(validator: Validator, epoch: Epoch) -> bool:
//	  """
//	  Check if ``validator`` is slashable.
//	  """
//	  return (not validator.slashed) and (validator.activation_epoch <= epoch < validator.withdrawable_epoch)
func (v *Validator) IsSlashable(epoch primitives.Epoch) bool {
	return v != nil && !v.Slashed && v.ActivationEpoch <= epoch && epoch < v.WithdrawableEpoch
}

// Copy returns a deep copy of the validator.
func (v *Validator) Copy() *Validator {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// HashTreeRoot ssz hashes the Validator object
func (v *Validator) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(v)
}

// HashTreeRootWith ssz hashes the Validator object with a hasher
func (v *Validator) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(v.PublicKey[:])
	hh.PutBytes(v.WithdrawalCredentials[:])
	hh.PutUint64(v.EffectiveBalance)
	hh.PutBool(v.Slashed)
	hh.PutUint64(uint64(v.ActivationEligibilityEpoch))
	hh.PutUint64(uint64(v.ActivationEpoch))
	hh.PutUint64(uint64(v.ExitEpoch))
	hh.PutUint64(uint64(v.WithdrawableEpoch))
	hh.Merkleize(indx)
	return nil
}
