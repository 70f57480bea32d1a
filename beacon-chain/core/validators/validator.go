// Package validators contains the registry mutations of the beacon chain that
// act on individual validators, such as exits and slashings.
package validators

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// ErrValidatorAlreadySlashed is returned when slashing a validator that has already been slashed.
var ErrValidatorAlreadySlashed = errors.New("validator already slashed")

// InitiateValidatorExit takes in validator index and updates
// validator with correct voluntary exit parameters. Churn limits are not
// applied: the exit takes effect at the first epoch allowed by the seed lookahead.
//
// Spec pseudocode definition:
//
//	def initiate_validator_exit(state: BeaconState, index: ValidatorIndex) -> None:
//	  """
//	  Initiate the exit of the validator with index ``index``.
//	  """
//	  # Return if validator already initiated exit
//	  validator = state.validators[index]
//	  if validator.exit_epoch != FAR_FUTURE_EPOCH:
//	      return
//
//	  # Set validator exit epoch and withdrawable epoch
//	  validator.exit_epoch = compute_activation_exit_epoch(get_current_epoch(state))
//	  validator.withdrawable_epoch = Epoch(validator.exit_epoch + MIN_VALIDATOR_WITHDRAWABILITY_DELAY)
func InitiateValidatorExit(st state.BeaconState, idx primitives.ValidatorIndex) error {
	v, err := st.ValidatorAtIndex(idx)
	if err != nil {
		return err
	}
	if v.ExitEpoch != params.BeaconConfig().FarFutureEpoch {
		return nil
	}
	v.ExitEpoch = helpers.ActivationExitEpoch(helpers.CurrentEpoch(st))
	v.WithdrawableEpoch = v.ExitEpoch + params.BeaconConfig().MinValidatorWithdrawabilityDelay
	return st.UpdateValidatorAtIndex(idx, v)
}

// SlashValidator slashes the malicious validator's balance and awards
// the whistleblower's reward to the block proposer.
//
// Spec pseudocode definition:
//
//	def slash_validator(state: BeaconState,
//	                    slashed_index: ValidatorIndex,
//	                    whistleblower_index: ValidatorIndex=None) -> None:
//	  """
//	  Slash the validator with index ``slashed_index``.
//	  """
//	  epoch = get_current_epoch(state)
//	  initiate_validator_exit(state, slashed_index)
//	  validator = state.validators[slashed_index]
//	  validator.slashed = True
//	  validator.withdrawable_epoch = max(validator.withdrawable_epoch, Epoch(epoch + EPOCHS_PER_SLASHINGS_VECTOR))
//	  decrease_balance(state, slashed_index, validator.effective_balance // MIN_SLASHING_PENALTY_QUOTIENT)
//
//	  # Apply proposer and whistleblower rewards
//	  proposer_index = get_beacon_proposer_index(state)
//	  if whistleblower_index is None:
//	      whistleblower_index = proposer_index
//	  whistleblower_reward = Gwei(validator.effective_balance // WHISTLEBLOWER_REWARD_QUOTIENT)
//	  increase_balance(state, whistleblower_index, whistleblower_reward)
func SlashValidator(st state.BeaconState, slashedIdx primitives.ValidatorIndex) error {
	if err := InitiateValidatorExit(st, slashedIdx); err != nil {
		return errors.Wrapf(err, "could not initiate validator %d exit", slashedIdx)
	}
	v, err := st.ValidatorAtIndex(slashedIdx)
	if err != nil {
		return err
	}
	if v.Slashed {
		return ErrValidatorAlreadySlashed
	}
	cfg := params.BeaconConfig()
	v.Slashed = true
	if err := st.UpdateValidatorAtIndex(slashedIdx, v); err != nil {
		return err
	}
	if err := helpers.DecreaseBalance(st, slashedIdx, v.EffectiveBalance/cfg.MinSlashingPenaltyQuotient); err != nil {
		return err
	}

	proposerIdx, err := helpers.BeaconProposerIndex(st)
	if err != nil {
		return errors.Wrap(err, "could not get proposer idx")
	}
	return helpers.IncreaseBalance(st, proposerIdx, v.EffectiveBalance/cfg.WhistleBlowerRewardQuotient)
}
