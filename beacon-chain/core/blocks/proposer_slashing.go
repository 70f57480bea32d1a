package blocks

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/validators"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	consensusblocks "github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
)

// ProcessProposerSlashings is one of the operations performed on each processed
// beacon block to slash proposers based on slashing conditions if any slashable
// events occurred.
func ProcessProposerSlashings(st state.BeaconState, body *consensusblocks.BeaconBlockBody) error {
	if body == nil {
		return consensusblocks.ErrNilBlock
	}
	for i, slashing := range body.ProposerSlashings {
		if err := ProcessProposerSlashing(st, slashing); err != nil {
			return errors.Wrapf(err, "could not process proposer slashing %d", i)
		}
	}
	return nil
}

// ProcessProposerSlashing slashes the proposer of two conflicting headers. Builder
// payments still pending for the equivocated slot, or for any other slot of the
// current epoch assigned to the same proposer, are dropped.
//
// Spec pseudocode definition:
//
//	def process_proposer_slashing(state: BeaconState, proposer_slashing: ProposerSlashing) -> None:
//	    header_1 = proposer_slashing.signed_header_1.message
//	    header_2 = proposer_slashing.signed_header_2.message
//	    ...
//	    # Remove the BuilderPendingPayment corresponding to
//	    # this proposal if it is still in the 2-epoch window.
//	    slot = header_1.slot
//	    proposal_epoch = compute_epoch_at_slot(slot)
//	    if proposal_epoch == get_current_epoch(state):
//	        payment_index = SLOTS_PER_EPOCH + slot % SLOTS_PER_EPOCH
//	        state.builder_pending_payments[payment_index] = BuilderPendingPayment()
//	    elif proposal_epoch == get_previous_epoch(state):
//	        payment_index = slot % SLOTS_PER_EPOCH
//	        state.builder_pending_payments[payment_index] = BuilderPendingPayment()
//
//	    slash_validator(state, header_1.proposer_index)
func ProcessProposerSlashing(st state.BeaconState, slashing *consensusblocks.ProposerSlashing) error {
	if err := VerifyProposerSlashing(st, slashing); err != nil {
		return errors.Wrap(err, "could not verify proposer slashing")
	}
	h := slashing.Header_1.Header
	if err := epbs.ResetProposerPayments(st, h.ProposerIndex, h.Slot); err != nil {
		return errors.Wrap(err, "could not reset builder pending payment")
	}
	if err := validators.SlashValidator(st, h.ProposerIndex); err != nil {
		return errors.Wrapf(err, "could not slash proposer index %d", h.ProposerIndex)
	}
	log.WithField("proposerIndex", h.ProposerIndex).WithField("slot", h.Slot).Info("Slashed equivocating proposer")
	return nil
}

// VerifyProposerSlashing verifies that the data provided from slashing is valid.
func VerifyProposerSlashing(st state.ReadOnlyBeaconState, slashing *consensusblocks.ProposerSlashing) error {
	if slashing == nil || slashing.Header_1 == nil || slashing.Header_1.Header == nil || slashing.Header_2 == nil || slashing.Header_2.Header == nil {
		return ErrNilProposerSlashing
	}
	h1, h2 := slashing.Header_1.Header, slashing.Header_2.Header
	if h1.Slot != h2.Slot {
		return errors.Wrapf(ErrProposerSlashingSlot, "received %d == %d", h1.Slot, h2.Slot)
	}
	if h1.ProposerIndex != h2.ProposerIndex {
		return errors.Wrapf(ErrProposerSlashingProposer, "received %d == %d", h1.ProposerIndex, h2.ProposerIndex)
	}
	if *h1 == *h2 {
		return ErrProposerSlashingSameHeader
	}
	proposer, err := st.ValidatorAtIndex(h1.ProposerIndex)
	if err != nil {
		return err
	}
	if !proposer.IsSlashable(slots.ToEpoch(st.Slot())) {
		return errors.Wrapf(ErrProposerNotSlashable, "validator with key %#x", proposer.PublicKey)
	}
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(h1.Slot), params.BeaconConfig().DomainBeaconProposer, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	for _, header := range []*consensusblocks.SignedBeaconBlockHeader{slashing.Header_1, slashing.Header_2} {
		if err := signing.VerifySigningRoot(header.Header, proposer.PublicKey, header.Signature, domain); err != nil {
			return errors.Wrap(err, "could not verify beacon block header")
		}
	}
	return nil
}
