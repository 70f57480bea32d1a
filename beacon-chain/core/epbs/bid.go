package epbs

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"github.com/sirupsen/logrus"
)

// PaymentIndex returns the position of a slot in the builder pending payment ring.
func PaymentIndex(slot primitives.Slot) uint64 {
	return uint64(slot % (2 * params.BeaconConfig().SlotsPerEpoch))
}

// ProcessExecutionPayloadBid validates the bid committed by block and records it in
// the state. A rejected bid makes the whole block invalid.
//
// Spec pseudocode definition:
//
//	def process_execution_payload_bid(state: BeaconState, block: BeaconBlock) -> None:
//	    signed_bid = block.body.signed_execution_payload_bid
//	    bid = signed_bid.message
//	    builder_index = bid.builder_index
//	    amount = bid.value
//	    if builder_index == BUILDER_INDEX_SELF_BUILD:
//	        assert amount == 0
//	        assert signed_bid.signature == bls.G2_POINT_AT_INFINITY
//	    else:
//	        assert is_active_builder(state, builder_index)
//	        assert can_builder_cover_bid(state, builder_index, amount)
//	        assert verify_execution_payload_bid_signature(state, signed_bid)
//	    assert bid.slot == block.slot
//	    assert bid.parent_block_hash == state.latest_block_hash
//	    assert bid.parent_block_root == block.parent_root
//	    assert bid.prev_randao == get_randao_mix(state, get_current_epoch(state))
//	    if amount > 0:
//	        state.builder_pending_payments[...] = BuilderPendingPayment(
//	            weight=0,
//	            withdrawal=BuilderPendingWithdrawal(fee_recipient=bid.fee_recipient, amount=amount, builder_index=builder_index),
//	        )
//	    state.latest_execution_payload_bid = bid
func ProcessExecutionPayloadBid(st state.BeaconState, block *blocks.BeaconBlock) error {
	if block == nil || block.Body == nil || block.Body.SignedExecutionPayloadBid == nil || block.Body.SignedExecutionPayloadBid.Message == nil {
		return ErrNilBid
	}
	signed := block.Body.SignedExecutionPayloadBid
	bid := signed.Message
	if err := ValidatePayloadBidAgainstBuilder(st, signed); err != nil {
		return err
	}
	if err := validateBidContext(st, block, bid); err != nil {
		return err
	}
	if !bid.IsSelfBuild() {
		if err := VerifyExecutionPayloadBidSignature(st, signed); err != nil {
			return err
		}
	}

	if bid.Value > 0 {
		p := epbstypes.NewBuilderPendingPayment()
		p.Withdrawal = epbstypes.BuilderPendingWithdrawal{
			FeeRecipient: bid.FeeRecipient,
			Amount:       bid.Value,
			BuilderIndex: bid.BuilderIndex,
		}
		if err := st.SetBuilderPendingPaymentAtIndex(PaymentIndex(bid.Slot), p); err != nil {
			return errors.Wrap(err, "could not record builder pending payment")
		}
	}
	if err := st.SetLatestExecutionPayloadBid(bid); err != nil {
		return err
	}
	kind := "external"
	if bid.IsSelfBuild() {
		kind = "self"
	}
	processedBidsCount.WithLabelValues(kind).Inc()
	log.WithFields(logrus.Fields{
		"slot":    bid.Slot,
		"builder": bid.BuilderIndex,
		"value":   bid.Value,
	}).Debug("Processed execution payload bid")
	return nil
}

// ValidatePayloadBidAgainstBuilder runs the checks of a bid that depend only on
// the builder: self-build rules, or activity and solvency of an external builder.
func ValidatePayloadBidAgainstBuilder(st state.ReadOnlyBeaconState, signed *epbstypes.SignedExecutionPayloadBid) error {
	if signed == nil || signed.Message == nil {
		return ErrNilBid
	}
	bid := signed.Message
	if bid.IsSelfBuild() {
		if bid.Value != 0 {
			return ErrSelfBuildNonZeroValue
		}
		if !bls.IsInfiniteSignature(signed.Signature[:]) {
			return ErrSelfBuildSignature
		}
		return nil
	}
	active, err := IsActiveBuilder(st, bid.BuilderIndex)
	if err != nil {
		return err
	}
	if !active {
		return errors.Wrapf(ErrInactiveBuilder, "builder %d", bid.BuilderIndex)
	}
	return CanBuilderCoverBid(st, bid.BuilderIndex, bid.Value)
}

func validateBidContext(st state.ReadOnlyBeaconState, block *blocks.BeaconBlock, bid *epbstypes.ExecutionPayloadBid) error {
	if bid.Slot != block.Slot {
		return errors.Wrapf(ErrBidSlotMismatch, "bid slot %d, block slot %d", bid.Slot, block.Slot)
	}
	if bid.ParentBlockHash != st.LatestBlockHash() {
		return ErrBidParentHashMismatch
	}
	if bid.ParentBlockRoot != block.ParentRoot {
		return ErrBidParentRootMismatch
	}
	mix, err := helpers.RandaoMix(st, slots.ToEpoch(st.Slot()))
	if err != nil {
		return err
	}
	if bid.PrevRandao != mix {
		return ErrBidPrevRandaoMismatch
	}
	if uint64(len(bid.BlobKzgCommitments)) > params.BeaconConfig().MaxBlobsPerBlock {
		return errors.Wrapf(ErrTooManyBlobCommitments, "%d commitments", len(bid.BlobKzgCommitments))
	}
	return nil
}

// VerifyExecutionPayloadBidSignature verifies the builder's signature over a bid.
//
// Spec pseudocode definition:
//
//	def verify_execution_payload_bid_signature(state: BeaconState, signed_bid: SignedExecutionPayloadBid) -> bool:
//	    builder = state.builders[signed_bid.message.builder_index]
//	    signing_root = compute_signing_root(signed_bid.message, get_domain(state, DOMAIN_BEACON_BUILDER))
//	    return bls.Verify(builder.pubkey, signing_root, signed_bid.signature)
func VerifyExecutionPayloadBidSignature(st state.ReadOnlyBeaconState, signed *epbstypes.SignedExecutionPayloadBid) error {
	b, err := st.BuilderAtIndex(signed.Message.BuilderIndex)
	if err != nil {
		return errors.Wrap(ErrUnknownBuilder, err.Error())
	}
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(signed.Message.Slot), params.BeaconConfig().DomainBeaconBuilder, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	if err := signing.VerifySigningRoot(signed.Message, b.Pubkey, signed.Signature, domain); err != nil {
		return errors.Wrap(ErrInvalidBidSignature, err.Error())
	}
	return nil
}
