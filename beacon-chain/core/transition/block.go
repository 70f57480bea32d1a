package transition

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/epbs"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	consensusblocks "github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// ExecuteStateTransition advances st through empty slots to the slot of the block and
// applies the block. st is modified in place; callers that need the pre-state keep a copy.
//
// Spec pseudocode definition:
//
//	def state_transition(state: BeaconState, signed_block: ReadOnlySignedBeaconBlock, validate_result: bool=True) -> None:
//	  block = signed_block.message
//	  # Process slots (including those with no blocks) since block
//	  process_slots(state, block.slot)
//	  # Verify signature
//	  if validate_result:
//	      assert verify_block_signature(state, signed_block)
//	  # Process block
//	  process_block(state, block)
func ExecuteStateTransition(ctx context.Context, st state.BeaconState, signed *consensusblocks.SignedBeaconBlock) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := consensusblocks.BeaconBlockIsNil(signed); err != nil {
		return err
	}
	ctx, span := trace.StartSpan(ctx, "core.state.ExecuteStateTransition")
	defer span.End()

	if st.Slot() < signed.Block.Slot {
		if err := ProcessSlots(ctx, st, signed.Block.Slot); err != nil {
			return errors.Wrap(err, "could not process slots")
		}
	}
	if err := blocks.VerifyBlockSignature(st, signed); err != nil {
		return err
	}
	return ProcessBlock(ctx, st, signed.Block)
}

// ProcessBlock applies the operations of a block whose proposer signature was already
// checked. The payload committed to by the block is not part of it and is applied
// separately with ProcessExecutionPayload once revealed.
//
// Spec pseudocode definition:
//
//	def process_block(state: BeaconState, block: BeaconBlock) -> None:
//	    process_block_header(state, block)
//	    process_withdrawals(state)
//	    process_execution_payload_bid(state, block)
//	    process_randao(state, block.body)
//	    process_operations(state, block.body)
func ProcessBlock(ctx context.Context, st state.BeaconState, block *consensusblocks.BeaconBlock) error {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessBlock")
	defer span.End()

	if block == nil || block.Body == nil {
		return consensusblocks.ErrNilBlock
	}
	if err := blocks.ProcessBlockHeaderNoVerify(st, block); err != nil {
		return errors.Wrap(err, "could not process block header")
	}
	if err := epbs.ProcessBuilderWithdrawalSweep(st); err != nil {
		return errors.Wrap(err, "could not process builder withdrawals")
	}
	if err := epbs.ProcessExecutionPayloadBid(st, block); err != nil {
		return errors.Wrap(err, "could not process execution payload bid")
	}
	if err := blocks.ProcessRandao(st, block.Body); err != nil {
		return errors.Wrap(err, "could not process randao")
	}
	if err := blocks.ProcessProposerSlashings(st, block.Body); err != nil {
		return errors.Wrap(err, "could not process proposer slashings")
	}
	if err := epbs.ProcessPayloadAttestations(ctx, st, block.Body); err != nil {
		return errors.Wrap(err, "could not process payload attestations")
	}
	blocksProcessed.Inc()
	log.WithFields(logrus.Fields{
		"slot":     block.Slot,
		"proposer": block.ProposerIndex,
		"builder":  block.Body.SignedExecutionPayloadBid.Message.BuilderIndex,
	}).Debug("Processed beacon block")
	return nil
}

// ProcessExecutionPayload applies a revealed payload on top of the post-state of the
// block that committed to it.
func ProcessExecutionPayload(ctx context.Context, st state.BeaconState, signed *epbstypes.SignedExecutionPayloadEnvelope, verifySignature bool) error {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessExecutionPayload")
	defer span.End()
	return epbs.ProcessExecutionPayload(ctx, st, signed, verifySignature)
}
