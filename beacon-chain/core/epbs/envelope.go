package epbs

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// ProcessExecutionPayload applies a revealed payload envelope on top of the post-state
// of the block that committed to it. The execution layer validation of the payload
// itself is the caller's concern; this only checks consistency with the committed bid.
//
// Spec pseudocode definition:
//
//	def process_execution_payload(state: BeaconState, signed_envelope: SignedExecutionPayloadEnvelope, execution_engine: ExecutionEngine, verify: bool = True) -> None:
//	    if verify:
//	        assert verify_execution_payload_envelope_signature(state, signed_envelope)
//	    envelope = signed_envelope.message
//	    payload = envelope.payload
//	    assert envelope.beacon_block_root == hash_tree_root(state.latest_block_header)
//	    assert envelope.slot == state.slot
//	    bid = state.latest_execution_payload_bid
//	    assert envelope.builder_index == bid.builder_index
//	    assert bid.blob_kzg_commitments == envelope.blob_kzg_commitments
//	    assert bid.prev_randao == payload.prev_randao
//	    assert payload.withdrawals == state.payload_expected_withdrawals
//	    assert bid.gas_limit == payload.gas_limit
//	    assert bid.block_hash == payload.block_hash
//	    assert payload.parent_hash == state.latest_block_hash
//	    assert payload.timestamp == compute_time_at_slot(state, state.slot)
//	    state.latest_block_hash = payload.block_hash
//	    state.latest_full_slot = state.slot
func ProcessExecutionPayload(ctx context.Context, st state.BeaconState, signed *epbstypes.SignedExecutionPayloadEnvelope, verifySignature bool) error {
	_, span := trace.StartSpan(ctx, "epbs.ProcessExecutionPayload")
	defer span.End()

	if signed == nil || signed.Message == nil || signed.Message.Payload == nil {
		return ErrNilEnvelope
	}
	if verifySignature {
		if err := VerifyEnvelopeSignature(st, signed); err != nil {
			return err
		}
	}
	env := signed.Message
	payload := env.Payload

	headerRoot, err := st.LatestBlockHeader().HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash latest block header")
	}
	if env.BeaconBlockRoot != headerRoot {
		return errors.Wrapf(ErrEnvelopeBlockRootMismatch, "envelope root %#x, latest block %#x", env.BeaconBlockRoot, headerRoot)
	}
	if env.Slot != st.Slot() {
		return errors.Wrapf(ErrEnvelopeSlotMismatch, "envelope slot %d, state slot %d", env.Slot, st.Slot())
	}
	bid := st.LatestExecutionPayloadBid()
	if env.BuilderIndex != bid.BuilderIndex {
		return errors.Wrapf(ErrEnvelopeBuilderMismatch, "envelope builder %d, bid builder %d", env.BuilderIndex, bid.BuilderIndex)
	}
	if !equalCommitments(env.BlobKzgCommitments, bid.BlobKzgCommitments) {
		return ErrBlobCommitmentsMismatch
	}
	if payload.PrevRandao != bid.PrevRandao {
		return ErrPayloadPrevRandaoMismatch
	}
	if !equalWithdrawals(payload.Withdrawals, st.PayloadExpectedWithdrawals()) {
		return ErrWithdrawalsMismatch
	}
	if payload.GasLimit != bid.GasLimit {
		return ErrPayloadGasLimitMismatch
	}
	if payload.BlockHash != bid.BlockHash {
		return errors.Wrapf(ErrPayloadBlockHashMismatch, "payload %#x, bid %#x", payload.BlockHash, bid.BlockHash)
	}
	if payload.ParentHash != bid.ParentBlockHash || payload.ParentHash != st.LatestBlockHash() {
		return errors.Wrapf(ErrPayloadParentHashMismatch, "payload parent %#x, bid parent %#x", payload.ParentHash, bid.ParentBlockHash)
	}
	wantTime := st.GenesisTime() + uint64(st.Slot())*params.BeaconConfig().SecondsPerSlot
	if payload.Timestamp != wantTime {
		return errors.Wrapf(ErrPayloadTimestampMismatch, "payload %d, slot time %d", payload.Timestamp, wantTime)
	}

	if err := st.SetLatestBlockHash(payload.BlockHash); err != nil {
		return err
	}
	if err := st.SetLatestFullSlot(st.Slot()); err != nil {
		return err
	}
	processedPayloadsCount.Inc()
	log.WithFields(logrus.Fields{
		"slot":        env.Slot,
		"builder":     env.BuilderIndex,
		"blockHash":   fmtHash(payload.BlockHash),
		"withdrawals": len(payload.Withdrawals),
	}).Debug("Processed execution payload envelope")
	return nil
}

// VerifyEnvelopeSignature verifies the builder signature of an envelope. Envelopes of
// self-built payloads are signed by the proposer of the block.
func VerifyEnvelopeSignature(st state.ReadOnlyBeaconState, signed *epbstypes.SignedExecutionPayloadEnvelope) error {
	if signed == nil || signed.Message == nil {
		return ErrNilEnvelope
	}
	env := signed.Message
	var pub [fieldparams.BLSPubkeyLength]byte
	if env.BuilderIndex == params.BeaconConfig().BuilderIndexSelfBuild {
		pub = st.PubkeyAtIndex(st.LatestBlockHeader().ProposerIndex)
	} else {
		b, err := st.BuilderAtIndex(env.BuilderIndex)
		if err != nil {
			return errors.Wrap(ErrUnknownBuilder, err.Error())
		}
		pub = b.Pubkey
	}
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(env.Slot), params.BeaconConfig().DomainBeaconBuilder, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	if err := signing.VerifySigningRoot(env, pub, signed.Signature, domain); err != nil {
		return errors.Wrap(ErrInvalidEnvelopeSignature, err.Error())
	}
	return nil
}

func equalCommitments(a, b [][fieldparams.KzgCommitmentLength]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalWithdrawals(a, b []*epbstypes.Withdrawal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil || *a[i] != *b[i] {
			return false
		}
	}
	return true
}

func fmtHash(h [32]byte) string {
	return fmt.Sprintf("%#x", h[:4])
}
