package epbs

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	epbstypes "github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/time/slots"
	"go.opencensus.io/trace"
)

// ProcessPayloadAttestations processes every payload attestation of a block body.
func ProcessPayloadAttestations(ctx context.Context, st state.BeaconState, body *blocks.BeaconBlockBody) error {
	ctx, span := trace.StartSpan(ctx, "epbs.ProcessPayloadAttestations")
	defer span.End()

	if body == nil {
		return blocks.ErrNilBlock
	}
	if uint64(len(body.PayloadAttestations)) > params.BeaconConfig().MaxPayloadAttestations {
		return errors.Wrapf(ErrTooManyPayloadAttestations, "%d attestations", len(body.PayloadAttestations))
	}
	if len(body.PayloadAttestations) == 0 {
		return nil
	}
	// Every attestation of a block votes on the same slot.
	ptc, err := GetPTC(ctx, st, st.Slot().SubSlot(1))
	if err != nil {
		return err
	}
	for i, att := range body.PayloadAttestations {
		if err := ProcessPayloadAttestation(ctx, st, att, ptc); err != nil {
			return errors.Wrapf(err, "could not process payload attestation %d", i)
		}
	}
	return nil
}

// ProcessPayloadAttestation validates a payload attestation included in a block and
// accumulates its weight into the pending payment of the attested slot. ptc must be the
// committee of the attested slot.
//
// Spec pseudocode definition:
//
//	def process_payload_attestation(state: BeaconState, payload_attestation: PayloadAttestation) -> None:
//	    data = payload_attestation.data
//	    # Check that the attestation is for the parent beacon block
//	    assert data.beacon_block_root == state.latest_block_header.parent_root
//	    # Check that the attestation is for the previous slot
//	    assert data.slot + 1 == state.slot
//	    # Verify signature
//	    indexed_payload_attestation = get_indexed_payload_attestation(state, data.slot, payload_attestation)
//	    assert is_valid_indexed_payload_attestation(state, indexed_payload_attestation)
func ProcessPayloadAttestation(ctx context.Context, st state.BeaconState, att *epbstypes.PayloadAttestation, ptc []primitives.ValidatorIndex) error {
	if att == nil || att.Data == nil {
		return ErrNilPayloadAttestation
	}
	data := att.Data
	if data.BeaconBlockRoot != st.LatestBlockHeader().ParentRoot {
		return ErrPayloadAttestationBlockRoot
	}
	if data.Slot+1 != st.Slot() {
		return errors.Wrapf(ErrPayloadAttestationSlot, "attestation slot %d, state slot %d", data.Slot, st.Slot())
	}
	indexed, err := IndexedPayloadAttestation(ptc, att)
	if err != nil {
		return err
	}
	if err := VerifyIndexedPayloadAttestation(st, indexed); err != nil {
		return err
	}
	processedPayloadAttestationsCount.Inc()
	return AccumulatePaymentWeight(st, data, ptc, att.AggregationBits)
}

// IndexedPayloadAttestation resolves the aggregation bits of att against the committee.
//
// Spec pseudocode definition:
//
//	def get_indexed_payload_attestation(state: BeaconState, slot: Slot,
//	                                    payload_attestation: PayloadAttestation) -> IndexedPayloadAttestation:
//	    ptc = get_ptc(state, slot)
//	    bits = payload_attestation.aggregation_bits
//	    attesting_indices = [index for i, index in enumerate(ptc) if bits[i]]
//	    return IndexedPayloadAttestation(
//	        attesting_indices=sorted(attesting_indices),
//	        data=payload_attestation.data,
//	        signature=payload_attestation.signature,
//	    )
func IndexedPayloadAttestation(ptc []primitives.ValidatorIndex, att *epbstypes.PayloadAttestation) (*epbstypes.IndexedPayloadAttestation, error) {
	if att == nil || att.Data == nil {
		return nil, ErrNilPayloadAttestation
	}
	if len(att.AggregationBits) != fieldparams.PTCBitvectorLength {
		return nil, errors.Errorf("aggregation bits have byte length %d, expected %d", len(att.AggregationBits), fieldparams.PTCBitvectorLength)
	}
	indices := make([]primitives.ValidatorIndex, 0, att.AggregationBits.Count())
	for _, seat := range att.AggregationBits.BitIndices() {
		if seat >= len(ptc) {
			return nil, errors.Errorf("aggregation bit %d set beyond committee size %d", seat, len(ptc))
		}
		indices = append(indices, ptc[seat])
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return &epbstypes.IndexedPayloadAttestation{
		AttestingIndices: indices,
		Data:             att.Data.Copy(),
		Signature:        att.Signature,
	}, nil
}

// VerifyIndexedPayloadAttestation checks that the attesting indices are non-empty and
// sorted, and verifies the aggregate signature. Adjacent equal indices are allowed as a
// validator may hold several seats.
//
// Spec pseudocode definition:
//
//	def is_valid_indexed_payload_attestation(state: BeaconState,
//	                                         indexed_payload_attestation: IndexedPayloadAttestation) -> bool:
//	    indices = indexed_payload_attestation.attesting_indices
//	    if len(indices) == 0 or not indices == sorted(indices):
//	        return False
//	    pubkeys = [state.validators[i].pubkey for i in indices]
//	    domain = get_domain(state, DOMAIN_PTC_ATTESTER, None)
//	    signing_root = compute_signing_root(indexed_payload_attestation.data, domain)
//	    return bls.FastAggregateVerify(pubkeys, signing_root, indexed_payload_attestation.signature)
func VerifyIndexedPayloadAttestation(st state.ReadOnlyBeaconState, indexed *epbstypes.IndexedPayloadAttestation) error {
	if indexed == nil || indexed.Data == nil {
		return ErrNilPayloadAttestation
	}
	indices := indexed.AttestingIndices
	if len(indices) == 0 {
		return ErrEmptyPayloadAttestation
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] < indices[i-1] {
			return ErrUnsortedAttestingIndices
		}
	}
	numVals := uint64(st.NumValidators())
	pubs := make([][fieldparams.BLSPubkeyLength]byte, len(indices))
	for i, idx := range indices {
		if uint64(idx) >= numVals {
			return errors.Errorf("attesting index %d out of range", idx)
		}
		pubs[i] = st.PubkeyAtIndex(idx)
	}
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(indexed.Data.Slot), params.BeaconConfig().DomainPTCAttester, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	if err := signing.VerifyAggregateSigningRoot(indexed.Data, pubs, indexed.Signature, domain); err != nil {
		return errors.Wrap(ErrInvalidPayloadAttestationSignature, err.Error())
	}
	return nil
}

// VerifyPayloadAttestationMessage verifies a single PTC member's vote as received over gossip.
func VerifyPayloadAttestationMessage(st state.ReadOnlyBeaconState, msg *epbstypes.PayloadAttestationMessage) error {
	if msg == nil || msg.Data == nil {
		return ErrNilPayloadAttestation
	}
	if uint64(msg.ValidatorIndex) >= uint64(st.NumValidators()) {
		return errors.Errorf("validator index %d out of range", msg.ValidatorIndex)
	}
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(msg.Data.Slot), params.BeaconConfig().DomainPTCAttester, st.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	if err := signing.VerifySigningRoot(msg.Data, st.PubkeyAtIndex(msg.ValidatorIndex), msg.Signature, domain); err != nil {
		return errors.Wrap(ErrInvalidPayloadAttestationSignature, err.Error())
	}
	return nil
}
