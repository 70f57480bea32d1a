package epbs

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/hash"
)

// blobCommitmentVersionKZG is the version byte of a KZG versioned hash.
const blobCommitmentVersionKZG = 0x01

// GetAttestingIndices returns the attesting indices, or nil for a nil attestation.
func (x *IndexedPayloadAttestation) GetAttestingIndices() []primitives.ValidatorIndex {
	if x != nil {
		return x.AttestingIndices
	}
	return nil
}

// GetData returns the attestation data, or nil for a nil attestation.
func (x *IndexedPayloadAttestation) GetData() *PayloadAttestationData {
	if x != nil {
		return x.Data
	}
	return nil
}

// GetData returns the attestation data, or nil for a nil attestation.
func (x *PayloadAttestation) GetData() *PayloadAttestationData {
	if x != nil {
		return x.Data
	}
	return nil
}

// GetMessage returns the bid, or nil.
func (x *SignedExecutionPayloadBid) GetMessage() *ExecutionPayloadBid {
	if x != nil {
		return x.Message
	}
	return nil
}

// GetMessage returns the envelope, or nil.
func (x *SignedExecutionPayloadEnvelope) GetMessage() *ExecutionPayloadEnvelope {
	if x != nil {
		return x.Message
	}
	return nil
}

// IsActive returns true when the builder had its deposit finalized and has not
// initiated an exit.
//
// Spec pseudocode definition:
//
//	def is_active_builder(state: BeaconState, builder_index: BuilderIndex) -> bool:
//	    builder = state.builders[builder_index]
//	    return (
//	        builder.deposit_epoch < state.finalized_checkpoint.epoch
//	        and builder.withdrawable_epoch == FAR_FUTURE_EPOCH
//	    )
func (b *Builder) IsActive(finalizedEpoch, farFutureEpoch primitives.Epoch) bool {
	return b != nil && b.DepositEpoch < finalizedEpoch && b.WithdrawableEpoch == farFutureEpoch
}

// VersionedHashes returns the EIP-4844 versioned hashes of the envelope's blob commitments.
func (e *ExecutionPayloadEnvelope) VersionedHashes() []common.Hash {
	if e == nil {
		return nil
	}
	hashes := make([]common.Hash, len(e.BlobKzgCommitments))
	for i := range e.BlobKzgCommitments {
		h := hash.Hash(e.BlobKzgCommitments[i][:])
		h[0] = blobCommitmentVersionKZG
		hashes[i] = common.Hash(h)
	}
	return hashes
}

// IsSettled reports whether the payment has already been resolved, either executed or forfeited.
func (p *BuilderPendingPayment) IsSettled() bool {
	return p != nil && p.Settled
}
