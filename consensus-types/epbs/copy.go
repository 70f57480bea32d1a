package epbs

import (
	"github.com/prysmaticlabs/go-bitfield"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
)

// Copy returns a deep copy of the builder.
func (b *Builder) Copy() *Builder {
	if b == nil {
		return nil
	}
	cp := *b
	return &cp
}

// Copy returns a deep copy of the bid.
func (b *ExecutionPayloadBid) Copy() *ExecutionPayloadBid {
	if b == nil {
		return nil
	}
	cp := *b
	cp.BlobKzgCommitments = copyCommitments(b.BlobKzgCommitments)
	return &cp
}

// Copy returns a deep copy of the signed bid.
func (b *SignedExecutionPayloadBid) Copy() *SignedExecutionPayloadBid {
	if b == nil {
		return nil
	}
	return &SignedExecutionPayloadBid{
		Message:   b.Message.Copy(),
		Signature: b.Signature,
	}
}

// Copy returns a deep copy of the payload.
func (e *ExecutionPayload) Copy() *ExecutionPayload {
	if e == nil {
		return nil
	}
	cp := *e
	cp.ExtraData = bytesutil.SafeCopyBytes(e.ExtraData)
	cp.Transactions = bytesutil.SafeCopy2dBytes(e.Transactions)
	if e.Withdrawals != nil {
		cp.Withdrawals = make([]*Withdrawal, len(e.Withdrawals))
		for i, w := range e.Withdrawals {
			if w != nil {
				wc := *w
				cp.Withdrawals[i] = &wc
			}
		}
	}
	return &cp
}

// Copy returns a deep copy of the envelope.
func (e *ExecutionPayloadEnvelope) Copy() *ExecutionPayloadEnvelope {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Payload = e.Payload.Copy()
	cp.BlobKzgCommitments = copyCommitments(e.BlobKzgCommitments)
	return &cp
}

// Copy returns a deep copy of the signed envelope.
func (e *SignedExecutionPayloadEnvelope) Copy() *SignedExecutionPayloadEnvelope {
	if e == nil {
		return nil
	}
	return &SignedExecutionPayloadEnvelope{
		Message:   e.Message.Copy(),
		Signature: e.Signature,
	}
}

// Copy returns a deep copy of the attestation data.
func (p *PayloadAttestationData) Copy() *PayloadAttestationData {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Copy returns a deep copy of the payload attestation.
func (p *PayloadAttestation) Copy() *PayloadAttestation {
	if p == nil {
		return nil
	}
	return &PayloadAttestation{
		AggregationBits: bitfield.Bitvector512(bytesutil.SafeCopyBytes(p.AggregationBits)),
		Data:            p.Data.Copy(),
		Signature:       p.Signature,
	}
}

// Copy returns a deep copy of the pending payment.
func (p *BuilderPendingPayment) Copy() *BuilderPendingPayment {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Participation = bitfield.Bitvector512(bytesutil.SafeCopyBytes(p.Participation))
	return &cp
}

func copyCommitments(c [][fieldparams.KzgCommitmentLength]byte) [][fieldparams.KzgCommitmentLength]byte {
	if c == nil {
		return nil
	}
	cp := make([][fieldparams.KzgCommitmentLength]byte, len(c))
	copy(cp, c)
	return cp
}
