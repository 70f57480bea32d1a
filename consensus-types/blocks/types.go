// Package blocks defines the consensus block containers. A block commits to an
// execution payload bid instead of carrying the payload itself.
package blocks

import (
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// Checkpoint is an epoch and the root of the block at its start.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [32]byte
}

// Fork describes the active fork version of a state.
type Fork struct {
	PreviousVersion [fieldparams.VersionLength]byte
	CurrentVersion  [fieldparams.VersionLength]byte
	Epoch           primitives.Epoch
}

// BeaconBlockHeader is the summary of a block stored in the state.
type BeaconBlockHeader struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    [32]byte
	StateRoot     [32]byte
	BodyRoot      [32]byte
}

// SignedBeaconBlockHeader wraps a header with the proposer's signature.
type SignedBeaconBlockHeader struct {
	Header    *BeaconBlockHeader
	Signature [fieldparams.BLSSignatureLength]byte
}

// ProposerSlashing proves that a proposer signed two different headers for one slot.
type ProposerSlashing struct {
	Header_1 *SignedBeaconBlockHeader
	Header_2 *SignedBeaconBlockHeader
}

// BeaconBlockBody carries the operations of a block.
type BeaconBlockBody struct {
	RandaoReveal              [fieldparams.BLSSignatureLength]byte
	Graffiti                  [32]byte
	ProposerSlashings         []*ProposerSlashing
	SignedExecutionPayloadBid *epbs.SignedExecutionPayloadBid
	PayloadAttestations       []*epbs.PayloadAttestation
}

// BeaconBlock is the consensus block.
type BeaconBlock struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    [32]byte
	StateRoot     [32]byte
	Body          *BeaconBlockBody
}

// SignedBeaconBlock wraps a block with the proposer's signature.
type SignedBeaconBlock struct {
	Block     *BeaconBlock
	Signature [fieldparams.BLSSignatureLength]byte
}

// Bid returns the bid the block commits to, or nil.
func (b *BeaconBlock) Bid() *epbs.ExecutionPayloadBid {
	if b == nil || b.Body == nil || b.Body.SignedExecutionPayloadBid == nil {
		return nil
	}
	return b.Body.SignedExecutionPayloadBid.Message
}

// Header returns the header of the block.
func (b *BeaconBlock) Header() (*BeaconBlockHeader, error) {
	if b == nil || b.Body == nil {
		return nil, ErrNilBlock
	}
	bodyRoot, err := b.Body.HashTreeRoot()
	if err != nil {
		return nil, err
	}
	return &BeaconBlockHeader{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    b.ParentRoot,
		StateRoot:     b.StateRoot,
		BodyRoot:      bodyRoot,
	}, nil
}

// Copy returns a deep copy of the header.
func (h *BeaconBlockHeader) Copy() *BeaconBlockHeader {
	if h == nil {
		return nil
	}
	cp := *h
	return &cp
}

// Copy returns a deep copy of the signed block.
func (b *SignedBeaconBlock) Copy() *SignedBeaconBlock {
	if b == nil {
		return nil
	}
	cp := &SignedBeaconBlock{Signature: b.Signature}
	if b.Block != nil {
		blk := *b.Block
		if b.Block.Body != nil {
			body := *b.Block.Body
			body.SignedExecutionPayloadBid = b.Block.Body.SignedExecutionPayloadBid.Copy()
			body.ProposerSlashings = make([]*ProposerSlashing, len(b.Block.Body.ProposerSlashings))
			for i, s := range b.Block.Body.ProposerSlashings {
				body.ProposerSlashings[i] = s.Copy()
			}
			body.PayloadAttestations = make([]*epbs.PayloadAttestation, len(b.Block.Body.PayloadAttestations))
			for i, a := range b.Block.Body.PayloadAttestations {
				body.PayloadAttestations[i] = a.Copy()
			}
			blk.Body = &body
		}
		cp.Block = &blk
	}
	return cp
}

// Copy returns a deep copy of the slashing.
func (s *ProposerSlashing) Copy() *ProposerSlashing {
	if s == nil {
		return nil
	}
	return &ProposerSlashing{Header_1: s.Header_1.Copy(), Header_2: s.Header_2.Copy()}
}

// Copy returns a deep copy of the signed header.
func (h *SignedBeaconBlockHeader) Copy() *SignedBeaconBlockHeader {
	if h == nil {
		return nil
	}
	return &SignedBeaconBlockHeader{Header: h.Header.Copy(), Signature: h.Signature}
}

// BeaconBlockIsNil checks if any composite field of input signed beacon block is nil.
func BeaconBlockIsNil(b *SignedBeaconBlock) error {
	if b == nil || b.Block == nil || b.Block.Body == nil {
		return ErrNilBlock
	}
	if b.Block.Body.SignedExecutionPayloadBid == nil || b.Block.Body.SignedExecutionPayloadBid.Message == nil {
		return ErrNilBid
	}
	return nil
}
