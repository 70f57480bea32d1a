package blocks

import "github.com/pkg/errors"

var (
	errNilSignedBlock = errors.New("signed beacon block can't be nil")

	// ErrBlockSlotMismatch is returned when a block is not for the slot of the state it is applied to.
	ErrBlockSlotMismatch = errors.New("block slot does not match state slot")
	// ErrBlockNotNewer is returned when a block is not newer than the latest block header.
	ErrBlockNotNewer = errors.New("block is not newer than latest block header")
	// ErrWrongProposer is returned when a block's proposer index is not the expected proposer.
	ErrWrongProposer = errors.New("block proposer index does not match expected proposer")
	// ErrParentRootMismatch is returned when a block does not build on the latest block header.
	ErrParentRootMismatch = errors.New("parent root does not match the latest block header")
	// ErrProposerSlashed is returned when a block is proposed by a slashed validator.
	ErrProposerSlashed = errors.New("proposer is slashed")
	// ErrInvalidBlockSignature is returned when a block proposer signature does not verify.
	ErrInvalidBlockSignature = errors.New("invalid block signature")
	// ErrInvalidRandaoReveal is returned when a randao reveal does not verify.
	ErrInvalidRandaoReveal = errors.New("invalid randao reveal")
)

// Proposer slashing errors.
var (
	ErrNilProposerSlashing        = errors.New("nil proposer slashing")
	ErrProposerSlashingSlot       = errors.New("mismatched header slots")
	ErrProposerSlashingProposer   = errors.New("mismatched indices")
	ErrProposerSlashingSameHeader = errors.New("expected slashing headers to differ")
	ErrProposerNotSlashable       = errors.New("validator is not slashable")
)
