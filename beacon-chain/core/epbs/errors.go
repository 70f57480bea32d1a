package epbs

import "github.com/pkg/errors"

// Bid validation errors.
var (
	ErrNilBid                 = errors.New("nil execution payload bid")
	ErrUnknownBuilder         = errors.New("unknown builder index")
	ErrInactiveBuilder        = errors.New("builder is not active")
	ErrInsufficientBalance    = errors.New("builder balance cannot cover bid")
	ErrSelfBuildNonZeroValue  = errors.New("self-built bid must have zero value")
	ErrSelfBuildSignature     = errors.New("self-built bid must carry the infinity signature")
	ErrBidSlotMismatch        = errors.New("bid slot does not match block slot")
	ErrBidParentHashMismatch  = errors.New("bid parent block hash does not match latest block hash")
	ErrBidParentRootMismatch  = errors.New("bid parent block root does not match block parent root")
	ErrBidPrevRandaoMismatch  = errors.New("bid prev randao does not match current randao mix")
	ErrTooManyBlobCommitments = errors.New("too many blob kzg commitments")
	ErrInvalidBidSignature    = errors.New("invalid execution payload bid signature")
)

// Payload attestation errors.
var (
	ErrNilPayloadAttestation              = errors.New("nil payload attestation")
	ErrTooManyPayloadAttestations         = errors.New("too many payload attestations in block")
	ErrPayloadAttestationSlot             = errors.New("payload attestation is not for the previous slot")
	ErrPayloadAttestationBlockRoot        = errors.New("payload attestation does not reference the parent block")
	ErrEmptyPayloadAttestation            = errors.New("payload attestation has no attesters")
	ErrUnsortedAttestingIndices           = errors.New("attesting indices are not sorted")
	ErrInvalidPayloadAttestationSignature = errors.New("invalid payload attestation signature")
	ErrNotInPTC                           = errors.New("validator is not a member of the payload timeliness committee")
	ErrEmptyPTC                           = errors.New("no validators to select the payload timeliness committee from")
)

// Execution payload envelope errors.
var (
	ErrNilEnvelope               = errors.New("nil execution payload envelope")
	ErrEnvelopeSlotMismatch      = errors.New("envelope slot does not match state slot")
	ErrEnvelopeBuilderMismatch   = errors.New("envelope builder does not match committed bid")
	ErrEnvelopeBlockRootMismatch = errors.New("envelope beacon block root does not match latest block")
	ErrPayloadBlockHashMismatch  = errors.New("payload block hash does not match committed bid")
	ErrPayloadParentHashMismatch = errors.New("payload parent hash does not match committed bid")
	ErrPayloadPrevRandaoMismatch = errors.New("payload prev randao does not match committed bid")
	ErrPayloadGasLimitMismatch   = errors.New("payload gas limit does not match committed bid")
	ErrPayloadTimestampMismatch  = errors.New("payload timestamp does not match slot time")
	ErrWithdrawalsMismatch       = errors.New("payload withdrawals do not match expected withdrawals")
	ErrBlobCommitmentsMismatch   = errors.New("envelope blob commitments do not match committed bid")
	ErrInvalidEnvelopeSignature  = errors.New("invalid execution payload envelope signature")
)
