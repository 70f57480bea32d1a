package execution

import "github.com/pkg/errors"

var (
	// ErrAcceptedSyncingPayloadStatus when the status of the payload is syncing or accepted.
	ErrAcceptedSyncingPayloadStatus = errors.New("payload status is SYNCING or ACCEPTED")
	// ErrInvalidPayloadStatus when the status of the payload is invalid.
	ErrInvalidPayloadStatus = errors.New("payload status is INVALID")
	// ErrInvalidBlockHashPayloadStatus when the status of the payload fails to validate block hash.
	// It matches ErrInvalidPayloadStatus under errors.Is.
	ErrInvalidBlockHashPayloadStatus = errors.Wrap(ErrInvalidPayloadStatus, "could not validate block hash")
	// ErrUnknownPayloadStatus when the payload status is unknown.
	ErrUnknownPayloadStatus = errors.New("unknown payload status")
	// ErrNilResponse when the engine returns an empty result.
	ErrNilResponse = errors.New("nil response from execution engine")
	// ErrNilPayload when asked to send a nil payload.
	ErrNilPayload = errors.New("nil execution payload")
	// ErrInvalidJWTSecret when the configured secret is not 32 bytes of hex.
	ErrInvalidJWTSecret = errors.New("invalid jwt secret")
)
