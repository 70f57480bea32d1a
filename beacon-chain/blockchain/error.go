package blockchain

import "github.com/pkg/errors"

var (
	// ErrUnknownParent is returned when the parent of a block is not known yet. The block
	// is parked and imported again once its parent arrives.
	ErrUnknownParent = errors.New("unknown parent block")
	// ErrUnknownParentPayload is returned when a block builds on a parent payload that has
	// not been revealed yet. The block is parked until the payload arrives.
	ErrUnknownParentPayload = errors.New("unknown parent payload")
	// ErrUnknownBlock is returned when a message refers to a block fork choice does not know.
	ErrUnknownBlock = errors.New("unknown block root")
	// ErrInvalidPayload is returned when the payload is invalid
	ErrInvalidPayload = invalidBlock{error: errors.New("received an INVALID payload from execution engine")}
	// ErrUndefinedExecutionEngineError is returned when the execution engine returns an error that is not defined
	ErrUndefinedExecutionEngineError = errors.New("received an undefined execution engine error")
	// ErrNotInPTC is returned for a payload attestation from a validator with no seat in the slot's committee.
	ErrNotInPTC = errors.New("validator is not a member of the payload timeliness committee")
	// errBlockBeforeFinalized is returned for a block at or below the finalized slot.
	errBlockBeforeFinalized = errors.New("block is not later than the finalized checkpoint")
	// errNilEnvelope is returned for a nil payload envelope.
	errNilEnvelope = errors.New("nil execution payload envelope")
	// errNilAttestation is returned for a nil payload attestation message.
	errNilAttestation = errors.New("nil payload attestation message")
	// errNotInitialized is returned when the service is queried before genesis data is saved.
	errNotInitialized = errors.New("chain service is not initialized")
)

// An invalid block is the block that fails state transition based on the core protocol rules.
// The beacon node shall not be accepting nor building blocks that branch off from an invalid block.
// Some examples of invalid blocks are:
// The block violates state transition rules.
// The payload revealed for the block is deemed invalid according to execution layer client.
// The block violates certain fork choice rules (before finalized slot)
type invalidBlock struct {
	error
	root          [32]byte
	lastValidHash []byte
}

type invalidBlockError interface {
	Error() string
	BlockRoot() [32]byte
	LastValidHash() []byte
}

// BlockRoot returns the invalid block root.
func (e invalidBlock) BlockRoot() [32]byte {
	return e.root
}

// LastValidHash returns the latest valid execution hash reported by the engine, if any.
func (e invalidBlock) LastValidHash() []byte {
	return e.lastValidHash
}

// Unwrap exposes the underlying rejection reason.
func (e invalidBlock) Unwrap() error {
	return e.error
}

// IsInvalidBlock returns true if the error has `invalidBlock`.
func IsInvalidBlock(e error) bool {
	if e == nil {
		return false
	}
	_, ok := e.(invalidBlockError)
	if !ok {
		return IsInvalidBlock(errors.Unwrap(e))
	}
	return true
}

// InvalidBlockRoot returns the invalid block root. If the error
// doesn't have an invalid blockroot. [32]byte{} is returned.
func InvalidBlockRoot(e error) [32]byte {
	if e == nil {
		return [32]byte{}
	}
	d, ok := e.(invalidBlockError)
	if !ok {
		return InvalidBlockRoot(errors.Unwrap(e))
	}
	return d.BlockRoot()
}

// A fatal error means the node's own data is inconsistent: a state that should be stored
// is missing or unreadable, or an internal invariant does not hold. It is not a consensus
// fault of the block being imported and halts the affected import path.
type fatalError struct {
	error
}

// Unwrap exposes the underlying failure.
func (e fatalError) Unwrap() error {
	return e.error
}

func fatal(err error, msg string) error {
	return fatalError{error: errors.Wrap(err, msg)}
}

// IsFatal returns true if the error signals storage corruption or a broken invariant.
func IsFatal(e error) bool {
	var f fatalError
	return errors.As(e, &f)
}

// IsDeferrable returns true if the block could not be imported only because something it
// depends on has not arrived yet.
func IsDeferrable(e error) bool {
	return errors.Is(e, ErrUnknownParent) || errors.Is(e, ErrUnknownParentPayload)
}
