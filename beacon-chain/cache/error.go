package cache

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

var (
	// ErrNotFound for cache fetches that return a nil value.
	ErrNotFound = errors.New("not found in cache")
	// ErrNilEnvelope is returned when buffering a nil payload envelope.
	ErrNilEnvelope = errors.New("nil payload envelope")
	// ErrBuilderEquivocation matches any *BuilderEquivocationError.
	ErrBuilderEquivocation = errors.New("builder equivocation")
	// ErrValidatorEquivocation matches any *ValidatorEquivocationError.
	ErrValidatorEquivocation = errors.New("validator equivocation")
)

// BuilderEquivocationError is returned when a builder signs two different bids for the
// same slot. First is the bid root that was accepted, Second the rejected one.
type BuilderEquivocationError struct {
	Builder primitives.BuilderIndex
	Slot    primitives.Slot
	First   [32]byte
	Second  [32]byte
}

func (e *BuilderEquivocationError) Error() string {
	return fmt.Sprintf("builder %d equivocated at slot %d: bid %#x conflicts with %#x", e.Builder, e.Slot, e.Second, e.First)
}

// Is allows errors.Is(err, ErrBuilderEquivocation).
func (e *BuilderEquivocationError) Is(target error) bool {
	return target == ErrBuilderEquivocation
}

// ValidatorEquivocationError is returned when a PTC member attests to two different
// payload attestation data for the same slot.
type ValidatorEquivocationError struct {
	Validator primitives.ValidatorIndex
	Slot      primitives.Slot
	First     [32]byte
	Second    [32]byte
}

func (e *ValidatorEquivocationError) Error() string {
	return fmt.Sprintf("validator %d equivocated at slot %d: data %#x conflicts with %#x", e.Validator, e.Slot, e.Second, e.First)
}

// Is allows errors.Is(err, ErrValidatorEquivocation).
func (e *ValidatorEquivocationError) Is(target error) bool {
	return target == ErrValidatorEquivocation
}
