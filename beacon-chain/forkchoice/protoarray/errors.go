package protoarray

import "github.com/pkg/errors"

// ErrNilNode is returned for a root the store does not know.
var ErrNilNode = errors.New("invalid nil or unknown node")

// ErrUnknownParent is returned when a block's parent is not in the store. Callers
// defer the block until the parent arrives.
var ErrUnknownParent = errors.New("unknown parent root")

// ErrUnknownParentPayload is returned when a block builds on a payload whose reveal
// has not been inserted yet.
var ErrUnknownParentPayload = errors.New("unknown parent payload")

var errInvalidNodeDelta = errors.New("node weight delta underflows")
var errInvalidProposerBoostRoot = errors.New("invalid proposer boost root")
var errUnknownJustifiedRoot = errors.New("unknown justified root")
var errPayloadHashMismatch = errors.New("payload hash does not match committed bid")
var errAncestorPruned = errors.New("ancestor is below the tree root")
