package forkchoice

import (
	"context"

	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// ForkChoicer represents the full fork choice interface composed of all the sub-interfaces.
type ForkChoicer interface {
	HeadRetriever        // to compute head.
	BlockProcessor       // to track new blocks and payloads for fork choice.
	AttestationProcessor // to track new attestation for fork choice.
	Getter               // to retrieve fork choice information.
	Setter               // to set fork choice information.
}

// HeadRetriever retrieves head root of the current chain.
type HeadRetriever interface {
	Head(context.Context, []uint64) (forkchoicetypes.ForkChoiceNode, error)
	CachedHeadRoot() [32]byte
}

// BlockProcessor processes the block that's used for accounting fork choice.
type BlockProcessor interface {
	InsertNode(context.Context, state.ReadOnlyBeaconState, [32]byte) error
	InsertPayloadEnvelope(context.Context, *epbs.ExecutionPayloadEnvelope) error
}

// AttestationProcessor processes the attestation that's used for accounting fork choice.
type AttestationProcessor interface {
	ProcessAttestation(ctx context.Context, validatorIndices []uint64, blockRoot [32]byte, slot primitives.Slot, payloadPresent bool)
	ProcessPayloadAttestation(ctx context.Context, blockRoot [32]byte, seats []uint64, payloadPresent bool)
	InsertSlashedIndex(context.Context, primitives.ValidatorIndex)
	IsSlashed(primitives.ValidatorIndex) bool
}

// Getter returns fork choice related information.
type Getter interface {
	HasNode([32]byte) bool
	HasPayload([32]byte) bool
	PayloadStatus(root [32]byte) (primitives.PayloadStatus, error)
	ParentPayloadStatus(root [32]byte) (primitives.PayloadStatus, error)
	AncestorNode(ctx context.Context, root [32]byte, slot primitives.Slot) (forkchoicetypes.ForkChoiceNode, error)
	AncestorRoot(ctx context.Context, root [32]byte, slot primitives.Slot) ([32]byte, error)
	IsSupportingVote(node forkchoicetypes.ForkChoiceNode, msg *forkchoicetypes.LatestMessage) (bool, error)
	Weight(node forkchoicetypes.ForkChoiceNode) (uint64, error)
	IsCanonical(root [32]byte) bool
	FinalizedCheckpoint() *forkchoicetypes.Checkpoint
	JustifiedCheckpoint() *forkchoicetypes.Checkpoint
	NodeCount() int
	HighestReceivedBlockSlot() primitives.Slot
	BlockHash(root [32]byte) ([32]byte, error)
	LatestMessage(primitives.ValidatorIndex) (*forkchoicetypes.LatestMessage, error)
}

// Setter allows to set forkchoice information
type Setter interface {
	UpdateJustifiedCheckpoint(*forkchoicetypes.Checkpoint) error
	UpdateFinalizedCheckpoint(context.Context, *forkchoicetypes.Checkpoint) error
	BoostProposerRoot(context.Context, *forkchoicetypes.BoostProposerRootArgs) error
	NewSlot(context.Context, primitives.Slot) error
}
