package protoarray

import (
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// Slot of the fork choice node.
func (n *Node) Slot() primitives.Slot {
	return n.slot
}

// Root of the fork choice node.
func (n *Node) Root() [32]byte {
	return n.root
}

// Parent of the fork choice node.
func (n *Node) Parent() uint64 {
	return n.parent
}

// PayloadStatus of the fork choice node.
func (n *Node) PayloadStatus() primitives.PayloadStatus {
	return n.payloadStatus
}

// Key returns the (root, payload status) pair that identifies the node.
func (n *Node) Key() forkchoicetypes.ForkChoiceNode {
	return forkchoicetypes.ForkChoiceNode{Root: n.root, PayloadStatus: n.payloadStatus}
}

// JustifiedEpoch of the fork choice node.
func (n *Node) JustifiedEpoch() primitives.Epoch {
	return n.justifiedEpoch
}

// FinalizedEpoch of the fork choice node.
func (n *Node) FinalizedEpoch() primitives.Epoch {
	return n.finalizedEpoch
}

// Weight of the fork choice node.
func (n *Node) Weight() uint64 {
	return n.weight
}

// Children of the fork choice node.
func (n *Node) Children() []uint64 {
	return n.children
}

func pendingKey(root [32]byte) forkchoicetypes.ForkChoiceNode {
	return forkchoicetypes.ForkChoiceNode{Root: root, PayloadStatus: primitives.PayloadPending}
}
