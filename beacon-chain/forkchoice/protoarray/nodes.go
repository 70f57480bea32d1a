package protoarray

import (
	"context"

	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"go.opencensus.io/trace"
)

// leadsToViableHead returns, per arena index, whether the node or any node below it
// is viable for head. Children sit after their parents in the arena so a single
// backwards pass settles every entry.
func (s *Store) leadsToViableHead(ctx context.Context) []bool {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.leadsToViableHead")
	defer span.End()

	leads := make([]bool, len(s.nodes))
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		if !leads[i] && s.viableForHead(n) {
			leads[i] = true
		}
		if leads[i] && n.parent != NonExistentNode {
			leads[n.parent] = true
		}
	}
	return leads
}

// viableForHead returns true if the node is viable to head.
// Any node with diff finalized or justified epoch than the ones in fork choice store
// should not be viable to head. A block built from an external bid is only viable
// once its payload has been revealed; self-built blocks carry no such condition.
func (s *Store) viableForHead(node *Node) bool {
	s.checkpointsLock.RLock()
	justifiedEpoch := s.justifiedCheckpoint.Epoch
	finalizedEpoch := s.finalizedCheckpoint.Epoch
	s.checkpointsLock.RUnlock()

	// It's also viable if we are in genesis epoch.
	justified := justifiedEpoch == node.justifiedEpoch || justifiedEpoch == 0
	finalized := finalizedEpoch == node.finalizedEpoch || finalizedEpoch == 0
	return justified && finalized && (node.selfBuild || s.hasFullNode(node.root))
}

func (s *Store) hasFullNode(root [32]byte) bool {
	_, ok := s.nodesIndices[fullKey(root)]
	return ok
}

// effectiveWeight is the weight used to rank siblings. The EMPTY and FULL nodes of
// the previous slot's block rank with zero weight so the payload tiebreak decides
// between them.
func (s *Store) effectiveWeight(n *Node) uint64 {
	if n.payloadStatus != primitives.PayloadPending && n.slot+1 == s.currentSlot {
		return 0
	}
	return n.weight
}

// payloadStatusTiebreaker orders siblings with equal weight and root. Outside the
// previous slot it follows the status order; for the previous slot's block EMPTY
// ranks 1 and FULL ranks 2 when the payload should be extended, 0 otherwise.
func (s *Store) payloadStatusTiebreaker(n *Node) uint8 {
	if n.payloadStatus == primitives.PayloadPending || n.slot+1 != s.currentSlot {
		return uint8(n.payloadStatus)
	}
	if n.payloadStatus == primitives.PayloadEmpty {
		return 1
	}
	if s.shouldExtendPayload(n.root) {
		return 2
	}
	return 0
}
