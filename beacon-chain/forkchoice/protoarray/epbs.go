package protoarray

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/epbs"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

func fullKey(root [32]byte) forkchoicetypes.ForkChoiceNode {
	return forkchoicetypes.ForkChoiceNode{Root: root, PayloadStatus: primitives.PayloadFull}
}

func bitfieldForPTC() bitfield.Bitvector512 {
	return bitfield.NewBitvector512()
}

// InsertPayloadEnvelope adds the FULL node of the block the envelope reveals. The
// envelope must already have passed the state transition. Revealing an already FULL
// block is a no-op.
func (f *ForkChoice) InsertPayloadEnvelope(ctx context.Context, envelope *epbs.ExecutionPayloadEnvelope) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.InsertPayloadEnvelope")
	defer span.End()
	if envelope == nil || envelope.Payload == nil {
		return errors.New("nil payload envelope")
	}

	s := f.store
	s.nodesLock.Lock()
	defer s.nodesLock.Unlock()

	root := envelope.BeaconBlockRoot
	pending, ok := s.nodesIndices[pendingKey(root)]
	if !ok {
		return errors.Wrapf(ErrNilNode, "envelope block root %#x", bytesutil.Trunc(root[:]))
	}
	if s.hasFullNode(root) {
		return nil
	}
	n := s.nodes[pending]
	if envelope.Payload.BlockHash != n.blockHash {
		return errors.Wrapf(errPayloadHashMismatch, "got %#x, want %#x", bytesutil.Trunc(envelope.Payload.BlockHash[:]), bytesutil.Trunc(n.blockHash[:]))
	}
	s.appendNode(&insertArgs{
		slot:            n.slot,
		root:            n.root,
		parentRoot:      n.parentRoot,
		blockHash:       n.blockHash,
		parentBlockHash: n.parentBlockHash,
		selfBuild:       n.selfBuild,
		justifiedEpoch:  n.justifiedEpoch,
		finalizedEpoch:  n.finalizedEpoch,
	}, primitives.PayloadFull, pending)
	processedPayloadCount.Inc()
	nodeCount.Set(float64(len(s.nodes)))
	log.WithFields(logrus.Fields{
		"slot":      n.slot,
		"root":      fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		"blockHash": fmt.Sprintf("%#x", bytesutil.Trunc(n.blockHash[:])),
	}).Debug("Inserted payload into fork choice")
	return nil
}

// HasPayload returns true if the payload of the block with the given root was revealed.
func (f *ForkChoice) HasPayload(root [32]byte) bool {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return f.store.hasFullNode(root)
}

// PayloadStatus returns FULL once the block's payload is revealed, PENDING while the
// block's own slot is still running and EMPTY afterwards.
func (f *ForkChoice) PayloadStatus(root [32]byte) (primitives.PayloadStatus, error) {
	s := f.store
	s.nodesLock.RLock()
	defer s.nodesLock.RUnlock()
	idx, ok := s.nodesIndices[pendingKey(root)]
	if !ok {
		return primitives.PayloadPending, ErrNilNode
	}
	if s.hasFullNode(root) {
		return primitives.PayloadFull, nil
	}
	if s.nodes[idx].slot < s.currentSlot {
		return primitives.PayloadEmpty, nil
	}
	return primitives.PayloadPending, nil
}

// ParentPayloadStatus returns the status of the parent the block builds on: FULL when
// its bid extends the parent's committed payload, EMPTY otherwise. The tree root is
// considered FULL.
func (f *ForkChoice) ParentPayloadStatus(root [32]byte) (primitives.PayloadStatus, error) {
	s := f.store
	s.nodesLock.RLock()
	defer s.nodesLock.RUnlock()
	idx, ok := s.nodesIndices[pendingKey(root)]
	if !ok {
		return primitives.PayloadPending, ErrNilNode
	}
	return s.parentPayloadStatus(s.nodes[idx]), nil
}

func (s *Store) parentPayloadStatus(pending *Node) primitives.PayloadStatus {
	if pending.parent == NonExistentNode {
		return primitives.PayloadFull
	}
	return s.nodes[pending.parent].payloadStatus
}

// AncestorNode returns the node of the chain of root at slot. When root's block is at
// or before slot the block's PENDING node is returned; otherwise the walk stops at the
// last block after slot and returns its parent with the payload status that block
// builds on.
//
// Spec pseudocode definition:
//
//	def get_ancestor(store: Store, root: Root, slot: Slot) -> ForkChoiceNode:
//	    block = store.blocks[root]
//	    if block.slot <= slot:
//	        return ForkChoiceNode(root=root, payload_status=PAYLOAD_STATUS_PENDING)
//	    parent = store.blocks[block.parent_root]
//	    while parent.slot > slot:
//	        block = parent
//	        parent = store.blocks[block.parent_root]
//	    return ForkChoiceNode(root=block.parent_root, payload_status=get_parent_payload_status(store, block))
func (f *ForkChoice) AncestorNode(ctx context.Context, root [32]byte, slot primitives.Slot) (forkchoicetypes.ForkChoiceNode, error) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.AncestorNode")
	defer span.End()

	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return f.store.ancestor(ctx, root, slot)
}

// AncestorRoot returns the root of AncestorNode.
func (f *ForkChoice) AncestorRoot(ctx context.Context, root [32]byte, slot primitives.Slot) ([32]byte, error) {
	n, err := f.AncestorNode(ctx, root, slot)
	if err != nil {
		return [32]byte{}, err
	}
	return n.Root, nil
}

func (s *Store) ancestor(ctx context.Context, root [32]byte, slot primitives.Slot) (forkchoicetypes.ForkChoiceNode, error) {
	idx, ok := s.nodesIndices[pendingKey(root)]
	if !ok {
		return forkchoicetypes.ForkChoiceNode{}, ErrNilNode
	}
	block := s.nodes[idx]
	if block.slot <= slot {
		return pendingKey(root), nil
	}
	for {
		if ctx.Err() != nil {
			return forkchoicetypes.ForkChoiceNode{}, ctx.Err()
		}
		if block.parent == NonExistentNode {
			return forkchoicetypes.ForkChoiceNode{}, errors.Wrapf(errAncestorPruned, "slot %d", slot)
		}
		// The parent of a PENDING node is the EMPTY or FULL node of the parent block,
		// whose own parent is that block's PENDING node.
		parentPending := s.nodes[s.nodes[block.parent].parent]
		if parentPending.slot <= slot {
			return forkchoicetypes.ForkChoiceNode{Root: block.parentRoot, PayloadStatus: s.parentPayloadStatus(block)}, nil
		}
		block = parentPending
	}
}

// IsSupportingVote reports whether a latest message counts toward node's weight.
//
// Spec pseudocode definition:
//
//	def is_supporting_vote(store: Store, node: ForkChoiceNode, message: LatestMessage) -> bool:
//	    block = store.blocks[node.root]
//	    if node.root == message.root:
//	        if node.payload_status == PAYLOAD_STATUS_PENDING:
//	            return True
//	        if message.slot <= block.slot:
//	            return False
//	        if message.payload_present:
//	            return node.payload_status == PAYLOAD_STATUS_FULL
//	        else:
//	            return node.payload_status == PAYLOAD_STATUS_EMPTY
//	    else:
//	        ancestor = get_ancestor(store, message.root, block.slot)
//	        return node.root == ancestor.root and (
//	            node.payload_status == PAYLOAD_STATUS_PENDING
//	            or node.payload_status == ancestor.payload_status
//	        )
func (f *ForkChoice) IsSupportingVote(node forkchoicetypes.ForkChoiceNode, msg *forkchoicetypes.LatestMessage) (bool, error) {
	if msg == nil {
		return false, errors.New("nil latest message")
	}
	s := f.store
	s.nodesLock.RLock()
	defer s.nodesLock.RUnlock()

	idx, ok := s.nodesIndices[pendingKey(node.Root)]
	if !ok {
		return false, ErrNilNode
	}
	block := s.nodes[idx]
	if node.Root == msg.Root {
		if node.PayloadStatus == primitives.PayloadPending {
			return true, nil
		}
		if msg.Slot <= block.slot {
			return false, nil
		}
		if msg.PayloadPresent {
			return node.PayloadStatus == primitives.PayloadFull, nil
		}
		return node.PayloadStatus == primitives.PayloadEmpty, nil
	}
	ancestor, err := s.ancestor(context.Background(), msg.Root, block.slot)
	if err != nil {
		return false, err
	}
	return node.Root == ancestor.Root && (node.PayloadStatus == primitives.PayloadPending || node.PayloadStatus == ancestor.PayloadStatus), nil
}

// ProcessPayloadAttestation records the payload votes of PTC seats for a block. Only
// the first vote of a seat counts.
func (f *ForkChoice) ProcessPayloadAttestation(ctx context.Context, blockRoot [32]byte, seats []uint64, payloadPresent bool) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.ProcessPayloadAttestation")
	defer span.End()

	s := f.store
	s.nodesLock.Lock()
	defer s.nodesLock.Unlock()
	idx, ok := s.nodesIndices[pendingKey(blockRoot)]
	if !ok {
		return
	}
	n := s.nodes[idx]
	size := params.BeaconConfig().PTCSize
	for _, seat := range seats {
		if seat >= size || n.ptcSeen.BitAt(seat) {
			continue
		}
		n.ptcSeen.SetBitAt(seat, true)
		if payloadPresent {
			n.ptcPresent.SetBitAt(seat, true)
		}
		processedPTCVoteCount.Inc()
	}
}

// isPayloadTimely returns true if the block's payload is locally available and more
// than half of the PTC voted it present.
func (s *Store) isPayloadTimely(root [32]byte) bool {
	idx, ok := s.nodesIndices[pendingKey(root)]
	if !ok || !s.hasFullNode(root) {
		return false
	}
	return s.nodes[idx].ptcPresent.Count() > params.BeaconConfig().PTCSize/2
}

// shouldExtendPayload decides the tiebreak between the EMPTY and FULL nodes of the
// previous slot's block.
//
// Spec pseudocode definition:
//
//	def should_extend_payload(store: Store, root: Root) -> bool:
//	    proposer_root = store.proposer_boost_root
//	    return (
//	        is_payload_timely(store, root)
//	        or proposer_root == Root()
//	        or store.blocks[proposer_root].parent_root != root
//	        or is_parent_node_full(store, store.blocks[proposer_root])
//	    )
func (s *Store) shouldExtendPayload(root [32]byte) bool {
	if s.isPayloadTimely(root) {
		return true
	}
	boost := s.proposerBoost()
	if boost == params.BeaconConfig().ZeroHash {
		return true
	}
	idx, ok := s.nodesIndices[pendingKey(boost)]
	if !ok {
		return true
	}
	b := s.nodes[idx]
	if b.parentRoot != root {
		return true
	}
	return s.parentPayloadStatus(b) == primitives.PayloadFull
}
