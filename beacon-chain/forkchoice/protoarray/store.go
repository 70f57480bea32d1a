package protoarray

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/prysm-epbs/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"github.com/trailofbits/go-mutexasserts"
	"go.opencensus.io/trace"
)

// This defines the minimal number of block nodes that can be in the tree
// before getting pruned upon new finalization.
const defaultPruneThreshold = 256

var _ forkchoice.ForkChoicer = (*ForkChoice)(nil)

// New initializes a new fork choice store.
func New() *ForkChoice {
	s := &Store{
		justifiedCheckpoint: &forkchoicetypes.Checkpoint{},
		finalizedCheckpoint: &forkchoicetypes.Checkpoint{},
		nodes:               make([]*Node, 0),
		nodesIndices:        make(map[forkchoicetypes.ForkChoiceNode]uint64),
		canonicalNodes:      make(map[[fieldparams.RootLength]byte]bool),
		pruneThreshold:      defaultPruneThreshold,
	}
	return &ForkChoice{
		store:          s,
		balances:       make([]uint64, 0),
		votes:          make([]Vote, 0),
		slashedIndices: make(map[primitives.ValidatorIndex]bool),
	}
}

// NodeCount returns the current number of nodes in the Store.
func (f *ForkChoice) NodeCount() int {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return len(f.store.nodes)
}

// Head returns the head node of the tree rooted at the justified checkpoint. It
// first moves every changed vote and the proposer boost onto the arena, then
// walks down from the justified block picking the best viable child at each step.
func (f *ForkChoice) Head(ctx context.Context, justifiedStateBalances []uint64) (forkchoicetypes.ForkChoiceNode, error) {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.Head")
	defer span.End()
	calledHeadCount.Inc()

	f.store.nodesLock.Lock()
	defer f.store.nodesLock.Unlock()
	f.votesLock.Lock()
	defer f.votesLock.Unlock()

	deltas := f.computeDeltas(justifiedStateBalances)
	if err := f.store.applyProposerBoostScore(deltas, justifiedStateBalances); err != nil {
		return forkchoicetypes.ForkChoiceNode{}, errors.Wrap(err, "could not apply proposer boost score")
	}
	if err := f.store.applyWeightChanges(ctx, deltas); err != nil {
		return forkchoicetypes.ForkChoiceNode{}, errors.Wrap(err, "could not apply weight changes")
	}
	f.balances = justifiedStateBalances
	return f.store.head(ctx)
}

// CachedHeadRoot returns the last cached head root.
func (f *ForkChoice) CachedHeadRoot() [32]byte {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return f.store.headNode.Root
}

// InsertNode adds the block whose post-state is st to the tree. The block's slot and
// parent come from the latest header; the payload hashes from the latest bid.
func (f *ForkChoice) InsertNode(ctx context.Context, st state.ReadOnlyBeaconState, root [32]byte) error {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.InsertNode")
	defer span.End()
	if st == nil {
		return errors.New("nil state")
	}
	header := st.LatestBlockHeader()
	bid := st.LatestExecutionPayloadBid()
	if header == nil || bid == nil {
		return errors.New("nil latest block header or bid")
	}
	var justifiedEpoch primitives.Epoch
	if cp := st.CurrentJustifiedCheckpoint(); cp != nil {
		justifiedEpoch = cp.Epoch
	}
	args := &insertArgs{
		slot:            header.Slot,
		root:            root,
		parentRoot:      header.ParentRoot,
		blockHash:       bid.BlockHash,
		parentBlockHash: bid.ParentBlockHash,
		selfBuild:       bid.BuilderIndex == params.BeaconConfig().BuilderIndexSelfBuild,
		justifiedEpoch:  justifiedEpoch,
		finalizedEpoch:  st.FinalizedCheckpointEpoch(),
	}
	f.store.nodesLock.Lock()
	defer f.store.nodesLock.Unlock()
	return f.store.insert(ctx, args)
}

type insertArgs struct {
	slot            primitives.Slot
	root            [32]byte
	parentRoot      [32]byte
	blockHash       [32]byte
	parentBlockHash [32]byte
	selfBuild       bool
	justifiedEpoch  primitives.Epoch
	finalizedEpoch  primitives.Epoch
}

// insert registers the PENDING and EMPTY nodes of a block. The first block inserted
// becomes the tree root and is considered FULL, its payload being part of the
// checkpoint. This function requires a write lock in Store.nodesLock.
func (s *Store) insert(ctx context.Context, a *insertArgs) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.insert")
	defer span.End()
	if !mutexasserts.RWMutexLocked(&s.nodesLock) {
		return errors.New("insert called without holding the nodes lock")
	}

	if _, ok := s.nodesIndices[pendingKey(a.root)]; ok {
		return nil
	}
	origin := len(s.nodes) == 0
	parent := NonExistentNode
	if !origin {
		parentPending, ok := s.nodesIndices[pendingKey(a.parentRoot)]
		if !ok {
			return errors.Wrapf(ErrUnknownParent, "block %#x parent %#x", bytesutil.Trunc(a.root[:]), bytesutil.Trunc(a.parentRoot[:]))
		}
		status := primitives.PayloadEmpty
		if a.parentBlockHash == s.nodes[parentPending].blockHash {
			status = primitives.PayloadFull
		}
		idx, ok := s.nodesIndices[forkchoicetypes.ForkChoiceNode{Root: a.parentRoot, PayloadStatus: status}]
		if !ok {
			return errors.Wrapf(ErrUnknownParentPayload, "block %#x parent %#x", bytesutil.Trunc(a.root[:]), bytesutil.Trunc(a.parentRoot[:]))
		}
		parent = idx
	}

	pending := s.appendNode(a, primitives.PayloadPending, parent)
	s.appendNode(a, primitives.PayloadEmpty, pending)
	if origin {
		s.appendNode(a, primitives.PayloadFull, pending)
	}
	if a.slot > s.highestReceivedSlot {
		s.highestReceivedSlot = a.slot
	}
	processedBlockCount.Inc()
	nodeCount.Set(float64(len(s.nodes)))
	log.WithFields(logrus.Fields{
		"slot":      a.slot,
		"root":      fmt.Sprintf("%#x", bytesutil.Trunc(a.root[:])),
		"selfBuild": a.selfBuild,
	}).Debug("Inserted block into fork choice")
	return nil
}

func (s *Store) appendNode(a *insertArgs, status primitives.PayloadStatus, parent uint64) uint64 {
	idx := uint64(len(s.nodes))
	n := &Node{
		slot:            a.slot,
		root:            a.root,
		parentRoot:      a.parentRoot,
		payloadStatus:   status,
		parent:          parent,
		children:        make([]uint64, 0),
		blockHash:       a.blockHash,
		parentBlockHash: a.parentBlockHash,
		selfBuild:       a.selfBuild,
		justifiedEpoch:  a.justifiedEpoch,
		finalizedEpoch:  a.finalizedEpoch,
	}
	if status == primitives.PayloadPending {
		n.ptcPresent = bitfieldForPTC()
		n.ptcSeen = bitfieldForPTC()
	}
	s.nodes = append(s.nodes, n)
	s.nodesIndices[n.Key()] = idx
	if parent != NonExistentNode {
		s.nodes[parent].children = append(s.nodes[parent].children, idx)
	}
	return idx
}

// applyWeightChanges iterates backwards through the nodes in store. It adds each
// node's delta to its weight and hands the delta to its parent, so a node ends up
// weighing every vote cast for it or for anything below it.
func (s *Store) applyWeightChanges(ctx context.Context, deltas []int64) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.applyWeightChanges")
	defer span.End()

	if len(deltas) != len(s.nodes) {
		return fmt.Errorf("invalid delta length, delta: %d, node: %d", len(deltas), len(s.nodes))
	}
	for i := len(s.nodes) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n := s.nodes[i]
		d := deltas[i]
		if d < 0 {
			if uint64(-d) > n.weight {
				return errors.Wrapf(errInvalidNodeDelta, "node %s weight %d delta %d", n.Key(), n.weight, d)
			}
			n.weight -= uint64(-d)
		} else {
			n.weight += uint64(d)
		}
		if n.parent != NonExistentNode {
			deltas[n.parent] += d
		}
	}
	return nil
}

// head walks down from the justified block. At each step only children that lead to
// a viable node are considered, and the best of them by (weight, root, payload
// tiebreak) is taken. This function requires a write lock in Store.nodesLock.
func (s *Store) head(ctx context.Context) (forkchoicetypes.ForkChoiceNode, error) {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.head")
	defer span.End()

	s.checkpointsLock.RLock()
	justifiedRoot := s.justifiedCheckpoint.Root
	s.checkpointsLock.RUnlock()
	if justifiedRoot == params.BeaconConfig().ZeroHash && len(s.nodes) > 0 {
		justifiedRoot = s.nodes[0].root
	}
	current, ok := s.nodesIndices[pendingKey(justifiedRoot)]
	if !ok {
		return forkchoicetypes.ForkChoiceNode{}, errors.Wrapf(errUnknownJustifiedRoot, "%#x", justifiedRoot)
	}

	leads := s.leadsToViableHead(ctx)
	for {
		if ctx.Err() != nil {
			return forkchoicetypes.ForkChoiceNode{}, ctx.Err()
		}
		best := NonExistentNode
		for _, c := range s.nodes[current].children {
			if !leads[c] {
				continue
			}
			if best == NonExistentNode || s.isBetter(s.nodes[c], s.nodes[best]) {
				best = c
			}
		}
		if best == NonExistentNode {
			break
		}
		current = best
	}

	headNode := s.nodes[current]
	if headNode.Key() != s.headNode {
		headChangesCount.Inc()
		headSlotNumber.Set(float64(headNode.slot))
		s.headNode = headNode.Key()
		s.updateCanonicalNodes(current)
	}
	return headNode.Key(), nil
}

// isBetter reports whether a ranks above b among siblings.
func (s *Store) isBetter(a, b *Node) bool {
	wa, wb := s.effectiveWeight(a), s.effectiveWeight(b)
	if wa != wb {
		return wa > wb
	}
	if c := bytes.Compare(a.root[:], b.root[:]); c != 0 {
		return c > 0
	}
	return s.payloadStatusTiebreaker(a) > s.payloadStatusTiebreaker(b)
}

// updateCanonicalNodes marks every block on the path from the tree root to the head.
func (s *Store) updateCanonicalNodes(headIdx uint64) {
	s.canonicalNodes = make(map[[fieldparams.RootLength]byte]bool)
	for i := headIdx; i != NonExistentNode; i = s.nodes[i].parent {
		s.canonicalNodes[s.nodes[i].root] = true
	}
}

// IsCanonical returns true if the given root is part of the canonical chain.
func (f *ForkChoice) IsCanonical(root [32]byte) bool {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return f.store.canonicalNodes[root]
}

// HasNode returns true if the node exists in fork choice store,
// false else wise.
func (f *ForkChoice) HasNode(root [32]byte) bool {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	_, ok := f.store.nodesIndices[pendingKey(root)]
	return ok
}

// HighestReceivedBlockSlot returns the highest slot received by the forkchoice
func (f *ForkChoice) HighestReceivedBlockSlot() primitives.Slot {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return f.store.highestReceivedSlot
}

// Weight returns the weight recorded for a node at the last head computation.
func (f *ForkChoice) Weight(node forkchoicetypes.ForkChoiceNode) (uint64, error) {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	idx, ok := f.store.nodesIndices[node]
	if !ok {
		return 0, ErrNilNode
	}
	return f.store.nodes[idx].weight, nil
}

// BlockHash returns the payload hash committed to by the block with the given root.
func (f *ForkChoice) BlockHash(root [32]byte) ([32]byte, error) {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	idx, ok := f.store.nodesIndices[pendingKey(root)]
	if !ok {
		return [32]byte{}, ErrNilNode
	}
	return f.store.nodes[idx].blockHash, nil
}

// JustifiedCheckpoint of fork choice store.
func (f *ForkChoice) JustifiedCheckpoint() *forkchoicetypes.Checkpoint {
	f.store.checkpointsLock.RLock()
	defer f.store.checkpointsLock.RUnlock()
	cp := *f.store.justifiedCheckpoint
	return &cp
}

// FinalizedCheckpoint of fork choice store.
func (f *ForkChoice) FinalizedCheckpoint() *forkchoicetypes.Checkpoint {
	f.store.checkpointsLock.RLock()
	defer f.store.checkpointsLock.RUnlock()
	cp := *f.store.finalizedCheckpoint
	return &cp
}

// UpdateJustifiedCheckpoint sets the justified checkpoint the head walk starts from.
func (f *ForkChoice) UpdateJustifiedCheckpoint(jc *forkchoicetypes.Checkpoint) error {
	if jc == nil {
		return errors.New("nil justified checkpoint")
	}
	f.store.checkpointsLock.Lock()
	defer f.store.checkpointsLock.Unlock()
	f.store.justifiedCheckpoint = &forkchoicetypes.Checkpoint{Epoch: jc.Epoch, Root: jc.Root}
	return nil
}

// UpdateFinalizedCheckpoint sets the finalized checkpoint and prunes every node that
// does not descend from it.
func (f *ForkChoice) UpdateFinalizedCheckpoint(ctx context.Context, fc *forkchoicetypes.Checkpoint) error {
	if fc == nil {
		return errors.New("nil finalized checkpoint")
	}
	f.store.checkpointsLock.Lock()
	f.store.finalizedCheckpoint = &forkchoicetypes.Checkpoint{Epoch: fc.Epoch, Root: fc.Root}
	f.store.checkpointsLock.Unlock()

	f.store.nodesLock.Lock()
	defer f.store.nodesLock.Unlock()
	return f.store.prune(ctx, fc.Root)
}

// prune rebuilds the arena keeping the finalized block and its descendants. Parents
// always precede their children in the arena so a single forward pass suffices.
// This function requires a write lock in Store.nodesLock.
func (s *Store) prune(ctx context.Context, finalizedRoot [32]byte) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.prune")
	defer span.End()

	finalizedIndex, ok := s.nodesIndices[pendingKey(finalizedRoot)]
	if !ok {
		return errors.Wrapf(ErrNilNode, "finalized root %#x", bytesutil.Trunc(finalizedRoot[:]))
	}
	// Pruning at small numbers incurs more cost than benefit.
	if finalizedIndex == 0 || finalizedIndex < s.pruneThreshold {
		return nil
	}

	remap := make(map[uint64]uint64, uint64(len(s.nodes))-finalizedIndex)
	kept := make([]*Node, 0, uint64(len(s.nodes))-finalizedIndex)
	for i := finalizedIndex; i < uint64(len(s.nodes)); i++ {
		n := s.nodes[i]
		if i == finalizedIndex {
			n.parent = NonExistentNode
		} else {
			p, ok := remap[n.parent]
			if !ok {
				continue
			}
			n.parent = p
		}
		remap[i] = uint64(len(kept))
		kept = append(kept, n)
	}
	s.nodesIndices = make(map[forkchoicetypes.ForkChoiceNode]uint64, len(kept))
	for i, n := range kept {
		children := make([]uint64, 0, len(n.children))
		for _, c := range n.children {
			if nc, ok := remap[c]; ok {
				children = append(children, nc)
			}
		}
		n.children = children
		s.nodesIndices[n.Key()] = uint64(i)
	}
	log.WithFields(logrus.Fields{
		"before": len(s.nodes),
		"after":  len(kept),
	}).Debug("Pruned fork choice store")
	s.nodes = kept
	s.canonicalNodes = make(map[[fieldparams.RootLength]byte]bool)
	prunedCount.Inc()
	nodeCount.Set(float64(len(s.nodes)))
	return nil
}

// PruneThreshold of fork choice store.
func (s *Store) PruneThreshold() uint64 {
	return s.pruneThreshold
}
