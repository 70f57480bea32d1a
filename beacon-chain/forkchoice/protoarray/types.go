package protoarray

import (
	"sync"

	"github.com/prysmaticlabs/go-bitfield"
	forkchoicetypes "github.com/prysmaticlabs/prysm-epbs/beacon-chain/forkchoice/types"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

// ForkChoice defines the overall fork choice store which includes all block nodes, validator's latest votes and balances.
type ForkChoice struct {
	store          *Store
	votes          []Vote // tracks individual validator's last vote.
	votesLock      sync.RWMutex
	balances       []uint64 // tracks individual validator's last justified balances.
	slashedIndices map[primitives.ValidatorIndex]bool
}

// Store defines the fork choice store which includes block nodes and the last view of checkpoint information.
type Store struct {
	pruneThreshold             uint64                      // do not prune tree unless threshold is reached.
	justifiedCheckpoint        *forkchoicetypes.Checkpoint // latest justified checkpoint in store.
	finalizedCheckpoint        *forkchoicetypes.Checkpoint // latest finalized checkpoint in store.
	proposerBoostRoot          [fieldparams.RootLength]byte
	previousProposerBoostRoot  [fieldparams.RootLength]byte
	previousProposerBoostScore uint64
	currentSlot                primitives.Slot
	nodes                      []*Node                                   // list of block nodes, each node is a representation of one block.
	nodesIndices               map[forkchoicetypes.ForkChoiceNode]uint64 // the (root, payload status) pairs and their arena index.
	canonicalNodes             map[[fieldparams.RootLength]byte]bool     // the canonical block nodes.
	headNode                   forkchoicetypes.ForkChoiceNode
	highestReceivedSlot        primitives.Slot
	nodesLock                  sync.RWMutex
	proposerBoostLock          sync.RWMutex
	checkpointsLock            sync.RWMutex
}

// Node is one vertex of the arena. Every block contributes a PENDING node and an
// EMPTY child of it; a FULL child is added once the payload is revealed. Parent and
// children are arena indices.
type Node struct {
	slot            primitives.Slot              // slot of the block converted to the node.
	root            [fieldparams.RootLength]byte // root of the block converted to the node.
	parentRoot      [fieldparams.RootLength]byte // root of the parent block.
	payloadStatus   primitives.PayloadStatus
	parent          uint64 // parent index of this node.
	children        []uint64
	blockHash       [32]byte // payload hash committed to by the block's bid.
	parentBlockHash [32]byte // payload hash the bid builds on.
	selfBuild       bool
	justifiedEpoch  primitives.Epoch // justifiedEpoch of this node.
	finalizedEpoch  primitives.Epoch // finalizedEpoch of this node.
	weight          uint64           // weight of this node.
	ptcPresent      bitfield.Bitvector512
	ptcSeen         bitfield.Bitvector512
}

// Vote defines an individual validator's vote.
type Vote struct {
	message        forkchoicetypes.LatestMessage
	hasMessage     bool
	applied        forkchoicetypes.ForkChoiceNode // node currently carrying this vote's balance.
	appliedBalance uint64
	hasApplied     bool
}

// NonExistentNode defines an unknown node which is used for the array based stateful DAG.
const NonExistentNode = ^uint64(0)
