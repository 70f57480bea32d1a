package kv

// The schema will define how to store and retrieve data from the db.
// Blocks, post-block states, post-payload states and envelopes are all keyed by the
// beacon block root they belong to.
var (
	blocksBucket                = []byte("blocks")
	stateBucket                 = []byte("state")
	stateSlotsBucket            = []byte("state-slots")
	executionPayloadStateBucket = []byte("execution-payload-state")
	payloadEnvelopesBucket      = []byte("payload-envelopes")
	chainMetadataBucket         = []byte("chain-metadata")
	checkpointBucket            = []byte("check-point")

	// Key indices buckets.
	blockSlotIndicesBucket = []byte("block-slot-indices")

	// Specific item keys.
	headBlockRootKey       = []byte("head-root")
	genesisBlockRootKey    = []byte("genesis-root")
	justifiedCheckpointKey = []byte("justified-checkpoint")
	finalizedCheckpointKey = []byte("finalized-checkpoint")
)
