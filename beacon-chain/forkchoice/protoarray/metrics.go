package protoarray

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var (
	log = logrus.WithField("prefix", "forkchoice-protoarray")

	headSlotNumber = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proto_array_head_slot",
			Help: "The slot number of the current head.",
		},
	)
	nodeCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proto_array_node_count",
			Help: "The number of nodes in the arena, counting every payload status of a block.",
		},
	)
	headChangesCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proto_array_head_changed_count",
			Help: "The number of times head changes.",
		},
	)
	calledHeadCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proto_array_head_requested_count",
			Help: "The number of times someone called head.",
		},
	)
	processedBlockCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proto_array_block_processed_count",
			Help: "The number of times a block is processed for fork choice.",
		},
	)
	processedPayloadCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proto_array_payload_processed_count",
			Help: "The number of revealed payloads inserted as FULL nodes.",
		},
	)
	processedAttestationCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proto_array_attestation_processed_count",
			Help: "The number of times an attestation is processed for fork choice.",
		},
	)
	processedPTCVoteCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proto_array_ptc_vote_processed_count",
			Help: "The number of PTC seats whose payload vote was recorded.",
		},
	)
	prunedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proto_array_pruned_count",
			Help: "The number of times pruning happened.",
		},
	)
)
