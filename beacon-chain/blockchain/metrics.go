package blockchain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
)

var (
	beaconSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_slot",
		Help: "Latest slot of the beacon chain state",
	})
	beaconHeadSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_head_slot",
		Help: "Slot of the head block of the beacon chain",
	})
	headPayloadStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_head_payload_status",
		Help: "Payload status of the head node: 0 pending, 1 empty, 2 full",
	})
	reorgCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_reorgs_total",
		Help: "Count the number of times the head moved to a block that does not descend from the previous head",
	})
	processedBlocksCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_processed_blocks_total",
		Help: "Total number of blocks imported",
	})
	processedPayloadsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_processed_payloads_total",
		Help: "Total number of revealed payloads imported, by execution engine verdict",
	}, []string{"status"})
	deferredBlocksCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_deferred_blocks_total",
		Help: "Blocks parked because their parent block or parent payload was unknown",
	})
	pendingBlocksGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_pending_blocks",
		Help: "Blocks currently waiting for their parent",
	})
	bufferedEnvelopesCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_buffered_payload_envelopes_total",
		Help: "Payload envelopes buffered because their block was unknown",
	})
	finalizedEpochGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_finalized_epoch",
		Help: "Last finalized epoch",
	})
)

// reportSlotMetrics reports slot related metrics.
func reportSlotMetrics(stateSlot, headSlot primitives.Slot, status primitives.PayloadStatus) {
	beaconSlot.Set(float64(stateSlot))
	beaconHeadSlot.Set(float64(headSlot))
	headPayloadStatus.Set(float64(status))
}
