package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	newPayloadLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "new_payload_v3_latency_milliseconds",
			Help:    "Captures RPC latency for newPayloadV3 in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000},
		},
	)
	newPayloadStatusCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "new_payload_status_total",
			Help: "Count of engine_newPayload responses by status",
		},
		[]string{"status"},
	)
)
