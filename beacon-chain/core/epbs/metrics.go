package epbs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "epbs")

var (
	processedBidsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epbs_processed_bids_total",
		Help: "Execution payload bids accepted by the state transition, by kind.",
	}, []string{"kind"})
	builderPaymentsExecutedCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epbs_builder_payments_executed_total",
		Help: "Builder payments executed after the PTC reached quorum on payload presence.",
	})
	builderPaymentsForfeitedCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epbs_builder_payments_forfeited_total",
		Help: "Builder payments forfeited after the PTC reached quorum on payload absence.",
	})
	builderPaymentsGwei = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epbs_builder_payments_gwei_total",
		Help: "Gwei debited from builders for executed payments.",
	})
	processedPayloadAttestationsCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epbs_processed_payload_attestations_total",
		Help: "Payload attestations included in processed blocks.",
	})
	processedPayloadsCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epbs_processed_execution_payloads_total",
		Help: "Execution payload envelopes applied to the state.",
	})
)
