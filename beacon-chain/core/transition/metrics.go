package transition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "transition")

var (
	blocksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "state_transition_processed_blocks_total",
		Help: "Beacon blocks applied by the state transition.",
	})
	epochsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "state_transition_processed_epochs_total",
		Help: "Epoch boundaries crossed by the state transition.",
	})
)
