package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	transfersStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stacks_wallet",
			Subsystem: "pipeline",
			Name:      "transfers_started_total",
			Help:      "Total number of transfer pipeline invocations",
		},
	)

	transfersBroadcastTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stacks_wallet",
			Subsystem: "pipeline",
			Name:      "transfers_broadcast_total",
			Help:      "Total number of transfers accepted by the relay",
		},
	)

	transfersFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stacks_wallet",
			Subsystem: "pipeline",
			Name:      "transfers_failed_total",
			Help:      "Total number of failed transfers by failure kind",
		},
		[]string{"kind"},
	)
)

// TransferStarted counts one pipeline invocation.
func TransferStarted() {
	transfersStartedTotal.Inc()
}

// TransferBroadcast counts one relay-accepted transfer.
func TransferBroadcast() {
	transfersBroadcastTotal.Inc()
}

// TransferFailed counts one failed transfer under its failure kind.
func TransferFailed(kind string) {
	transfersFailedTotal.WithLabelValues(kind).Inc()
}
