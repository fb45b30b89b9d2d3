package status

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeCreated = "created"
	outcomeEdited  = "edited"
	outcomeFailed  = "failed"
)

// metrics contains the metric collectors of the refresher
type metrics struct {
	refreshes *prometheus.CounterVec
	guarded   prometheus.Counter
}

func newMetrics() metrics {
	return metrics{
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_status_refreshes_total",
				Help: "Status message refreshes by outcome",
			},
			[]string{"outcome"},
		),
		guarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_status_guarded_messages_total",
				Help: "User messages removed from the status channel",
			},
		),
	}
}

func (m metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.refreshes, m.guarded}
}
