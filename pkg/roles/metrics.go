package roles

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeApplied = "applied"
	outcomeNoop    = "noop"
	outcomeFailed  = "failed"
)

type metrics struct {
	actions *prometheus.CounterVec
}

func newMetrics() metrics {
	return metrics{
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_role_actions_total",
				Help: "Role changes requested, labeled by action and outcome",
			},
			[]string{"action", "outcome"},
		),
	}
}

func (m metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.actions}
}
