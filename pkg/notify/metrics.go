package notify

import "github.com/prometheus/client_golang/prometheus"

const (
	targetDM      = "dm"
	targetWebhook = "webhook"
	outcomeSent   = "sent"
	outcomeFailed = "failed"
)

type metrics struct {
	sent *prometheus.CounterVec
}

func newMetrics() metrics {
	return metrics{
		sent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_notifications_total",
				Help: "Notifications attempted, labeled by target and outcome",
			},
			[]string{"target", "outcome"},
		),
	}
}

func (m metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.sent}
}
