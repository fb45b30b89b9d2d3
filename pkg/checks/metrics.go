// bridge
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package checks

import "github.com/prometheus/client_golang/prometheus"

// metrics contains the metric collectors of the checker
type metrics struct {
	up           *prometheus.GaugeVec
	responseTime *prometheus.GaugeVec
	failures     *prometheus.CounterVec
}

func newMetrics() metrics {
	return metrics{
		up: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_check_up",
				Help: "Whether the service was reported online by the last check",
			},
			[]string{"service"},
		),
		responseTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_check_response_time_milliseconds",
				Help: "Response time of the last check in milliseconds",
			},
			[]string{"service"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_check_failures_total",
				Help: "Number of failed check requests",
			},
			[]string{"service"},
		),
	}
}

func (m metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.up, m.responseTime, m.failures}
}
