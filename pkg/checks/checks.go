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

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wajed-network/bridge/internal/httpclient"
	"github.com/wajed-network/bridge/internal/logger"
	"github.com/wajed-network/bridge/pkg/config"
)

// Display names of the monitored services
const (
	UptimeService     = "Atlas API"
	DomainService     = "wajed.network"
	ScreenshotService = "screenshot"
)

// Result is the simplified outcome of a single service check
type Result struct {
	Online         bool    `json:"online"`
	ResponseTimeMs int64   `json:"responseTimeMs"`
	UptimePercent  float64 `json:"uptimePercent"`
}

// Snapshot holds the outcome of one round of all checks
type Snapshot struct {
	Uptime     Result    `json:"uptime"`
	Domain     Result    `json:"domain"`
	Screenshot []byte    `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
}

// AllOnline reports whether every monitored service is online.
// The screenshot does not take part in it.
func (s Snapshot) AllOnline() bool {
	return s.Uptime.Online && s.Domain.Online
}

// HasScreenshot reports whether a screenshot was rendered
func (s Snapshot) HasScreenshot() bool {
	return len(s.Screenshot) > 0
}

// Checker queries the external services shown in the status message.
// None of its methods return errors: failures degrade to default results.
type Checker struct {
	cfg     config.ChecksConfig
	client  *http.Client
	metrics metrics
}

// New creates a new Checker
func New(cfg config.ChecksConfig) *Checker {
	return &Checker{
		cfg:     cfg,
		client:  httpclient.New(cfg.Timeout),
		metrics: newMetrics(),
	}
}

// Snapshot runs all checks concurrently and waits for every one of them
func (c *Checker) Snapshot(ctx context.Context) Snapshot {
	log := logger.FromContext(ctx)

	var wg sync.WaitGroup
	var snap Snapshot
	wg.Add(3)
	go func() {
		defer wg.Done()
		snap.Uptime = c.Uptime(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Domain = c.Domain(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Screenshot = c.Screenshot(ctx)
	}()

	log.DebugContext(ctx, "Waiting for all checks to finish")
	wg.Wait()
	snap.Timestamp = time.Now()
	return snap
}

// GetMetricCollectors returns all metric collectors of the checker
func (c *Checker) GetMetricCollectors() []prometheus.Collector {
	return c.metrics.collectors()
}

func (c *Checker) record(service string, res Result) {
	up := 0.0
	if res.Online {
		up = 1
	}
	c.metrics.up.WithLabelValues(service).Set(up)
	c.metrics.responseTime.WithLabelValues(service).Set(float64(res.ResponseTimeMs))
}
