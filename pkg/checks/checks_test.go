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
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wajed-network/bridge/pkg/config"
)

const (
	uptimeEndpoint     = "https://uptime.test.com/v2/getMonitors"
	domainEndpoint     = "https://site.test.com"
	screenshotEndpoint = "https://render.test.com/take"
)

func testConfig() config.ChecksConfig {
	return config.ChecksConfig{
		Timeout: time.Second,
		Uptime:  config.UptimeConfig{URL: uptimeEndpoint, APIKey: "uptime-key"},
		Domain:  config.DomainConfig{URL: domainEndpoint},
		Screenshot: config.ScreenshotConfig{
			URL:       screenshotEndpoint,
			Target:    "http://status.test.com/?i=1",
			AccessKey: "access",
		},
	}
}

func TestChecker_Uptime(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name      string
		responder httpmock.Responder
		want      Result
	}{
		{
			name:      "monitor answers",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"stat":"ok"}`),
			want:      Result{Online: true, UptimePercent: uptimeOnlinePercent},
		},
		{
			name:      "payload is not inspected",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"stat":"fail"}`),
			want:      Result{Online: true, UptimePercent: uptimeOnlinePercent},
		},
		{
			name:      "monitor returns server error",
			responder: httpmock.NewStringResponder(http.StatusInternalServerError, ""),
			want:      Result{},
		},
		{
			name:      "network failure",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			want:      Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.RegisterResponder(http.MethodPost, uptimeEndpoint, tt.responder)

			got := New(testConfig()).Uptime(context.Background())
			assert.Equal(t, tt.want.Online, got.Online)
			assert.Equal(t, tt.want.UptimePercent, got.UptimePercent)
			assert.GreaterOrEqual(t, got.ResponseTimeMs, int64(0))
			if !tt.want.Online {
				assert.Zero(t, got.ResponseTimeMs)
			}
		})
	}
}

func TestChecker_Uptime_RequestBody(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var body url.Values
	var contentType string
	httpmock.RegisterResponder(http.MethodPost, uptimeEndpoint, func(req *http.Request) (*http.Response, error) {
		contentType = req.Header.Get("Content-Type")
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		body = req.PostForm
		return httpmock.NewStringResponse(http.StatusOK, "{}"), nil
	})

	New(testConfig()).Uptime(context.Background())

	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, "uptime-key", body.Get("api_key"))
	assert.Equal(t, "json", body.Get("format"))
}

func TestChecker_Domain(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{
			name:      "site answers",
			responder: httpmock.NewStringResponder(http.StatusOK, ""),
		},
		{
			name:      "site answers with error status",
			responder: httpmock.NewStringResponder(http.StatusBadGateway, ""),
		},
		{
			name:      "network failure is masked",
			responder: httpmock.NewErrorResponder(errors.New("no such host")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.RegisterResponder(http.MethodHead, domainEndpoint, tt.responder)

			got := New(testConfig()).Domain(context.Background())
			assert.True(t, got.Online)
			assert.Equal(t, domainUptimePercent, got.UptimePercent)
		})
	}
}

func TestChecker_Screenshot(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	png := []byte{0x89, 'P', 'N', 'G'}
	tests := []struct {
		name      string
		responder httpmock.Responder
		want      []byte
	}{
		{
			name:      "rendered",
			responder: httpmock.NewBytesResponder(http.StatusOK, png),
			want:      png,
		},
		{
			name:      "renderer rejects request",
			responder: httpmock.NewStringResponder(http.StatusForbidden, "invalid access key"),
			want:      nil,
		},
		{
			name:      "network failure",
			responder: httpmock.NewErrorResponder(errors.New("timeout")),
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder(http.MethodGet, screenshotEndpoint, tt.responder)

			got := New(testConfig()).Screenshot(context.Background())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, httpmock.GetTotalCallCount(), "screenshot must not be retried")
		})
	}
}

func TestChecker_screenshotURL(t *testing.T) {
	t.Run("unsigned", func(t *testing.T) {
		raw, err := New(testConfig()).screenshotURL()
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "http://status.test.com/?i=1", q.Get("url"))
		assert.Equal(t, "access", q.Get("access_key"))
		assert.Equal(t, "1280", q.Get("viewport_width"))
		assert.Equal(t, "720", q.Get("viewport_height"))
		assert.Equal(t, "png", q.Get("format"))
		assert.Empty(t, q.Get("signature"))
	})

	t.Run("signed", func(t *testing.T) {
		cfg := testConfig()
		cfg.Screenshot.SecretKey = "secret"
		raw, err := New(cfg).screenshotURL()
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		query, signature, found := strings.Cut(u.RawQuery, "&signature=")
		require.True(t, found)
		assert.Equal(t, sign("secret", query), signature)
	})
}

func TestChecker_Snapshot(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, uptimeEndpoint, httpmock.NewErrorResponder(errors.New("connection refused")))
	httpmock.RegisterResponder(http.MethodHead, domainEndpoint, httpmock.NewStringResponder(http.StatusOK, ""))
	httpmock.RegisterResponder(http.MethodGet, screenshotEndpoint, httpmock.NewBytesResponder(http.StatusOK, []byte("img")))

	snap := New(testConfig()).Snapshot(context.Background())

	assert.False(t, snap.Uptime.Online)
	assert.True(t, snap.Domain.Online)
	assert.False(t, snap.AllOnline())
	assert.True(t, snap.HasScreenshot())
	assert.False(t, snap.Timestamp.IsZero())
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestSnapshot_AllOnline(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{name: "both online", snap: Snapshot{Uptime: Result{Online: true}, Domain: Result{Online: true}}, want: true},
		{name: "uptime offline", snap: Snapshot{Uptime: Result{}, Domain: Result{Online: true}}, want: false},
		{name: "domain offline", snap: Snapshot{Uptime: Result{Online: true}, Domain: Result{}}, want: false},
		{name: "screenshot missing", snap: Snapshot{Uptime: Result{Online: true}, Domain: Result{Online: true}, Screenshot: nil}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.AllOnline())
		})
	}
}
