package checks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wajed-network/bridge/internal/httpclient"
	"github.com/wajed-network/bridge/internal/logger"
)

// renderParams are the fixed viewport and format settings of the status screenshot
var renderParams = map[string]string{
	"full_page":           "false",
	"viewport_width":      "1280",
	"viewport_height":     "720",
	"device_scale_factor": "1",
	"format":              "png",
	"block_ads":           "true",
	"block_trackers":      "true",
	"delay":               "2",
}

// Screenshot renders the status page and returns the png bytes.
// It returns nil on any failure and never retries.
func (c *Checker) Screenshot(ctx context.Context) []byte {
	ctx = httpclient.IntoContext(ctx, c.client)
	log := logger.FromContext(ctx).With("service", ScreenshotService)

	target, err := c.screenshotURL()
	if err != nil {
		log.ErrorContext(ctx, "Error building screenshot url", logger.Type("SCREENSHOT_ERROR"), logger.Data("error", err.Error()))
		return nil
	}

	img, err := getScreenshot(ctx, target)
	if err != nil {
		log.ErrorContext(ctx, "Error getting screenshot", logger.Type("SCREENSHOT_ERROR"), logger.Data("error", err.Error()))
		c.metrics.failures.WithLabelValues(ScreenshotService).Inc()
		return nil
	}
	return img
}

// screenshotURL builds the render url. When a secret key is configured
// the encoded query is signed with HMAC-SHA256.
func (c *Checker) screenshotURL() (string, error) {
	cfg := c.cfg.Screenshot
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("url", cfg.Target)
	q.Set("access_key", cfg.AccessKey)
	for k, v := range renderParams {
		q.Set(k, v)
	}

	query := q.Encode()
	if cfg.SecretKey != "" {
		query += "&signature=" + sign(cfg.SecretKey, query)
	}
	u.RawQuery = query
	return u.String(), nil
}

func sign(secret, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func getScreenshot(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpclient.FromContext(ctx).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("failed to get screenshot: %s", resp.Status)
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	return img, nil
}
