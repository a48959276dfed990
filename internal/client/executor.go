package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/metrics"
)

const defaultRateLimitWait = 60 * time.Second

// get performs one logical GET against the provider. Every attempt passes
// through the quota gate first. Classification:
//   - 429: wait for the header-reported reset (default 60s) and retry the
//     same attempt. These waits do not count against the retry budget but
//     are capped by maxRateLimitWaits.
//   - 5xx, network error, timeout: retry with 2^attempt seconds backoff up
//     to maxRetries.
//   - any other 4xx: terminal, propagated immediately.
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	attempt := 0
	rateWaits := 0
	var lastErr error

	for {
		permit, err := c.gate.Admit(ctx)
		if err != nil {
			return nil, err
		}
		metrics.QuotaMinuteTokens.Set(float64(c.gate.MinuteAvailable()))
		metrics.QuotaDayTokens.Set(float64(c.gate.DayAvailable()))

		start := time.Now()
		body, status, retryAfter, err := c.doOnce(ctx, url, params)
		permit.Release()
		metrics.APICallDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

		switch {
		case err != nil:
			// Network error or timeout: transient
			metrics.APICallsTotal.WithLabelValues(path, "network_error").Inc()
			lastErr = fmt.Errorf("API request failed: %w", err)

		case status == http.StatusOK:
			metrics.APICallsTotal.WithLabelValues(path, "ok").Inc()
			log.Debug().
				Str("url", url).
				Int("size", len(body)).
				Msg("API request successful")
			return body, nil

		case status == http.StatusTooManyRequests:
			// The provider's own throttle fired even though our gate
			// admitted the call: our configured limits are looser than
			// the enforced ones. Wait out the reported reset and retry
			// without spending an attempt.
			metrics.APICallsTotal.WithLabelValues(path, "rate_limited").Inc()
			metrics.RateLimitWaitsTotal.Inc()

			rateWaits++
			if rateWaits > c.maxRateLimitWaits {
				return nil, fmt.Errorf("provider rate limit persisted after %d waits: %s", c.maxRateLimitWaits, string(body))
			}

			wait := retryAfter
			if wait <= 0 {
				wait = defaultRateLimitWait
			}

			log.Warn().
				Str("url", url).
				Dur("wait", wait).
				Int("rate_waits", rateWaits).
				Msg("Provider rate limit hit, waiting before retry")

			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue

		case status >= http.StatusInternalServerError:
			metrics.APICallsTotal.WithLabelValues(path, "server_error").Inc()
			lastErr = fmt.Errorf("API returned status %d: %s", status, string(body))

		default:
			// Other 4xx: terminal client error, never retried
			metrics.APICallsTotal.WithLabelValues(path, "client_error").Inc()
			return nil, fmt.Errorf("API returned status %d: %s", status, string(body))
		}

		attempt++
		if attempt > c.maxRetries {
			return nil, lastErr
		}

		// Exponential backoff: 2s, 4s, 8s
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		metrics.APIRetriesTotal.WithLabelValues(path, "transient").Inc()
		log.Info().
			Str("url", url).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying API request after backoff")

		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

// doOnce performs exactly one HTTP round trip
func (c *Client) doOnce(ctx context.Context, url string, params map[string]string) (body []byte, status int, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Goal-Backend/1.0")

	if len(params) > 0 {
		q := req.URL.Query()
		for key, value := range params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if remaining := resp.Header.Get("x-ratelimit-remaining"); remaining != "" {
		log.Debug().
			Str("url", url).
			Str("ratelimit_remaining", remaining).
			Msg("Provider rate limit headers")
	}

	return body, resp.StatusCode, parseRetryAfter(resp.Header), nil
}

// parseRetryAfter reads the wait the provider asks for on a 429. Both the
// standard Retry-After and the provider's x-ratelimit-reset carry seconds.
func parseRetryAfter(h http.Header) time.Duration {
	for _, key := range []string{"Retry-After", "x-ratelimit-reset"} {
		if v := h.Get(key); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
