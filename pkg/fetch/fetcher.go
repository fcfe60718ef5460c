package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/utils"
)

// RetryPolicy controls how often and how patiently a request is retried
type RetryPolicy struct {
	MaxRetries        int
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
}

// backoff returns the jittered delay before retry number attempt (1-based).
// The base delay doubles per attempt and is capped at MaxRetryDelay; jitter is +/- 10%.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.InitialRetryDelay) * math.Pow(2, float64(attempt-1)))
	if delay <= 0 || delay > p.MaxRetryDelay {
		delay = p.MaxRetryDelay
	}
	if delay <= 0 {
		return 0
	}
	if spread := int64(delay) / 5; spread > 0 {
		delay += time.Duration(rand.Int63n(spread)) - delay/10
	}
	if delay < 0 {
		return 0
	}
	return delay
}

// Fetcher sends appliance requests through a shared http.Client with retries
type Fetcher struct {
	client *http.Client
	policy RetryPolicy
	log    *logrus.Entry
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, policy RetryPolicy, log *logrus.Entry) *Fetcher {
	return &Fetcher{client: client, policy: policy, log: log}
}

// FetchWithRetry performs an HTTP request bound to ctx.
// Network errors, 5xx and 429 responses are retried with exponential backoff and jitter. Other
// non-2xx responses return at once together with the response; the caller must close its body.
// Context cancellation is never retried.
func (f *Fetcher) FetchWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	reqLog := f.log.WithField("url", req.URL.Redacted())
	var lastErr error

	for attempt := 0; attempt <= f.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.policy.backoff(attempt)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Debug("Retrying request")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled (%v) during retry delay after error: %w", ctx.Err(), lastErr)
			}
		} else if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled before first attempt: %w", err)
		}

		resp, err := f.client.Do(req.WithContext(ctx))
		if err != nil {
			drain(resp)
			if ctx.Err() != nil {
				return nil, err
			}
			reqLog.WithField("attempt", attempt).Debugf("Network error: %v", err)
			lastErr = err
			continue
		}

		status := resp.StatusCode
		switch {
		case status >= 200 && status < 300:
			return resp, nil
		case status >= 500:
			lastErr = fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, status, http.StatusText(status))
			drain(resp)
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, status, http.StatusText(status))
			drain(resp)
		case status >= 400:
			reqLog.WithField("status_code", status).Debug("Client error, not retrying")
			return resp, fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, status, http.StatusText(status))
		default:
			return resp, fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, status, http.StatusText(status))
		}
		reqLog.WithFields(logrus.Fields{"attempt": attempt, "error": lastErr}).Debug("Retryable failure")
	}

	if lastErr == nil {
		return nil, utils.ErrRetryFailed
	}
	return nil, fmt.Errorf("%w: %w", utils.ErrRetryFailed, lastErr)
}

// drain discards and closes a response body so the connection can be reused
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
