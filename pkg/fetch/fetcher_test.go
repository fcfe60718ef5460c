package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/utils"
)

// testPolicy returns a retry policy with fast delays for testing
func testPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        maxRetries,
		InitialRetryDelay: 10 * time.Millisecond,
		MaxRetryDelay:     50 * time.Millisecond,
	}
}

// testLogger returns a logger that discards output
func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func testClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

// mockServer creates an httptest.Server that returns status codes in sequence.
// Returns the server and an atomic counter tracking request attempts.
func mockServer(t *testing.T, statusCodes []int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	attemptCount := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(attemptCount.Add(1)) - 1
		if idx >= len(statusCodes) {
			idx = len(statusCodes) - 1
		}
		w.WriteHeader(statusCodes[idx])
	}))
	t.Cleanup(server.Close)
	return server, attemptCount
}

func TestFetchWithRetry_Success(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusOK})

	fetcher := NewFetcher(testClient(), testPolicy(3), testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := fetcher.FetchWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Body.Close()

	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ServerError_RetrySuccess(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK})

	fetcher := NewFetcher(testClient(), testPolicy(3), testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := fetcher.FetchWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	resp.Body.Close()

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ServerError_AllRetriesFail(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusInternalServerError})

	fetcher := NewFetcher(testClient(), testPolicy(2), testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := fetcher.FetchWithRetry(context.Background(), req)
	if resp != nil {
		t.Error("expected nil response after all retries fail")
	}
	if !errors.Is(err, utils.ErrRetryFailed) || !errors.Is(err, utils.ErrServerHTTPError) {
		t.Errorf("expected ErrRetryFailed wrapping ErrServerHTTPError, got: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_RateLimit_RetrySuccess(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusTooManyRequests, http.StatusOK})

	fetcher := NewFetcher(testClient(), testPolicy(2), testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := fetcher.FetchWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	resp.Body.Close()
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ClientError_NoRetry(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusNotFound} {
		server, attempts := mockServer(t, []int{code})

		fetcher := NewFetcher(testClient(), testPolicy(3), testLogger())
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

		resp, err := fetcher.FetchWithRetry(context.Background(), req)
		if resp == nil {
			t.Fatalf("status %d: expected response to be returned", code)
		}
		resp.Body.Close()
		if !errors.Is(err, utils.ErrClientHTTPError) {
			t.Errorf("status %d: expected ErrClientHTTPError, got: %v", code, err)
		}
		if attempts.Load() != 1 {
			t.Errorf("status %d: expected 1 attempt, got %d", code, attempts.Load())
		}
	}
}

func TestFetchWithRetry_ContextCancelled_BeforeAttempt(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusOK})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(testClient(), testPolicy(3), testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	_, err := fetcher.FetchWithRetry(ctx, req)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if attempts.Load() != 0 {
		t.Errorf("expected no attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ContextTimeout_DuringBackoff(t *testing.T) {
	server, _ := mockServer(t, []int{http.StatusInternalServerError})

	policy := RetryPolicy{MaxRetries: 5, InitialRetryDelay: time.Second, MaxRetryDelay: time.Second}
	fetcher := NewFetcher(testClient(), policy, testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := fetcher.FetchWithRetry(ctx, req)
	if !errors.Is(err, utils.ErrServerHTTPError) {
		t.Errorf("expected last server error to be wrapped, got: %v", err)
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Error("expected backoff to be interrupted by the context")
	}
}

func TestFetchWithRetry_NetworkError_RetrySuccess(t *testing.T) {
	attempts := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(testClient(), testPolicy(2), testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := fetcher.FetchWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("expected success after network error, got: %v", err)
	}
	resp.Body.Close()
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ZeroRetries(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusBadGateway})

	fetcher := NewFetcher(testClient(), testPolicy(0), testLogger())
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	_, err := fetcher.FetchWithRetry(context.Background(), req)
	if !errors.Is(err, utils.ErrRetryFailed) {
		t.Errorf("expected ErrRetryFailed, got: %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts.Load())
	}
}

func TestRetryPolicy_BackoffCapped(t *testing.T) {
	p := RetryPolicy{InitialRetryDelay: 100 * time.Millisecond, MaxRetryDelay: 300 * time.Millisecond}
	for attempt := 1; attempt <= 6; attempt++ {
		d := p.backoff(attempt)
		if d < 0 || d > 330*time.Millisecond {
			t.Errorf("attempt %d: backoff %v outside [0, max+10%%]", attempt, d)
		}
	}
	if d := (RetryPolicy{}).backoff(1); d != 0 {
		t.Errorf("zero policy backoff = %v, want 0", d)
	}
}
