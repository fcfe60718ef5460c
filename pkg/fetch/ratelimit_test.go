package fetch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestRateLimiter() *RateLimiter {
	return NewRateLimiter(100*time.Millisecond, testLogger())
}

func TestApplyDelay_RespectsContextCancellation(t *testing.T) {
	rl := newTestRateLimiter()
	host := "10.0.0.5"
	rl.UpdateLastRequestTime(host)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := rl.ApplyDelay(ctx, host, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("ApplyDelay with cancelled context took %v, expected <100ms", elapsed)
	}
}

func TestApplyDelay_SleepsForExpectedDuration(t *testing.T) {
	rl := newTestRateLimiter()
	host := "10.0.0.5"
	rl.UpdateLastRequestTime(host)

	start := time.Now()
	if err := rl.ApplyDelay(context.Background(), host, 100*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	// Jitter is +/- 10%, plus timer imprecision
	if elapsed < 50*time.Millisecond {
		t.Errorf("ApplyDelay returned too quickly: %v, expected ~100ms", elapsed)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("ApplyDelay took too long: %v, expected ~100ms", elapsed)
	}
}

func TestApplyDelay_UsesDefaultDelay(t *testing.T) {
	rl := newTestRateLimiter()
	host := "10.0.0.6"
	rl.UpdateLastRequestTime(host)

	start := time.Now()
	_ = rl.ApplyDelay(context.Background(), host, 0)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected default delay to apply, returned after %v", elapsed)
	}
}

func TestApplyDelay_NoDelayOnFirstRequest(t *testing.T) {
	rl := newTestRateLimiter()

	start := time.Now()
	_ = rl.ApplyDelay(context.Background(), "fresh-host", 5*time.Second)
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("ApplyDelay on first request took %v, expected instant return", elapsed)
	}
}
