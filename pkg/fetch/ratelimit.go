package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimiter spaces out consecutive requests to the same appliance.
// Embedded web servers on older VRM firmware drop connections under bursts.
type RateLimiter struct {
	lastRequest  map[string]time.Time // host -> last request attempt
	mu           sync.Mutex
	defaultDelay time.Duration // Used when the caller passes no delay
	log          *logrus.Entry
}

// NewRateLimiter creates a RateLimiter
func NewRateLimiter(defaultDelay time.Duration, log *logrus.Entry) *RateLimiter {
	return &RateLimiter{
		lastRequest:  make(map[string]time.Time),
		defaultDelay: defaultDelay,
		log:          log,
	}
}

// ApplyDelay waits until at least minDelay (+/- 10% jitter) has passed since the last request to host.
// Returns ctx.Err() if the context ends while waiting.
func (rl *RateLimiter) ApplyDelay(ctx context.Context, host string, minDelay time.Duration) error {
	if minDelay <= 0 {
		minDelay = rl.defaultDelay
	}
	if minDelay <= 0 {
		return nil
	}

	rl.mu.Lock()
	last, seen := rl.lastRequest[host]
	rl.mu.Unlock()
	if !seen {
		return nil
	}

	elapsed := time.Since(last)
	if elapsed >= minDelay {
		return nil
	}
	wait := minDelay - elapsed
	if spread := int64(wait) / 5; spread > 0 {
		wait += time.Duration(rand.Int63n(spread)) - wait/10
	}
	if wait <= 0 {
		return nil
	}

	rl.log.WithFields(logrus.Fields{"host": host, "sleep": wait, "elapsed": elapsed}).Debug("Spacing appliance request")
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateLastRequestTime records now as the last request attempt to host.
// Call it after the attempt completes.
func (rl *RateLimiter) UpdateLastRequestTime(host string) {
	rl.mu.Lock()
	rl.lastRequest[host] = time.Now()
	rl.mu.Unlock()
}
