package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

type hostSlot struct {
	sem      *semaphore.Weighted
	inUse    int64     // Held plus waiting permits
	released time.Time // Zero until the first Release
}

// HostSemaphorePool caps concurrent requests per appliance host.
// One pool is shared by every downloader in a process so the cap holds across scans.
type HostSemaphorePool struct {
	slots map[string]*hostSlot
	mu    sync.Mutex
	limit int64
	log   *logrus.Entry
}

// NewHostSemaphorePool creates a pool allowing maxPerHost concurrent requests to each host
func NewHostSemaphorePool(maxPerHost int, log *logrus.Entry) *HostSemaphorePool {
	limit := int64(maxPerHost)
	if limit <= 0 {
		limit = 2
		log.Warnf("max_requests_per_host not positive, using %d", limit)
	}
	return &HostSemaphorePool{
		slots: make(map[string]*hostSlot),
		limit: limit,
		log:   log,
	}
}

// Acquire takes one permit for host, blocking until one is free or ctx ends
func (p *HostSemaphorePool) Acquire(ctx context.Context, host string) error {
	p.mu.Lock()
	slot, ok := p.slots[host]
	if !ok {
		slot = &hostSlot{sem: semaphore.NewWeighted(p.limit)}
		p.slots[host] = slot
		p.log.WithFields(logrus.Fields{"host": host, "limit": p.limit}).Debug("Tracking new appliance host")
	}
	slot.inUse++
	p.mu.Unlock()

	if err := slot.sem.Acquire(ctx, 1); err != nil {
		p.mu.Lock()
		slot.inUse--
		p.mu.Unlock()
		return err
	}
	return nil
}

// Release returns one permit for host
func (p *HostSemaphorePool) Release(host string) {
	p.mu.Lock()
	slot, ok := p.slots[host]
	if !ok {
		p.mu.Unlock()
		p.log.Errorf("Release for untracked host %s", host)
		return
	}
	slot.inUse--
	slot.released = time.Now()
	p.mu.Unlock()

	slot.sem.Release(1)
}

// RunEviction drops idle hosts every interval until ctx ends. Run it in a goroutine.
func (p *HostSemaphorePool) RunEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.evictIdle(interval)
		case <-ctx.Done():
			p.log.Debugf("Host eviction stopped: %v", ctx.Err())
			return
		}
	}
}

func (p *HostSemaphorePool) evictIdle(maxIdle time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	evicted := 0
	for host, slot := range p.slots {
		if slot.inUse == 0 && !slot.released.IsZero() && now.Sub(slot.released) >= maxIdle {
			delete(p.slots, host)
			evicted++
		}
	}
	if evicted > 0 {
		p.log.Debugf("Evicted %d idle hosts, %d remain", evicted, len(p.slots))
	}
}

// Len returns the number of tracked hosts
func (p *HostSemaphorePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}
