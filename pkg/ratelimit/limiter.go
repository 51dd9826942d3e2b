// Package ratelimit enforces per-client request budgets on the public routes. Budgets are
// kept in process with token buckets, or in redis with a sliding window when several
// server instances share them.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy is a request budget of Limit requests per Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a client may make another request under a policy.
type Limiter interface {
	Allow(ctx context.Context, policy Policy, key string) (Decision, error)
	Close() error
}

type bucket struct {
	limiter  *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per policy and client. Buckets idle for a whole
// window are full again and are evicted by a janitor.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewMemoryLimiter creates an in-process limiter. A positive janitorInterval starts
// the eviction loop; call Close to stop it.
func NewMemoryLimiter(janitorInterval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if janitorInterval > 0 {
		l.wg.Add(1)
		go l.janitor(janitorInterval)
	}
	return l
}

// Allow takes one token from the client's bucket. The bucket holds Limit tokens and
// refills over Window.
func (l *MemoryLimiter) Allow(_ context.Context, policy Policy, key string) (Decision, error) {
	if !policy.Enabled() {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	now := l.now()
	l.mu.Lock()
	b, ok := l.buckets[policy.Name+":"+key]
	if !ok {
		every := rate.Every(policy.Window / time.Duration(policy.Limit))
		b = &bucket{limiter: rate.NewLimiter(every, policy.Limit), window: policy.Window}
		l.buckets[policy.Name+":"+key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
}

// Len returns the number of tracked buckets.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Evict drops buckets that have been idle for at least their window at now.
func (l *MemoryLimiter) Evict(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= b.window {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

func (l *MemoryLimiter) janitor(interval time.Duration) {
	defer l.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.Evict(l.now())
		}
	}
}

// Close stops the janitor.
func (l *MemoryLimiter) Close() error {
	l.once.Do(func() { close(l.stopCh) })
	l.wg.Wait()
	return nil
}
