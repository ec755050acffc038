// Package ratelimit provides per-client rate limiting using token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket. Callers hold the limiter lock.
type bucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

func newBucket(capacity int, refillRate float64, now time.Time) *bucket {
	return &bucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
		lastAccess: now,
	}
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.refillRate)
		b.lastRefill = now
	}
}

// take consumes one token if available
func (b *bucket) take(now time.Time) bool {
	b.refill(now)
	b.lastAccess = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// untilFull is how long the bucket needs to refill completely
func (b *bucket) untilFull() time.Duration {
	if b.tokens >= b.capacity || b.refillRate <= 0 {
		return 0
	}
	return time.Duration((b.capacity - b.tokens) / b.refillRate * float64(time.Second))
}

// untilNext is how long until one token is available
func (b *bucket) untilNext() time.Duration {
	if b.tokens >= 1 || b.refillRate <= 0 {
		return 0
	}
	return time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages rate limiting for multiple clients.
type Limiter struct {
	config  *Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config, opts ...Option) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow checks whether a request from clientID to path is allowed and consumes a token if so.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	rule := MatchRule(path, method, l.config.Rules)
	if rule == nil {
		rule = &Rule{
			Path:   path,
			Method: method,
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
		}
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{Allowed: true}
	}

	// Prefix rules share one bucket per client across all matching paths
	key := clientID + " " + rule.Method + " " + rule.Path

	capacity := rule.Burst
	if capacity <= 0 {
		capacity = rule.Limit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = newBucket(capacity, float64(rule.Limit)/rule.Window.Seconds(), now)
		l.buckets[key] = b
	}

	allowed := b.take(now)
	info := Info{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: int(b.tokens),
		ResetTime: now.Add(b.untilFull()),
	}
	if !allowed {
		info.RetryAfter = b.untilNext()
	}
	return allowed, info
}

// Len reports the number of live buckets
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets idle for longer than the configured TTL
func (l *Limiter) Sweep() {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-ttl)
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
