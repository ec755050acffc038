package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	l := NewLimiter(cfg, WithClock(clock.Now))
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("127.0.0.1", "/jobs", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/jobs", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})

	for i := 0; i < 60; i++ {
		l.Allow("c", "/x", "GET")
	}
	allowed, _ := l.Allow("c", "/x", "GET")
	require.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.False(t, allowed)
}

func TestLimiter_ResetTime(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: 10 * time.Second})

	for i := 0; i < 4; i++ {
		l.Allow("c", "/x", "GET")
	}
	_, info := l.Allow("c", "/x", "GET")
	assert.Equal(t, 5, info.Remaining)
	assert.Equal(t, clock.Now().Add(5*time.Second), info.ResetTime)
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})

	for i := 0; i < 50; i++ {
		allowed, info := l.Allow("10.0.0.1", "/jobs", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}

	allowed, _ := l.Allow("10.0.0.2", "/health", "GET")
	assert.False(t, allowed)

	off, _ := newTestLimiter(t, &Config{Enabled: false})
	for i := 0; i < 50; i++ {
		allowed, _ := off.Allow("c", "/jobs", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_JobCreationIsStrict(t *testing.T) {
	cfg := DefaultConfig()
	l, clock := newTestLimiter(t, cfg)

	for i := 0; i < 2; i++ {
		allowed, info := l.Allow("c", "/jobs", "POST")
		require.True(t, allowed)
		assert.Equal(t, 10, info.Limit)
	}
	allowed, info := l.Allow("c", "/jobs", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 6*time.Minute, info.RetryAfter)

	// the streaming variant has its own bucket
	allowed, _ = l.Allow("c", "/jobs/stream", "POST")
	assert.True(t, allowed)

	// reads fall back to the default limit
	allowed, info = l.Allow("c", "/jobs", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)

	clock.Advance(6 * time.Minute)
	allowed, _ = l.Allow("c", "/jobs", "POST")
	assert.True(t, allowed)
}

func TestLimiter_PrefixRuleSharesBucket(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Rules:         []Rule{{Path: "/jobs/", Method: "POST", Limit: 2, Window: time.Minute}},
	})

	allowed, _ := l.Allow("c", "/jobs/a/review/approve", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow("c", "/jobs/b/export", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow("c", "/jobs/c/review/save", "POST")
	assert.False(t, allowed)

	allowed, _ = l.Allow("other", "/jobs/a/export", "POST")
	assert.True(t, allowed)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLimit = 1
	l, _ := newTestLimiter(t, cfg)

	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, l.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})

	var wg sync.WaitGroup
	var allowed atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/x", "GET"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowed.Load())
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Hour})

	l.Allow("a", "/x", "GET")
	l.Allow("b", "/x", "GET")
	require.Equal(t, 2, l.Len())

	clock.Advance(40 * time.Minute)
	l.Allow("b", "/x", "GET")
	clock.Advance(30 * time.Minute)
	l.Sweep()

	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l, _ := newTestLimiter(t, nil)
	allowed, info := l.Allow("c", "/jobs", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchRule(t *testing.T) {
	rules := DefaultRules(10, time.Hour)

	tests := []struct {
		path, method string
		wantPath     string
	}{
		{"/jobs", "POST", "/jobs"},
		{"/jobs/stream", "POST", "/jobs/stream"},
		{"/jobs/123/export", "POST", "/jobs/"},
		{"/jobs/123/review/products/p1", "PATCH", "/jobs/"},
		{"/health", "GET", "/health"},
		{"/jobs/123", "GET", ""},
		{"/dashboard", "GET", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rule := MatchRule(tt.path, tt.method, rules)
			if tt.wantPath == "" {
				assert.Nil(t, rule)
				return
			}
			require.NotNil(t, rule)
			assert.Equal(t, tt.wantPath, rule.Path)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_JOB_LIMIT", "3")
	t.Setenv("RATE_LIMIT_JOB_WINDOW", "30m")
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1, ,10.0.0.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)

	rule := MatchRule("/jobs", "POST", cfg.Rules)
	require.NotNil(t, rule)
	assert.Equal(t, 3, rule.Limit)
	assert.Equal(t, 30*time.Minute, rule.Window)
	assert.Equal(t, 2, rule.Burst)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
