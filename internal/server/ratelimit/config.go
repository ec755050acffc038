package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule is the limit applied to one route family
type Rule struct {
	Path   string        // Exact path, or a prefix when it ends with "/"
	Method string        // HTTP method
	Limit  int           // Requests per window; <= 0 means unlimited
	Window time.Duration // Refill window
	Burst  int           // Bucket capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration // Buckets unused for this long are dropped
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Rules           []Rule
}

// DefaultConfig returns the built-in limits
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		Rules:           DefaultRules(10, time.Hour),
	}
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	cfg := DefaultConfig()
	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	cfg.Rules = DefaultRules(
		getEnvInt("RATE_LIMIT_JOB_LIMIT", 10),
		getEnvDuration("RATE_LIMIT_JOB_WINDOW", time.Hour),
	)
	return cfg
}

// DefaultRules returns the per-route limits. Job creation runs the enrichment
// capability once per product and gets the strictest limit.
func DefaultRules(jobLimit int, jobWindow time.Duration) []Rule {
	jobBurst := min(2, jobLimit)
	return []Rule{
		{Path: "/health", Method: "GET", Limit: 0},

		// Job creation
		{Path: "/jobs", Method: "POST", Limit: jobLimit, Window: jobWindow, Burst: jobBurst},
		{Path: "/jobs/stream", Method: "POST", Limit: jobLimit, Window: jobWindow, Burst: jobBurst},

		// Review mutations and exports
		{Path: "/jobs/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 20},
		{Path: "/jobs/", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 20},
	}
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
