package config

import (
	"strings"
	"time"
)

// CacheConfig tunes the Redis response cache in front of the public
// showtime reads.  Only the listed methods are cached; KeyStrategy
// "route" ignores the query string, anything else includes it.
// MaxBodyBytes caps how much of a response body is stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* environment variables.  The default
// TTL is short: seat availability counts go stale the moment somebody
// books, so the cache only absorbs read bursts.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methodSet(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func methodSet(csv string) map[string]bool {
	set := make(map[string]bool)
	for _, m := range strings.Split(csv, ",") {
		if m = strings.TrimSpace(strings.ToUpper(m)); m != "" {
			set[m] = true
		}
	}
	return set
}
