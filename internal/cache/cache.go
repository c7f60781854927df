// Package cache is the explicit response cache the registry fetchers consult.
// Keys identify an operation plus its normalized parameters, values are the
// serialized response payload with its store time, and eviction is a lazy
// freshness check on read against the store's TTL.
package cache

import (
	"strings"
	"time"
)

// DefaultTTL matches the hour the platform considers registry responses
// fresh for.
const DefaultTTL = time.Hour

type Clock func() time.Time

type Config struct {
	TTL   time.Duration
	Clock Clock
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Entry is one cached payload.
type Entry struct {
	Payload  []byte
	StoredAt time.Time
}

// Store is the collaborator interface the cached registry client depends on.
// Get returns ok=false for both a missing and an expired entry.
type Store interface {
	Get(key string) (Entry, bool)
	Put(key string, payload []byte) error
	Close() error
}

// Key builds a cache key from an operation name and its parameters.
// Parameters are trimmed and case-folded so "RSV " and "rsv" hit the same
// entry, the way the upstream registry treats them.
func Key(op string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, op)
	for _, p := range params {
		parts = append(parts, strings.ToLower(strings.TrimSpace(p)))
	}
	return strings.Join(parts, "|")
}
