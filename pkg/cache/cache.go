// Package cache stores the compiled ORM schema between runs.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultKey is the key the compiled schema is cached under.
const DefaultKey = "cycle_orm_schema"

var (
	// ErrNoCache is returned when no cache service is available.
	ErrNoCache = errors.New("no cache service is configured")
	// ErrNotCache is returned when the configured service is not a Cache.
	ErrNotCache = errors.New("service must implement cache.Cache")
)

// Cache is a byte store with expiry.
type Cache interface {
	// Get returns the value of key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
}

// envelope is how File stores entries.
type envelope struct {
	Value     []byte `msgpack:"v"`
	ExpiresAt int64  `msgpack:"e"`
}

func expiry(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(ttl).UnixNano()
}

func (e envelope) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.UnixNano() >= e.ExpiresAt
}
