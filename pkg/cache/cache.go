// Package cache stores compiled queries, layouts and rendered artifacts.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing; used when caching is disabled
//
// Keys are built by a [Keyer] from content hashes and the options that
// affect the cached value, so a changed option never hits a stale entry.
// A [ScopedKeyer] prefixes every key, e.g. to separate API tenants.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. An expired
	// entry is a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default lifetimes per entry kind. Compiled graphs depend only on the
// query text and prefixes, so they live longest.
const (
	TTLCompile  = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
