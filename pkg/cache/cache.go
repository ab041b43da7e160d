// Package cache stores derived artifacts of the decision view.
//
// Only reproducible outputs are cached: decision graphs keyed by the hash of
// the raw prediction result, and rendered artifacts (SVG, PNG, DOT) keyed by
// the hash of the graph they were drawn from. The current view itself is
// never cached; see package session.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI.
//   - [RedisCache]: a shared Redis instance, for the HTTP server.
//   - [NullCache]: caching disabled.
//
// # Keys
//
// A [Keyer] builds backend-independent keys; [ScopedKeyer] prefixes them so
// several deployments can share one Redis.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default TTLs.
const (
	TTLGraph    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
