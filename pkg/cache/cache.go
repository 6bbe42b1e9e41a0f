// Package cache keeps rendered graph artifacts so that unchanged scenes
// skip the Graphviz layout on the next `riglink graph`.
//
// Keys are content hashes of the DOT source and output format, so a stale
// entry can never be served for a changed scene. Entries still expire
// after their TTL to keep the cache directory bounded.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultTTL is how long a rendered artifact is kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache stores opaque byte values by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ArtifactKey returns the key for dot rendered as format.
func ArtifactKey(dot, format string) string {
	return "graph:" + format + ":" + Hash([]byte(dot))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
