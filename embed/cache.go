package embed

import (
	"context"
	"time"

	"github.com/revisia/auditctx/core"
)

// DefaultTTL is how long cached embeddings stay valid.
const DefaultTTL = 24 * time.Hour

// Cache stores computed embeddings keyed by content fingerprint.
// Implementations must be safe for concurrent use. An entry must never be
// served after its TTL has elapsed. Only the Provider writes to the cache.
type Cache interface {
	// Get returns the cached embedding for the fingerprint and whether it
	// was present and unexpired.
	Get(ctx context.Context, fp core.Fingerprint) (*core.EmbeddingVector, bool, error)

	// Put stores an embedding with the given TTL, replacing any previous
	// entry for the fingerprint.
	Put(ctx context.Context, fp core.Fingerprint, vec *core.EmbeddingVector, ttl time.Duration) error

	// Delete removes the entry for the fingerprint if present.
	Delete(ctx context.Context, fp core.Fingerprint) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases resources held by the cache.
	Close() error
}
