package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/revisia/auditctx/core"
	"github.com/revisia/auditctx/embed"
	"github.com/revisia/auditctx/storage"
)

// EmbeddingCache implements embed.Cache over BadgerDB entries, so cached
// embeddings survive process restarts. Expiry is delegated to badger's
// native entry TTL.
type EmbeddingCache struct {
	backend *Backend
}

var _ embed.Cache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates an embedding cache over the given backend.
func NewEmbeddingCache(backend *Backend) *EmbeddingCache {
	return &EmbeddingCache{backend: backend}
}

// Get returns the cached embedding for the fingerprint.
// Expired entries are dropped by badger and read as absent.
func (c *EmbeddingCache) Get(ctx context.Context, fp core.Fingerprint) (*core.EmbeddingVector, bool, error) {
	var vec *core.EmbeddingVector

	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(fp))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			vec, err = storage.UnmarshalEmbeddingVector(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, false, err
	}
	if vec == nil {
		return nil, false, nil
	}
	return vec, true, nil
}

// Put stores an embedding with the given TTL.
// A non-positive TTL stores the entry without expiry.
func (c *EmbeddingCache) Put(ctx context.Context, fp core.Fingerprint, vec *core.EmbeddingVector, ttl time.Duration) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeEmbeddingKey(fp), storage.MarshalEmbeddingVector(vec))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes the entry for the fingerprint if present.
func (c *EmbeddingCache) Delete(ctx context.Context, fp core.Fingerprint) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeEmbeddingKey(fp)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Clear removes all cached embeddings.
func (c *EmbeddingCache) Clear(ctx context.Context) error {
	return c.backend.DropPrefix([]byte(embeddingRecordPrefix))
}

// Close is a no-op. The backend is owned by the caller and stays open.
func (c *EmbeddingCache) Close() error {
	return nil
}
