package embed

import (
	"context"
	"testing"
	"time"

	"github.com/revisia/auditctx/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVector(text string) *core.EmbeddingVector {
	return &core.EmbeddingVector{
		Vector:      []float32{0.5, 0.5, 0.5},
		Fingerprint: core.FingerprintFromText(text),
		GeneratedAt: time.Now().UTC(),
	}
}

func TestMemoryCache_PutGet(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	ctx := context.Background()
	fp := core.FingerprintFromText("safety violations 2024")
	vec := testVector("safety violations 2024")

	require.NoError(t, cache.Put(ctx, fp, vec, time.Hour))

	got, ok, err := cache.Get(ctx, fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vec, got)
}

func TestMemoryCache_Miss(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	_, ok, err := cache.Get(context.Background(), core.FingerprintFromText("never stored"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	now := time.Now()
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	fp := core.FingerprintFromText("expiring entry")
	require.NoError(t, cache.Put(ctx, fp, testVector("expiring entry"), time.Hour))

	// Still valid just before expiry.
	now = now.Add(59 * time.Minute)
	_, ok, err := cache.Get(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok, "entry should be served before expiry")

	// Never served at or after expiry.
	now = now.Add(time.Minute)
	_, ok, err = cache.Get(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok, "entry must not be served after expiry")
	assert.Equal(t, 0, cache.Len(), "lazy expiry should drop the entry")
}

func TestMemoryCache_Sweep(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	now := time.Now()
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "a", testVector("a"), time.Minute))
	require.NoError(t, cache.Put(ctx, "b", testVector("b"), time.Hour))

	now = now.Add(30 * time.Minute)
	cache.sweep()

	assert.Equal(t, 1, cache.Len())
	_, ok, err := cache.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "a", testVector("a"), time.Hour))
	require.NoError(t, cache.Put(ctx, "b", testVector("b"), time.Hour))

	require.NoError(t, cache.Delete(ctx, "a"))
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_Closed(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Close())

	ctx := context.Background()
	_, _, err := cache.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, cache.Put(ctx, "a", testVector("a"), time.Hour), ErrCacheClosed)

	// Double close is a no-op.
	require.NoError(t, cache.Close())
}
