package embed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/revisia/auditctx/ai/mock"
	"github.com/revisia/auditctx/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) *Provider {
	t.Helper()
	cache := NewMemoryCache()
	t.Cleanup(func() { cache.Close() })

	base := []Option{
		WithRateLimit(1000, 100), // keep tests fast
		WithRetryBaseDelay(time.Millisecond),
	}
	provider, err := NewProvider(embedder, cache, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(provider.Release)
	return provider
}

func TestNewProvider_Validation(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewProvider(nil, cache)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil cache", func(t *testing.T) {
		_, err := NewProvider(mock.NewMockEmbedder(), nil)
		assert.Equal(t, ErrCacheRequired, err)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		_, err := NewProvider(mock.NewMockEmbedder(), cache, WithMaxAttempts(0))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})
}

func TestProvider_GetOrCompute_CacheIdempotence(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	provider := newTestProvider(t, embedder)
	ctx := context.Background()

	first := provider.GetOrCompute(ctx, "Access review overdue in Radiology")
	require.True(t, first.Available())
	assert.Equal(t, 1, embedder.CallCount())

	// Second request within the TTL is served from cache: no new call,
	// identical vector.
	second := provider.GetOrCompute(ctx, "Access review overdue in Radiology")
	require.True(t, second.Available())
	assert.Equal(t, 1, embedder.CallCount(), "cached request must not reach the service")
	assert.Equal(t, first.Embedding().Vector, second.Embedding().Vector)
}

func TestProvider_GetOrCompute_NormalizedVector(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{3, 4}, nil
	}
	provider := newTestProvider(t, embedder)

	result := provider.GetOrCompute(context.Background(), "anything")
	require.True(t, result.Available())

	vec := result.Embedding().Vector
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestProvider_GetOrCompute_Unavailable(t *testing.T) {
	serviceErr := errors.New("embedding service down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, serviceErr
	}
	provider := newTestProvider(t, embedder, WithMaxAttempts(2))

	result := provider.GetOrCompute(context.Background(), "some finding")
	assert.False(t, result.Available())
	assert.ErrorIs(t, result.Reason(), serviceErr)
	assert.Nil(t, result.Embedding())

	// One retry before giving up: two calls total.
	assert.Equal(t, 2, embedder.CallCount())
}

func TestProvider_GetOrCompute_RetryRecovers(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return []float32{1, 0}, nil
	}
	provider := newTestProvider(t, embedder, WithMaxAttempts(2))

	result := provider.GetOrCompute(context.Background(), "retryable")
	assert.True(t, result.Available(), "second attempt should recover")
}

func TestProvider_GetOrCompute_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return []float32{1, 0}, nil
	}
	provider := newTestProvider(t, embedder)

	const concurrency = 8
	results := make([]Result, concurrency)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = provider.GetOrCompute(context.Background(), "identical uncached text")
		}()
	}

	// Let all callers pile onto the in-flight computation, then release it.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 1, calls, "N concurrent requests must trigger exactly one external call")
	mu.Unlock()
	for i, result := range results {
		require.True(t, result.Available(), "caller %d", i)
	}
}

func TestProvider_GetOrComputeBatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	provider := newTestProvider(t, embedder, WithPoolSize(4))

	texts := []string{"finding one", "finding two", "finding three"}
	results := provider.GetOrComputeBatch(context.Background(), texts)

	require.Len(t, results, 3)
	for i, result := range results {
		require.True(t, result.Available(), "text %d", i)
		assert.Equal(t, core.FingerprintFromText(texts[i]), result.Embedding().Fingerprint,
			"results must keep input order")
	}
}

func TestProvider_GetOrComputeBatch_PartialFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "poison" {
			return nil, errors.New("bad input")
		}
		return []float32{1, 0}, nil
	}
	provider := newTestProvider(t, embedder)

	results := provider.GetOrComputeBatch(context.Background(), []string{"fine", "poison", "also fine"})

	require.Len(t, results, 3)
	assert.True(t, results[0].Available())
	assert.False(t, results[1].Available(), "failed item reports unavailable")
	assert.True(t, results[2].Available(), "failed item must not fail the others")
}

func TestProvider_GetOrComputeBatch_Empty(t *testing.T) {
	provider := newTestProvider(t, mock.NewMockEmbedder())
	assert.Empty(t, provider.GetOrComputeBatch(context.Background(), nil))
}
