package embed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/revisia/auditctx/ai"
	"github.com/revisia/auditctx/core"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout        = 5 * time.Second
	defaultMaxAttempts    = 2 // one retry before declaring unavailable
	defaultRetryBaseDelay = 250 * time.Millisecond
	defaultRequestsPerSec = 10
	defaultPoolSize       = 10
)

// Provider wraps the external embedding service with cache-aware
// get-or-compute semantics, single-flight deduplication, rate limiting,
// and a bounded worker pool for batch requests.
type Provider struct {
	embedder       ai.Embedder
	cache          Cache
	ttl            time.Duration
	timeout        time.Duration
	maxAttempts    int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
	pool           *ants.Pool
	group          singleflight.Group
	logger         *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider) error

// WithTTL sets the cache TTL for computed embeddings.
// Default is 24 hours.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) error {
		if ttl > 0 {
			p.ttl = ttl
		}
		return nil
	}
}

// WithTimeout bounds each external embedding call.
// Default is 5 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Provider) error {
		if timeout > 0 {
			p.timeout = timeout
		}
		return nil
	}
}

// WithMaxAttempts sets the attempt ceiling per embedding, including the
// first try. Default is 2.
func WithMaxAttempts(attempts int) Option {
	return func(p *Provider) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = attempts
		return nil
	}
}

// WithRetryBaseDelay sets the base delay for exponential backoff between
// attempts. Default is 250ms.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(p *Provider) error {
		if delay > 0 {
			p.retryBaseDelay = delay
		}
		return nil
	}
}

// WithRateLimit sets the outbound request rate toward the embedding API.
// Default is 10 requests per second with a burst of 1, which approximates
// sequential dispatch at a fixed interval.
func WithRateLimit(requestsPerSec float64, burst int) Option {
	return func(p *Provider) error {
		if requestsPerSec <= 0 {
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(requestsPerSec), burst)
		return nil
	}
}

// WithPoolSize sets the worker pool size for batch embedding.
// Default is 10, matching the rate limit's in-flight ceiling.
func WithPoolSize(size int) Option {
	return func(p *Provider) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewProvider creates a provider adapter over the given embedder and cache.
func NewProvider(embedder ai.Embedder, cache Cache, opts ...Option) (*Provider, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		embedder:       embedder,
		cache:          cache,
		ttl:            DefaultTTL,
		timeout:        defaultTimeout,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		limiter:        rate.NewLimiter(rate.Limit(defaultRequestsPerSec), 1),
		pool:           pool,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// Release frees the worker pool. The provider must not be used afterwards.
func (p *Provider) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// GetOrCompute returns the embedding for the text, serving from the cache
// when possible. Concurrent calls for the same fingerprint share one
// external request. A failed or timed-out service call yields an
// unavailable Result, never an error.
func (p *Provider) GetOrCompute(ctx context.Context, text string) Result {
	fp := core.FingerprintFromText(text)

	vec, ok, err := p.cache.Get(ctx, fp)
	if err != nil {
		p.logger.Warn("embedding cache read failed", "fingerprint", fp, "err", err)
	} else if ok {
		return Ok(vec)
	}

	v, err, _ := p.group.Do(string(fp), func() (any, error) {
		// A concurrent flight may have filled the cache while we waited.
		if vec, ok, err := p.cache.Get(ctx, fp); err == nil && ok {
			return vec, nil
		}
		return p.compute(ctx, fp, text)
	})
	if err != nil {
		p.logger.Warn("embedding unavailable", "fingerprint", fp, "err", err)
		return Unavailable(err)
	}
	return Ok(v.(*core.EmbeddingVector))
}

// GetOrComputeBatch embeds up to len(texts) strings concurrently over the
// worker pool. The returned slice matches the input order; each slot holds
// its own Result, so one slow or failed text never blocks or fails the
// rest.
func (p *Provider) GetOrComputeBatch(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))
	if len(texts) == 0 {
		return results
	}

	var wg sync.WaitGroup
	for i, text := range texts {
		i, text := i, text
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			results[i] = p.GetOrCompute(ctx, text)
		}); err != nil {
			wg.Done()
			p.logger.Warn("batch submit failed", "index", i, "err", err)
			results[i] = Unavailable(err)
		}
	}
	wg.Wait()

	return results
}

func (p *Provider) compute(ctx context.Context, fp core.Fingerprint, text string) (*core.EmbeddingVector, error) {
	var raw []float32
	err := RetryWithBackoff(ctx, func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		vec, err := p.embedder.EmbedText(callCtx, text)
		if err != nil {
			return err
		}
		if len(vec) == 0 {
			return ErrEmptyEmbedding
		}
		raw = vec
		return nil
	}, p.maxAttempts, p.retryBaseDelay)
	if err != nil {
		return nil, err
	}

	vec := &core.EmbeddingVector{
		Vector:      NormalizeVector(raw),
		Fingerprint: fp,
		GeneratedAt: time.Now().UTC(),
	}
	if err := p.cache.Put(ctx, fp, vec, p.ttl); err != nil {
		p.logger.Warn("embedding cache write failed", "fingerprint", fp, "err", err)
	}
	return vec, nil
}
