// Copyright 2026 Revisia Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package auditctx is a hybrid retrieval and context-building engine for
// audit findings. Given a natural-language query and structured filters,
// it selects the most relevant findings from a stored pool and assembles
// them into a token-budgeted context block for a language model.
package auditctx

import (
	"context"
	"log/slog"

	"github.com/revisia/auditctx/ai"
	"github.com/revisia/auditctx/ai/openai"
	"github.com/revisia/auditctx/assemble"
	"github.com/revisia/auditctx/core"
	"github.com/revisia/auditctx/embed"
	"github.com/revisia/auditctx/search"
	"github.com/revisia/auditctx/storage"
	"github.com/revisia/auditctx/storage/badger"
)

// Engine wires the finding store, embedding provider, ranking layers, and
// context builder into the retrieval pipeline.
type Engine struct {
	backend  *badger.Backend
	repo     storage.FindingRepository
	cache    embed.Cache
	provider *embed.Provider
	ranker   *search.Ranker
	combiner *search.Combiner
	builder  *assemble.Builder
	budget   core.ContextBudget
	monitor  search.RankMonitor
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	embedder      ai.Embedder
	budget        core.ContextBudget
	inMemory      bool
	monitor       search.RankMonitor
	providerOpts  []embed.Option
	combinerOpts  []search.CombinerOption
	estimatorOpts []assemble.BuilderOption
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects a custom embedder, bypassing the configured
// embedding service. Intended for tests.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithBudget overrides the context budget.
// Default is 20 candidates and 10000 estimated tokens.
func WithBudget(budget core.ContextBudget) EngineOption {
	return func(o *engineOptions) {
		o.budget = budget
	}
}

// WithInMemoryStore uses an in-memory BadgerDB instance instead of an
// on-disk one. Intended for tests.
func WithInMemoryStore() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithMonitor installs a rank monitor receiving stage callbacks on every
// request.
func WithMonitor(monitor search.RankMonitor) EngineOption {
	return func(o *engineOptions) {
		o.monitor = monitor
	}
}

// WithProviderOptions forwards options to the embedding provider.
func WithProviderOptions(opts ...embed.Option) EngineOption {
	return func(o *engineOptions) {
		o.providerOpts = append(o.providerOpts, opts...)
	}
}

// WithCombinerOptions forwards options to the hybrid combiner.
func WithCombinerOptions(opts ...search.CombinerOption) EngineOption {
	return func(o *engineOptions) {
		o.combinerOpts = append(o.combinerOpts, opts...)
	}
}

// WithBuilderOptions forwards options to the context builder.
func WithBuilderOptions(opts ...assemble.BuilderOption) EngineOption {
	return func(o *engineOptions) {
		o.estimatorOpts = append(o.estimatorOpts, opts...)
	}
}

// NewEngine opens the finding store at filePath and assembles the
// retrieval pipeline around it. Cached embeddings are persisted alongside
// the findings, so repeat queries skip the embedding service.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		budget:   core.DefaultContextBudget(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewFindingRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	cache := badger.NewEmbeddingCache(backend)

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	provider, err := embed.NewProvider(embedder, cache, options.providerOpts...)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	ranker, err := search.NewRanker(provider)
	if err != nil {
		provider.Release()
		repo.Close()
		backend.Close()
		return nil, err
	}

	combiner, err := search.NewCombiner(ranker, options.combinerOpts...)
	if err != nil {
		provider.Release()
		repo.Close()
		backend.Close()
		return nil, err
	}

	builder, err := assemble.NewBuilder(options.estimatorOpts...)
	if err != nil {
		provider.Release()
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		repo:     repo,
		cache:    cache,
		provider: provider,
		ranker:   ranker,
		combiner: combiner,
		builder:  builder,
		budget:   options.budget,
		monitor:  options.monitor,
		logger:   slog.Default().With("component", "engine"),
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	e.provider.Release()

	if err := e.cache.Close(); err != nil {
		e.logger.Error("error closing embedding cache", "err", err)
	}
	if err := e.repo.Close(); err != nil {
		e.logger.Error("error closing finding repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Repository returns the underlying finding repository.
func (e *Engine) Repository() storage.FindingRepository {
	return e.repo
}

// BuildContext runs the full retrieval pipeline for a query: validate the
// filters, load the candidate pool from the store, select a strategy,
// rank, and assemble the bounded context block.
//
// Invalid filters are the only caller-facing contract error. Embedding
// service outages degrade the ranking to keyword scoring and are reported
// through the Degraded metadata flag, never as an error.
func (e *Engine) BuildContext(ctx context.Context, queryText string, filters *core.QueryFilters) (*core.ContextResult, error) {
	if filters != nil {
		if err := core.ValidateFilters(filters); err != nil {
			return nil, err
		}
	}

	pool, err := e.repo.Query(ctx, filters)
	if err != nil {
		return nil, err
	}

	return e.buildFromPool(ctx, queryText, filters, pool)
}

// BuildContextFromPool runs the retrieval pipeline over a caller-supplied
// candidate pool instead of the store.
func (e *Engine) BuildContextFromPool(ctx context.Context, queryText string, filters *core.QueryFilters, pool []*core.Finding) (*core.ContextResult, error) {
	if filters != nil {
		if err := core.ValidateFilters(filters); err != nil {
			return nil, err
		}
	}
	return e.buildFromPool(ctx, queryText, filters, pool)
}

func (e *Engine) buildFromPool(ctx context.Context, queryText string, filters *core.QueryFilters, pool []*core.Finding) (*core.ContextResult, error) {
	strategy := search.SelectStrategy(queryText, filters)

	monitor := e.monitor
	if monitor != nil {
		monitor.Start(queryText, strategy)
	}

	var (
		ranked   []*core.ScoredFinding
		degraded bool
	)
	if len(pool) > 0 {
		switch strategy {
		case core.StrategyKeyword:
			ranked = search.RankKeyword(pool, filters, search.DefaultTopK)
		case core.StrategySemantic:
			ranked, degraded = e.ranker.RankWithMonitor(ctx, queryText, pool, filters, search.DefaultTopK, search.DefaultMinScore, monitor)
		default:
			ranked, degraded = e.combiner.CombineRankWithMonitor(ctx, queryText, pool, filters, monitor)
		}
	}

	result := e.builder.Build(ranked, e.budget)
	result.Metadata.Strategy = strategy
	result.Metadata.Degraded = degraded

	if monitor != nil {
		monitor.Finish(ranked)
	}

	e.logger.Debug("context built",
		"strategy", strategy.String(),
		"pool_size", len(pool),
		"included", result.Metadata.CandidateCount,
		"dropped", result.Metadata.DroppedCount,
		"estimated_tokens", result.Metadata.EstimatedTokens,
		"degraded", degraded)

	return &result, nil
}

// WarmEmbeddings precomputes and caches embeddings for every stored
// finding, so the first queries after a bulk load don't pay the embedding
// latency. Returns the number of embeddings now cached and the number
// that could not be computed.
func (e *Engine) WarmEmbeddings(ctx context.Context) (warmed, failed int, err error) {
	findings, err := e.repo.Query(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	if len(findings) == 0 {
		return 0, 0, nil
	}

	texts := make([]string, len(findings))
	for i, finding := range findings {
		texts[i] = finding.SearchableText()
	}

	results := e.provider.GetOrComputeBatch(ctx, texts)
	for i, res := range results {
		if res.Available() {
			warmed++
			continue
		}
		failed++
		e.logger.Warn("embedding warm-up failed",
			"id", findings[i].Id,
			"err", res.Reason())
	}
	return warmed, failed, nil
}
