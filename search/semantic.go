package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/revisia/auditctx/core"
	"github.com/revisia/auditctx/embed"
)

// Ranking defaults.
const (
	DefaultTopK     = 20
	DefaultMinScore = 0.3
)

// EmbeddingSource yields embeddings with explicit availability, typically
// an *embed.Provider.
type EmbeddingSource interface {
	GetOrCompute(ctx context.Context, text string) embed.Result
	GetOrComputeBatch(ctx context.Context, texts []string) []embed.Result
}

// Ranker orders findings by embedding similarity to the query, falling
// back to keyword scoring for findings whose embeddings are unavailable.
type Ranker struct {
	source EmbeddingSource
	logger *slog.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker) error

// WithRankerLogger sets a custom logger.
// Default is slog.Default().
func WithRankerLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a semantic ranker over the given embedding source.
func NewRanker(source EmbeddingSource, opts ...RankerOption) (*Ranker, error) {
	if source == nil {
		return nil, ErrEmbeddingSourceRequired
	}

	r := &Ranker{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rank orders findings by cosine similarity to the query embedding,
// discarding scores below minScore and returning at most topK results.
// See RankWithMonitor for the degraded flag semantics.
func (r *Ranker) Rank(ctx context.Context, queryText string, findings []*core.Finding, filters *core.QueryFilters, topK int, minScore float64) ([]*core.ScoredFinding, bool) {
	return r.RankWithMonitor(ctx, queryText, findings, filters, topK, minScore, nil)
}

// RankWithMonitor ranks findings with stage callbacks. The boolean result
// reports degradation: true when the query embedding or any finding
// embedding was unavailable and keyword fallback scores entered the
// ranking. The ranking itself never aborts due to embedding
// unavailability.
//
// Given identical cached embeddings the output order is deterministic;
// ties are broken by finding ID ascending.
func (r *Ranker) RankWithMonitor(ctx context.Context, queryText string, findings []*core.Finding, filters *core.QueryFilters, topK int, minScore float64, monitor RankMonitor) ([]*core.ScoredFinding, bool) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(findings) == 0 {
		return []*core.ScoredFinding{}, false
	}

	queryResult := r.source.GetOrCompute(ctx, queryText)
	if !queryResult.Available() {
		// The query itself could not be embedded: the whole ranking falls
		// back to keyword scoring.
		r.logger.Warn("query embedding unavailable, falling back to keyword ranking",
			"err", queryResult.Reason())
		scored := r.fallbackAll(findings, filters, monitor)
		scored = selectTop(scored, topK, minScore)
		monitor.AfterSemanticStage(scored)
		return scored, true
	}
	queryVec := queryResult.Embedding().Vector

	texts := make([]string, len(findings))
	for i, finding := range findings {
		texts[i] = finding.SearchableText()
	}
	results := r.source.GetOrComputeBatch(ctx, texts)

	degraded := false
	scored := make([]*core.ScoredFinding, 0, len(findings))
	for i, finding := range findings {
		sf := &core.ScoredFinding{Finding: finding}
		if results[i].Available() {
			sim := CosineSimilarity(queryVec, results[i].Embedding().Vector)
			sf.Score = sim
			sf.Breakdown.SemanticScore = sim
		} else {
			// This finding's embedding is unavailable; its keyword score
			// stands in, normalized to the similarity range.
			kwScore, breakdown := ScoreKeyword(finding, filters)
			sf.Score = NormalizeKeywordScore(kwScore)
			sf.Breakdown = breakdown
			sf.Breakdown.Fallback = true
			degraded = true
			monitor.EmbeddingFallback(finding.Id)
		}
		scored = append(scored, sf)
	}

	scored = selectTop(scored, topK, minScore)
	monitor.AfterSemanticStage(scored)
	return scored, degraded
}

func (r *Ranker) fallbackAll(findings []*core.Finding, filters *core.QueryFilters, monitor RankMonitor) []*core.ScoredFinding {
	scored := make([]*core.ScoredFinding, 0, len(findings))
	for _, finding := range findings {
		kwScore, breakdown := ScoreKeyword(finding, filters)
		breakdown.Fallback = true
		scored = append(scored, &core.ScoredFinding{
			Finding:   finding,
			Score:     NormalizeKeywordScore(kwScore),
			Breakdown: breakdown,
		})
		monitor.EmbeddingFallback(finding.Id)
	}
	return scored
}

// selectTop filters by minScore, sorts score descending with ID ascending
// tie-break, and truncates to topK.
func selectTop(scored []*core.ScoredFinding, topK int, minScore float64) []*core.ScoredFinding {
	kept := make([]*core.ScoredFinding, 0, len(scored))
	for _, sf := range scored {
		if sf.Score >= minScore {
			kept = append(kept, sf)
		}
	}
	sortScored(kept)
	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}

// sortScored orders by score descending, finding ID ascending for ties.
// The tie-break keeps rankings reproducible regardless of the order in
// which concurrent embedding calls completed.
func sortScored(scored []*core.ScoredFinding) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Finding.Id < scored[j].Finding.Id
	})
}
