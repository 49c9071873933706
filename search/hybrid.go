package search

import (
	"context"
	"log/slog"

	"github.com/revisia/auditctx/core"
)

// Hybrid pipeline policy constants. The three-stage narrowing shape and
// the 0.7/0.3 weighting are the contract; the cutoffs are tunable.
const (
	DefaultStage1Keep = 60 // keyword-filter survivors
	DefaultStage2Keep = 30 // semantic-ranking survivors
	DefaultFinalKeep  = 20 // fused results returned

	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3
)

// Combiner runs the hybrid ranking pipeline: keyword filtering, semantic
// ranking, and weighted score fusion, each stage narrowing the candidate
// set.
type Combiner struct {
	ranker         *Ranker
	stage1Keep     int
	stage2Keep     int
	finalKeep      int
	semanticWeight float64
	keywordWeight  float64
	logger         *slog.Logger
}

// CombinerOption configures a Combiner.
type CombinerOption func(*Combiner) error

// WithStageCutoffs overrides the per-stage candidate counts.
// Non-positive values keep the defaults.
func WithStageCutoffs(stage1, stage2, final int) CombinerOption {
	return func(c *Combiner) error {
		if stage1 > 0 {
			c.stage1Keep = stage1
		}
		if stage2 > 0 {
			c.stage2Keep = stage2
		}
		if final > 0 {
			c.finalKeep = final
		}
		return nil
	}
}

// WithFusionWeights overrides the semantic/keyword fusion weights.
func WithFusionWeights(semantic, keyword float64) CombinerOption {
	return func(c *Combiner) error {
		if semantic > 0 && keyword > 0 {
			c.semanticWeight = semantic
			c.keywordWeight = keyword
		}
		return nil
	}
}

// WithCombinerLogger sets a custom logger.
// Default is slog.Default().
func WithCombinerLogger(logger *slog.Logger) CombinerOption {
	return func(c *Combiner) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCombiner creates a hybrid combiner over the given semantic ranker.
func NewCombiner(ranker *Ranker, opts ...CombinerOption) (*Combiner, error) {
	if ranker == nil {
		return nil, ErrRankerRequired
	}

	c := &Combiner{
		ranker:         ranker,
		stage1Keep:     DefaultStage1Keep,
		stage2Keep:     DefaultStage2Keep,
		finalKeep:      DefaultFinalKeep,
		semanticWeight: DefaultSemanticWeight,
		keywordWeight:  DefaultKeywordWeight,
	}
	c.logger = slog.Default()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CombineRank runs the three-stage hybrid pipeline.
// See CombineRankWithMonitor.
func (c *Combiner) CombineRank(ctx context.Context, queryText string, findings []*core.Finding, filters *core.QueryFilters) ([]*core.ScoredFinding, bool) {
	return c.CombineRankWithMonitor(ctx, queryText, findings, filters, nil)
}

// CombineRankWithMonitor runs the hybrid pipeline with stage callbacks:
//
//  1. Keyword stage: score every finding against the filters, keep the
//     top stage1Keep.
//  2. Semantic stage: rank the survivors by embedding similarity, keep the
//     top stage2Keep. No similarity threshold applies here; narrowing is
//     by rank alone.
//  3. Fusion stage: combined = semanticWeight*semantic +
//     keywordWeight*normalizedKeyword, sorted descending, top finalKeep.
//
// Each stage only narrows: stage counts are monotonically non-increasing.
// The boolean result reports embedding degradation as in Ranker.Rank.
func (c *Combiner) CombineRankWithMonitor(ctx context.Context, queryText string, findings []*core.Finding, filters *core.QueryFilters, monitor RankMonitor) ([]*core.ScoredFinding, bool) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if len(findings) == 0 {
		return []*core.ScoredFinding{}, false
	}

	// Stage 1: keyword filter.
	keywordScored := make([]*core.ScoredFinding, 0, len(findings))
	keywordByID := make(map[core.ID]float64, len(findings))
	for _, finding := range findings {
		score, breakdown := ScoreKeyword(finding, filters)
		keywordByID[finding.Id] = score
		keywordScored = append(keywordScored, &core.ScoredFinding{
			Finding:   finding,
			Score:     score,
			Breakdown: breakdown,
		})
	}
	sortScored(keywordScored)
	if len(keywordScored) > c.stage1Keep {
		keywordScored = keywordScored[:c.stage1Keep]
	}
	monitor.AfterKeywordStage(keywordScored)

	survivors := make([]*core.Finding, len(keywordScored))
	for i, sf := range keywordScored {
		survivors[i] = sf.Finding
	}

	// Stage 2: semantic ranking of the survivors. minScore -1 admits the
	// whole cosine range; narrowing is by rank alone.
	semanticScored, degraded := c.ranker.RankWithMonitor(ctx, queryText, survivors, filters, c.stage2Keep, -1, monitor)

	// Stage 3: weighted fusion.
	fused := make([]*core.ScoredFinding, 0, len(semanticScored))
	for _, sf := range semanticScored {
		keywordScore := keywordByID[sf.Finding.Id]
		combined := c.semanticWeight*sf.Score + c.keywordWeight*NormalizeKeywordScore(keywordScore)

		breakdown := sf.Breakdown
		breakdown.SemanticScore = sf.Score
		breakdown.KeywordScore = keywordScore
		fused = append(fused, &core.ScoredFinding{
			Finding:   sf.Finding,
			Score:     combined,
			Breakdown: breakdown,
		})
	}
	sortScored(fused)
	if len(fused) > c.finalKeep {
		fused = fused[:c.finalKeep]
	}
	monitor.AfterFusion(fused)

	return fused, degraded
}
