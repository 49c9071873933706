package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/revisia/auditctx/ai/mock"
	"github.com/revisia/auditctx/core"
	"github.com/revisia/auditctx/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRanker builds a ranker over a real provider backed by the mock
// embedder, so ranking tests exercise the same cache and batching paths
// production does.
func newTestRanker(t *testing.T, embedFn func(ctx context.Context, text string) ([]float32, error)) *Ranker {
	t.Helper()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = embedFn

	cache := embed.NewMemoryCache()
	provider, err := embed.NewProvider(embedder, cache,
		embed.WithRateLimit(1000, 100),
		embed.WithRetryBaseDelay(time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(provider.Release)
	t.Cleanup(func() { _ = cache.Close() })

	ranker, err := NewRanker(provider)
	require.NoError(t, err)
	return ranker
}

// routeBySubstring maps marker words to fixed vectors so tests control
// each cosine similarity exactly. The provider normalizes vectors, so the
// routes may use any magnitude.
func routeBySubstring(routes map[string][]float32) func(ctx context.Context, text string) ([]float32, error) {
	return func(_ context.Context, text string) ([]float32, error) {
		for marker, vec := range routes {
			if strings.Contains(strings.ToLower(text), marker) {
				return vec, nil
			}
		}
		return []float32{0, 1}, nil
	}
}

func rankedFinding(id core.ID, title string) *core.Finding {
	return &core.Finding{
		Id:          id,
		Period:      "2024",
		Unit:        "Radiology",
		Project:     "AUD-17",
		Title:       title,
		Description: "Audit detail.",
		Severity:    5,
		Kind:        core.KindFinding,
	}
}

func TestNewRanker_RequiresSource(t *testing.T) {
	_, err := NewRanker(nil)
	assert.ErrorIs(t, err, ErrEmbeddingSourceRequired)
}

func TestRank_OrdersBySimilarity(t *testing.T) {
	ranker := newTestRanker(t, routeBySubstring(map[string][]float32{
		"query": {1, 0},
		"alpha": {1, 0},    // similarity 1.0
		"beta":  {0.8, 0.6}, // similarity 0.8
		"gamma": {0, 1},    // similarity 0.0
	}))

	findings := []*core.Finding{
		rankedFinding(3, "gamma review"),
		rankedFinding(1, "alpha review"),
		rankedFinding(2, "beta review"),
	}

	scored, degraded := ranker.Rank(context.Background(), "query", findings, nil, DefaultTopK, DefaultMinScore)
	assert.False(t, degraded)
	require.Len(t, scored, 2) // gamma falls below the 0.3 threshold

	assert.Equal(t, core.ID(1), scored[0].Finding.Id)
	assert.InDelta(t, 1.0, scored[0].Score, 1e-6)
	assert.InDelta(t, 1.0, scored[0].Breakdown.SemanticScore, 1e-6)

	assert.Equal(t, core.ID(2), scored[1].Finding.Id)
	assert.InDelta(t, 0.8, scored[1].Score, 1e-6)
}

func TestRank_ThresholdPostcondition(t *testing.T) {
	ranker := newTestRanker(t, nil) // deterministic hash vectors

	findings := make([]*core.Finding, 0, 20)
	for i := 1; i <= 20; i++ {
		findings = append(findings, rankedFinding(core.ID(i), "control gap "+strings.Repeat("x", i)))
	}

	minScore := 0.1
	scored, degraded := ranker.Rank(context.Background(), "control gaps in radiology", findings, nil, DefaultTopK, minScore)
	assert.False(t, degraded)
	for _, sf := range scored {
		assert.GreaterOrEqual(t, sf.Score, minScore)
	}
}

func TestRank_TopKTruncates(t *testing.T) {
	ranker := newTestRanker(t, routeBySubstring(nil)) // everything similarity 1.0 vs default query route

	findings := make([]*core.Finding, 0, 10)
	for i := 1; i <= 10; i++ {
		findings = append(findings, rankedFinding(core.ID(i), "finding"))
	}

	scored, _ := ranker.Rank(context.Background(), "anything", findings, nil, 3, -1)
	assert.Len(t, scored, 3)
}

func TestRank_TiesBreakByID(t *testing.T) {
	ranker := newTestRanker(t, routeBySubstring(map[string][]float32{
		"query": {1, 0},
		"twin":  {1, 0},
	}))

	findings := []*core.Finding{
		rankedFinding(9, "twin one"),
		rankedFinding(2, "twin two"),
		rankedFinding(5, "twin three"),
	}

	scored, _ := ranker.Rank(context.Background(), "query", findings, nil, DefaultTopK, DefaultMinScore)
	require.Len(t, scored, 3)
	assert.Equal(t, core.ID(2), scored[0].Finding.Id)
	assert.Equal(t, core.ID(5), scored[1].Finding.Id)
	assert.Equal(t, core.ID(9), scored[2].Finding.Id)
}

func TestRank_Deterministic(t *testing.T) {
	ranker := newTestRanker(t, nil)

	findings := []*core.Finding{
		rankedFinding(1, "access controls"),
		rankedFinding(2, "fire safety"),
		rankedFinding(3, "procurement delays"),
		rankedFinding(4, "patch management"),
	}

	first, _ := ranker.Rank(context.Background(), "safety controls", findings, nil, DefaultTopK, -1)
	for i := 0; i < 5; i++ {
		again, _ := ranker.Rank(context.Background(), "safety controls", findings, nil, DefaultTopK, -1)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Finding.Id, again[j].Finding.Id)
			assert.Equal(t, first[j].Score, again[j].Score)
		}
	}
}

func TestRank_QueryEmbeddingUnavailable(t *testing.T) {
	embedErr := errors.New("embedding service down")
	ranker := newTestRanker(t, func(_ context.Context, _ string) ([]float32, error) {
		return nil, embedErr
	})

	filters := &core.QueryFilters{Period: "2024"}
	findings := []*core.Finding{
		rankedFinding(1, "fire safety"),
		rankedFinding(2, "access controls"),
	}

	scored, degraded := ranker.Rank(context.Background(), "anything", findings, filters, DefaultTopK, DefaultMinScore)
	assert.True(t, degraded)
	require.Len(t, scored, 2)
	for _, sf := range scored {
		assert.True(t, sf.Breakdown.Fallback)
		// Period match is worth 30 points, normalized to 0.3.
		assert.InDelta(t, 0.3, sf.Score, 1e-9)
	}
}

func TestRank_PerCandidateFallback(t *testing.T) {
	embedErr := errors.New("embedding service hiccup")
	ranker := newTestRanker(t, func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(strings.ToLower(text), "poison") {
			return nil, embedErr
		}
		return []float32{1, 0}, nil
	})

	filters := &core.QueryFilters{Period: "2024", Unit: "Radiology"}
	findings := []*core.Finding{
		rankedFinding(1, "healthy record"),
		rankedFinding(2, "poison record"),
	}

	scored, degraded := ranker.Rank(context.Background(), "query", findings, filters, DefaultTopK, DefaultMinScore)
	assert.True(t, degraded)
	require.Len(t, scored, 2)

	assert.Equal(t, core.ID(1), scored[0].Finding.Id)
	assert.False(t, scored[0].Breakdown.Fallback)
	assert.InDelta(t, 1.0, scored[0].Score, 1e-6)

	assert.Equal(t, core.ID(2), scored[1].Finding.Id)
	assert.True(t, scored[1].Breakdown.Fallback)
	// Period and unit match: (30+25)/100.
	assert.InDelta(t, 0.55, scored[1].Score, 1e-9)
}

func TestRank_EmptyInput(t *testing.T) {
	ranker := newTestRanker(t, nil)
	scored, degraded := ranker.Rank(context.Background(), "query", nil, nil, DefaultTopK, DefaultMinScore)
	assert.Empty(t, scored)
	assert.False(t, degraded)
}
