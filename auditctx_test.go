package auditctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/revisia/auditctx/ai/mock"
	"github.com/revisia/auditctx/core"
	"github.com/revisia/auditctx/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, embedder *mock.MockEmbedder) *Engine {
	t.Helper()

	engine, err := NewEngine("",
		WithInMemoryStore(),
		WithEmbedder(embedder),
		WithProviderOptions(
			embed.WithRateLimit(1000, 100),
			embed.WithRetryBaseDelay(time.Millisecond),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func seedFindings(t *testing.T, engine *Engine, findings ...*core.Finding) {
	t.Helper()
	_, err := engine.Repository().AddFindings(context.Background(), findings...)
	require.NoError(t, err)
}

func TestNewEngine(t *testing.T) {
	t.Run("create on-disk engine", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		engine, err := NewEngine(tmpDir, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		assert.NotNil(t, engine.Repository())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		engine, err := NewEngine(tmpFile, WithEmbedder(mock.NewMockEmbedder()))
		assert.Error(t, err)
		assert.Nil(t, engine)
	})
}

func TestBuildContext_HybridScenario(t *testing.T) {
	engine := newTestEngine(t, mock.NewMockEmbedder())

	findings := make([]*core.Finding, 0, 150)
	for i := 1; i <= 150; i++ {
		period := "2023"
		if i%2 == 0 {
			period = "2024"
		}
		findings = append(findings, &core.Finding{
			Period:      period,
			Unit:        "Radiology",
			Project:     fmt.Sprintf("AUD-%d", i),
			Title:       fmt.Sprintf("Safety review item %d", i),
			Description: fmt.Sprintf("Inspection record %d covering hospital procedures.", i),
			Severity:    i % 11,
			Kind:        core.KindFinding,
		})
	}
	seedFindings(t, engine, findings...)

	filters := &core.QueryFilters{Period: "2024", Keywords: []string{"safety", "hospital"}}
	result, err := engine.BuildContext(context.Background(), "Analyze safety violations in hospitals from 2024", filters)
	require.NoError(t, err)

	assert.Equal(t, core.StrategyHybrid, result.Metadata.Strategy)
	assert.Equal(t, 20, result.Metadata.CandidateCount)
	assert.False(t, result.Metadata.Degraded)
	assert.NotEmpty(t, result.ContextText)
}

func TestBuildContext_EmptyPool(t *testing.T) {
	engine := newTestEngine(t, mock.NewMockEmbedder())

	result, err := engine.BuildContext(context.Background(), "anything at all", nil)
	require.NoError(t, err)

	assert.Empty(t, result.ContextText)
	assert.Equal(t, 0, result.Metadata.CandidateCount)
	assert.Equal(t, 0, result.Metadata.DroppedCount)
	assert.False(t, result.Metadata.Degraded)
}

func TestBuildContext_EmbeddingOutageDegrades(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	engine := newTestEngine(t, embedder)

	seedFindings(t, engine,
		&core.Finding{
			Period: "2024", Unit: "Radiology",
			Title: "Fire drills missed", Description: "Fire safety drills were not performed.",
			Severity: 7, Kind: core.KindFinding,
		},
		&core.Finding{
			Period: "2023", Unit: "Cardiology",
			Title: "Stale records", Description: "Patient records were not archived.",
			Severity: 4, Kind: core.KindFinding,
		},
	)

	// The outage degrades the ranking to keyword-equivalent ordering
	// rather than failing the request.
	filters := &core.QueryFilters{Period: "2024"}
	result, err := engine.BuildContext(context.Background(), "explain the trend in these findings", filters)
	require.NoError(t, err)

	assert.Equal(t, core.StrategyHybrid, result.Metadata.Strategy)
	assert.True(t, result.Metadata.Degraded)
	assert.Equal(t, 2, result.Metadata.CandidateCount)

	// The period match puts the 2024 finding first.
	assert.Less(t,
		strings.Index(result.ContextText, "Fire drills missed"),
		strings.Index(result.ContextText, "Stale records"))
}

func TestBuildContext_FirstItemOverflow(t *testing.T) {
	engine := newTestEngine(t, mock.NewMockEmbedder())

	seedFindings(t, engine, &core.Finding{
		Period: "2024", Unit: "Radiology",
		Title:       "Enormous finding",
		Description: strings.Repeat("Very long incident narrative. ", 1600), // ~12k estimated tokens
		Severity:    9, Kind: core.KindFinding,
	})

	result, err := engine.BuildContext(context.Background(), "incident narrative", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Metadata.CandidateCount)
	assert.Equal(t, 0, result.Metadata.DroppedCount)
	assert.True(t, result.Metadata.OverBudget)
	assert.Greater(t, result.Metadata.EstimatedTokens, core.DefaultMaxTokens)
}

func TestBuildContext_RepeatQueryServedFromCache(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	engine := newTestEngine(t, embedder)

	seedFindings(t, engine, &core.Finding{
		Period: "2024", Unit: "Radiology",
		Title: "Cached finding", Description: "Inspection detail.",
		Severity: 5, Kind: core.KindFinding,
	})

	query := "hospital inspections"
	_, err := engine.BuildContext(context.Background(), query, nil)
	require.NoError(t, err)

	firstCount := embedder.CallCount()
	require.Positive(t, firstCount)

	_, err = engine.BuildContext(context.Background(), query, nil)
	require.NoError(t, err)

	assert.Equal(t, firstCount, embedder.CallCount(), "second request should be served from the embedding cache")
}

func TestBuildContext_KeywordStrategy(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	engine := newTestEngine(t, embedder)

	seedFindings(t, engine,
		&core.Finding{
			Period: "2024", Unit: "Radiology",
			Title: "Matching finding", Description: "Detail.",
			Severity: 5, Kind: core.KindFinding,
		},
		&core.Finding{
			Period: "2019", Unit: "Cardiology",
			Title: "Unrelated finding", Description: "Other detail.",
			Severity: 5, Kind: core.KindFinding,
		},
	)

	// Specific filters and no analytical phrasing select the keyword
	// strategy, which never touches the embedding service.
	filters := &core.QueryFilters{Period: "2024", Unit: "Radiology"}
	result, err := engine.BuildContext(context.Background(), "findings for radiology", filters)
	require.NoError(t, err)

	assert.Equal(t, core.StrategyKeyword, result.Metadata.Strategy)
	assert.Equal(t, 1, result.Metadata.CandidateCount)
	assert.Contains(t, result.ContextText, "Matching finding")
	assert.Zero(t, embedder.CallCount())
}

func TestBuildContext_InvalidFilters(t *testing.T) {
	engine := newTestEngine(t, mock.NewMockEmbedder())

	_, err := engine.BuildContext(context.Background(), "query", &core.QueryFilters{MinSeverity: 42})
	assert.ErrorIs(t, err, core.ErrInvalidFilters)
}

func TestBuildContextFromPool(t *testing.T) {
	engine := newTestEngine(t, mock.NewMockEmbedder())

	pool := []*core.Finding{
		{
			Id: 1, Period: "2024", Unit: "Radiology",
			Title: "Pool finding", Description: "Supplied by the caller.",
			Severity: 6, Kind: core.KindFinding,
		},
	}

	result, err := engine.BuildContextFromPool(context.Background(), "pool findings radiology", &core.QueryFilters{Unit: "Radiology"}, pool)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata.CandidateCount)
	assert.Contains(t, result.ContextText, "Pool finding")
}

func TestWarmEmbeddings(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	engine := newTestEngine(t, embedder)

	findings := make([]*core.Finding, 0, 5)
	for i := 1; i <= 5; i++ {
		findings = append(findings, &core.Finding{
			Period: "2024", Unit: "Radiology",
			Title: fmt.Sprintf("Warm target %d", i), Description: fmt.Sprintf("Detail %d.", i),
			Severity: 5, Kind: core.KindFinding,
		})
	}
	seedFindings(t, engine, findings...)

	warmed, failed, err := engine.WarmEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, warmed)
	assert.Equal(t, 0, failed)

	// A follow-up query embeds only the query text itself.
	before := embedder.CallCount()
	_, err = engine.BuildContext(context.Background(), "compare recurring radiology findings", nil)
	require.NoError(t, err)
	assert.Equal(t, before+1, embedder.CallCount())
}
