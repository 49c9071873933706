package assemble

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/revisia/auditctx/core"
)

// Builder assembles ranked findings into a bounded context block.
type Builder struct {
	estimator TokenEstimator
	logger    *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder) error

// WithEstimator sets a custom token estimator.
// Default is the characters-per-token heuristic.
func WithEstimator(estimator TokenEstimator) BuilderOption {
	return func(b *Builder) error {
		if estimator == nil {
			return ErrEstimatorRequired
		}
		b.estimator = estimator
		return nil
	}
}

// WithBuilderLogger sets a custom logger.
// Default is slog.Default().
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a context builder.
func NewBuilder(opts ...BuilderOption) (*Builder, error) {
	b := &Builder{
		estimator: HeuristicEstimator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Build renders ranked findings in order until the budget's candidate or
// token cap would be exceeded. Truncation is reported through the
// metadata, never as an error.
//
// When even the first finding alone exceeds the token cap it is still
// included, so a non-empty ranking never produces an empty context; the
// overflow is flagged as OverBudget.
func (b *Builder) Build(ranked []*core.ScoredFinding, budget core.ContextBudget) core.ContextResult {
	if budget.MaxCandidates <= 0 {
		budget.MaxCandidates = core.DefaultMaxCandidates
	}
	if budget.MaxTokens <= 0 {
		budget.MaxTokens = core.DefaultMaxTokens
	}

	var (
		sb          strings.Builder
		totalTokens int
		totalScore  float64
		included    int
		overBudget  bool
	)

	for _, sf := range ranked {
		if included >= budget.MaxCandidates {
			break
		}

		block := renderBlock(sf)
		blockTokens := b.estimator.EstimateTokens(block)

		if totalTokens+blockTokens > budget.MaxTokens {
			if included > 0 {
				break
			}
			// Never produce an empty context when candidates exist.
			overBudget = true
		}

		sb.WriteString(block)
		totalTokens += blockTokens
		totalScore += sf.Score
		included++
	}

	dropped := len(ranked) - included
	if dropped > 0 {
		b.logger.Debug("context truncated by budget",
			"included", included,
			"dropped", dropped,
			"estimated_tokens", totalTokens)
	}

	var avgScore float64
	if included > 0 {
		avgScore = totalScore / float64(included)
	}

	return core.ContextResult{
		ContextText: sb.String(),
		Metadata: core.ContextMetadata{
			CandidateCount:  included,
			DroppedCount:    dropped,
			AverageScore:    avgScore,
			EstimatedTokens: totalTokens,
			OverBudget:      overBudget,
		},
	}
}

// renderBlock renders one finding as a fixed-format text block.
func renderBlock(sf *core.ScoredFinding) string {
	f := sf.Finding

	var sb strings.Builder
	fmt.Fprintf(&sb, "### Finding %d (severity %d, score %.3f)\n", f.Id, f.Severity, sf.Score)

	attrs := make([]string, 0, 3)
	if f.Period != "" {
		attrs = append(attrs, "Period: "+f.Period)
	}
	if f.Unit != "" {
		attrs = append(attrs, "Unit: "+f.Unit)
	}
	if f.Project != "" {
		attrs = append(attrs, "Project: "+f.Project)
	}
	if len(attrs) > 0 {
		sb.WriteString(strings.Join(attrs, " | "))
		sb.WriteString("\n")
	}

	if f.Title != "" {
		sb.WriteString(f.Title)
		sb.WriteString("\n")
	}
	sb.WriteString(f.Description)
	sb.WriteString("\n\n")

	return sb.String()
}
