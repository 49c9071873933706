package search

import "github.com/revisia/auditctx/core"

// RankMonitor provides hooks to observe the ranking process.
// Implement this interface to track intermediate stages and results.
type RankMonitor interface {
	Start(queryText string, strategy core.Strategy)
	AfterKeywordStage(scored []*core.ScoredFinding)
	AfterSemanticStage(scored []*core.ScoredFinding)
	AfterFusion(scored []*core.ScoredFinding)
	EmbeddingFallback(id core.ID)
	Finish(results []*core.ScoredFinding)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ core.Strategy)           {}
func (n *noopMonitor) AfterKeywordStage(_ []*core.ScoredFinding) {}
func (n *noopMonitor) AfterSemanticStage(_ []*core.ScoredFinding) {}
func (n *noopMonitor) AfterFusion(_ []*core.ScoredFinding)       {}
func (n *noopMonitor) EmbeddingFallback(_ core.ID)               {}
func (n *noopMonitor) Finish(_ []*core.ScoredFinding)            {}
