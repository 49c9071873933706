package search

import (
	"strings"

	"github.com/revisia/auditctx/core"
)

// Keyword scoring weights. The four rules are independent and additive;
// the totals sum to the 100-point ceiling.
const (
	PeriodMatchPoints  = 30.0
	UnitMatchPoints    = 25.0
	ProjectMatchPoints = 20.0
	KeywordPoolPoints  = 25.0 // distributed evenly across the filter's keywords

	// MaxKeywordScore is the keyword scorer's upper bound.
	MaxKeywordScore = 100.0
)

// ScoreKeyword scores a finding against the filter set using the fixed
// weighted rule set. The score is in [0,100] and grows monotonically as
// more rules match. Field comparisons are case-insensitive; free-text
// keywords match as substrings of the finding's searchable text. Keywords
// made up entirely of stop words are dropped before the keyword pool is
// split, so "the" never claims a share of the pool.
//
// This is a pure function: no I/O, no randomness.
func ScoreKeyword(finding *core.Finding, filters *core.QueryFilters) (float64, core.ScoreBreakdown) {
	var breakdown core.ScoreBreakdown
	if filters == nil {
		return 0, breakdown
	}

	if filters.Period != "" && strings.EqualFold(finding.Period, filters.Period) {
		breakdown.PeriodPoints = PeriodMatchPoints
	}
	if filters.Unit != "" && strings.EqualFold(finding.Unit, filters.Unit) {
		breakdown.UnitPoints = UnitMatchPoints
	}
	if filters.Project != "" && strings.EqualFold(finding.Project, filters.Project) {
		breakdown.ProjectPoints = ProjectMatchPoints
	}

	keywords := make([]string, 0, len(filters.Keywords))
	for _, keyword := range filters.Keywords {
		if len(tokenizeAndFilter(keyword)) > 0 {
			keywords = append(keywords, keyword)
		}
	}
	if len(keywords) > 0 {
		searchable := finding.SearchableText()
		perKeyword := KeywordPoolPoints / float64(len(keywords))
		for _, keyword := range keywords {
			if containsFold(searchable, keyword) {
				breakdown.KeywordPoints += perKeyword
				breakdown.MatchedKeywords = append(breakdown.MatchedKeywords, keyword)
			}
		}
	}

	score := breakdown.PeriodPoints + breakdown.UnitPoints + breakdown.ProjectPoints + breakdown.KeywordPoints
	if score > MaxKeywordScore {
		score = MaxKeywordScore
	}
	breakdown.KeywordScore = score

	return score, breakdown
}

// NormalizeKeywordScore maps a keyword score from [0,100] into [0,1] so it
// can be compared and fused with semantic similarities.
func NormalizeKeywordScore(score float64) float64 {
	return score / MaxKeywordScore
}

// RankKeyword ranks findings by keyword score alone, normalized into the
// [0,1] score range. Findings that match no rule are omitted; ties are
// broken by finding ID ascending. Returns at most topK results.
func RankKeyword(findings []*core.Finding, filters *core.QueryFilters, topK int) []*core.ScoredFinding {
	if topK <= 0 {
		topK = DefaultTopK
	}

	scored := make([]*core.ScoredFinding, 0, len(findings))
	for _, finding := range findings {
		score, breakdown := ScoreKeyword(finding, filters)
		if score == 0 {
			continue
		}
		scored = append(scored, &core.ScoredFinding{
			Finding:   finding,
			Score:     NormalizeKeywordScore(score),
			Breakdown: breakdown,
		})
	}
	sortScored(scored)
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
