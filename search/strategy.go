package search

import "github.com/revisia/auditctx/core"

// analyticalTerms is the fixed lexicon that marks a query as analytical.
// Queries containing these terms benefit from semantic ranking.
var analyticalTerms = map[string]bool{
	"why": true, "how": true, "analyze": true, "compare": true,
	"trend": true, "pattern": true, "recommend": true, "suggest": true,
	"explain": true, "insight": true, "relationship": true,
	"correlation": true, "impact": true, "cause": true, "effect": true,
}

// SelectStrategy decides which ranking strategy fits the request.
//
// Decision rule:
//   - analytical terms and at least one specific filter -> Hybrid
//   - analytical terms only -> Semantic
//   - specific filters only -> Keyword
//   - neither -> Hybrid (safe default)
//
// Pure function over its two inputs; identical inputs always yield the
// identical strategy.
func SelectStrategy(queryText string, filters *core.QueryFilters) core.Strategy {
	analytical := hasAnalyticalTerm(queryText)
	specific := filters != nil && filters.HasSpecificConstraint()

	switch {
	case analytical && specific:
		return core.StrategyHybrid
	case analytical:
		return core.StrategySemantic
	case specific:
		return core.StrategyKeyword
	default:
		return core.StrategyHybrid
	}
}

func hasAnalyticalTerm(queryText string) bool {
	for _, word := range tokenize(queryText) {
		if analyticalTerms[word] {
			return true
		}
	}
	return false
}
