package core

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or assigned by the caller.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Fingerprint is a stable content hash derived from normalized text.
// It is used as the embedding cache key.
type Fingerprint string

// FingerprintFromText computes the fingerprint of a text. The text is
// lowercased and whitespace-collapsed before hashing, so cosmetic
// differences map to the same cache entry.
func FingerprintFromText(text string) Fingerprint {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(normalized))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// FindingKind classifies an audit record.
type FindingKind int

const (
	// KindFinding is a confirmed audit finding.
	KindFinding FindingKind = iota + 1
	// KindObservation is a non-binding observation.
	KindObservation
	// KindNote is informational material attached to an audit.
	KindNote
)

// Finding represents a single audit record eligible for retrieval.
// Findings are read-only to the engine once handed over for a request.
type Finding struct {
	Id          ID
	Period      string // Reporting period, e.g. "2024" or "2024-Q3"
	Unit        string // Organizational unit the finding belongs to
	Project     string // Project identifier
	Title       string
	Description string
	Severity    int // 0 (informational) to 10 (critical)
	Kind        FindingKind
	InsertedAt  time.Time // When the record was inserted into the store
	UpdatedAt   time.Time // When the record was last updated
}

// SearchableText returns the concatenated textual content of the finding,
// used for keyword matching and embedding generation.
func (f *Finding) SearchableText() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{f.Title, f.Description, f.Period, f.Unit, f.Project} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// QueryFilters holds the structured constraints extracted upstream.
// Empty string fields and a zero MinSeverity mean "no constraint".
type QueryFilters struct {
	Period             string
	Unit               string
	Project            string
	Keywords           []string
	MinSeverity        int // 0-10; 0 matches everything
	ExcludeNonFindings bool
}

// HasSpecificConstraint reports whether the filters carry at least one
// targeting constraint (period, unit, project, or keyword). Severity and
// the non-finding flag narrow the pool but do not target content.
func (qf *QueryFilters) HasSpecificConstraint() bool {
	return qf.Period != "" || qf.Unit != "" || qf.Project != "" || len(qf.Keywords) > 0
}

// Matches reports whether a finding passes the pool-narrowing constraints
// (severity threshold and the non-finding exclusion). Structural equality
// filters are the store's responsibility.
func (qf *QueryFilters) Matches(f *Finding) bool {
	if f.Severity < qf.MinSeverity {
		return false
	}
	if qf.ExcludeNonFindings && f.Kind != KindFinding {
		return false
	}
	return true
}

// Strategy identifies the ranking algorithm chosen for a request.
type Strategy int

const (
	// StrategyKeyword ranks by weighted rule matches only.
	StrategyKeyword Strategy = iota + 1
	// StrategySemantic ranks by embedding similarity only.
	StrategySemantic
	// StrategyHybrid narrows by keyword score, ranks semantically, and
	// fuses both signals.
	StrategyHybrid
)

func (s Strategy) String() string {
	switch s {
	case StrategyKeyword:
		return "keyword"
	case StrategySemantic:
		return "semantic"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ScoreBreakdown explains how a finding's score was produced.
type ScoreBreakdown struct {
	PeriodPoints    float64
	UnitPoints      float64
	ProjectPoints   float64
	KeywordPoints   float64
	MatchedKeywords []string
	SemanticScore   float64
	KeywordScore    float64 // Raw keyword score in [0,100]
	Fallback        bool    // True when the score fell back to keyword matching
}

// ScoredFinding pairs a finding with its request-scoped relevance score.
// Semantic and hybrid scores are in [0,1]; raw keyword scores are in [0,100]
// and are normalized before they enter a ranking.
type ScoredFinding struct {
	Finding   *Finding
	Score     float64
	Breakdown ScoreBreakdown
}

// EmbeddingVector is a computed embedding together with the fingerprint of
// the text it was derived from.
type EmbeddingVector struct {
	Vector      []float32
	Fingerprint Fingerprint
	GeneratedAt time.Time
}

// Default context budget policy.
const (
	DefaultMaxCandidates = 20
	DefaultMaxTokens     = 10000
)

// ContextBudget caps the assembled context output.
type ContextBudget struct {
	MaxCandidates int
	MaxTokens     int
}

// DefaultContextBudget returns the standard budget of 20 candidates and
// 10000 estimated tokens.
func DefaultContextBudget() ContextBudget {
	return ContextBudget{
		MaxCandidates: DefaultMaxCandidates,
		MaxTokens:     DefaultMaxTokens,
	}
}

// ContextMetadata describes how the context block was assembled.
type ContextMetadata struct {
	Strategy        Strategy
	CandidateCount  int     // Findings included in the context
	DroppedCount    int     // Findings dropped due to budget limits
	AverageScore    float64 // Mean score of included findings
	EstimatedTokens int
	OverBudget      bool // A single finding alone exceeded the token budget
	Degraded        bool // Embedding service was unavailable; keyword fallback used
}

// ContextResult is the engine's final output: a bounded text block plus
// metadata for the prompting layer.
type ContextResult struct {
	ContextText string
	Metadata    ContextMetadata
}
