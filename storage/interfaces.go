package storage

import (
	"context"

	"github.com/revisia/auditctx/core"
)

// FindingRepository provides operations for managing audit findings.
// Implementations must be thread-safe and support concurrent access.
type FindingRepository interface {
	// AddFindings adds one or more findings to storage.
	// For findings with Id=0, derives a content-based ID from the
	// searchable text, so re-adding identical content is idempotent.
	// Sets InsertedAt and UpdatedAt timestamps.
	// Returns the findings with IDs and timestamps populated.
	AddFindings(ctx context.Context, findings ...*core.Finding) ([]*core.Finding, error)

	// UpdateFindings updates existing findings.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any finding doesn't exist.
	UpdateFindings(ctx context.Context, findings ...*core.Finding) ([]*core.Finding, error)

	// DeleteFindings removes findings by their IDs.
	// Returns ErrNotFound if any finding doesn't exist.
	DeleteFindings(ctx context.Context, ids ...core.ID) error

	// GetFinding retrieves a single finding by ID.
	// Returns ErrNotFound if the finding doesn't exist.
	GetFinding(ctx context.Context, id core.ID) (*core.Finding, error)

	// GetFindings retrieves multiple findings by their IDs.
	// Returns only the findings that exist (no error for missing findings).
	GetFindings(ctx context.Context, ids ...core.ID) ([]*core.Finding, error)

	// Query returns the candidate pool for a retrieval request, applying
	// the pool-narrowing constraints (minimum severity and the non-finding
	// exclusion). Period, unit, and project are relevance signals for the
	// ranking layers, not exclusion criteria, so they are ignored here.
	// A nil filters value returns every stored finding.
	// Results are ordered by ID ascending.
	Query(ctx context.Context, filters *core.QueryFilters) ([]*core.Finding, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}
