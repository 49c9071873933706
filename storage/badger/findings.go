package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/revisia/auditctx/core"
	"github.com/revisia/auditctx/storage"
)

// FindingRepository implements storage.FindingRepository for BadgerDB.
type FindingRepository struct {
	backend *Backend
}

var _ storage.FindingRepository = (*FindingRepository)(nil)

// NewFindingRepository creates a new FindingRepository.
func NewFindingRepository(backend *Backend) (*FindingRepository, error) {
	return &FindingRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is owned by the caller
// and stays open.
func (r *FindingRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *FindingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddFindings adds one or more findings to storage.
func (r *FindingRepository) AddFindings(ctx context.Context, findings ...*core.Finding) ([]*core.Finding, error) {
	for _, finding := range findings {
		if err := core.ValidateFinding(finding); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, finding := range findings {
			// Content-based IDs make re-seeding identical findings idempotent.
			if finding.Id == 0 {
				finding.Id = core.IDFromContent(finding.SearchableText())
			}

			finding.InsertedAt = time.Now().UTC()
			finding.UpdatedAt = finding.InsertedAt

			key := makeFindingKey(finding.Id)
			value := storage.MarshalFinding(finding)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return findings, err
}

// UpdateFindings updates existing findings.
func (r *FindingRepository) UpdateFindings(ctx context.Context, findings ...*core.Finding) ([]*core.Finding, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, finding := range findings {
			key := makeFindingKey(finding.Id)

			old, err := readFinding(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			finding.InsertedAt = old.InsertedAt
			finding.UpdatedAt = time.Now().UTC()

			value := storage.MarshalFinding(finding)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return findings, err
}

// DeleteFindings removes findings by their IDs.
func (r *FindingRepository) DeleteFindings(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFindingKey(id)

			existing, err := readFinding(tx, key)
			if err != nil {
				return err
			}
			if existing == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetFinding retrieves a single finding by ID.
func (r *FindingRepository) GetFinding(ctx context.Context, id core.ID) (*core.Finding, error) {
	var finding *core.Finding

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		finding, err = readFinding(tx, makeFindingKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if finding == nil {
		return nil, storage.ErrNotFound
	}
	return finding, nil
}

// GetFindings retrieves multiple findings by their IDs.
// Missing IDs are skipped.
func (r *FindingRepository) GetFindings(ctx context.Context, ids ...core.ID) ([]*core.Finding, error) {
	findings := make([]*core.Finding, 0, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			finding, err := readFinding(tx, makeFindingKey(id))
			if err != nil {
				return err
			}
			if finding != nil {
				findings = append(findings, finding)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// Query returns the candidate pool, applying the severity threshold and
// the non-finding exclusion. Period, unit, and project stay with the
// ranking layers.
func (r *FindingRepository) Query(ctx context.Context, filters *core.QueryFilters) ([]*core.Finding, error) {
	var findings []*core.Finding

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(findingRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var finding *core.Finding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				finding, err = storage.UnmarshalFinding(val)
				return err
			})
			if err != nil {
				return err
			}
			if finding == nil {
				continue
			}
			if filters != nil && !filters.Matches(finding) {
				continue
			}
			findings = append(findings, finding)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Badger iterates keys in byte order, which is not numeric ID order.
	slices.SortFunc(findings, func(a, b *core.Finding) int {
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	return findings, nil
}

// readFinding reads a finding from the transaction.
// Returns nil without error if the key is absent.
func readFinding(tx *badger.Txn, key []byte) (*core.Finding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var finding *core.Finding
	err = item.Value(func(val []byte) error {
		var err error
		finding, err = storage.UnmarshalFinding(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return finding, nil
}
