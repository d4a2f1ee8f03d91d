package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caldera-labs/sentryagent/pkg/orchestrator"
)

// FindingRecord is a persisted finding row tied to its owning asset.
type FindingRecord struct {
	ID      uuid.UUID
	AssetID uuid.UUID
	orchestrator.Finding
}

// SaveFindings bulk-inserts findings for assetID, grounded on spec.md §6's
// persistent store interface save_findings(list) operation.
func (s *Store) SaveFindings(ctx context.Context, assetID uuid.UUID, findings []orchestrator.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	batch := make([][]any, 0, len(findings))
	for _, f := range findings {
		batch = append(batch, []any{uuid.New(), assetID, f.Title, f.Severity, f.Description, f.Category, f.AffectedResource, f.Remediation})
	}

	_, err := s.pool.CopyFrom(ctx,
		[]string{"findings"},
		[]string{"id", "asset_id", "title", "severity", "description", "category", "affected_resource", "remediation"},
		&findingRowSource{rows: batch},
	)
	if err != nil {
		return fmt.Errorf("failed to save findings for asset %s: %w", assetID, err)
	}
	return nil
}

// ListFindings returns every finding recorded for assetID, grounded on
// spec.md §6's list_findings operation.
func (s *Store) ListFindings(ctx context.Context, assetID uuid.UUID) ([]FindingRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, asset_id, title, severity, description, category, affected_resource, remediation
		 FROM findings WHERE asset_id = $1 ORDER BY created_at`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings for asset %s: %w", assetID, err)
	}
	defer rows.Close()

	var out []FindingRecord
	for rows.Next() {
		var rec FindingRecord
		if err := rows.Scan(&rec.ID, &rec.AssetID, &rec.Title, &rec.Severity, &rec.Description, &rec.Category, &rec.AffectedResource, &rec.Remediation); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// findingRowSource adapts a [][]any batch to pgx.CopyFromSource for
// SaveFindings' bulk insert.
type findingRowSource struct {
	rows [][]any
	i    int
}

func (f *findingRowSource) Next() bool {
	f.i++
	return f.i <= len(f.rows)
}
func (f *findingRowSource) Values() ([]any, error) {
	return f.rows[f.i-1], nil
}
func (f *findingRowSource) Err() error { return nil }
