package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caldera-labs/sentryagent/pkg/policy"
)

// ErrAssetNotFound is returned by GetAsset/GetAssetByName when no row
// matches.
var ErrAssetNotFound = errors.New("asset not found")

// AssetRecord is a persisted asset row, pairing the run-time policy.Asset
// with its storage identity and name.
type AssetRecord struct {
	ID   uuid.UUID
	Name string
	policy.Asset
}

// AddAsset inserts a new asset row, grounded on spec.md §6's persistent
// store interface add_asset operation.
func (s *Store) AddAsset(ctx context.Context, name string, asset policy.Asset) (*AssetRecord, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assets (id, name, kind, target, tags) VALUES ($1, $2, $3, $4, $5)`,
		id, name, string(asset.Kind), asset.Target, asset.Tags,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert asset %q: %w", name, err)
	}
	return &AssetRecord{ID: id, Name: name, Asset: asset}, nil
}

// GetAssetByName retrieves an asset by its unique name.
func (s *Store) GetAssetByName(ctx context.Context, name string) (*AssetRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, kind, target, tags FROM assets WHERE name = $1`, name)
	return scanAsset(row)
}

// GetAsset retrieves an asset by its primary key.
func (s *Store) GetAsset(ctx context.Context, id uuid.UUID) (*AssetRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, kind, target, tags FROM assets WHERE id = $1`, id)
	return scanAsset(row)
}

func scanAsset(row pgx.Row) (*AssetRecord, error) {
	var rec AssetRecord
	var kind string
	if err := row.Scan(&rec.ID, &rec.Name, &kind, &rec.Target, &rec.Tags); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}
	rec.Kind = policy.AssetKind(kind)
	rec.Asset.ID = rec.ID.String()
	return &rec, nil
}
