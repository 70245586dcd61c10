package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/diagdex/diagdex"
)

// Compile-time interface verification.
var _ diagdex.DescriptionCache = (*DescriptionCache)(nil)

// DescriptionCache implements diagdex.DescriptionCache using SQLite.
// Entries survive across ingestion runs, so identical diagram text is
// described at most once per model version.
type DescriptionCache struct {
	db *DB
}

// NewDescriptionCache creates a new DescriptionCache.
func NewDescriptionCache(db *DB) *DescriptionCache {
	return &DescriptionCache{db: db}
}

// Get returns the cached description for the region hash.
func (c *DescriptionCache) Get(ctx context.Context, regionHash string) (*diagdex.Description, error) {
	if regionHash == "" {
		return nil, diagdex.Errorf(diagdex.EINVALID, "region hash required")
	}

	var desc diagdex.Description
	err := c.db.QueryRowContext(ctx, `
		SELECT region_hash, text, model_version
		FROM descriptions
		WHERE region_hash = ?
	`, regionHash).Scan(&desc.RegionHash, &desc.Text, &desc.ModelVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, diagdex.Errorf(diagdex.ENOTFOUND, "description %q not found", regionHash)
	}
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// Put stores a description, replacing any prior entry for the same
// region hash.
func (c *DescriptionCache) Put(ctx context.Context, desc *diagdex.Description) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO descriptions (region_hash, text, model_version, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (region_hash) DO UPDATE SET
			text = excluded.text,
			model_version = excluded.model_version,
			created_at = excluded.created_at
	`, desc.RegionHash, desc.Text, desc.ModelVersion, time.Now().UTC().Format(time.RFC3339))
	return err
}
