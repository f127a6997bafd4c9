// database/catalog_store.go
package database

import (
	"context"
	"fmt"

	"github.com/gewnthar/rfiarchive/models"
)

// AppendCatalog records one side of a merged duplicate observation.
func (s *Store) AppendCatalog(ctx context.Context, e models.DuplicateCatalogEntry) error {
	t, err := quoteIdent(s.tables.DuplicateCatalog)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO "+t+" (Frequency_MHz, Intensity_Jy, filename) VALUES (?, ?, ?)",
		roundKey(e.FrequencyMHz), e.IntensityJy, e.Filename,
	)
	if err != nil {
		return fmt.Errorf("failed to append duplicate catalog entry for %s: %w", e.Filename, err)
	}
	return nil
}

// Catalog returns every duplicate catalog entry in insertion order.
func (s *Store) Catalog(ctx context.Context) ([]models.DuplicateCatalogEntry, error) {
	t, err := quoteIdent(s.tables.DuplicateCatalog)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT Frequency_MHz, Intensity_Jy, filename FROM "+t)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate catalog: %w", err)
	}
	defer rows.Close()

	var out []models.DuplicateCatalogEntry
	for rows.Next() {
		var e models.DuplicateCatalogEntry
		if err := rows.Scan(&e.FrequencyMHz, &e.IntensityJy, &e.Filename); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate catalog row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate catalog rows: %w", err)
	}
	return out, nil
}
