// database/project_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gewnthar/rfiarchive/models"
	"go.uber.org/zap"
)

// LatestProject returns the latest project recorded for a receiver. A receiver with no
// row yet starts from (None, 0).
func (s *Store) LatestProject(ctx context.Context, frontend string) (models.LatestProject, error) {
	t, err := quoteIdent(s.tables.LatestProjects)
	if err != nil {
		return models.LatestProject{}, err
	}
	p := models.LatestProject{Frontend: frontend, ProjID: models.NoProject}

	var projid sql.NullString
	var mjd sql.NullFloat64
	err = s.db.QueryRowContext(ctx, "SELECT projid, mjd FROM "+t+" WHERE frontend = ?", frontend).Scan(&projid, &mjd)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return p, nil
	case err != nil:
		return models.LatestProject{}, fmt.Errorf("failed to query latest project of %s: %w", frontend, err)
	}
	if projid.Valid && projid.String != "" {
		p.ProjID = projid.String
	}
	p.MJD = mjd.Float64
	return p, nil
}

// SetLatestProject stores p as the latest project of its receiver.
func (s *Store) SetLatestProject(ctx context.Context, p models.LatestProject) error {
	t, err := quoteIdent(s.tables.LatestProjects)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE "+t+" SET projid = ?, mjd = ? WHERE frontend = ?",
		p.ProjID, roundKey(p.MJD), p.Frontend)
	if err != nil {
		return fmt.Errorf("failed to update latest project of %s: %w", p.Frontend, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	// MySQL reports zero affected rows for an unchanged row, so the insert may collide.
	_, err = s.db.ExecContext(ctx, "INSERT INTO "+t+" (frontend, projid, mjd) VALUES (?, ?, ?)",
		p.Frontend, p.ProjID, roundKey(p.MJD))
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("failed to insert latest project of %s: %w", p.Frontend, err)
	}
	return nil
}

// EnsureKeyTable creates a (Frequency_MHz, mjd) key table if it does not exist.
func (s *Store) EnsureKeyTable(ctx context.Context, name string) error {
	t, err := quoteIdent(KeyTableName(name))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+t+` (
		Frequency_MHz DECIMAL(12,6) NOT NULL,
		mjd DECIMAL(12,6) NOT NULL,
		PRIMARY KEY (Frequency_MHz, mjd)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create key table %s: %w", name, err)
	}
	return nil
}

// DropKeyTable drops a key table if it exists.
func (s *Store) DropKeyTable(ctx context.Context, name string) error {
	t, err := quoteIdent(KeyTableName(name))
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
		return fmt.Errorf("failed to drop key table %s: %w", name, err)
	}
	s.logger.Info("dropped superseded key table", zap.String("table", name))
	return nil
}

// InsertKey adds a (frequency, mjd) key to a key table. A key that is already present
// returns an error wrapping ErrUniqueViolation.
func (s *Store) InsertKey(ctx context.Context, name string, freqMHz, mjd float64) error {
	t, err := quoteIdent(KeyTableName(name))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO "+t+" (Frequency_MHz, mjd) VALUES (?, ?)", roundKey(freqMHz), roundKey(mjd))
	if err != nil {
		return wrapInsertErr(name, err)
	}
	return nil
}
