// database/store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gewnthar/rfiarchive/config"
	"github.com/gewnthar/rfiarchive/models"
	"go.uber.org/zap"
)

// Store is the archive: the main and dirty record tables, the duplicate catalog, the
// latest-project table, the receiver and project key tables, and the ingest log.
// Every statement is parameterized; table names come from validated configuration.
type Store struct {
	db     *sql.DB
	driver string
	tables config.TablesConfig
	logger *zap.Logger
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, driver string, tables config.TablesConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, driver: driver, tables: tables, logger: logger}
}

// Tables returns the configured table names.
func (s *Store) Tables() config.TablesConfig { return s.tables }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func columnType(f models.Field) string {
	switch f {
	case models.FieldFrequency, models.FieldMJD:
		return "DECIMAL(12,6) NOT NULL"
	case models.FieldIntensity:
		return "DOUBLE NOT NULL"
	case models.FieldCounts:
		return "INT NOT NULL DEFAULT 1"
	default:
		return "VARCHAR(255)"
	}
}

func recordTableDDL(table string) (string, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return "", err
	}
	cols := make([]string, 0, len(models.ArchiveFields)+1)
	for _, f := range models.ArchiveFields {
		cols = append(cols, fmt.Sprintf("`%s` %s", f, columnType(f)))
	}
	cols = append(cols, "PRIMARY KEY (`Frequency_MHz`, `mjd`)")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t, strings.Join(cols, ",\n\t")), nil
}

// EnsureSchema creates the archive tables that do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	var stmts []string
	for _, table := range []string{s.tables.Main, s.tables.Dirty} {
		ddl, err := recordTableDDL(table)
		if err != nil {
			return err
		}
		stmts = append(stmts, ddl)
	}

	catalog, err := quoteIdent(s.tables.DuplicateCatalog)
	if err != nil {
		return err
	}
	latest, err := quoteIdent(s.tables.LatestProjects)
	if err != nil {
		return err
	}
	ingestLog, err := quoteIdent(s.tables.IngestLog)
	if err != nil {
		return err
	}
	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS `+catalog+` (
			Frequency_MHz DECIMAL(12,6) NOT NULL,
			Intensity_Jy DOUBLE NOT NULL,
			filename VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS `+latest+` (
			frontend VARCHAR(64) NOT NULL PRIMARY KEY,
			projid VARCHAR(255),
			mjd DECIMAL(12,6)
		)`,
		`CREATE TABLE IF NOT EXISTS `+ingestLog+` (
			filename VARCHAR(255) NOT NULL PRIMARY KEY,
			outcome VARCHAR(32) NOT NULL,
			records INT NOT NULL DEFAULT 0,
			dirty_records INT NOT NULL DEFAULT 0,
			duplicates INT NOT NULL DEFAULT 0,
			dropped_lines INT NOT NULL DEFAULT 0,
			content_hash VARCHAR(32),
			detail TEXT,
			ingested_at DATETIME NOT NULL
		)`,
	)

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create archive schema: %w", err)
		}
	}
	s.logger.Info("archive schema ready", zap.String("driver", s.driver))
	return nil
}

// bindValue rounds key columns to archive precision so lookups match stored values.
func bindValue(f models.Field, v any) any {
	if f != models.FieldFrequency && f != models.FieldMJD {
		return v
	}
	switch x := v.(type) {
	case float64:
		return roundKey(x)
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return roundKey(n)
		}
	}
	return v
}

func roundKey(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// where renders equality predicates. An empty slice matches every row.
func where(conds []models.Condition) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		if !c.Field.Valid() {
			return "", nil, fmt.Errorf("unknown archive field %q", c.Field)
		}
		parts = append(parts, fmt.Sprintf("`%s` = ?", c.Field))
		args = append(args, bindValue(c.Field, c.Value))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}
