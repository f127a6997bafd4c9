// database/ingest_log_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gewnthar/rfiarchive/config"
	"github.com/gewnthar/rfiarchive/models"
	"go.uber.org/zap"
)

// LogIngest inserts or updates the ingest log row of a scan file. It records the
// outcome of the latest attempt, its counts, and the hash of the file content.
func (s *Store) LogIngest(ctx context.Context, e models.IngestLogEntry) error {
	t, err := quoteIdent(s.tables.IngestLog)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ` + t + ` (
			filename, outcome, records, dirty_records, duplicates,
			dropped_lines, content_hash, detail, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if s.driver == config.DriverSQLite {
		query += `
		ON CONFLICT(filename) DO UPDATE SET
			outcome = excluded.outcome,
			records = excluded.records,
			dirty_records = excluded.dirty_records,
			duplicates = excluded.duplicates,
			dropped_lines = excluded.dropped_lines,
			content_hash = excluded.content_hash,
			detail = excluded.detail,
			ingested_at = excluded.ingested_at`
	} else {
		query += `
		ON DUPLICATE KEY UPDATE
			outcome = VALUES(outcome),
			records = VALUES(records),
			dirty_records = VALUES(dirty_records),
			duplicates = VALUES(duplicates),
			dropped_lines = VALUES(dropped_lines),
			content_hash = VALUES(content_hash),
			detail = VALUES(detail),
			ingested_at = VALUES(ingested_at)`
	}

	hash := sql.NullString{String: e.ContentHash, Valid: e.ContentHash != ""}
	_, err = s.db.ExecContext(ctx, query,
		e.Filename, string(e.Outcome), e.Records, e.DirtyRecords, e.Duplicates,
		e.DroppedLines, hash, e.Detail, e.IngestedAt.UTC(),
	)
	if err != nil {
		s.logger.Error("failed to log ingest", zap.String("file", e.Filename), zap.Error(err))
		return fmt.Errorf("failed to log ingest of %s: %w", e.Filename, err)
	}
	return nil
}

// ListIngestLog retrieves every ingest log row.
func (s *Store) ListIngestLog(ctx context.Context) ([]models.IngestLogEntry, error) {
	t, err := quoteIdent(s.tables.IngestLog)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, outcome, records, dirty_records, duplicates,
		       dropped_lines, content_hash, detail, ingested_at
		FROM `+t+`
		ORDER BY filename
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest log: %w", err)
	}
	defer rows.Close()

	var entries []models.IngestLogEntry
	for rows.Next() {
		var e models.IngestLogEntry
		var outcome string
		var hash, detail sql.NullString
		if err := rows.Scan(
			&e.Filename, &outcome, &e.Records, &e.DirtyRecords, &e.Duplicates,
			&e.DroppedLines, &hash, &detail, &e.IngestedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ingest log row: %w", err)
		}
		e.Outcome = models.IngestOutcome(outcome)
		e.ContentHash = hash.String
		e.Detail = detail.String
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingest log rows: %w", err)
	}
	return entries, nil
}
