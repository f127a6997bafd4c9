// database/record_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gewnthar/rfiarchive/models"
)

// FindRecords returns the rows of table matching every condition.
func (s *Store) FindRecords(ctx context.Context, table string, conds []models.Condition) ([]models.ArchivedMeasurement, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	clause, args, err := where(conds)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT `Frequency_MHz`, `mjd`, `Intensity_Jy`, `filename`, `Counts` FROM "+t+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.ArchivedMeasurement
	for rows.Next() {
		var m models.ArchivedMeasurement
		var filename sql.NullString
		if err := rows.Scan(&m.FrequencyMHz, &m.MJD, &m.IntensityJy, &filename, &m.Counts); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		m.Filename = filename.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}
	return out, nil
}

// InsertRecord inserts one observation. A key collision returns an error wrapping
// ErrUniqueViolation.
func (s *Store) InsertRecord(ctx context.Context, table string, obs models.Observation) error {
	t, err := quoteIdent(table)
	if err != nil {
		return err
	}
	values, err := obs.Values()
	if err != nil {
		return err
	}
	cols := make([]string, len(models.ArchiveFields))
	marks := make([]string, len(models.ArchiveFields))
	for i, f := range models.ArchiveFields {
		cols[i] = "`" + string(f) + "`"
		marks[i] = "?"
		values[i] = bindValue(f, values[i])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return wrapInsertErr(table, err)
	}
	return nil
}

// UpdateRecords applies the assignments to the rows matching every condition and
// returns the number of rows changed.
func (s *Store) UpdateRecords(ctx context.Context, table string, sets []models.Assignment, conds []models.Condition) (int64, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	if len(sets) == 0 {
		return 0, fmt.Errorf("update of %s has no assignments", table)
	}
	parts := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+len(conds))
	for _, a := range sets {
		if !a.Field.Valid() {
			return 0, fmt.Errorf("unknown archive field %q", a.Field)
		}
		parts = append(parts, fmt.Sprintf("`%s` = ?", a.Field))
		args = append(args, bindValue(a.Field, a.Value))
	}
	clause, condArgs, err := where(conds)
	if err != nil {
		return 0, err
	}
	args = append(args, condArgs...)

	res, err := s.db.ExecContext(ctx, "UPDATE "+t+" SET "+strings.Join(parts, ", ")+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows of %s: %w", table, err)
	}
	return n, nil
}

// DistinctFilenames returns the set of filenames already archived in table.
func (s *Store) DistinctFilenames(ctx context.Context, table string) (map[string]bool, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT `filename` FROM "+t)
	if err != nil {
		return nil, fmt.Errorf("failed to query filenames of %s: %w", table, err)
	}
	defer rows.Close()

	names := map[string]bool{}
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan filename: %w", err)
		}
		if name.Valid {
			names[name.String] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating filenames: %w", err)
	}
	return names, nil
}
