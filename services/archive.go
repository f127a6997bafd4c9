// services/archive.go
package services

import (
	"context"

	"github.com/gewnthar/rfiarchive/models"
)

// Archive is what ingestion needs from the historical archive. *database.Store
// implements it.
type Archive interface {
	FindRecords(ctx context.Context, table string, conds []models.Condition) ([]models.ArchivedMeasurement, error)
	// InsertRecord returns an error wrapping database.ErrUniqueViolation on a key collision.
	InsertRecord(ctx context.Context, table string, obs models.Observation) error
	UpdateRecords(ctx context.Context, table string, sets []models.Assignment, conds []models.Condition) (int64, error)
	DistinctFilenames(ctx context.Context, table string) (map[string]bool, error)
	AppendCatalog(ctx context.Context, e models.DuplicateCatalogEntry) error

	LatestProject(ctx context.Context, frontend string) (models.LatestProject, error)
	SetLatestProject(ctx context.Context, p models.LatestProject) error
	EnsureKeyTable(ctx context.Context, name string) error
	DropKeyTable(ctx context.Context, name string) error
	InsertKey(ctx context.Context, name string, freqMHz, mjd float64) error

	LogIngest(ctx context.Context, e models.IngestLogEntry) error
}
