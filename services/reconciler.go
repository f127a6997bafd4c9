// services/reconciler.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gewnthar/rfiarchive/database"
	"github.com/gewnthar/rfiarchive/models"
	"go.uber.org/zap"
)

// Reconciler persists records and merges repeated observations of the same
// (frequency, mjd) into the existing archive row.
type Reconciler struct {
	archive      Archive
	mainTable    string
	compositeKey []models.Field
	logger       *zap.Logger
}

func NewReconciler(archive Archive, mainTable string, compositeKey []models.Field, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{archive: archive, mainTable: mainTable, compositeKey: compositeKey, logger: logger}
}

// Precheck fails with models.ErrDuplicateValues when the composite key of the first
// valid line of a file is already in the main table. Such files are skipped whole and
// need a manual look.
func (r *Reconciler) Precheck(ctx context.Context, h *models.Header, first *models.DataRecord) error {
	obs := models.Observation{Header: h, Record: first}
	conds, err := obs.KeyConditions(r.compositeKey)
	if err != nil {
		return err
	}
	rows, err := r.archive.FindRecords(ctx, r.mainTable, conds)
	if err != nil {
		return fmt.Errorf("failed to pre-check %s: %w", h.Filename, err)
	}
	if len(rows) > 0 {
		return fmt.Errorf("%s: first line already archived under %s: %w", h.Filename, rows[0].Filename, models.ErrDuplicateValues)
	}
	return nil
}

// Persist inserts the observation into its target table. When the (frequency, mjd) key
// is already taken it merges into the existing row instead and reports duplicate=true.
func (r *Reconciler) Persist(ctx context.Context, obs models.Observation) (duplicate bool, err error) {
	table := obs.Record.Database
	err = r.archive.InsertRecord(ctx, table, obs)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, database.ErrUniqueViolation):
		return false, err
	}
	return true, r.merge(ctx, table, obs)
}

// mergedIntensity keeps the archive's historical formula. It is not a counts-weighted
// mean.
func mergedIntensity(newJy, oldJy float64, oldCounts int) float64 {
	return (newJy + oldJy*float64(oldCounts)) / 2
}

func (r *Reconciler) merge(ctx context.Context, table string, obs models.Observation) error {
	rec, h := obs.Record, obs.Header
	key := []models.Condition{
		{Field: models.FieldFrequency, Value: rec.FrequencyMHz},
		{Field: models.FieldMJD, Value: h.MJD},
	}
	existing, err := r.archive.FindRecords(ctx, table, key)
	if err != nil {
		return fmt.Errorf("failed to look up duplicate of %s: %w", rec.Key(), err)
	}
	if len(existing) == 0 {
		return fmt.Errorf("%s: key %s/%s collided but no archived row matches", h.Filename, rec.Key(), h.MJD)
	}

	for _, old := range existing {
		merged := mergedIntensity(rec.IntensityJy, old.IntensityJy, old.Counts)

		if old.Filename != models.DuplicateFilename {
			if err := r.archive.AppendCatalog(ctx, models.DuplicateCatalogEntry{
				FrequencyMHz: rec.FrequencyMHz, IntensityJy: old.IntensityJy, Filename: old.Filename,
			}); err != nil {
				return err
			}
		}

		_, err := r.archive.UpdateRecords(ctx, table, []models.Assignment{
			{Field: models.FieldCounts, Value: old.Counts + 1},
			{Field: models.FieldIntensity, Value: merged},
			{Field: models.FieldWindow, Value: models.Missing},
			{Field: models.FieldChannel, Value: models.Missing},
			{Field: models.FieldFilename, Value: models.DuplicateFilename},
		}, key)
		if err != nil {
			return err
		}

		if err := r.archive.AppendCatalog(ctx, models.DuplicateCatalogEntry{
			FrequencyMHz: rec.FrequencyMHz, IntensityJy: rec.IntensityJy, Filename: h.Filename,
		}); err != nil {
			return err
		}

		r.logger.Debug("merged duplicate observation",
			zap.String("file", h.Filename),
			zap.String("frequency", rec.Key()),
			zap.String("mjd", h.MJD),
			zap.Float64("intensity", merged),
			zap.Int("counts", old.Counts+1),
		)
	}
	return nil
}
