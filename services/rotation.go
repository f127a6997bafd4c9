// services/rotation.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gewnthar/rfiarchive/database"
	"github.com/gewnthar/rfiarchive/models"
	"github.com/gewnthar/rfiarchive/receivers"
	"go.uber.org/zap"
)

// RotationTracker keeps, per receiver, a key table of every archived (frequency, mjd)
// and a key table for the most recent observing project. Whenever a newer mjd shows up
// the latest project's table is dropped and rebuilt, so it only ever holds the keys of
// the newest scan, even when that scan belongs to the same project.
//
// Not safe for concurrent use.
type RotationTracker struct {
	archive   Archive
	receivers *receivers.Table
	logger    *zap.Logger
	// ensured caches key tables already created in this process.
	ensured map[string]bool
}

func NewRotationTracker(archive Archive, table *receivers.Table, logger *zap.Logger) *RotationTracker {
	if table == nil {
		table = receivers.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationTracker{archive: archive, receivers: table, logger: logger, ensured: map[string]bool{}}
}

// Track records a freshly persisted, non-duplicate observation. Observations from
// unrecognized receivers or without a readable mjd are ignored.
func (t *RotationTracker) Track(ctx context.Context, obs models.Observation) error {
	h, rec := obs.Header, obs.Record
	if !t.receivers.Known(h.Frontend) {
		return nil
	}
	mjd, ok := h.MJDValue()
	if !ok {
		t.logger.Debug("no mjd, skipping rotation", zap.String("file", h.Filename))
		return nil
	}

	if err := t.addKey(ctx, h.Frontend, rec.FrequencyMHz, mjd); err != nil {
		return err
	}

	latest, err := t.archive.LatestProject(ctx, h.Frontend)
	if err != nil {
		return err
	}
	if !h.HasProject() {
		return nil
	}

	if latest.MJD < mjd {
		if latest.HasProject() {
			if err := t.archive.DropKeyTable(ctx, latest.ProjID); err != nil {
				return err
			}
			delete(t.ensured, database.KeyTableName(latest.ProjID))
		}
		next := models.LatestProject{Frontend: h.Frontend, ProjID: h.ProjID, MJD: mjd}
		if err := t.archive.SetLatestProject(ctx, next); err != nil {
			return err
		}
		if latest.ProjID != h.ProjID {
			t.logger.Info("new latest project",
				zap.String("frontend", h.Frontend),
				zap.String("previous", latest.ProjID),
				zap.String("projid", h.ProjID),
				zap.Float64("mjd", mjd),
			)
		}
		latest = next
	}

	if h.ProjID == latest.ProjID {
		return t.addKey(ctx, h.ProjID, rec.FrequencyMHz, mjd)
	}
	return nil
}

// addKey inserts a key into a key table, creating the table on first use. Keys already
// present are fine.
func (t *RotationTracker) addKey(ctx context.Context, table string, freqMHz, mjd float64) error {
	name := database.KeyTableName(table)
	if !t.ensured[name] {
		if err := t.archive.EnsureKeyTable(ctx, table); err != nil {
			return err
		}
		t.ensured[name] = true
	}
	err := t.archive.InsertKey(ctx, table, freqMHz, mjd)
	if err != nil && !errors.Is(err, database.ErrUniqueViolation) {
		return fmt.Errorf("failed to index %s in %s: %w", models.FrequencyKey(freqMHz), table, err)
	}
	return nil
}
