// services/reconciler_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testMain  = "RFI"
	testDirty = "RFI_dirty"
)

var testCompositeKey = []models.Field{models.FieldFrequency, models.FieldIntensity, models.FieldMJD}

func testHeader(filename, frontend, projid, mjd string) *models.Header {
	h := models.NewHeader()
	h.Filename = filename
	h.Frontend = frontend
	h.ProjID = projid
	h.MJD = mjd
	return &h
}

func TestReconciler_MergesDuplicateObservation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	archive := newFakeArchive()
	archive.seed(testMain, 1420.0, 58900.0, 5.0, "old.txt", 1)
	r := NewReconciler(archive, testMain, testCompositeKey, zap.NewNop())

	obs := models.Observation{
		Header: testHeader("new.txt", "Rcvr1_2", "P1", "58900.0"),
		Record: &models.DataRecord{FrequencyMHz: 1420.0, IntensityJy: 7.0, Window: "2", Channel: "9", Counts: 1, Database: testMain},
	}
	dup, err := r.Persist(ctx, obs)
	require.NoError(t, err)
	assert.True(t, dup)

	require.Len(t, archive.rows[testMain], 1)
	row := archive.rows[testMain][0]
	assert.Equal(t, 6.0, row[models.FieldIntensity])
	assert.Equal(t, 2, row[models.FieldCounts])
	assert.Equal(t, models.DuplicateFilename, row[models.FieldFilename])
	assert.Equal(t, models.Missing, row[models.FieldWindow])
	assert.Equal(t, models.Missing, row[models.FieldChannel])

	assert.Equal(t, []models.DuplicateCatalogEntry{
		{FrequencyMHz: 1420.0, IntensityJy: 5.0, Filename: "old.txt"},
		{FrequencyMHz: 1420.0, IntensityJy: 7.0, Filename: "new.txt"},
	}, archive.catalog)

	t.Run("already merged row gets no superseded entry", func(t *testing.T) {
		third := models.Observation{
			Header: testHeader("third.txt", "Rcvr1_2", "P1", "58900"),
			Record: &models.DataRecord{FrequencyMHz: 1420.0, IntensityJy: 2.0, Counts: 1, Database: testMain},
		}
		dup, err := r.Persist(ctx, third)
		require.NoError(t, err)
		assert.True(t, dup)

		row := archive.rows[testMain][0]
		assert.Equal(t, mergedIntensity(2.0, 6.0, 2), row[models.FieldIntensity])
		assert.Equal(t, 3, row[models.FieldCounts])
		require.Len(t, archive.catalog, 3)
		assert.Equal(t, "third.txt", archive.catalog[2].Filename)
	})
}

func TestReconciler_PersistNewRecord(t *testing.T) {
	t.Parallel()
	archive := newFakeArchive()
	r := NewReconciler(archive, testMain, testCompositeKey, nil)

	obs := models.Observation{
		Header: testHeader("a.txt", "Rcvr1_2", "P1", "58900"),
		Record: &models.DataRecord{FrequencyMHz: 2500.0, IntensityJy: 1.0, Counts: 1, Database: testDirty},
	}
	dup, err := r.Persist(context.Background(), obs)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Len(t, archive.rows[testDirty], 1)
	assert.Empty(t, archive.rows[testMain])
	assert.Empty(t, archive.catalog)
}

func TestReconciler_Precheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	archive := newFakeArchive()
	archive.seed(testMain, 1420.0, 58900.0, 5.0, "old.txt", 1)
	r := NewReconciler(archive, testMain, testCompositeKey, nil)

	h := testHeader("new.txt", "Rcvr1_2", "P1", "58900")

	err := r.Precheck(ctx, h, &models.DataRecord{FrequencyMHz: 1420.0, IntensityJy: 5.0})
	assert.True(t, errors.Is(err, models.ErrDuplicateValues))

	err = r.Precheck(ctx, h, &models.DataRecord{FrequencyMHz: 1420.0, IntensityJy: 5.5})
	assert.NoError(t, err, "intensity is part of the composite key")

	archive.failFind = errors.New("connection reset")
	err = r.Precheck(ctx, h, &models.DataRecord{FrequencyMHz: 1.0, IntensityJy: 1.0})
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrDuplicateValues))
}

func TestMergedIntensity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 6.0, mergedIntensity(7.0, 5.0, 1))
	assert.Equal(t, 8.5, mergedIntensity(1.0, 4.0, 4))
}
