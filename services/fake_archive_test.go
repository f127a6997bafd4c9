// services/fake_archive_test.go
package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/gewnthar/rfiarchive/database"
	"github.com/gewnthar/rfiarchive/models"
)

// fakeArchive is an in-memory Archive keyed like the real tables.
type fakeArchive struct {
	rows     map[string][]map[models.Field]any
	catalog  []models.DuplicateCatalogEntry
	latest   map[string]models.LatestProject
	keys     map[string]map[[2]float64]bool
	dropped  []string
	log      []models.IngestLogEntry
	failFind error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{
		rows:   map[string][]map[models.Field]any{},
		latest: map[string]models.LatestProject{},
		keys:   map[string]map[[2]float64]bool{},
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func same(f models.Field, a, b any) bool {
	switch f {
	case models.FieldFrequency, models.FieldMJD, models.FieldIntensity:
		x, ok1 := asFloat(a)
		y, ok2 := asFloat(b)
		return ok1 && ok2 && math.Abs(x-y) < 1e-6
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func matches(row map[models.Field]any, conds []models.Condition) bool {
	for _, c := range conds {
		if !same(c.Field, row[c.Field], c.Value) {
			return false
		}
	}
	return true
}

func measurement(row map[models.Field]any) models.ArchivedMeasurement {
	freq, _ := asFloat(row[models.FieldFrequency])
	mjd, _ := asFloat(row[models.FieldMJD])
	jy, _ := asFloat(row[models.FieldIntensity])
	counts, _ := asFloat(row[models.FieldCounts])
	return models.ArchivedMeasurement{
		FrequencyMHz: freq, MJD: mjd, IntensityJy: jy,
		Filename: fmt.Sprint(row[models.FieldFilename]), Counts: int(counts),
	}
}

// seed inserts a row directly.
func (a *fakeArchive) seed(table string, freq, mjd, jy float64, filename string, counts int) {
	a.rows[table] = append(a.rows[table], map[models.Field]any{
		models.FieldFrequency: freq, models.FieldMJD: mjd, models.FieldIntensity: jy,
		models.FieldFilename: filename, models.FieldCounts: counts,
		models.FieldWindow: "0", models.FieldChannel: "1",
	})
}

func (a *fakeArchive) FindRecords(_ context.Context, table string, conds []models.Condition) ([]models.ArchivedMeasurement, error) {
	if a.failFind != nil {
		return nil, a.failFind
	}
	var out []models.ArchivedMeasurement
	for _, row := range a.rows[table] {
		if matches(row, conds) {
			out = append(out, measurement(row))
		}
	}
	return out, nil
}

func (a *fakeArchive) InsertRecord(_ context.Context, table string, obs models.Observation) error {
	values, err := obs.Values()
	if err != nil {
		return err
	}
	row := map[models.Field]any{}
	for i, f := range models.ArchiveFields {
		row[f] = values[i]
	}
	key := []models.Condition{
		{Field: models.FieldFrequency, Value: row[models.FieldFrequency]},
		{Field: models.FieldMJD, Value: row[models.FieldMJD]},
	}
	for _, existing := range a.rows[table] {
		if matches(existing, key) {
			return fmt.Errorf("insert into %s: %w", table, database.ErrUniqueViolation)
		}
	}
	a.rows[table] = append(a.rows[table], row)
	return nil
}

func (a *fakeArchive) UpdateRecords(_ context.Context, table string, sets []models.Assignment, conds []models.Condition) (int64, error) {
	var n int64
	for _, row := range a.rows[table] {
		if !matches(row, conds) {
			continue
		}
		for _, s := range sets {
			row[s.Field] = s.Value
		}
		n++
	}
	return n, nil
}

func (a *fakeArchive) DistinctFilenames(_ context.Context, table string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, row := range a.rows[table] {
		out[fmt.Sprint(row[models.FieldFilename])] = true
	}
	return out, nil
}

func (a *fakeArchive) AppendCatalog(_ context.Context, e models.DuplicateCatalogEntry) error {
	a.catalog = append(a.catalog, e)
	return nil
}

func (a *fakeArchive) LatestProject(_ context.Context, frontend string) (models.LatestProject, error) {
	if p, ok := a.latest[frontend]; ok {
		return p, nil
	}
	return models.LatestProject{Frontend: frontend, ProjID: models.NoProject}, nil
}

func (a *fakeArchive) SetLatestProject(_ context.Context, p models.LatestProject) error {
	a.latest[p.Frontend] = p
	return nil
}

func (a *fakeArchive) EnsureKeyTable(_ context.Context, name string) error {
	if a.keys[name] == nil {
		a.keys[name] = map[[2]float64]bool{}
	}
	return nil
}

func (a *fakeArchive) DropKeyTable(_ context.Context, name string) error {
	delete(a.keys, name)
	a.dropped = append(a.dropped, name)
	return nil
}

func (a *fakeArchive) InsertKey(_ context.Context, name string, freqMHz, mjd float64) error {
	table, ok := a.keys[name]
	if !ok {
		return fmt.Errorf("no key table %s", name)
	}
	k := [2]float64{freqMHz, mjd}
	if table[k] {
		return fmt.Errorf("insert into %s: %w", name, database.ErrUniqueViolation)
	}
	table[k] = true
	return nil
}

func (a *fakeArchive) LogIngest(_ context.Context, e models.IngestLogEntry) error {
	a.log = append(a.log, e)
	return nil
}
