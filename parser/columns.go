// parser/columns.go
package parser

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/gewnthar/rfiarchive/models"
	"github.com/jszwec/csvutil"
)

//go:embed columns.csv
var columnCSV []byte

// maxHintDistance bounds the edit distance of a "did you mean" suggestion.
const maxHintDistance = 4

type columnRow struct {
	Raw       string `csv:"raw"`
	Canonical string `csv:"canonical"`
}

// ColumnMap translates raw column names of scan files into archive fields.
// Lookups ignore case.
type ColumnMap struct {
	names map[string]models.Field
	raw   []string
}

var defaultColumns = mustLoadColumnMap(columnCSV)

// DefaultColumnMap returns the built-in column-name corrections.
func DefaultColumnMap() *ColumnMap { return defaultColumns }

// LoadColumnMap decodes a raw,canonical CSV table.
func LoadColumnMap(data []byte) (*ColumnMap, error) {
	var rows []columnRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode column table: %w", err)
	}
	c := &ColumnMap{names: make(map[string]models.Field, len(rows))}
	for _, r := range rows {
		f, err := models.ParseField(r.Canonical)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", r.Raw, err)
		}
		c.names[strings.ToLower(r.Raw)] = f
		c.raw = append(c.raw, r.Raw)
	}
	return c, nil
}

func mustLoadColumnMap(data []byte) *ColumnMap {
	c, err := LoadColumnMap(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Canonicalize maps raw column names to archive fields and checks that every mandatory
// field is present.
func (c *ColumnMap) Canonicalize(names []string, mandatory []models.Field) ([]models.Field, error) {
	fields := make([]models.Field, 0, len(names))
	present := make(map[models.Field]bool, len(names))
	for _, name := range names {
		f, ok := c.names[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized column name %q%s", models.ErrInvalidColumnValues, name, c.hint(name))
		}
		fields = append(fields, f)
		present[f] = true
	}
	for _, m := range mandatory {
		if !present[m] {
			return nil, fmt.Errorf("%w: mandatory column %s is missing", models.ErrInvalidColumnValues, m)
		}
	}
	return fields, nil
}

// checkCount catches lines whose numeric fields ran into each other.
func checkCount(names, values []string) error {
	if len(names) != len(values) {
		return fmt.Errorf("%w: %d column names but %d values", models.ErrInvalidColumnValues, len(names), len(values))
	}
	return nil
}

func zipColumns(fields []models.Field, values []string) map[models.Field]string {
	row := make(map[models.Field]string, len(fields))
	for i, f := range fields {
		row[f] = values[i]
	}
	return row
}

func (c *ColumnMap) hint(name string) string {
	best, bestDist := "", maxHintDistance+1
	for _, raw := range c.raw {
		if d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(raw)); d < bestDist {
			best, bestDist = raw, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
