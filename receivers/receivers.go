// receivers/receivers.go

// Package receivers holds the static receiver table of the telescope: canonical
// receiver names, the raw frontend names that map onto them, and their bands in MHz.
package receivers

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/jszwec/csvutil"
)

//go:embed receivers.csv
var receiverCSV []byte

// BufferFactor is the fraction of a receiver's band allowed on either side of it.
const BufferFactor = 0.1

// Receiver describes one frontend and its frequency range in MHz.
type Receiver struct {
	Name    string  `csv:"name"`
	Aliases string  `csv:"aliases"` // '|' separated raw names
	FreqMin float64 `csv:"freq_min"`
	FreqMax float64 `csv:"freq_max"`
}

// Range is an accepted frequency window in MHz.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether mhz lies inside the window, bounds included.
func (r Range) Contains(mhz float64) bool {
	return mhz >= r.Min && mhz <= r.Max
}

// Table maps raw frontend names to receivers.
type Table struct {
	byName  map[string]Receiver
	aliases map[string]string
	unknown Range
}

var defaultTable = MustLoad(receiverCSV)

// Default returns the built-in receiver table.
func Default() *Table { return defaultTable }

// Load decodes a receiver table from CSV.
func Load(data []byte) (*Table, error) {
	var rows []Receiver
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode receiver table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("receiver table is empty")
	}

	t := &Table{
		byName:  make(map[string]Receiver, len(rows)),
		aliases: make(map[string]string, len(rows)*4),
		unknown: Range{Min: math.Inf(1), Max: math.Inf(-1)},
	}
	for _, r := range rows {
		if r.Name == "" || r.FreqMin >= r.FreqMax {
			return nil, fmt.Errorf("invalid receiver row %+v", r)
		}
		t.byName[r.Name] = r
		t.aliases[normalize(r.Name)] = r.Name
		for _, a := range strings.Split(r.Aliases, "|") {
			if a = normalize(a); a != "" {
				t.aliases[a] = r.Name
			}
		}
		t.unknown.Min = math.Min(t.unknown.Min, r.FreqMin)
		t.unknown.Max = math.Max(t.unknown.Max, r.FreqMax)
	}
	return t, nil
}

// MustLoad is Load that panics on error.
func MustLoad(data []byte) *Table {
	t, err := Load(data)
	if err != nil {
		panic(err)
	}
	return t
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Canonical maps a raw frontend name to its canonical receiver name, or
// models.UnknownFrontend when it is not recognized.
func (t *Table) Canonical(raw string) string {
	if name, ok := t.aliases[normalize(raw)]; ok {
		return name
	}
	return models.UnknownFrontend
}

// Known reports whether frontend is a canonical receiver name.
func (t *Table) Known(frontend string) bool {
	_, ok := t.byName[frontend]
	return ok
}

// Band returns the nominal band of a canonical receiver. Unknown receivers get the full
// coverage of the telescope.
func (t *Table) Band(frontend string) Range {
	if r, ok := t.byName[frontend]; ok {
		return Range{Min: r.FreqMin, Max: r.FreqMax}
	}
	return t.unknown
}

// Window returns the accepted window of a receiver: its band widened by BufferFactor of
// its width on each side. Unknown receivers get no buffer.
func (t *Table) Window(frontend string) Range {
	band := t.Band(frontend)
	if !t.Known(frontend) {
		return band
	}
	buffer := (band.Max - band.Min) * BufferFactor
	return Range{Min: band.Min - buffer, Max: band.Max + buffer}
}
