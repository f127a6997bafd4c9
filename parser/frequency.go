// parser/frequency.go
package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/gewnthar/rfiarchive/receivers"
)

// GHzThreshold is the value below which a frequency is taken to be in GHz. Nothing in
// the archive was observed below 245 MHz.
const GHzThreshold = 245.0

// errInvalidFrequency marks a frequency token that is not a finite number.
var errInvalidFrequency = errors.New("invalid frequency")

// ToMHz converts a frequency to MHz. Values already in MHz are returned unchanged.
func ToMHz(v float64) float64 {
	if v < GHzThreshold {
		return v * 1000.0
	}
	return v
}

// ValidateFrequency parses a raw frequency, converts it to MHz, and checks it against
// the accepted window of frontend. When the value is outside the window the converted
// value is still returned along with models.ErrFreqOutsideRcvrBounds.
func ValidateFrequency(raw, frontend string, table *receivers.Table) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", errInvalidFrequency, raw)
	}
	mhz := ToMHz(v)
	w := table.Window(frontend)
	if !w.Contains(mhz) {
		return mhz, fmt.Errorf("%w: %s MHz not in [%g, %g] for %s",
			models.ErrFreqOutsideRcvrBounds, models.FrequencyKey(mhz), w.Min, w.Max, frontend)
	}
	return mhz, nil
}
