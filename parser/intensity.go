// parser/intensity.go
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gewnthar/rfiarchive/models"
)

// CheckIntensity parses an intensity token. Anything that is not a finite number is
// models.ErrInvalidIntensity.
func CheckIntensity(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidIntensity, raw)
	}
	return v, nil
}
