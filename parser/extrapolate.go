// parser/extrapolate.go
package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"
)

// GBTLongitude is the longitude of the Green Bank Telescope in degrees east.
const GBTLongitude = -79.839835

// mjdOffset converts a Julian Date to a Modified Julian Date.
const mjdOffset = 2400000.5

// legacyMJDShift is added to modification times before computing a header-less mjd.
const legacyMJDShift = 12 * time.Hour

// HeaderExtrapolator builds a header for a scan that has none.
type HeaderExtrapolator interface {
	Extrapolate(filename string, modTime time.Time) models.Header
}

// LegacyFilenameSchema reads metadata out of the filenames of early header-less scans,
// e.g. TRFI_052819_L1_rfiscan1_s0001_f001_Linr_az357_el045.txt. The observation time
// is the file modification time.
type LegacyFilenameSchema struct {
	// Longitude of the observatory in degrees east, for local sidereal time.
	Longitude float64
}

// Token positions after splitting the filename on '_' and '.'.
const (
	legacyFrontendToken     = 2
	legacyPolarizationToken = 6
	legacyAzimuthToken      = 7
	legacyElevationToken    = 8
)

var legacySeparators = regexp.MustCompile(`[_.]`)

// Extrapolate implements HeaderExtrapolator.
func (s LegacyFilenameSchema) Extrapolate(filename string, modTime time.Time) models.Header {
	h := models.NewHeader()
	h.Filename = filename
	tokens := legacySeparators.Split(filename, -1)

	t := modTime.UTC()
	h.Date = t.Format("2006-01-02 15:04:05")
	// Header-less rows already in the archive were keyed half a day late; stay on that
	// clock so rescans collide with them.
	h.MJD = formatFloat(ModifiedJulianDate(t.Add(legacyMJDShift)))
	h.UTC = formatFloat(float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0)
	h.LST = formatFloat(LocalSiderealHours(t, s.Longitude))

	h.Frontend = token(tokens, legacyFrontendToken)
	h.Polarization = token(tokens, legacyPolarizationToken)
	h.Azimuth = angleToken(tokens, legacyAzimuthToken)
	h.Elevation = angleToken(tokens, legacyElevationToken)
	h.Units = "Jy"
	h.ColumnNames = []string{"Frequency", "Intensity"}
	return h
}

// ModifiedJulianDate returns the MJD of t.
func ModifiedJulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) - mjdOffset
}

// LocalSiderealHours returns the local mean sidereal time at t, in hours, for an
// observer at longitudeDeg degrees east.
func LocalSiderealHours(t time.Time, longitudeDeg float64) float64 {
	gmst := sidereal.Mean(julian.TimeToJD(t.UTC()))
	lst := gmst + unit.TimeFromHour(longitudeDeg/15.0)
	hours := math.Mod(lst.Hour(), 24)
	if hours < 0 {
		hours += 24
	}
	return hours
}

func token(tokens []string, i int) string {
	if i >= len(tokens) || tokens[i] == "" {
		return models.Missing
	}
	return tokens[i]
}

// angleToken reads tokens like "az357" or "el045", dropping the two letter prefix.
func angleToken(tokens []string, i int) string {
	tok := token(tokens, i)
	if tok == models.Missing || len(tok) <= 2 {
		return models.Missing
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(tok[2:]), 64)
	if err != nil {
		return models.Missing
	}
	return formatFloat(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
