// models/observation.go
package models

import (
	"fmt"
	"math"
	"strconv"
)

// Field is a canonical archive column name.
type Field string

const (
	FieldFeed          Field = "feed"
	FieldFrontend      Field = "frontend"
	FieldAzimuth       Field = "azimuth_deg"
	FieldProjID        Field = "projid"
	FieldResolution    Field = "resolution_MHz"
	FieldWindow        Field = "Window"
	FieldExposure      Field = "exposure"
	FieldUTC           Field = "utc_hrs"
	FieldDate          Field = "date"
	FieldNumIFWindows  Field = "number_IF_Windows"
	FieldChannel       Field = "Channel"
	FieldBackend       Field = "backend"
	FieldMJD           Field = "mjd"
	FieldFrequency     Field = "Frequency_MHz"
	FieldLST           Field = "lst"
	FieldFilename      Field = "filename"
	FieldPolarization  Field = "polarization"
	FieldSource        Field = "source"
	FieldTsys          Field = "tsys"
	FieldFrequencyType Field = "frequency_type"
	FieldUnits         Field = "units"
	FieldIntensity     Field = "Intensity_Jy"
	FieldScanNumber    Field = "scan_number"
	FieldElevation     Field = "elevation_deg"
	FieldCounts        Field = "Counts"
)

// ArchiveFields is the column order of a row in the main and dirty tables.
var ArchiveFields = []Field{
	FieldFeed, FieldFrontend, FieldAzimuth, FieldProjID, FieldResolution,
	FieldWindow, FieldExposure, FieldUTC, FieldDate, FieldNumIFWindows,
	FieldChannel, FieldBackend, FieldMJD, FieldFrequency, FieldLST,
	FieldFilename, FieldPolarization, FieldSource, FieldTsys, FieldFrequencyType,
	FieldUnits, FieldIntensity, FieldScanNumber, FieldElevation, FieldCounts,
}

var knownFields = func() map[Field]bool {
	m := make(map[Field]bool, len(ArchiveFields))
	for _, f := range ArchiveFields {
		m[f] = true
	}
	return m
}()

// ParseField returns the canonical field with the given name.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if !knownFields[f] {
		return "", fmt.Errorf("unknown archive field %q", name)
	}
	return f, nil
}

// Valid reports whether f is one of the canonical archive fields.
func (f Field) Valid() bool { return knownFields[f] }

// Sentinel values written to the archive.
const (
	// Missing marks a metadata or per-scan value with no derivable source.
	Missing = "NaN"
	// UnknownFrontend is the canonical name of an unrecognized receiver.
	UnknownFrontend = "Unknown"
	// DuplicateFilename replaces the filename of a row that merged repeated observations.
	DuplicateFilename = "Duplicate"
	// NoProject is stored in latest_projects before a receiver has seen a project.
	NoProject = "None"
)

// FrequencyKey formats a frequency in MHz the way it is keyed within a file and in the
// archive (six decimals, trailing zeros dropped).
func FrequencyKey(mhz float64) string {
	return strconv.FormatFloat(math.Round(mhz*1e6)/1e6, 'f', -1, 64)
}

// Observation is one archive row: a file header joined with one aggregated data record.
type Observation struct {
	Header *Header
	Record *DataRecord
}

// Value returns the value stored in column f for this observation.
func (o Observation) Value(f Field) (any, error) {
	switch f {
	case FieldFrequency:
		return o.Record.FrequencyMHz, nil
	case FieldIntensity:
		return o.Record.IntensityJy, nil
	case FieldCounts:
		return o.Record.Counts, nil
	case FieldWindow:
		return o.Record.Window, nil
	case FieldChannel:
		return o.Record.Channel, nil
	}
	if v, ok := o.Header.Value(f); ok {
		return v, nil
	}
	return nil, fmt.Errorf("no value for field %q", f)
}

// Values returns the row in ArchiveFields order.
func (o Observation) Values() ([]any, error) {
	out := make([]any, 0, len(ArchiveFields))
	for _, f := range ArchiveFields {
		v, err := o.Value(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Condition is a single equality predicate on an archive column.
type Condition struct {
	Field Field
	Value any
}

// Assignment sets one archive column in an update.
type Assignment struct {
	Field Field
	Value any
}

// KeyConditions builds equality predicates for the given fields of an observation.
func (o Observation) KeyConditions(fields []Field) ([]Condition, error) {
	conds := make([]Condition, 0, len(fields))
	for _, f := range fields {
		v, err := o.Value(f)
		if err != nil {
			return nil, err
		}
		conds = append(conds, Condition{Field: f, Value: v})
	}
	return conds, nil
}
