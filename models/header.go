// models/header.go
package models

import (
	"strconv"
	"strings"
)

// Header holds the per-file metadata of one RFI scan file, either read from its
// comment block or extrapolated from the filename.
type Header struct {
	Frontend      string
	Filename      string
	Date          string
	MJD           string
	Azimuth       string
	Elevation     string
	Feed          string
	ProjID        string
	Resolution    string
	Window        string
	Channel       string
	Exposure      string
	UTC           string
	LST           string
	Polarization  string
	Source        string
	Tsys          string
	FrequencyType string
	Units         string
	ScanNumber    string
	NumIFWindows  string
	Backend       string

	// ColumnNames are the raw column tokens of the data section.
	ColumnNames []string
	// Extra keeps header entries that have no archive column.
	Extra map[string]string
}

// NewHeader returns a header with every metadata value set to Missing.
func NewHeader() Header {
	h := Header{Extra: map[string]string{}}
	for _, p := range h.fields() {
		*p = Missing
	}
	return h
}

func (h *Header) fields() []*string {
	return []*string{
		&h.Frontend, &h.Filename, &h.Date, &h.MJD, &h.Azimuth, &h.Elevation,
		&h.Feed, &h.ProjID, &h.Resolution, &h.Window, &h.Channel, &h.Exposure,
		&h.UTC, &h.LST, &h.Polarization, &h.Source, &h.Tsys, &h.FrequencyType,
		&h.Units, &h.ScanNumber, &h.NumIFWindows, &h.Backend,
	}
}

// headerKeys maps lower-cased "key: value" header keys to their field.
var headerKeys = map[string]Field{
	"frontend":                   FieldFrontend,
	"filename":                   FieldFilename,
	"date":                       FieldDate,
	"mjd":                        FieldMJD,
	"azimuth (deg)":              FieldAzimuth,
	"azimuth_deg":                FieldAzimuth,
	"azimuth":                    FieldAzimuth,
	"elevation (deg)":            FieldElevation,
	"elevation_deg":              FieldElevation,
	"elevation":                  FieldElevation,
	"feed":                       FieldFeed,
	"projid":                     FieldProjID,
	"frequency_resolution (mhz)": FieldResolution,
	"resolution_mhz":             FieldResolution,
	"window":                     FieldWindow,
	"channel":                    FieldChannel,
	"exposure (sec)":             FieldExposure,
	"exposure":                   FieldExposure,
	"utc (hrs)":                  FieldUTC,
	"utc_hrs":                    FieldUTC,
	"lst (hrs)":                  FieldLST,
	"lst":                        FieldLST,
	"polarization":               FieldPolarization,
	"source":                     FieldSource,
	"tsys":                       FieldTsys,
	"frequency_type":             FieldFrequencyType,
	"units":                      FieldUnits,
	"scan_number":                FieldScanNumber,
	"number_if_windows":          FieldNumIFWindows,
	"backend":                    FieldBackend,
}

func (h *Header) ptr(f Field) *string {
	switch f {
	case FieldFrontend:
		return &h.Frontend
	case FieldFilename:
		return &h.Filename
	case FieldDate:
		return &h.Date
	case FieldMJD:
		return &h.MJD
	case FieldAzimuth:
		return &h.Azimuth
	case FieldElevation:
		return &h.Elevation
	case FieldFeed:
		return &h.Feed
	case FieldProjID:
		return &h.ProjID
	case FieldResolution:
		return &h.Resolution
	case FieldWindow:
		return &h.Window
	case FieldChannel:
		return &h.Channel
	case FieldExposure:
		return &h.Exposure
	case FieldUTC:
		return &h.UTC
	case FieldLST:
		return &h.LST
	case FieldPolarization:
		return &h.Polarization
	case FieldSource:
		return &h.Source
	case FieldTsys:
		return &h.Tsys
	case FieldFrequencyType:
		return &h.FrequencyType
	case FieldUnits:
		return &h.Units
	case FieldScanNumber:
		return &h.ScanNumber
	case FieldNumIFWindows:
		return &h.NumIFWindows
	case FieldBackend:
		return &h.Backend
	}
	return nil
}

// Set stores a raw "key: value" header entry. Keys with no archive column go to Extra.
func (h *Header) Set(key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if f, ok := headerKeys[strings.ToLower(key)]; ok {
		*h.ptr(f) = value
		return
	}
	if h.Extra == nil {
		h.Extra = map[string]string{}
	}
	h.Extra[key] = value
}

// Value returns the header value for column f.
func (h *Header) Value(f Field) (string, bool) {
	p := h.ptr(f)
	if p == nil {
		return "", false
	}
	return *p, true
}

// MJDValue parses the Modified Julian Date.
func (h *Header) MJDValue() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(h.MJD), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HasProject reports whether the scan names an observing project.
func (h *Header) HasProject() bool {
	p := strings.TrimSpace(h.ProjID)
	return p != "" && p != Missing
}
