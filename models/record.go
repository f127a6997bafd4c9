// models/record.go
package models

// DataRecord is one accepted data line of a scan file, in canonical units.
type DataRecord struct {
	FrequencyMHz float64
	IntensityJy  float64
	Window       string
	Channel      string
	// Counts is the number of lines in the file that carried this frequency.
	Counts int
	// Database is the target table: the main table or the dirty table.
	Database string
}

// Key returns the frequency key of the record.
func (r *DataRecord) Key() string { return FrequencyKey(r.FrequencyMHz) }

// FileRecordSet is a parsed scan file: its header plus one record per distinct frequency.
type FileRecordSet struct {
	Header Header
	Data   map[string]*DataRecord
	// order keeps first-seen order so persistence is deterministic.
	order []string
}

// NewFileRecordSet returns an empty record set for the given header.
func NewFileRecordSet(h Header) *FileRecordSet {
	return &FileRecordSet{Header: h, Data: map[string]*DataRecord{}}
}

// Add aggregates rec into the set. The first record seen for a frequency is stored with
// Counts=1; a repeat only increments Counts and its own values are discarded.
// Add reports whether rec repeated an existing frequency.
func (s *FileRecordSet) Add(rec *DataRecord) bool {
	key := rec.Key()
	if existing, ok := s.Data[key]; ok {
		existing.Counts++
		return true
	}
	rec.Counts = 1
	s.Data[key] = rec
	s.order = append(s.order, key)
	return false
}

// Records returns the aggregated records in first-seen order.
func (s *FileRecordSet) Records() []*DataRecord {
	out := make([]*DataRecord, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.Data[k])
	}
	return out
}

// Len returns the number of distinct frequencies.
func (s *FileRecordSet) Len() int { return len(s.order) }

// Observation joins the set header with one of its records.
func (s *FileRecordSet) Observation(rec *DataRecord) Observation {
	return Observation{Header: &s.Header, Record: rec}
}

// ArchivedMeasurement is the part of an archived row the reconciler reads back.
type ArchivedMeasurement struct {
	FrequencyMHz float64
	MJD          float64
	IntensityJy  float64
	Filename     string
	Counts       int
}

// DuplicateCatalogEntry is an audit row written when repeated observations are merged.
type DuplicateCatalogEntry struct {
	FrequencyMHz float64
	IntensityJy  float64
	Filename     string
}

// LatestProject is the most recent observing project seen for a receiver.
type LatestProject struct {
	Frontend string
	ProjID   string
	MJD      float64
}

// HasProject reports whether a project has been recorded for the receiver.
func (p LatestProject) HasProject() bool {
	return p.ProjID != "" && p.ProjID != NoProject && p.ProjID != Missing
}
