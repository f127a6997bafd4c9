// models/meta.go
package models

import "time"

// KeyTablePrefix starts the name of every receiver and project key table.
const KeyTablePrefix = "keys_"

// IngestOutcome is the result of ingesting one scan file.
type IngestOutcome string

const (
	OutcomeUploaded        IngestOutcome = "uploaded"
	OutcomeAlreadyIngested IngestOutcome = "already_ingested"
	OutcomeInvalidColumns  IngestOutcome = "invalid_columns"
	OutcomeDuplicate       IngestOutcome = "duplicate"
	OutcomeEmpty           IngestOutcome = "empty"
	OutcomeFailed          IngestOutcome = "failed"
)

// IngestLogEntry tracks the last ingestion attempt of a scan file.
type IngestLogEntry struct {
	Filename      string        `db:"filename" json:"filename"`
	Outcome       IngestOutcome `db:"outcome" json:"outcome"`
	Records       int           `db:"records" json:"records"`
	DirtyRecords  int           `db:"dirty_records" json:"dirty_records"`
	Duplicates    int           `db:"duplicates" json:"duplicates"`
	DroppedLines  int           `db:"dropped_lines" json:"dropped_lines"`
	ContentHash   string        `db:"content_hash" json:"content_hash,omitempty"` // xxh3 of the raw file
	Detail        string        `db:"detail" json:"detail,omitempty"`
	IngestedAt    time.Time     `db:"ingested_at" json:"ingested_at"`
}
