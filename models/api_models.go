// models/api_models.go
package models

// IngestRequest is the optional JSON body of POST /api/admin/ingest.
type IngestRequest struct {
	// Selection keeps only scan files whose name contains one of the entries.
	// Empty means the configured selection.
	Selection []string `json:"selection"`
}
