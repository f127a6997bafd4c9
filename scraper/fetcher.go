// scraper/fetcher.go
package scraper

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Fetcher pulls scan files from a remote HTTP directory listing.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher returns a Fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}, logger: logger}
}
