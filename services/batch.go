// services/batch.go
package services

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gewnthar/rfiarchive/models"
	"github.com/gewnthar/rfiarchive/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchSummary totals one batch run.
type BatchSummary struct {
	RunID    string                       `json:"run_id"`
	Files    int                          `json:"files"`
	Bytes    int64                        `json:"bytes"`
	Outcomes map[models.IngestOutcome]int `json:"outcomes"`
	Results  []IngestResult               `json:"-"`
	Duration time.Duration                `json:"duration_ns"`
}

func (s BatchSummary) String() string {
	keys := make([]string, 0, len(s.Outcomes))
	for k := range s.Outcomes {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s.Outcomes[models.IngestOutcome(k)]))
	}
	return fmt.Sprintf("run %s: %d files, %s read in %s (%s)",
		s.RunID, s.Files, humanize.Bytes(uint64(s.Bytes)), s.Duration.Round(time.Millisecond), strings.Join(parts, ", "))
}

// BatchRunner ingests every scan file of a directory, one file at a time.
type BatchRunner struct {
	ingestor  *Ingestor
	archive   Archive
	mainTable string
	logger    *zap.Logger
}

func NewBatchRunner(ingestor *Ingestor, archive Archive, mainTable string, logger *zap.Logger) *BatchRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchRunner{ingestor: ingestor, archive: archive, mainTable: mainTable, logger: logger}
}

// CollectScanFiles returns the scan files under dir, sorted, keeping only names that
// contain one of the selection entries when selection is not empty.
func CollectScanFiles(dir string, selection []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !utils.IsScanFile(path) {
			return nil
		}
		if utils.Selected(utils.ScanFileName(path), selection) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scan files in %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run ingests the scan files of dir. Files whose name is already in the main table are
// skipped. A failing file never stops the run; only a cancelled context or an
// unreadable directory does.
func (b *BatchRunner) Run(ctx context.Context, dir string, selection []string) (BatchSummary, error) {
	start := time.Now()
	summary := BatchSummary{RunID: uuid.NewString(), Outcomes: map[models.IngestOutcome]int{}}
	log := b.logger.With(zap.String("run_id", summary.RunID))

	files, err := CollectScanFiles(dir, selection)
	if err != nil {
		return summary, err
	}
	archived, err := b.archive.DistinctFilenames(ctx, b.mainTable)
	if err != nil {
		return summary, err
	}
	log.Info("batch started", zap.String("dir", dir), zap.Int("files", len(files)), zap.Int("archived", len(archived)))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		summary.Files++

		name := utils.ScanFileName(path)
		if archived[name] {
			log.Debug("already ingested", zap.String("file", name))
			summary.Outcomes[models.OutcomeAlreadyIngested]++
			summary.Results = append(summary.Results, IngestResult{Filename: name, Outcome: models.OutcomeAlreadyIngested})
			continue
		}

		res := b.ingestor.IngestFile(ctx, path)
		summary.Bytes += res.Bytes
		summary.Outcomes[res.Outcome]++
		summary.Results = append(summary.Results, res)
		if res.Outcome == models.OutcomeUploaded {
			archived[name] = true
		}
	}

	summary.Duration = time.Since(start)
	log.Info("batch finished", zap.String("summary", summary.String()))
	return summary, nil
}
