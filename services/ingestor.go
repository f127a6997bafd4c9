// services/ingestor.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/gewnthar/rfiarchive/parser"
	"github.com/gewnthar/rfiarchive/utils"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// IngestResult describes the ingestion of one scan file.
type IngestResult struct {
	Filename   string
	Outcome    models.IngestOutcome
	Records    int // rows inserted
	Dirty      int // of which went to the dirty table
	Duplicates int // rows merged into existing archive rows
	Stats      parser.ScanStats
	Bytes      int64
	Hash       string
	Err        error
}

// Ingestor runs one scan file through parsing, the duplicate pre-check, persistence,
// and project rotation.
type Ingestor struct {
	parser     *parser.Parser
	reconciler *Reconciler
	tracker    *RotationTracker
	archive    Archive
	logger     *zap.Logger
	now        func() time.Time
}

func NewIngestor(p *parser.Parser, r *Reconciler, t *RotationTracker, archive Archive, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{parser: p, reconciler: r, tracker: t, archive: archive, logger: logger, now: time.Now}
}

// IngestFile reads and ingests the scan at path.
func (i *Ingestor) IngestFile(ctx context.Context, path string) IngestResult {
	info, err := os.Stat(path)
	if err != nil {
		return i.finish(ctx, IngestResult{Filename: utils.ScanFileName(path), Outcome: models.OutcomeFailed, Err: err})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return i.finish(ctx, IngestResult{Filename: utils.ScanFileName(path), Outcome: models.OutcomeFailed, Err: err})
	}
	return i.Ingest(ctx, path, info.ModTime(), data)
}

// Ingest ingests scan content. name may carry a compression suffix.
func (i *Ingestor) Ingest(ctx context.Context, name string, modTime time.Time, data []byte) IngestResult {
	res := IngestResult{
		Filename: utils.ScanFileName(name),
		Bytes:    int64(len(data)),
		Hash:     fmt.Sprintf("%016x", xxh3.Hash(data)),
	}
	res.Outcome, res.Err = i.ingest(ctx, name, modTime, data, &res)
	return i.finish(ctx, res)
}

func (i *Ingestor) ingest(ctx context.Context, name string, modTime time.Time, data []byte, res *IngestResult) (models.IngestOutcome, error) {
	r, closeReader, err := parser.NewScanReader(name, bytes.NewReader(data))
	if err != nil {
		return models.OutcomeFailed, err
	}
	defer closeReader()

	scan, err := i.parser.Open(r, parser.FileMeta{Path: name, ModTime: modTime})
	if err != nil {
		return parseOutcome(err), err
	}

	if err := i.reconciler.Precheck(ctx, &scan.Header, scan.First); err != nil {
		if errors.Is(err, models.ErrDuplicateValues) {
			return models.OutcomeDuplicate, err
		}
		return models.OutcomeFailed, err
	}

	set, err := scan.Records()
	res.Stats = scan.Stats
	if err != nil {
		return parseOutcome(err), err
	}

	for _, rec := range set.Records() {
		if err := ctx.Err(); err != nil {
			return models.OutcomeFailed, err
		}
		obs := set.Observation(rec)
		dup, err := i.reconciler.Persist(ctx, obs)
		if err != nil {
			return models.OutcomeFailed, err
		}
		if dup {
			res.Duplicates++
			continue
		}
		res.Records++
		if rec.Database == i.parser.DirtyTable() {
			res.Dirty++
		}
		if err := i.tracker.Track(ctx, obs); err != nil {
			return models.OutcomeFailed, err
		}
	}
	return models.OutcomeUploaded, nil
}

func parseOutcome(err error) models.IngestOutcome {
	switch {
	case errors.Is(err, models.ErrInvalidColumnValues):
		return models.OutcomeInvalidColumns
	case errors.Is(err, models.ErrEmptyScan):
		return models.OutcomeEmpty
	default:
		return models.OutcomeFailed
	}
}

// finish logs the result and writes it to the ingest log.
func (i *Ingestor) finish(ctx context.Context, res IngestResult) IngestResult {
	fields := []zap.Field{
		zap.String("file", res.Filename),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("records", res.Records),
		zap.Int("dirty", res.Dirty),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("dropped_lines", res.Stats.Dropped),
	}
	switch res.Outcome {
	case models.OutcomeUploaded:
		i.logger.Info("scan uploaded", fields...)
	case models.OutcomeDuplicate:
		i.logger.Warn("scan skipped: first line already archived, needs manual review", append(fields, zap.Error(res.Err))...)
	case models.OutcomeFailed:
		i.logger.Error("scan failed", append(fields, zap.Error(res.Err))...)
	default:
		i.logger.Warn("scan skipped", append(fields, zap.Error(res.Err))...)
	}

	entry := models.IngestLogEntry{
		Filename:     res.Filename,
		Outcome:      res.Outcome,
		Records:      res.Records,
		DirtyRecords: res.Dirty,
		Duplicates:   res.Duplicates,
		DroppedLines: res.Stats.Dropped,
		ContentHash:  res.Hash,
		IngestedAt:   i.now(),
	}
	if res.Err != nil {
		entry.Detail = res.Err.Error()
	}
	if err := i.archive.LogIngest(ctx, entry); err != nil {
		i.logger.Warn("failed to write ingest log", zap.String("file", res.Filename), zap.Error(err))
	}
	return res
}
