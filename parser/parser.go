// parser/parser.go

// Package parser reads RFI scan files into canonical record sets.
//
// A scan is an ascii file of whitespace separated data lines, optionally preceded by a
// block of '#' comment lines holding "key: value" metadata, title lines, and a column
// name row. Scans without a header get one extrapolated from the filename.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gewnthar/rfiarchive/models"
	"github.com/gewnthar/rfiarchive/receivers"
	"github.com/gewnthar/rfiarchive/utils"
	"go.uber.org/zap"
)

// Options configures a Parser. Nil tables fall back to the built-in ones.
type Options struct {
	// MandatoryColumns must all be present among a scan's canonical columns.
	MandatoryColumns []models.Field
	// MainTable receives records inside their receiver's band.
	MainTable string
	// DirtyTable receives records outside their receiver's band.
	DirtyTable string

	Receivers    *receivers.Table
	Columns      *ColumnMap
	Extrapolator HeaderExtrapolator
}

// Parser turns scan files into record sets.
type Parser struct {
	opts   Options
	logger *zap.Logger
}

// New returns a Parser.
func New(opts Options, logger *zap.Logger) *Parser {
	if opts.Receivers == nil {
		opts.Receivers = receivers.Default()
	}
	if opts.Columns == nil {
		opts.Columns = DefaultColumnMap()
	}
	if opts.Extrapolator == nil {
		opts.Extrapolator = LegacyFilenameSchema{Longitude: GBTLongitude}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{opts: opts, logger: logger}
}

// DirtyTable returns the table that receives out-of-band records.
func (p *Parser) DirtyTable() string { return p.opts.DirtyTable }

// FileMeta describes the scan being read.
type FileMeta struct {
	Path    string
	ModTime time.Time
}

// LineKind classifies one data line.
type LineKind int

const (
	// LineAccepted is a valid record for the main table.
	LineAccepted LineKind = iota
	// LineDirty is a valid record outside its receiver band, for the dirty table.
	LineDirty
	// LineDropped has no usable intensity and is discarded.
	LineDropped
	// LineInvalid cannot be read. Column errors among them abort the file.
	LineInvalid
)

func (k LineKind) String() string {
	switch k {
	case LineAccepted:
		return "accepted"
	case LineDirty:
		return "dirty"
	case LineDropped:
		return "dropped"
	case LineInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// LineResult is the classification of one data line.
type LineResult struct {
	Kind   LineKind
	Record *models.DataRecord
	Err    error
}

// ScanStats counts what happened to the data lines of a scan.
type ScanStats struct {
	Lines   int
	Dirty   int
	Dropped int
	Invalid int
	Repeats int
}

// FileScan is a scan whose header has been read and whose first valid data line has
// been located. Records reads the rest.
type FileScan struct {
	Header models.Header
	// First is the first valid record, used for the archive duplicate pre-check.
	First *models.DataRecord
	Stats ScanStats

	p      *Parser
	lr     *lineReader
	fields []models.Field
	colErr error
}

// Open reads the header of a scan and locates its first valid data line.
// It fails with models.ErrInvalidColumnValues when the columns cannot be mapped and
// with models.ErrEmptyScan when there is no valid data line.
func (p *Parser) Open(r io.Reader, meta FileMeta) (*FileScan, error) {
	lr := newLineReader(r)
	name := utils.ScanFileName(meta.Path)

	var h models.Header
	if first, ok := lr.Peek(); ok && isComment(first) {
		h = scanHeader(lr)
	} else {
		h = p.opts.Extrapolator.Extrapolate(name, meta.ModTime)
		p.logger.Debug("scan has no header, extrapolated from filename", zap.String("file", name))
	}
	h.Frontend = p.opts.Receivers.Canonical(h.Frontend)
	h.Filename = name

	s := &FileScan{Header: h, p: p, lr: lr}
	s.fields, s.colErr = p.opts.Columns.Canonicalize(h.ColumnNames, p.requiredColumns())
	if err := s.locateFirst(); err != nil {
		return nil, err
	}
	return s, nil
}

// requiredColumns is the configured mandatory set plus the two columns every record needs.
func (p *Parser) requiredColumns() []models.Field {
	req := append([]models.Field(nil), p.opts.MandatoryColumns...)
	for _, f := range []models.Field{models.FieldFrequency, models.FieldIntensity} {
		found := false
		for _, m := range req {
			if m == f {
				found = true
				break
			}
		}
		if !found {
			req = append(req, f)
		}
	}
	return req
}

// locateFirst skips blank, dropped, and unreadable lines up to the first valid record
// and leaves that line unread so Records sees it again.
func (s *FileScan) locateFirst() error {
	for {
		line, ok := s.lr.Peek()
		if !ok {
			if err := s.lr.Err(); err != nil {
				return fmt.Errorf("failed to read %s: %w", s.Header.Filename, err)
			}
			return fmt.Errorf("%s: %w", s.Header.Filename, models.ErrEmptyScan)
		}
		if strings.TrimSpace(line) == "" {
			s.lr.Next()
			continue
		}
		res := s.Classify(line)
		switch res.Kind {
		case LineAccepted, LineDirty:
			s.First = res.Record
			return nil
		case LineInvalid:
			if errors.Is(res.Err, models.ErrInvalidColumnValues) {
				return fmt.Errorf("%s: %w", s.Header.Filename, res.Err)
			}
		}
		s.lr.Next()
	}
}

// Records reads every data line, starting with the first valid one, and aggregates the
// accepted ones by frequency.
func (s *FileScan) Records() (*models.FileRecordSet, error) {
	set := models.NewFileRecordSet(s.Header)
	for {
		line, ok := s.lr.Next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.Stats.Lines++

		res := s.Classify(line)
		switch res.Kind {
		case LineAccepted, LineDirty:
			if res.Kind == LineDirty {
				s.Stats.Dirty++
			}
			if set.Add(res.Record) {
				s.Stats.Repeats++
			}
		case LineDropped:
			s.Stats.Dropped++
			s.p.logger.Debug("dropping line", zap.String("file", s.Header.Filename), zap.Error(res.Err))
		case LineInvalid:
			if errors.Is(res.Err, models.ErrInvalidColumnValues) {
				return nil, fmt.Errorf("%s: %w", s.Header.Filename, res.Err)
			}
			s.Stats.Invalid++
			s.p.logger.Debug("skipping unreadable line", zap.String("file", s.Header.Filename), zap.Error(res.Err))
		}
	}
	if err := s.lr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Header.Filename, err)
	}
	return set, nil
}

// Classify validates one data line against the scan's columns and receiver.
func (s *FileScan) Classify(line string) LineResult {
	values := strings.Fields(line)
	if err := checkCount(s.Header.ColumnNames, values); err != nil {
		return LineResult{Kind: LineInvalid, Err: err}
	}
	if s.colErr != nil {
		return LineResult{Kind: LineInvalid, Err: s.colErr}
	}
	row := zipColumns(s.fields, values)

	intensity, err := CheckIntensity(row[models.FieldIntensity])
	if err != nil {
		return LineResult{Kind: LineDropped, Err: err}
	}

	rec := &models.DataRecord{
		IntensityJy: intensity,
		Window:      valueOr(row, models.FieldWindow, s.Header.Window),
		Channel:     valueOr(row, models.FieldChannel, s.Header.Channel),
		Database:    s.p.opts.MainTable,
	}
	kind := LineAccepted
	rec.FrequencyMHz, err = ValidateFrequency(row[models.FieldFrequency], s.Header.Frontend, s.p.opts.Receivers)
	switch {
	case errors.Is(err, models.ErrFreqOutsideRcvrBounds):
		kind = LineDirty
		rec.Database = s.p.opts.DirtyTable
	case err != nil:
		return LineResult{Kind: LineInvalid, Err: err}
	}
	return LineResult{Kind: kind, Record: rec, Err: err}
}

func valueOr(row map[models.Field]string, f models.Field, fallback string) string {
	if v, ok := row[f]; ok && v != "" {
		return v
	}
	return fallback
}

// ParseAll opens a scan and reads all of its records.
func (p *Parser) ParseAll(r io.Reader, meta FileMeta) (*models.FileRecordSet, ScanStats, error) {
	s, err := p.Open(r, meta)
	if err != nil {
		return nil, ScanStats{}, err
	}
	set, err := s.Records()
	return set, s.Stats, err
}
