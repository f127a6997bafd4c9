// models/errors.go
package models

import "errors"

var (
	// ErrInvalidColumnValues means a scan's columns cannot be mapped onto the archive
	// schema. The whole file is skipped.
	ErrInvalidColumnValues = errors.New("invalid column values")

	// ErrInvalidIntensity means a data line has no usable intensity. The line is dropped.
	ErrInvalidIntensity = errors.New("invalid intensity")

	// ErrFreqOutsideRcvrBounds means a frequency is outside its receiver's band. The
	// record goes to the dirty table.
	ErrFreqOutsideRcvrBounds = errors.New("frequency outside receiver bounds")

	// ErrDuplicateValues means the first record of a file is already archived. The whole
	// file is skipped and needs manual review.
	ErrDuplicateValues = errors.New("duplicate values")

	// ErrEmptyScan means a scan file has no valid data line.
	ErrEmptyScan = errors.New("scan has no data lines")
)
