// parser/compression.go
package parser

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/gewnthar/rfiarchive/utils"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// NewScanReader wraps r with a decompressor chosen by the compression suffix of name.
// The returned close func releases the decompressor, not r.
func NewScanReader(name string, r io.Reader) (io.Reader, func() error, error) {
	switch utils.CompressionExt(name) {
	case "":
		return r, func() error { return nil }, nil

	case ".gz":
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		return gzReader, gzReader.Close, nil

	case ".bz2":
		return bzip2.NewReader(r), func() error { return nil }, nil

	case ".xz":
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader for %s: %w", name, err)
		}
		return xzReader, func() error { return nil }, nil

	case ".zst":
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader for %s: %w", name, err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil
	}
	return nil, nil, fmt.Errorf("unsupported compression for %s", name)
}
