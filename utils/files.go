// utils/files.go
package utils

import (
	"path/filepath"
	"strings"
)

// CompressionExts are the compression suffixes a scan file may carry.
var CompressionExts = []string{".gz", ".bz2", ".xz", ".zst"}

// ScanExt is the extension of RFI scan files.
const ScanExt = ".txt"

// excludedScans are text files that live next to scans but are not scans.
var excludedScans = map[string]bool{
	"URLs.txt": true,
}

// CompressionExt returns the compression suffix of name, or "".
func CompressionExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range CompressionExts {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return ""
}

// ScanFileName returns the base name of a scan path without any compression suffix.
// This is the filename recorded in the archive.
func ScanFileName(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	if ext := CompressionExt(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// IsScanFile reports whether path names an RFI scan file, compressed or not.
func IsScanFile(path string) bool {
	name := ScanFileName(path)
	if excludedScans[name] {
		return false
	}
	return strings.HasSuffix(strings.ToLower(name), ScanExt)
}

// Selected reports whether name contains any of the selection entries. An empty
// selection selects everything.
func Selected(name string, selection []string) bool {
	if len(selection) == 0 {
		return true
	}
	for _, s := range selection {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}
	return false
}
