// parser/header.go
package parser

import (
	"strings"

	"github.com/gewnthar/rfiarchive/models"
)

// commentMarker starts every header line.
const commentMarker = "#"

func isComment(line string) bool {
	return strings.HasPrefix(line, commentMarker)
}

// scanHeader consumes the comment block at the top of a scan. A line holding a colon is
// a "key: value" entry. Any other line is the column-name row when the line after it is
// not a comment, and a title line otherwise. The first non-comment line is left unread.
func scanHeader(lr *lineReader) models.Header {
	h := models.NewHeader()
	for {
		line, ok := lr.Peek()
		if !ok || !isComment(line) {
			return h
		}
		lr.Next()

		body := strings.TrimSpace(strings.TrimLeft(line, commentMarker))
		if key, value, found := strings.Cut(body, ":"); found {
			h.Set(key, value)
			continue
		}
		if next, ok := lr.Peek(); !ok || !isComment(next) {
			h.ColumnNames = strings.Fields(body)
		}
	}
}
