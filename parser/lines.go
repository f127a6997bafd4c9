// parser/lines.go
package parser

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 1 << 20

// lineReader reads a scan line by line with one line of lookahead.
type lineReader struct {
	sc     *bufio.Scanner
	line   string
	peeked bool
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineReader{sc: sc}
}

// Peek returns the next line without consuming it.
func (lr *lineReader) Peek() (string, bool) {
	if !lr.peeked {
		if !lr.sc.Scan() {
			return "", false
		}
		lr.line = strings.TrimRight(lr.sc.Text(), "\r")
		lr.peeked = true
	}
	return lr.line, true
}

// Next returns the next line and consumes it.
func (lr *lineReader) Next() (string, bool) {
	line, ok := lr.Peek()
	lr.peeked = false
	return line, ok
}

func (lr *lineReader) Err() error { return lr.sc.Err() }
