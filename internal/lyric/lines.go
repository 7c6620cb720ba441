package lyric

import "strings"

// longer lines are dropped instead of failing the whole file
const maxLineLength = 1 << 20

// lineReader walks in-memory caption text line by line. It strips a leading
// byte order mark and trailing carriage returns.
type lineReader struct {
	lines []string
	next  int
	text  string
}

func newLineReader(raw string) *lineReader {
	return &lineReader{lines: strings.Split(raw, "\n")}
}

func (r *lineReader) Scan() bool {
	for r.next < len(r.lines) {
		line := strings.TrimSuffix(r.lines[r.next], "\r")
		if r.next == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		r.next++

		if len(line) > maxLineLength {
			continue
		}
		r.text = line
		return true
	}
	return false
}

func (r *lineReader) Text() string {
	return r.text
}

// 1-based number of the current line
func (r *lineReader) Line() int {
	return r.next
}
