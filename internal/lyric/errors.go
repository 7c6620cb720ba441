package lyric

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCaptions means the input held no usable caption line
	ErrNoCaptions = errors.New("no captions found")

	// ErrUnsupportedFormat means no parser exists for the file type
	ErrUnsupportedFormat = errors.New("unsupported caption format")

	// ErrUnknownEncoding means the requested text encoding name is not known
	ErrUnknownEncoding = errors.New("unknown text encoding")
)

// ParseError reports a caption file that could not be turned into a timeline
type ParseError struct {
	Format Format
	Line   int // zero when the failure is not tied to a line
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s at line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
