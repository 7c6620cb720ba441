package lyric

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Open reads, decodes and parses a caption file, picking the parser from the
// file extension.
func Open(path, encodingName string) (*Timeline, error) {
	format, ok := FormatFromExtension(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption file: %w", err)
	}

	text, err := Decode(data, encodingName)
	if err != nil {
		return nil, err
	}

	return ParseFormat(format, text)
}

// ParseFormat dispatches to the parser for format.
func ParseFormat(format Format, raw string) (*Timeline, error) {
	switch format {
	case FormatLRC:
		return Parse(raw)
	case FormatSRT:
		return ParseSRT(raw)
	case FormatVTT:
		return ParseVTT(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// caption format based on file extension
func FormatFromExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lrc":
		return FormatLRC, true
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	default:
		return "", false
	}
}
