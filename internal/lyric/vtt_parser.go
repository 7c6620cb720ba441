package lyric

import (
	"regexp"
	"strings"
)

var (
	vttTimestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
	// inline cue markup such as <v Singer>, <i>, <00:00:01.000>
	vttTagRegex = regexp.MustCompile(`<[^>]*>`)
)

// ParseVTT reads WebVTT text into standard captions. NOTE and STYLE blocks are
// skipped and inline cue tags are stripped.
func ParseVTT(raw string) (*Timeline, error) {
	lines := newLineReader(raw)

	var captions []Caption
	var current *Caption
	var textLines []string
	headerParsed := false

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Content = strings.Join(textLines, " ")
			captions = append(captions, *current)
		}
		current = nil
		textLines = nil
	}

	for lines.Scan() {
		line := lines.Text()
		trimmed := strings.TrimSpace(line)

		if !headerParsed && strings.HasPrefix(trimmed, "WEBVTT") {
			headerParsed = true
			continue
		}

		if strings.HasPrefix(trimmed, "NOTE") || strings.HasPrefix(trimmed, "STYLE") {
			for lines.Scan() {
				if strings.TrimSpace(lines.Text()) == "" {
					break
				}
			}
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		if matches := vttTimestampRegex.FindStringSubmatch(line); len(matches) == 9 {
			flush()
			start, err := parseClockTimestamp(
				matches[1], matches[2], matches[3], matches[4],
			)
			if err != nil {
				return nil, &ParseError{Format: FormatVTT, Line: lines.Line(), Err: err}
			}
			current = &Caption{Kind: Standard, Time: start}
			continue
		}

		if matches := vttShortTimestampRegex.FindStringSubmatch(line); len(matches) == 7 {
			flush()
			start, err := parseClockTimestamp(
				"00", matches[1], matches[2], matches[3],
			)
			if err != nil {
				return nil, &ParseError{Format: FormatVTT, Line: lines.Line(), Err: err}
			}
			current = &Caption{Kind: Standard, Time: start}
			continue
		}

		// cue identifiers precede the timing line and are ignored
		if current != nil {
			text := strings.TrimSpace(vttTagRegex.ReplaceAllString(line, ""))
			if text != "" {
				textLines = append(textLines, text)
			}
		}
	}
	flush()

	if len(captions) == 0 {
		return nil, &ParseError{Format: FormatVTT, Err: ErrNoCaptions}
	}

	return &Timeline{Captions: captions, Format: FormatVTT}, nil
}
