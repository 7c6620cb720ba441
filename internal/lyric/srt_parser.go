package lyric

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var srtTimestampRegex = regexp.MustCompile(
	`(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`,
)

// ParseSRT reads SubRip text. Each cue becomes a standard caption at its start
// time, with its text lines joined by a space. The cue end time is dropped: the
// next caption replaces the current one.
func ParseSRT(raw string) (*Timeline, error) {
	lines := newLineReader(raw)

	var captions []Caption
	var current *Caption
	var textLines []string
	haveIndex := false

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Content = strings.Join(textLines, " ")
			captions = append(captions, *current)
		}
		current = nil
		textLines = nil
		haveIndex = false
	}

	for lines.Scan() {
		line := lines.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil && !haveIndex {
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				haveIndex = true
				continue
			}
		}

		if current == nil {
			matches := srtTimestampRegex.FindStringSubmatch(line)
			if len(matches) != 9 {
				continue
			}
			start, err := parseClockTimestamp(
				matches[1], matches[2], matches[3], matches[4],
			)
			if err != nil {
				return nil, &ParseError{Format: FormatSRT, Line: lines.Line(), Err: err}
			}
			current = &Caption{Kind: Standard, Time: start}
			continue
		}

		textLines = append(textLines, strings.TrimSpace(line))
	}
	flush()

	if len(captions) == 0 {
		return nil, &ParseError{Format: FormatSRT, Err: ErrNoCaptions}
	}

	return &Timeline{Captions: captions, Format: FormatSRT}, nil
}

func parseClockTimestamp(
	hours, minutes, seconds, millis string,
) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
