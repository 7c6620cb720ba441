package lyric

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// [mm:ss], [mm:ss.xx], [mm:ss:xx] at the start of a line
	leadingStampRegex = regexp.MustCompile(
		`^\[(\d+):(\d{1,2})(?:[.:](\d{1,3}))?\]`,
	)
	// inline word stamps, <mm:ss.xx> or [mm:ss.xx]
	inlineStampRegex = regexp.MustCompile(
		`[<\[](\d+):(\d{1,2})(?:[.:](\d{1,3}))?[>\]]`,
	)
	// header tags like [ar:Artist] or [offset:+250]
	tagRegex = regexp.MustCompile(`^\[([A-Za-z]+):([^\]]*)\]\s*$`)
	// value of a [length:] tag, e.g. 03:35 or 3:35.50
	lengthTagRegex = regexp.MustCompile(`^(\d+):(\d{1,2})(?:[.:](\d{1,3}))?$`)
)

// Parse turns LRC text into a timeline. Lines that carry no usable timestamp are
// dropped; the result keeps input line order. It fails with ErrNoCaptions when
// nothing usable is left.
func Parse(raw string) (*Timeline, error) {
	lines := newLineReader(raw)

	timeline := &Timeline{
		Tags:   make(map[string]string),
		Format: FormatLRC,
	}

	for lines.Scan() {
		line := strings.TrimLeft(lines.Text(), " \t")
		if line == "" {
			continue
		}

		if matches := tagRegex.FindStringSubmatch(line); matches != nil {
			timeline.Tags[strings.ToLower(matches[1])] = strings.TrimSpace(matches[2])
			continue
		}

		caption, ok := parseLRCLine(line)
		if !ok {
			continue
		}
		timeline.Captions = append(timeline.Captions, caption)
	}

	if len(timeline.Captions) == 0 {
		return nil, &ParseError{Format: FormatLRC, Err: ErrNoCaptions}
	}

	if offset, ok := parseOffsetTag(timeline.Tags["offset"]); ok {
		timeline.shift(offset)
	}

	return timeline, nil
}

func parseLRCLine(line string) (Caption, bool) {
	loc := leadingStampRegex.FindStringSubmatchIndex(line)
	if loc == nil {
		return Caption{}, false
	}

	start, ok := parseLRCTimestamp(submatch(line, loc, 1), submatch(line, loc, 2), submatch(line, loc, 3))
	if !ok {
		return Caption{}, false
	}

	rest := line[loc[1]:]
	stamps := inlineStampRegex.FindAllStringSubmatchIndex(rest, -1)
	if len(stamps) == 0 {
		return Caption{Kind: Standard, Time: start, Content: rest}, true
	}

	var words []Word
	if prefix := strings.TrimSpace(rest[:stamps[0][0]]); prefix != "" {
		words = append(words, Word{Time: start, Text: prefix})
	}

	for i, stamp := range stamps {
		at, ok := parseLRCTimestamp(submatch(rest, stamp, 1), submatch(rest, stamp, 2), submatch(rest, stamp, 3))
		if !ok || at < start {
			return Caption{}, false
		}

		end := len(rest)
		if i+1 < len(stamps) {
			end = stamps[i+1][0]
		}

		// a stamp followed by nothing only closes the previous word
		text := strings.TrimSpace(rest[stamp[1]:end])
		if text == "" {
			continue
		}
		words = append(words, Word{Time: at, Text: text})
	}

	return Caption{Kind: Enhanced, Time: start, Words: words}, true
}

func submatch(s string, loc []int, group int) string {
	if loc[2*group] < 0 {
		return ""
	}
	return s[loc[2*group]:loc[2*group+1]]
}

const (
	// leaves room for seconds and fraction without overflowing time.Duration
	maxLRCMinutes   = (math.MaxInt64 - int64(time.Minute)) / int64(time.Minute)
	maxOffsetMillis = math.MaxInt64 / int64(2*time.Millisecond)
)

// one fraction digit is tenths, two hundredths, three milliseconds
func parseLRCTimestamp(minutes, seconds, fraction string) (time.Duration, bool) {
	m, err := strconv.ParseInt(minutes, 10, 64)
	if err != nil || m > maxLRCMinutes {
		return 0, false
	}
	s, err := strconv.Atoi(seconds)
	if err != nil || s >= 60 {
		return 0, false
	}

	d := time.Duration(m)*time.Minute + time.Duration(s)*time.Second

	if fraction != "" {
		f, err := strconv.Atoi(fraction)
		if err != nil {
			return 0, false
		}
		switch len(fraction) {
		case 1:
			d += time.Duration(f) * 100 * time.Millisecond
		case 2:
			d += time.Duration(f) * 10 * time.Millisecond
		default:
			d += time.Duration(f) * time.Millisecond
		}
	}

	return d, true
}

// offset tag is in milliseconds, positive shows captions earlier
func parseOffsetTag(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	ms, err := strconv.ParseInt(strings.TrimPrefix(value, "+"), 10, 64)
	if err != nil || ms == 0 || ms > maxOffsetMillis || ms < -maxOffsetMillis {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

func (t *Timeline) shift(offset time.Duration) {
	for i := range t.Captions {
		c := &t.Captions[i]
		c.Time = clampShift(c.Time, offset)
		for j := range c.Words {
			c.Words[j].Time = clampShift(c.Words[j].Time, offset)
		}
	}
}

func clampShift(d, offset time.Duration) time.Duration {
	if offset < 0 && d > math.MaxInt64+offset {
		return math.MaxInt64
	}
	d -= offset
	if d < 0 {
		return 0
	}
	return d
}
