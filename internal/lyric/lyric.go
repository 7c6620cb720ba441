package lyric

import (
	"strings"
	"time"
)

// caption variant
type Kind int

const (
	// single timestamp + one line of text
	Standard Kind = iota
	// per-word timestamps
	Enhanced
)

func (k Kind) String() string {
	switch k {
	case Standard:
		return "standard"
	case Enhanced:
		return "enhanced"
	default:
		return "unknown"
	}
}

// timed word inside an enhanced caption
type Word struct {
	Time time.Duration
	Text string
}

// Caption is one timeline entry. Content is set for Standard captions,
// Words for Enhanced ones.
type Caption struct {
	Kind    Kind
	Time    time.Duration
	Content string
	Words   []Word
}

// renderable text, enhanced words are joined with a single space
func (c Caption) Text() string {
	if c.Kind != Enhanced {
		return c.Content
	}
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// reports whether the rendered text is empty after trimming
func (c Caption) Blank() bool {
	return strings.TrimSpace(c.Text()) == ""
}

// ordered captions for one track
type Timeline struct {
	Captions []Caption
	// header tags such as ti, ar, al, offset, keyed in lower case
	Tags   map[string]string
	Format Format
}

// supported caption file formats
type Format string

const (
	FormatLRC Format = "lrc"
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

func (t *Timeline) Len() int {
	return len(t.Captions)
}

// Ordered reports whether caption timestamps never go backwards.
func (t *Timeline) Ordered() bool {
	for i := 1; i < len(t.Captions); i++ {
		if t.Captions[i].Time < t.Captions[i-1].Time {
			return false
		}
	}
	return true
}

// Length is the track length declared by a [length:mm:ss] header tag.
func (t *Timeline) Length() (time.Duration, bool) {
	m := lengthTagRegex.FindStringSubmatch(strings.TrimSpace(t.Tag("length")))
	if m == nil {
		return 0, false
	}
	d, ok := parseLRCTimestamp(m[1], m[2], m[3])
	if !ok || d == 0 {
		return 0, false
	}
	return d, true
}

func (t *Timeline) Tag(key string) string {
	if t.Tags == nil {
		return ""
	}
	return t.Tags[strings.ToLower(key)]
}

// builds a timeline holding a single standard caption at zero
func Single(text string) *Timeline {
	return &Timeline{
		Captions: []Caption{{Kind: Standard, Content: text}},
		Format:   FormatLRC,
	}
}
