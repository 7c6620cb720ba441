// Package lookup finds the caption file that belongs to a playing track.
package lookup

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lyricer/internal/audio"
	"github.com/mgpai22/lyricer/internal/lyric"
)

var (
	// ErrNotFound means neither a sidecar file nor embedded lyrics exist
	ErrNotFound = errors.New("no caption file found")

	// ErrUnreadable means a caption file exists but could not be read
	ErrUnreadable = errors.New("caption file unreadable")

	// ErrDecode means the track locator could not be turned into a path
	ErrDecode = errors.New("failed to decode track locator")
)

// Error records which lookup step failed and for which path.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DecodeLocator turns a player's track url into a filesystem path. Everything
// after the last "://" is percent-decoded; an empty locator becomes "/".
func DecodeLocator(locator string) (string, error) {
	if locator == "" {
		locator = "/"
	}
	if i := strings.LastIndex(locator, "://"); i >= 0 {
		locator = locator[i+len("://"):]
	}

	path, err := url.PathUnescape(locator)
	if err != nil {
		return "", &Error{Op: "decode", Path: locator, Err: fmt.Errorf("%w: %w", ErrDecode, err)}
	}
	return path, nil
}

// Finder resolves an audio file to a parsed caption timeline.
type Finder struct {
	// extra directories searched for <stem>.lrc
	Dirs []string
	// text encoding for caption files, empty means UTF-8
	Encoding string
	// read embedded lyrics when no sidecar exists
	Probe bool

	probe audio.ProbeFunc
}

func NewFinder(dirs []string, encodingName string, probe bool) *Finder {
	return &Finder{
		Dirs:     dirs,
		Encoding: encodingName,
		Probe:    probe,
		probe:    audio.Probe,
	}
}

// Find locates, decodes and parses the captions for the audio file at
// audioPath. Parse failures come back as *lyric.ParseError.
func (f *Finder) Find(audioPath string) (*lyric.Timeline, error) {
	info, err := os.Stat(audioPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, &Error{Op: "stat", Path: audioPath, Err: ErrNotFound}
	}

	for _, candidate := range f.Candidates(audioPath) {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		return f.open(candidate)
	}

	if f.Probe && audio.IsAudioFile(audioPath) {
		return f.embedded(audioPath)
	}
	return nil, &Error{Op: "find", Path: audioPath, Err: ErrNotFound}
}

// Candidates lists the sidecar paths tried for audioPath, in order.
func (f *Finder) Candidates(audioPath string) []string {
	dir := filepath.Dir(audioPath)
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	candidates := []string{filepath.Join(dir, stem+".lrc")}
	for _, d := range f.Dirs {
		if d == "" {
			continue
		}
		candidates = append(candidates, filepath.Join(d, stem+".lrc"))
	}
	candidates = append(candidates,
		filepath.Join(dir, stem+".srt"),
		filepath.Join(dir, stem+".vtt"),
	)
	return candidates
}

func (f *Finder) open(path string) (*lyric.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: fmt.Errorf("%w: %w", ErrUnreadable, err)}
	}

	text, err := lyric.Decode(data, f.Encoding)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: fmt.Errorf("%w: %w", ErrUnreadable, err)}
	}

	format, _ := lyric.FormatFromExtension(path)
	return lyric.ParseFormat(format, text)
}

func (f *Finder) embedded(audioPath string) (*lyric.Timeline, error) {
	probe := f.probe
	if probe == nil {
		probe = audio.Probe
	}

	info, err := probe(audioPath)
	if err != nil {
		return nil, &Error{Op: "probe", Path: audioPath, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}

	text, ok := info.Lyrics()
	if !ok {
		return nil, &Error{Op: "probe", Path: audioPath, Err: ErrNotFound}
	}
	return lyric.Parse(text)
}
