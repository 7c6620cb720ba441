package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/lyricer/internal/ffmpeg"
)

const probeTimeout = 5 * time.Second

// media file information read through ffprobe
type Info struct {
	Path     string
	Duration time.Duration
	// format and stream tags merged, keys in lower case
	Tags map[string]string
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType string            `json:"codec_type"`
		Tags      map[string]string `json:"tags"`
	} `json:"streams"`
}

// ProbeFunc reads media information from a file; Probe is the real one.
type ProbeFunc func(path string) (*Info, error)

// probes duration and tags of an audio file
func Probe(filePath string) (*Info, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}

	if _, err := ffmpegbin.FFprobePath(); err != nil {
		return nil, err
	}

	out, err := ffmpeg.ProbeWithTimeout(filePath, probeTimeout, ffmpeg.KwArgs{
		"v": "quiet",
	})
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbeOutput([]byte(out))
	if err != nil {
		return nil, err
	}
	info.Path = filePath
	return info, nil
}

func parseProbeOutput(data []byte) (*Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{Tags: make(map[string]string)}

	if probe.Format.Duration != "" {
		var seconds float64
		if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
			return nil, fmt.Errorf("failed to parse duration: %w", err)
		}
		info.Duration = time.Duration(seconds * float64(time.Second))
	}

	// ogg and opus keep their comments on the audio stream
	for _, stream := range probe.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		for k, v := range stream.Tags {
			info.Tags[strings.ToLower(k)] = v
		}
	}
	for k, v := range probe.Format.Tags {
		info.Tags[strings.ToLower(k)] = v
	}

	return info, nil
}

// Lyrics returns the embedded lyrics tag, if any. ID3 USLT frames show up as
// "lyrics-<lang>", vorbis comments as "lyrics" or "unsyncedlyrics".
func (i *Info) Lyrics() (string, bool) {
	if v := i.Tags["lyrics"]; strings.TrimSpace(v) != "" {
		return v, true
	}
	// several languages may be tagged; take the first by key
	var keys []string
	for k := range i.Tags {
		if strings.HasPrefix(k, "lyrics-") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := i.Tags[k]; strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	if v := i.Tags["unsyncedlyrics"]; strings.TrimSpace(v) != "" {
		return v, true
	}
	return "", false
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	audioExts := map[string]bool{
		".mp3":  true,
		".wav":  true,
		".aac":  true,
		".flac": true,
		".ogg":  true,
		".oga":  true,
		".opus": true,
		".m4a":  true,
		".wma":  true,
		".aiff": true,
		".ape":  true,
		".wv":   true,
	}
	return audioExts[ext]
}
