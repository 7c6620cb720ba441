package ffmpeg

import (
	"errors"
	"os/exec"
	"sync"
)

// ErrProbeMissing means no ffprobe binary could be found on PATH
var ErrProbeMissing = errors.New("ffprobe not found in PATH")

var (
	lookOnce sync.Once
	lookPath string
	lookErr  error

	// swapped in tests
	lookPathFunc = exec.LookPath
)

// FFprobePath resolves ffprobe once per process. ffmpeg-go always runs the
// binary named "ffprobe", so only PATH lookups are meaningful here.
func FFprobePath() (string, error) {
	lookOnce.Do(func() {
		path, err := lookPathFunc("ffprobe")
		if err != nil {
			lookErr = ErrProbeMissing
			return
		}
		lookPath = path
	})
	return lookPath, lookErr
}

// reports whether media probing can run
func ProbeAvailable() bool {
	_, err := FFprobePath()
	return err == nil
}
