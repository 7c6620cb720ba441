package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mgpai22/lyricer/internal/logging"
	"github.com/mgpai22/lyricer/internal/lyric"
	"github.com/mgpai22/lyricer/internal/playback"
)

const (
	EnvOutput        = "LYRICER_OUTPUT"
	EnvPlayer        = "LYRICER_PLAYER"
	EnvRetryInterval = "LYRICER_RETRY_INTERVAL"
	EnvTolerance     = "LYRICER_TOLERANCE"
	EnvEncoding      = "LYRICER_ENCODING"
	EnvLyricsDirs    = "LYRICER_LYRICS_DIRS"
	EnvProbe         = "LYRICER_PROBE"

	DefaultOutput        = "/tmp/lyrics"
	DefaultRetryInterval = time.Second
)

// Config holds the daemon settings.
type Config struct {
	Output        string
	Player        string
	RetryInterval time.Duration
	Tolerance     time.Duration
	Encoding      string
	LyricsDirs    []string
	Probe         bool
}

func Default() *Config {
	return &Config{
		Output:        DefaultOutput,
		RetryInterval: DefaultRetryInterval,
		Tolerance:     playback.DefaultTolerance,
		Probe:         true,
	}
}

// EnvFiles are the dotenv files read by Load, in order. Earlier files win
// because godotenv never overrides a variable that is already set.
func EnvFiles() []string {
	var files []string
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "lyricer", "lyricer.env"))
	}
	return append(files, ".env")
}

// Load reads the dotenv files that exist, then builds a Config from the
// environment. Bad values are logged and replaced by their defaults.
func Load(logger *logging.Logger) *Config {
	if logger == nil {
		logger = logging.Nop()
	}

	for _, file := range EnvFiles() {
		if err := loadFile(file); err != nil {
			logger.Warnw("Failed to load env file", "file", file, "error", err)
		}
	}

	return FromEnv(os.LookupEnv, logger)
}

func loadFile(file string) error {
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(file)
}

// FromEnv builds a Config from lookup, usually os.LookupEnv.
func FromEnv(lookup func(string) (string, bool), logger *logging.Logger) *Config {
	if logger == nil {
		logger = logging.Nop()
	}
	cfg := Default()

	if v, ok := lookup(EnvOutput); ok && strings.TrimSpace(v) != "" {
		cfg.Output = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPlayer); ok {
		cfg.Player = strings.TrimSpace(v)
	}

	if v, ok := lookup(EnvRetryInterval); ok && v != "" {
		d, err := parsePositiveDuration(v)
		if err != nil {
			logger.Warnw("Invalid retry interval, using default",
				"value", v, "default", cfg.RetryInterval, "error", err)
		} else {
			cfg.RetryInterval = d
		}
	}

	if v, ok := lookup(EnvTolerance); ok && v != "" {
		d, err := parsePositiveDuration(v)
		if err != nil {
			logger.Warnw("Invalid tolerance, using default",
				"value", v, "default", cfg.Tolerance, "error", err)
		} else {
			cfg.Tolerance = d
		}
	}

	if v, ok := lookup(EnvEncoding); ok && v != "" {
		v = strings.TrimSpace(v)
		if lyric.ValidEncoding(v) {
			cfg.Encoding = v
		} else {
			logger.Warnw("Unknown encoding, using UTF-8", "value", v)
		}
	}

	if v, ok := lookup(EnvLyricsDirs); ok {
		cfg.LyricsDirs = SplitDirs(v)
	}

	if v, ok := lookup(EnvProbe); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			logger.Warnw("Invalid probe setting, using default",
				"value", v, "default", cfg.Probe)
		} else {
			cfg.Probe = b
		}
	}

	return cfg
}

// Validate checks values that may have been overridden by flags.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("output path must not be empty")
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("retry interval must be positive, got %v", c.RetryInterval)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %v", c.Tolerance)
	}
	if c.Encoding != "" && !lyric.ValidEncoding(c.Encoding) {
		return fmt.Errorf("%w: %q", lyric.ErrUnknownEncoding, c.Encoding)
	}
	return nil
}

// splits a colon separated directory list, dropping empty entries
func SplitDirs(value string) []string {
	var dirs []string
	for _, d := range filepath.SplitList(value) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// accepts Go durations ("250ms") or bare milliseconds ("250")
func parsePositiveDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	d, err := time.ParseDuration(v)
	if err != nil {
		ms, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, err
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %v", d)
	}
	return d, nil
}
