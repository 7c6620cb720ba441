package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/mgpai22/lyricer/internal/lyric"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [caption_file]",
	Short: "Parse a caption file and print its timeline",
	Long: `Decode and parse an .lrc, .srt or .vtt file and print one line per
caption, the way lyricer would show it. Useful for checking a lyrics file
before playing the track.

Enhanced (per-word) lines are marked with '*'.

Examples:
  lyricer parse song.lrc
  lyricer parse song.lrc --encoding gbk`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	tl, err := lyric.Open(args[0], cfg.Encoding)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	if !tl.Ordered() {
		logger.Warnw("Caption timestamps are not in order", "file", args[0])
	}
	logger.Debugw("Parsed captions",
		"file", args[0],
		"format", tl.Format,
		"captions", tl.Len(),
	)

	return printTimeline(cmd.OutOrStdout(), tl)
}

func printTimeline(w io.Writer, tl *lyric.Timeline) error {
	for _, c := range tl.Captions {
		mark := " "
		if c.Kind == lyric.Enhanced {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\n", formatStamp(c.Time), mark, c.Text()); err != nil {
			return err
		}
	}
	return nil
}

// mm:ss.xx
func formatStamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	centis := int64(d / (10 * time.Millisecond))
	minutes := centis / 6000
	seconds := (centis / 100) % 60
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis%100)
}
