package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mgpai22/lyricer/internal/audio"
	"github.com/mgpai22/lyricer/internal/ffmpeg"
	"github.com/mgpai22/lyricer/internal/lookup"
	"github.com/mgpai22/lyricer/internal/mpris"
	"github.com/mgpai22/lyricer/internal/sink"
	"github.com/mgpai22/lyricer/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the active player and write the current lyric line",
	Long: `Watch the MPRIS session bus for a media player and publish the lyric
line for the current playback position to the output file as
{"text": "...", "tooltip": "..."}.

This is also what running lyricer without a subcommand does.

Examples:
  lyricer
  lyricer watch -o /run/user/1000/lyrics --player spotify
  lyricer watch --lyrics-dir ~/Music/lyrics -e shift_jis`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	bus, err := mpris.Connect()
	if err != nil {
		return err
	}
	defer bus.Close()

	var probe audio.ProbeFunc
	if cfg.Probe {
		if ffmpeg.ProbeAvailable() {
			probe = audio.Probe
		} else {
			logger.Warnw("ffprobe not found, embedded lyrics and track length probing disabled")
		}
	}

	finder := lookup.NewFinder(cfg.LyricsDirs, cfg.Encoding, probe != nil)
	out := sink.New(cfg.Output)

	logger.Infow("Lyricer started",
		"output", out.Path(),
		"player", cfg.Player,
		"tolerance", cfg.Tolerance,
		"lyrics_dirs", cfg.LyricsDirs,
		"probe", probe != nil,
	)

	w := watch.New(watch.BusSource(bus), finder, out, logger, watch.Options{
		Player:        cfg.Player,
		RetryInterval: cfg.RetryInterval,
		Tolerance:     cfg.Tolerance,
		Probe:         probe,
	})
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	logger.Infow("Lyricer stopped")
	return nil
}
