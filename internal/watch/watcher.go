// Package watch drives the synchronizer: it finds a player, starts a run for
// every track and keeps the output file in step with what is playing.
package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/lyricer/internal/audio"
	"github.com/mgpai22/lyricer/internal/logging"
	"github.com/mgpai22/lyricer/internal/lookup"
	"github.com/mgpai22/lyricer/internal/lyric"
	"github.com/mgpai22/lyricer/internal/mpris"
	"github.com/mgpai22/lyricer/internal/playback"
)

const unknownTitle = "[Unknown]"

// Player is a media player the watcher can follow.
type Player interface {
	playback.Oracle
	Name() string
	Metadata() (*mpris.Metadata, error)
}

// PlayerSource finds the player to follow.
type PlayerSource interface {
	FindActive(preferred string) (Player, error)
}

// Captions resolves an audio file path to its caption timeline.
type Captions interface {
	Find(audioPath string) (*lyric.Timeline, error)
}

// Output is where captions are published. Clear removes whatever was
// published last.
type Output interface {
	playback.Sink
	Clear() error
}

type Options struct {
	// substring of the player bus name, empty for any player
	Player        string
	RetryInterval time.Duration
	Tolerance     time.Duration
	Clock         playback.Clock
	// fills in the track length when the player does not report one; nil
	// disables probing
	Probe audio.ProbeFunc
}

type Watcher struct {
	source   PlayerSource
	captions Captions
	out      Output
	logger   *logging.Logger
	opts     Options
}

func New(
	source PlayerSource,
	captions Captions,
	out Output,
	logger *logging.Logger,
	opts Options,
) *Watcher {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = playback.SystemClock()
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	return &Watcher{
		source:   source,
		captions: captions,
		out:      out,
		logger:   logger,
		opts:     opts,
	}
}

// Run follows players until ctx is done. The output is cleared whenever no
// player is available and again on shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.clear()

	for {
		if ctx.Err() != nil {
			return nil
		}

		player, err := w.source.FindActive(w.opts.Player)
		if err != nil {
			w.logger.Warnw("Player not found", "error", err)
			w.clear()
			if w.wait(ctx) != nil {
				return nil
			}
			continue
		}

		w.logger.Infow("Following player", "player", player.Name())
		if err := w.follow(ctx, player); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		w.logger.Warnw("Player has stopped, looking for a new one",
			"player", player.Name(),
		)
		w.clear()
	}
}

// repeats runs for one player until it goes away
func (w *Watcher) follow(ctx context.Context, player Player) error {
	sync := playback.New(player, w.out, w.logger, playback.Options{
		Tolerance: w.opts.Tolerance,
		Clock:     w.opts.Clock,
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !player.Active() {
			return nil
		}

		outcome, err := w.RunOnce(ctx, player, sync)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if outcome.Reason == playback.ReasonSinkFailed {
				w.logger.Errorw("Failed to write output", "error", err)
			} else {
				w.logger.Warnw("Run failed", "error", err)
			}
			if err := w.wait(ctx); err != nil {
				return err
			}
			continue
		}

		w.logger.Debugw("Run ended",
			"reason", outcome.Reason,
			"emitted", outcome.Emitted,
			"position", outcome.Position,
		)

		switch outcome.Reason {
		case playback.ReasonPlayerStopped:
			return nil
		case playback.ReasonCompleted:
			// nothing left to show until the player moves on
			if err := w.wait(ctx); err != nil {
				return err
			}
		}
	}
}

// RunOnce starts a single synchronizer run for the player's current track.
// Metadata and locator failures end the run early with an error.
func (w *Watcher) RunOnce(
	ctx context.Context,
	player Player,
	sync *playback.Synchronizer,
) (playback.Outcome, error) {
	meta, err := player.Metadata()
	if err != nil {
		return playback.Outcome{}, fmt.Errorf("failed to fetch metadata: %w", err)
	}

	path, err := lookup.DecodeLocator(meta.URL)
	if err != nil {
		return playback.Outcome{}, err
	}
	w.logger.Debugw("Audio path", "path", path)

	var track playback.Track
	track.Timeline, track.Err = w.captions.Find(path)
	w.logLookup(path, track)

	if meta.Length <= 0 {
		meta.Length = w.probeLength(path)
	}
	if meta.Length <= 0 && track.Err == nil {
		meta.Length, _ = track.Timeline.Length()
	}

	track.Label = Label(meta)
	track.Duration = meta.Length
	w.logger.Infow("Now playing", "label", track.Label)

	if pos, err := player.Position(); err == nil {
		track.Offset = pos
	}

	return sync.Run(ctx, track)
}

// track length from the file itself, zero when unknown
func (w *Watcher) probeLength(path string) time.Duration {
	if w.opts.Probe == nil || !audio.IsAudioFile(path) {
		return 0
	}

	info, err := w.opts.Probe(path)
	if err != nil {
		w.logger.Debugw("Could not probe track length", "path", path, "error", err)
		return 0
	}
	return info.Duration
}

func (w *Watcher) logLookup(path string, track playback.Track) {
	var parseErr *lyric.ParseError
	switch {
	case track.Err == nil:
		w.logger.Infow("Captions found",
			"path", path,
			"captions", track.Timeline.Len(),
			"format", track.Timeline.Format,
		)
	case errors.As(track.Err, &parseErr):
		w.logger.Warnw("Failed to parse captions", "path", path, "error", track.Err)
	case errors.Is(track.Err, lookup.ErrUnreadable):
		w.logger.Warnw("Failed to read captions", "path", path, "error", track.Err)
	default:
		w.logger.Infow("No captions for track", "path", path)
	}
}

func (w *Watcher) wait(ctx context.Context) error {
	return w.opts.Clock.Sleep(ctx, w.opts.RetryInterval)
}

func (w *Watcher) clear() {
	if err := w.out.Clear(); err != nil {
		w.logger.Warnw("Failed to clear output", "error", err)
	}
}

// Label renders "Title (length) by Artist, Artist". Missing parts are left
// out; a missing title becomes [Unknown].
func Label(meta *mpris.Metadata) string {
	var b strings.Builder

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = unknownTitle
	}
	b.WriteString(title)

	if meta.Length > 0 {
		fmt.Fprintf(&b, " (%s)", formatLength(meta.Length))
	}
	if len(meta.Artists) > 0 {
		b.WriteString(" by ")
		b.WriteString(strings.Join(meta.Artists, ", "))
	}
	return b.String()
}

// m:ss, or h:mm:ss for long tracks
func formatLength(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

type busSource struct {
	bus *mpris.Bus
}

// BusSource finds players on an MPRIS session bus.
func BusSource(bus *mpris.Bus) PlayerSource {
	return busSource{bus: bus}
}

func (s busSource) FindActive(preferred string) (Player, error) {
	player, err := s.bus.FindActive(preferred)
	if err != nil {
		return nil, err
	}
	return player, nil
}
