package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/mgpai22/lyricer/internal/logging"
	"github.com/mgpai22/lyricer/internal/lyric"
	"github.com/mgpai22/lyricer/internal/sink"
)

// synchronizer options
type Options struct {
	Tolerance time.Duration // default DefaultTolerance
	Clock     Clock         // default SystemClock()
}

// Synchronizer walks a timeline in step with the player and publishes the
// active caption. It keeps no state between runs.
type Synchronizer struct {
	oracle    Oracle
	sink      Sink
	logger    *logging.Logger
	clock     Clock
	tolerance time.Duration
}

func New(
	oracle Oracle,
	out Sink,
	logger *logging.Logger,
	opts Options,
) *Synchronizer {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	return &Synchronizer{
		oracle:    oracle,
		sink:      out,
		logger:    logger,
		clock:     opts.Clock,
		tolerance: opts.Tolerance,
	}
}

// state owned by a single Run call
type run struct {
	track       Track
	captions    []lyric.Caption
	lowFidelity bool
	current     time.Duration
	baseline    string
	emitted     int
	state       State
	reason      Reason
}

func (r *run) end(reason Reason) {
	r.state = StateEnded
	r.reason = reason
}

func (r *run) outcome() Outcome {
	return Outcome{
		State:       r.state,
		Reason:      r.reason,
		Emitted:     r.emitted,
		Position:    r.current,
		LowFidelity: r.lowFidelity,
	}
}

// Run plays one track from the current position to the end of its timeline.
// Track changes, a stopped player and drift ahead of the player end the run
// with a nil error and a Reason; the caller decides whether to start another.
// A non-nil error means the sink failed or ctx was cancelled.
func (s *Synchronizer) Run(ctx context.Context, track Track) (Outcome, error) {
	r := s.start(track)

	for _, caption := range r.captions {
		if err := s.step(ctx, r, caption); err != nil {
			return r.outcome(), err
		}
		if r.state == StateEnded {
			return r.outcome(), nil
		}
	}

	if track.Duration > r.current {
		if err := s.sleep(ctx, r, track.Duration-r.current); err != nil {
			return r.outcome(), err
		}
	}

	r.end(ReasonCompleted)
	s.logger.Debugw("Run completed",
		"emitted", r.emitted,
		"position", r.current,
	)
	return r.outcome(), nil
}

func (s *Synchronizer) start(track Track) *run {
	r := &run{
		track:   track,
		current: track.Offset,
		state:   StateRunning,
	}

	if track.Err != nil || track.Timeline == nil || track.Timeline.Len() == 0 {
		s.logger.Infow("No caption timeline, showing placeholder",
			"reason", track.Err,
		)
		r.captions = lyric.Single(NoLyrics).Captions
		r.lowFidelity = true
	} else {
		r.captions = track.Timeline.Captions
		if !track.Timeline.Ordered() {
			s.logger.Warnw("Caption timestamps go backwards, playback may stall",
				"captions", track.Timeline.Len(),
			)
		}
	}

	// a failed read leaves the baseline empty, so the first check ends the run
	if id, err := s.oracle.Identity(); err == nil {
		r.baseline = id
	} else {
		s.logger.Debugw("Could not read track identity", "error", err)
	}

	return r
}

// one pass of the main loop for a single caption
func (s *Synchronizer) step(ctx context.Context, r *run, caption lyric.Caption) error {
	if !s.sameTrack(r) {
		s.logger.Warnw("Current track has changed")
		r.end(ReasonTrackChanged)
		return nil
	}

	text := caption.Text()
	if caption.Blank() {
		return nil
	}

	if err := s.dwell(ctx, r, caption); err != nil {
		return err
	}

	if !s.oracle.Active() {
		s.logger.Warnw("Player is not running, stopping")
		r.end(ReasonPlayerStopped)
		return nil
	}

	s.correctDrift(r, caption)
	if r.state == StateEnded {
		return nil
	}

	return s.emit(r, text)
}

func (s *Synchronizer) sameTrack(r *run) bool {
	id, err := s.oracle.Identity()
	if err != nil {
		return false
	}
	return id == r.baseline
}

func (s *Synchronizer) dwell(ctx context.Context, r *run, caption lyric.Caption) error {
	if r.lowFidelity {
		return s.sleep(ctx, r, LowFidelityDwell)
	}
	if delta := caption.Time - r.current; delta > 0 {
		return s.sleep(ctx, r, delta)
	}
	return nil
}

func (s *Synchronizer) sleep(ctx context.Context, r *run, d time.Duration) error {
	if err := s.clock.Sleep(ctx, d); err != nil {
		r.end(ReasonCancelled)
		return err
	}
	return nil
}

// reconciles our estimate with the player. Being behind is fixed by jumping
// forward; being ahead ends the run.
func (s *Synchronizer) correctDrift(r *run, caption lyric.Caption) {
	observed, err := s.oracle.Position()
	if err != nil {
		s.logger.Debugw("Player does not report position, captions may drift",
			"error", err,
		)
		r.current = caption.Time
		return
	}

	switch {
	case observed > r.current+s.tolerance:
		s.logger.Warnw("Captions running slow, resyncing",
			"expected", r.current,
			"observed", observed,
		)
	case observed+s.tolerance < r.current:
		s.logger.Warnw("Captions running fast, restarting",
			"expected", r.current,
			"observed", observed,
		)
		r.end(ReasonRunningFast)
		return
	}

	r.current = observed
}

func (s *Synchronizer) emit(r *run, text string) error {
	rec := sink.Record{Text: text, Tooltip: r.track.Label}
	if err := s.sink.Write(rec); err != nil {
		r.end(ReasonSinkFailed)
		return fmt.Errorf("publish caption: %w", err)
	}
	r.emitted++
	s.logger.Debugw("Caption", "text", text, "position", r.current)
	return nil
}
