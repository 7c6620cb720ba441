package playback

import (
	"context"
	"time"

	"github.com/mgpai22/lyricer/internal/lyric"
	"github.com/mgpai22/lyricer/internal/sink"
)

const (
	// allowed gap between the player position and our own estimate
	DefaultTolerance = 125 * time.Millisecond

	// fixed dwell per caption when no caption file was found
	LowFidelityDwell = time.Second

	// caption shown when no caption file was found
	NoLyrics = "No lyrics"
)

// Oracle is the source of truth for what is playing and where.
type Oracle interface {
	// Active reports whether the player is still there
	Active() bool
	Position() (time.Duration, error)
	// Identity changes whenever the player switches tracks
	Identity() (string, error)
}

// receives the active caption on every transition
type Sink interface {
	Write(rec sink.Record) error
}

// Clock sleeps. Implementations return early only when ctx is done.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Track is everything one run needs to know about the current track.
type Track struct {
	// Timeline is nil when Err is set
	Timeline *lyric.Timeline
	// lookup or parse failure; the run falls back to NoLyrics
	Err error

	Label string
	// zero when the player did not report a length
	Duration time.Duration
	// position reported when the run was started, zero when unavailable
	Offset time.Duration
}

// run state machine
type State int

const (
	StateRunning State = iota
	StateEnded
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "ended"
}

// why a run ended
type Reason int

const (
	ReasonNone Reason = iota
	// timeline exhausted and end of track reached
	ReasonCompleted
	// identity differs from the one seen at start, or could not be read
	ReasonTrackChanged
	// player left the bus
	ReasonPlayerStopped
	// we are ahead of the player beyond tolerance
	ReasonRunningFast
	ReasonSinkFailed
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonCompleted:
		return "completed"
	case ReasonTrackChanged:
		return "track changed"
	case ReasonPlayerStopped:
		return "player stopped"
	case ReasonRunningFast:
		return "running fast"
	case ReasonSinkFailed:
		return "sink failed"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// result of one run
type Outcome struct {
	State  State
	Reason Reason
	// records written to the sink
	Emitted int
	// the synchronizer's playback estimate when the run ended
	Position time.Duration
	// run used the NoLyrics fallback
	LowFidelity bool
}

type systemClock struct{}

// SystemClock sleeps on real timers.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
