package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mgpai22/lyricer/internal/audio"
	"github.com/mgpai22/lyricer/internal/lookup"
	"github.com/mgpai22/lyricer/internal/lyric"
	"github.com/mgpai22/lyricer/internal/mpris"
	"github.com/mgpai22/lyricer/internal/playback"
	"github.com/mgpai22/lyricer/internal/sink"
)

type fakePlayer struct {
	name    string
	meta    mpris.Metadata
	metaErr error
	posErr  error
	// answers to Active, the last one repeats; empty means always active
	active      []bool
	activeCalls int
}

func (p *fakePlayer) Name() string { return p.name }

func (p *fakePlayer) Active() bool {
	if len(p.active) == 0 {
		return true
	}
	i := min(p.activeCalls, len(p.active)-1)
	p.activeCalls++
	return p.active[i]
}

func (p *fakePlayer) Position() (time.Duration, error) {
	return 0, p.posErr
}

func (p *fakePlayer) Identity() (string, error) {
	if p.metaErr != nil {
		return "", p.metaErr
	}
	return p.meta.Identity(), nil
}

func (p *fakePlayer) Metadata() (*mpris.Metadata, error) {
	if p.metaErr != nil {
		return nil, p.metaErr
	}
	meta := p.meta
	return &meta, nil
}

type fakeSource struct {
	players []Player
	calls   int
}

func (s *fakeSource) FindActive(preferred string) (Player, error) {
	s.calls++
	if len(s.players) == 0 {
		return nil, mpris.ErrNoPlayer
	}
	p := s.players[0]
	s.players = s.players[1:]
	return p, nil
}

type fakeCaptions struct {
	timeline *lyric.Timeline
	err      error
	paths    []string
}

func (c *fakeCaptions) Find(path string) (*lyric.Timeline, error) {
	c.paths = append(c.paths, path)
	return c.timeline, c.err
}

type fakeOutput struct {
	records  []sink.Record
	writeErr error
	clears   int
}

func (o *fakeOutput) Write(rec sink.Record) error {
	if o.writeErr != nil {
		return o.writeErr
	}
	o.records = append(o.records, rec)
	return nil
}

func (o *fakeOutput) Clear() error {
	o.clears++
	return nil
}

// cancels the context once limit sleeps have been requested
type fakeClock struct {
	sleeps []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.limit > 0 && len(c.sleeps) >= c.limit {
		c.cancel()
	}
	return ctx.Err()
}

func newClock(limit int) (*fakeClock, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &fakeClock{limit: limit, cancel: cancel}, ctx
}

func timeline(t *testing.T, raw string) *lyric.Timeline {
	t.Helper()
	tl, err := lyric.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return tl
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		meta mpris.Metadata
		want string
	}{
		{
			name: "full",
			meta: mpris.Metadata{Title: "Song", Length: 215 * time.Second, Artists: []string{"A", "B"}},
			want: "Song (3:35) by A, B",
		},
		{
			name: "nothing known",
			want: "[Unknown]",
		},
		{
			name: "no length",
			meta: mpris.Metadata{Title: "Song", Artists: []string{"A"}},
			want: "Song by A",
		},
		{
			name: "blank title",
			meta: mpris.Metadata{Title: "  ", Length: 61 * time.Second},
			want: "[Unknown] (1:01)",
		},
		{
			name: "long track",
			meta: mpris.Metadata{Title: "Mix", Length: time.Hour + 2*time.Minute + 3*time.Second},
			want: "Mix (1:02:03)",
		},
		{
			name: "rounds to seconds",
			meta: mpris.Metadata{Title: "Song", Length: 215600 * time.Millisecond},
			want: "Song (3:36)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(&tt.meta); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunOncePublishesCaptions(t *testing.T) {
	player := &fakePlayer{
		name:   "org.mpris.MediaPlayer2.test",
		meta:   mpris.Metadata{URL: "file:///music/a%20b.flac", Title: "T", Length: 10 * time.Second},
		posErr: errors.New("no position"),
	}
	captions := &fakeCaptions{timeline: timeline(t, "[00:01.00]one\n[00:02.00]two\n")}
	out := &fakeOutput{}
	clock, ctx := newClock(0)

	w := New(&fakeSource{}, captions, out, nil, Options{Clock: clock})
	sync := playback.New(player, out, nil, playback.Options{Clock: clock})

	outcome, err := w.RunOnce(ctx, player, sync)
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if outcome.Reason != playback.ReasonCompleted || outcome.Emitted != 2 {
		t.Errorf("unexpected outcome %+v", outcome)
	}
	if len(captions.paths) != 1 || captions.paths[0] != "/music/a b.flac" {
		t.Errorf("unexpected lookup paths %v", captions.paths)
	}
	if len(out.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out.records))
	}
	if out.records[1] != (sink.Record{Text: "two", Tooltip: "T (0:10)"}) {
		t.Errorf("unexpected record %+v", out.records[1])
	}

	want := []time.Duration{time.Second, time.Second, 8 * time.Second}
	if len(clock.sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", clock.sleeps, want)
	}
	for i := range want {
		if clock.sleeps[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, clock.sleeps[i], want[i])
		}
	}
}

func TestRunOnceReadsLengthFromFile(t *testing.T) {
	player := &fakePlayer{
		meta:   mpris.Metadata{URL: "file:///music/a.flac", Title: "T"},
		posErr: errors.New("no position"),
	}
	captions := &fakeCaptions{timeline: timeline(t, "[00:01.00]one\n")}
	out := &fakeOutput{}
	clock, ctx := newClock(0)

	probed := 0
	w := New(&fakeSource{}, captions, out, nil, Options{
		Clock: clock,
		Probe: func(path string) (*audio.Info, error) {
			probed++
			return &audio.Info{Path: path, Duration: 4 * time.Second}, nil
		},
	})
	sync := playback.New(player, out, nil, playback.Options{Clock: clock})

	if _, err := w.RunOnce(ctx, player, sync); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if probed != 1 {
		t.Errorf("expected one probe, got %d", probed)
	}
	if out.records[0].Tooltip != "T (0:04)" {
		t.Errorf("unexpected tooltip %q", out.records[0].Tooltip)
	}
	if last := clock.sleeps[len(clock.sleeps)-1]; last != 3*time.Second {
		t.Errorf("expected pacing to probed length, last sleep %v", last)
	}
}

func TestRunOnceUsesLengthTag(t *testing.T) {
	player := &fakePlayer{
		meta:   mpris.Metadata{URL: "file:///music/a.flac", Title: "T"},
		posErr: errors.New("no position"),
	}
	captions := &fakeCaptions{timeline: timeline(t, "[length:00:05]\n[00:01.00]one\n")}
	out := &fakeOutput{}
	clock, ctx := newClock(0)

	w := New(&fakeSource{}, captions, out, nil, Options{Clock: clock})
	sync := playback.New(player, out, nil, playback.Options{Clock: clock})

	if _, err := w.RunOnce(ctx, player, sync); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if out.records[0].Tooltip != "T (0:05)" {
		t.Errorf("unexpected tooltip %q", out.records[0].Tooltip)
	}
	if last := clock.sleeps[len(clock.sleeps)-1]; last != 4*time.Second {
		t.Errorf("expected pacing to tagged length, last sleep %v", last)
	}
}

func TestRunOnceFallsBackWithoutCaptions(t *testing.T) {
	player := &fakePlayer{
		meta:   mpris.Metadata{URL: "file:///music/a.mp3", Title: "T", Artists: []string{"X"}},
		posErr: errors.New("no position"),
	}
	captions := &fakeCaptions{err: &lookup.Error{Op: "find", Err: lookup.ErrNotFound}}
	out := &fakeOutput{}
	clock, ctx := newClock(0)

	w := New(&fakeSource{}, captions, out, nil, Options{Clock: clock})
	sync := playback.New(player, out, nil, playback.Options{Clock: clock})

	outcome, err := w.RunOnce(ctx, player, sync)
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if !outcome.LowFidelity {
		t.Error("expected low fidelity run")
	}
	if len(out.records) != 1 || out.records[0] != (sink.Record{Text: playback.NoLyrics, Tooltip: "T by X"}) {
		t.Errorf("unexpected records %+v", out.records)
	}
}

func TestRunOnceErrors(t *testing.T) {
	tests := []struct {
		name    string
		player  *fakePlayer
		wantErr error
	}{
		{
			name:    "metadata unavailable",
			player:  &fakePlayer{metaErr: mpris.ErrMetadata},
			wantErr: mpris.ErrMetadata,
		},
		{
			name:    "bad locator",
			player:  &fakePlayer{meta: mpris.Metadata{URL: "file:///music/%zz.mp3"}},
			wantErr: lookup.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captions := &fakeCaptions{}
			out := &fakeOutput{}
			clock, ctx := newClock(0)

			w := New(&fakeSource{}, captions, out, nil, Options{Clock: clock})
			sync := playback.New(tt.player, out, nil, playback.Options{Clock: clock})

			_, err := w.RunOnce(ctx, tt.player, sync)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(captions.paths) != 0 || len(out.records) != 0 {
				t.Error("expected no lookup and no output")
			}
		})
	}
}

func TestRunClearsOutputWithoutPlayer(t *testing.T) {
	source := &fakeSource{}
	out := &fakeOutput{}
	clock, ctx := newClock(3)

	w := New(source, &fakeCaptions{}, out, nil, Options{
		Clock:         clock,
		RetryInterval: 2 * time.Second,
	})

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if source.calls != 3 {
		t.Errorf("expected 3 player searches, got %d", source.calls)
	}
	for _, d := range clock.sleeps {
		if d != 2*time.Second {
			t.Errorf("expected retry interval sleeps, got %v", clock.sleeps)
			break
		}
	}
	// once per failed search plus once on shutdown
	if out.clears != 4 {
		t.Errorf("expected 4 clears, got %d", out.clears)
	}
}

func TestRunFollowsPlayerUntilItStops(t *testing.T) {
	player := &fakePlayer{
		name:   "org.mpris.MediaPlayer2.test",
		meta:   mpris.Metadata{URL: "file:///music/a.mp3", Title: "T"},
		posErr: errors.New("no position"),
		// before the run, inside the run, after the run
		active: []bool{true, true, false},
	}
	source := &fakeSource{players: []Player{player}}
	captions := &fakeCaptions{timeline: timeline(t, "[00:00.00]hi\n")}
	out := &fakeOutput{}
	clock, ctx := newClock(2)

	w := New(source, captions, out, nil, Options{Clock: clock})

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(out.records) != 1 || out.records[0].Text != "hi" {
		t.Errorf("unexpected records %+v", out.records)
	}
	if source.calls != 2 {
		t.Errorf("expected a new search after the player stopped, got %d searches", source.calls)
	}
	if out.clears < 2 {
		t.Errorf("expected output cleared after the player stopped, got %d clears", out.clears)
	}
}

func TestRunSurvivesSinkFailure(t *testing.T) {
	player := &fakePlayer{
		meta:   mpris.Metadata{URL: "file:///music/a.mp3", Title: "T"},
		posErr: errors.New("no position"),
	}
	source := &fakeSource{players: []Player{player}}
	captions := &fakeCaptions{timeline: timeline(t, "[00:00.00]hi\n")}
	out := &fakeOutput{writeErr: sink.ErrWrite}
	clock, ctx := newClock(1)

	w := New(source, captions, out, nil, Options{Clock: clock, RetryInterval: 3 * time.Second})

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 3*time.Second {
		t.Errorf("expected a retry wait after the failed write, got %v", clock.sleeps)
	}
}
