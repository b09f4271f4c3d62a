package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeClock drives fades and tickers with simulated time.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &fakeWaiter{at: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.waiters = append(c.waiters, w)
	return w.ch
}

// advance moves simulated time forward and fires every timer that came due.
func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due, remaining []*fakeWaiter
	for _, w := range c.waiters {
		if !w.at.After(now) {
			due = append(due, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()
	for _, w := range due {
		w.ch <- now
	}
}

// drive steps the clock in fade-frame increments until done closes, giving
// the goroutines under test a moment to consume each tick.
func (c *fakeClock) drive(t *testing.T, done <-chan struct{}) {
	t.Helper()
	for i := 0; i < 100_000; i++ {
		select {
		case <-done:
			return
		default:
		}
		c.advance(fadeFrame)
		time.Sleep(100 * time.Microsecond)
	}
	t.Fatal("simulated time exhausted without completion")
}

// driveUntil steps the clock until cond holds.
func (c *fakeClock) driveUntil(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 100_000; i++ {
		if cond() {
			return
		}
		c.advance(fadeFrame)
		time.Sleep(100 * time.Microsecond)
	}
	t.Fatal("simulated time exhausted without condition")
}

// fakeOutput records every interaction; tests inspect the level sequence
// and trigger end-of-track via finish.
type fakeOutput struct {
	mu         sync.Mutex
	loads      []string
	loaded     string
	playing    bool
	stops      int
	level      float64
	levels     []float64
	pos        time.Duration
	dur        time.Duration
	onFinished func()
	failLoad   map[string]bool
	failPlay   bool
	closed     bool
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{dur: 3 * time.Minute, level: 100}
}

func (o *fakeOutput) Load(path string, onFinished func()) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loads = append(o.loads, path)
	if o.failLoad[path] {
		return fmt.Errorf("decode %s: boom", path)
	}
	o.loaded = path
	o.playing = false
	o.pos = 0
	o.onFinished = onFinished
	return nil
}

func (o *fakeOutput) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loaded == "" {
		return ErrNothingLoaded
	}
	if o.failPlay {
		return errors.New("playback blocked")
	}
	o.playing = true
	return nil
}

func (o *fakeOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = false
}

func (o *fakeOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops++
	o.playing = false
	o.loaded = ""
	o.pos = 0
	o.onFinished = nil
}

func (o *fakeOutput) SetVolume(level float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.level = level
	o.levels = append(o.levels, level)
}

func (o *fakeOutput) Seek(pos time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loaded == "" {
		return ErrNothingLoaded
	}
	o.pos = pos
	return nil
}

func (o *fakeOutput) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos
}

func (o *fakeOutput) Duration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loaded == "" {
		return 0
	}
	return o.dur
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// finish simulates the loaded track playing to completion.
func (o *fakeOutput) finish() {
	o.mu.Lock()
	fn := o.onFinished
	o.onFinished = nil
	o.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (o *fakeOutput) setPosition(pos time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pos = pos
}

func (o *fakeOutput) loadCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.loads)
}

func (o *fakeOutput) loadedPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loaded
}

func (o *fakeOutput) isPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func (o *fakeOutput) stopCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stops
}

func (o *fakeOutput) levelSequence() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]float64, len(o.levels))
	copy(out, o.levels)
	return out
}

func (o *fakeOutput) currentLevel() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// fakeResolver treats every path as existing unless marked missing.
type fakeResolver struct {
	missing map[string]bool
}

func (r fakeResolver) Exists(path string) bool {
	return !r.missing[path]
}

func (r fakeResolver) Open(path string) (io.ReadSeekCloser, error) {
	return nil, errors.New("fakeResolver does not open files")
}

func testPlaylist(id string, paths ...string) Playlist {
	return Playlist{ID: id, Name: id, TrackPaths: paths}
}

func strPtr(s string) *string { return &s }
