package audio

import (
	"math"
	"sync"
	"time"
)

const (
	// fadeFrame is the interval between volume updates during a ramp.
	fadeFrame = 16 * time.Millisecond

	// snapThreshold is the volume delta below which a ramp applies its
	// target immediately instead of animating.
	snapThreshold = 0.5
)

// Ramp is the completion signal for one volume transition. Done is closed
// when the ramp finishes or is superseded; Err distinguishes the two.
type Ramp struct {
	done chan struct{}
	err  error
}

// Done returns a channel closed when the ramp has settled.
func (r *Ramp) Done() <-chan struct{} { return r.done }

// Err returns ErrRampSuperseded if a newer ramp took over the output before
// this one completed. Only valid after Done is closed.
func (r *Ramp) Err() error { return r.err }

// Wait blocks until the ramp settles and returns its outcome.
func (r *Ramp) Wait() error {
	<-r.done
	return r.err
}

func completedRamp() *Ramp {
	r := &Ramp{done: make(chan struct{})}
	close(r.done)
	return r
}

// fader animates one output's volume level over time. Starting a new ramp
// immediately supersedes any in-flight ramp on the same output; the old
// ramp's completion signal is rejected with ErrRampSuperseded rather than
// left pending forever.
type fader struct {
	mu      sync.Mutex
	clock   Clock
	apply   func(level float64)
	current float64
	gen     uint64
	active  *Ramp
}

func newFader(clock Clock, apply func(level float64)) *fader {
	return &fader{clock: clock, apply: apply}
}

// rampTo transitions the output level to target (0-100) over duration.
// Deltas under snapThreshold and non-positive durations apply immediately.
func (f *fader) rampTo(target float64, duration time.Duration) *Ramp {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gen++
	if f.active != nil {
		f.active.err = ErrRampSuperseded
		close(f.active.done)
		f.active = nil
	}

	if duration <= 0 || math.Abs(target-f.current) < snapThreshold {
		f.current = target
		f.apply(target)
		return completedRamp()
	}

	ramp := &Ramp{done: make(chan struct{})}
	f.active = ramp
	go f.run(f.gen, ramp, f.current, target, duration)
	return ramp
}

// run steps the ramp once per frame until linear progress reaches 1, then
// snaps exactly to the target. A generation mismatch means a newer ramp has
// taken over; the superseded goroutine just exits (rampTo already rejected
// its signal).
func (f *fader) run(gen uint64, ramp *Ramp, start, target float64, duration time.Duration) {
	startedAt := f.clock.Now()
	for {
		<-f.clock.After(fadeFrame)

		f.mu.Lock()
		if gen != f.gen {
			f.mu.Unlock()
			return
		}

		progress := float64(f.clock.Now().Sub(startedAt)) / float64(duration)
		if progress > 1 {
			progress = 1
		}
		if progress < 0 {
			progress = 0
		}

		if progress >= 1 {
			f.current = target
			f.apply(target)
			f.active = nil
			close(ramp.done)
			f.mu.Unlock()
			return
		}

		level := start + (target-start)*easeVolume(progress, target < start)
		f.current = level
		f.apply(level)
		f.mu.Unlock()
	}
}

// easeVolume applies perceptual easing: fade-outs drop fast and tail off
// toward silence, fade-ins rise slowly and accelerate late.
func easeVolume(progress float64, fadingOut bool) float64 {
	if fadingOut {
		return math.Sqrt(progress)
	}
	return progress * progress
}

// cancel rejects any in-flight ramp without starting a new one.
func (f *fader) cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	if f.active != nil {
		f.active.err = ErrRampSuperseded
		close(f.active.done)
		f.active = nil
	}
}

// setLevel applies a level directly, unless a ramp currently owns the
// output, in which case the call is dropped (the ramp wins).
func (f *fader) setLevel(level float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != nil {
		return
	}
	f.current = level
	f.apply(level)
}

// fading reports whether a ramp is currently in flight.
func (f *fader) fading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active != nil
}

// level returns the current applied output level.
func (f *fader) level() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}
