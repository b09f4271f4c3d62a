package audio

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// positionTick is how often a playing layer samples the output position.
	positionTick = 500 * time.Millisecond

	// restartThreshold: Previous restarts the current track when playback is
	// within this window of the track start, instead of moving back.
	restartThreshold = 3 * time.Second

	defaultVolume = 70
)

// Layer is one independent playback channel: one queue and one fade
// controller wrapped around one exclusively owned media output. All
// transport methods are no-throw; failures degrade to a safe idle state
// with logged diagnostics.
type Layer struct {
	mu           sync.Mutex
	name         string
	out          Output
	resolver     Resolver
	clock        Clock
	q            *queue
	fade         *fader
	fadeDuration time.Duration

	state      PlaybackState
	fading     int  // >0 while a fade-out transition owns the layer
	outLoaded  bool // output holds the current track (possibly paused)
	playbackID uint64

	closed    chan struct{}
	closeOnce sync.Once

	listenerID     uint64
	stateListeners map[uint64]func(PlaybackState)
	trackListeners map[uint64]func(*Track)
}

// NewLayer creates a layer named for diagnostics, owning the given output.
// A zero fadeDuration disables fade transitions entirely.
func NewLayer(name string, out Output, resolver Resolver, clock Clock, fadeDuration time.Duration) *Layer {
	l := &Layer{
		name:         name,
		out:          out,
		resolver:     resolver,
		clock:        clock,
		q:            newQueue(),
		fadeDuration: fadeDuration,
		state: PlaybackState{
			CurrentTrackIndex: -1,
			Volume:            defaultVolume,
			RepeatMode:        RepeatNone,
		},
		closed:         make(chan struct{}),
		stateListeners: make(map[uint64]func(PlaybackState)),
		trackListeners: make(map[uint64]func(*Track)),
	}
	l.fade = newFader(clock, out.SetVolume)
	go l.positionLoop()
	return l
}

// Name returns the layer's diagnostic name (e.g. "primary").
func (l *Layer) Name() string { return l.name }

// State returns a copy of the authoritative playback state.
func (l *Layer) State() PlaybackState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// CurrentTrack returns the selected track, if any.
func (l *Layer) CurrentTrack() (Track, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.currentTrack()
}

// OnStateChange registers a state listener and returns its unsubscribe.
func (l *Layer) OnStateChange(fn func(PlaybackState)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listenerID++
	id := l.listenerID
	l.stateListeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.stateListeners, id)
	}
}

// OnTrackChange registers a track listener, invoked with the new track or
// nil when selection clears. Returns its unsubscribe.
func (l *Layer) OnTrackChange(fn func(*Track)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listenerID++
	id := l.listenerID
	l.trackListeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.trackListeners, id)
	}
}

func (l *Layer) emitState() {
	l.mu.Lock()
	snap := l.state
	fns := make([]func(PlaybackState), 0, len(l.stateListeners))
	for _, fn := range l.stateListeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		f := fn
		invokeSafely("state", func() { f(snap) })
	}
}

func (l *Layer) emitTrack() {
	l.mu.Lock()
	var track *Track
	if t, ok := l.q.currentTrack(); ok {
		c := t
		track = &c
	}
	fns := make([]func(*Track), 0, len(l.trackListeners))
	for _, fn := range l.trackListeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		f := fn
		invokeSafely("track", func() { f(track) })
	}
}

// Play starts playback. With no track selected it loads and plays queue
// index 0. Ignored while already playing or while a fade-out transition
// owns the layer.
func (l *Layer) Play() {
	l.mu.Lock()
	if l.state.IsPlaying || l.fading > 0 || l.q.len() == 0 {
		l.mu.Unlock()
		return
	}
	trackChanged := false
	switch {
	case l.q.currentIndex < 0:
		trackChanged = l.startLocked(0, l.fadeDuration)
	case l.outLoaded:
		l.resumeLocked()
	default:
		trackChanged = l.startLocked(l.q.currentIndex, l.fadeDuration)
	}
	l.mu.Unlock()
	l.emitState()
	if trackChanged {
		l.emitTrack()
	}
}

// Pause ramps to silence first when a fade is configured, then pauses the
// output and restores the logical volume so a later Play is not silent.
func (l *Layer) Pause() {
	l.mu.Lock()
	if !l.state.IsPlaying || l.fading > 0 {
		l.mu.Unlock()
		return
	}
	if l.fadeDuration > 0 {
		l.fading++
		ramp := l.fade.rampTo(0, l.fadeDuration)
		l.mu.Unlock()
		err := ramp.Wait()
		l.mu.Lock()
		l.fading--
		if err != nil || !l.state.IsPlaying {
			// a newer transition superseded this fade and owns the output
			l.mu.Unlock()
			return
		}
	}
	l.out.Pause()
	l.state.IsPlaying = false
	l.state.Position = l.out.Position()
	l.fade.setLevel(l.effectiveVolumeLocked())
	l.mu.Unlock()
	l.emitState()
}

// Stop is Pause plus a position reset; the loaded track is discarded so the
// next Play starts it from zero.
func (l *Layer) Stop() {
	l.mu.Lock()
	if !l.state.IsPlaying {
		if l.outLoaded || l.state.Position != 0 {
			l.stopImmediateLocked()
			l.mu.Unlock()
			l.emitState()
			return
		}
		l.mu.Unlock()
		return
	}
	if l.fadeDuration > 0 {
		l.fading++
		ramp := l.fade.rampTo(0, l.fadeDuration)
		l.mu.Unlock()
		err := ramp.Wait()
		l.mu.Lock()
		l.fading--
		if err != nil {
			l.mu.Unlock()
			return
		}
	}
	l.stopImmediateLocked()
	l.mu.Unlock()
	l.emitState()
}

// TogglePlayPause pauses when playing or mid fade-out, plays otherwise.
func (l *Layer) TogglePlayPause() {
	l.mu.Lock()
	playing := l.state.IsPlaying || l.fading > 0
	l.mu.Unlock()
	if playing {
		l.Pause()
	} else {
		l.Play()
	}
}

// Next advances to the next queue entry, fading out first when playing with
// a configured fade. Exhausting the queue stops the layer.
func (l *Layer) Next() {
	l.mu.Lock()
	if l.fading > 0 {
		l.mu.Unlock()
		return
	}
	next, ok := l.q.nextIndex()
	if !ok {
		l.mu.Unlock()
		l.Stop()
		return
	}
	changed := l.switchLocked(next)
	l.mu.Unlock()
	if changed {
		l.emitState()
		l.emitTrack()
	}
}

// Previous restarts the current track when playback is just past its start
// (the tap-back-to-restart convention), otherwise moves to the previous
// queue entry. A queue with no previous entry makes this a no-op.
func (l *Layer) Previous() {
	l.mu.Lock()
	if l.fading > 0 {
		l.mu.Unlock()
		return
	}
	pos := l.state.Position
	if l.outLoaded {
		pos = l.out.Position()
	}
	if l.q.currentIndex >= 0 && l.outLoaded && pos > 0 && pos < restartThreshold {
		if err := l.out.Seek(0); err == nil {
			l.state.Position = 0
			l.mu.Unlock()
			l.emitState()
			return
		}
		l.mu.Unlock()
		return
	}
	prev, ok := l.q.previousIndex()
	if !ok {
		l.mu.Unlock()
		return
	}
	changed := l.switchLocked(prev)
	l.mu.Unlock()
	if changed {
		l.emitState()
		l.emitTrack()
	}
}

// Seek clamps to [0, duration]; a layer with unknown duration ignores it.
func (l *Layer) Seek(pos time.Duration) {
	l.mu.Lock()
	if l.state.Duration <= 0 || !l.outLoaded {
		l.mu.Unlock()
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > l.state.Duration {
		pos = l.state.Duration
	}
	if err := l.out.Seek(pos); err != nil {
		slog.Warn("seek failed", "layer", l.name, "err", err)
		l.mu.Unlock()
		return
	}
	l.state.Position = pos
	l.mu.Unlock()
	l.emitState()
}

// SeekPercent seeks to a percentage (0-100) of the track duration.
func (l *Layer) SeekPercent(pct float64) {
	l.mu.Lock()
	duration := l.state.Duration
	l.mu.Unlock()
	if duration <= 0 {
		return
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	l.Seek(time.Duration(float64(duration) * pct / 100))
}

// SetVolume updates the logical volume (clamped to 0-100). The audible
// output is untouched while muted or while a fade owns the level.
func (l *Layer) SetVolume(v float64) {
	l.mu.Lock()
	l.state.Volume = clampVolume(v)
	if !l.state.IsMuted {
		l.fade.setLevel(l.state.Volume)
	}
	l.mu.Unlock()
	l.emitState()
}

// ToggleMute flips mute, applying immediately unless a fade is in progress.
func (l *Layer) ToggleMute() {
	l.mu.Lock()
	l.state.IsMuted = !l.state.IsMuted
	l.fade.setLevel(l.effectiveVolumeLocked())
	l.mu.Unlock()
	l.emitState()
}

// ToggleShuffle flips shuffle; turning it on regenerates the permutation so
// the remaining play order is freshly randomized.
func (l *Layer) ToggleShuffle() {
	l.mu.Lock()
	l.q.setShuffled(!l.q.shuffled)
	l.state.IsShuffled = l.q.shuffled
	l.mu.Unlock()
	l.emitState()
}

// CycleRepeatMode advances none -> playlist -> track -> none.
func (l *Layer) CycleRepeatMode() {
	l.mu.Lock()
	l.state.RepeatMode = l.q.cycleRepeat()
	l.mu.Unlock()
	l.emitState()
}

// LoadPlaylist replaces the queue contents and clears the selection.
func (l *Layer) LoadPlaylist(p Playlist) {
	l.mu.Lock()
	l.loadPlaylistLocked(p)
	l.mu.Unlock()
	l.emitState()
	l.emitTrack()
}

// CrossfadeToPlaylist fades the current material to silence, swaps in the
// new playlist and starts its first track from silence. A playlist that is
// already loaded and playing is a no-op; when idle or with a zero duration
// the swap happens immediately.
func (l *Layer) CrossfadeToPlaylist(p Playlist, duration time.Duration) {
	l.mu.Lock()
	if l.state.CurrentPlaylistID == p.ID && l.state.IsPlaying {
		l.mu.Unlock()
		return
	}
	if l.state.IsPlaying && duration > 0 {
		l.fading++
		ramp := l.fade.rampTo(0, duration)
		l.mu.Unlock()
		err := ramp.Wait()
		l.mu.Lock()
		l.fading--
		if err != nil {
			l.mu.Unlock()
			return
		}
		l.loadPlaylistLocked(p)
		if next, ok := l.q.nextIndex(); ok {
			l.startLocked(next, duration)
		}
	} else {
		l.loadPlaylistLocked(p)
		if next, ok := l.q.nextIndex(); ok {
			l.startLocked(next, l.fadeDuration)
		}
	}
	l.mu.Unlock()
	l.emitState()
	l.emitTrack()
}

// SelectTrackPath selects the queue entry with the given path without
// starting playback. Returns false if the path is not in the queue.
func (l *Layer) SelectTrackPath(path string) bool {
	l.mu.Lock()
	index, ok := l.q.indexOfPath(path)
	if !ok {
		l.mu.Unlock()
		return false
	}
	l.playbackID++
	l.out.Stop()
	l.outLoaded = false
	l.q.selectIndex(index)
	l.state.CurrentTrackIndex = index
	l.state.IsPlaying = false
	l.state.Position = 0
	l.state.Duration = 0
	l.mu.Unlock()
	l.emitState()
	l.emitTrack()
	return true
}

// ReloadPlaylist refreshes the queue from an edited playlist, re-pointing
// the selection at the current track when its path survives the edit. A
// playing layer whose track vanished resumes with the next available one.
func (l *Layer) ReloadPlaylist(p Playlist) {
	l.mu.Lock()
	current, hadCurrent := l.q.currentTrack()
	wasPlaying := l.state.IsPlaying
	l.q.loadPlaylist(p)
	l.state.CurrentPlaylistID = p.ID
	l.state.CurrentTrackIndex = -1
	if hadCurrent {
		if index, ok := l.q.indexOfPath(current.FilePath); ok {
			// playback continues untouched on the same output
			l.q.selectIndex(index)
			l.state.CurrentTrackIndex = index
		} else if wasPlaying {
			if next, ok := l.q.nextIndex(); ok {
				l.startLocked(next, 0)
			} else {
				l.stopImmediateLocked()
			}
		} else {
			l.stopImmediateLocked()
		}
	}
	l.mu.Unlock()
	l.emitState()
	l.emitTrack()
}

// SetFadeDuration replaces the fade duration used by future transitions.
func (l *Layer) SetFadeDuration(d time.Duration) {
	l.mu.Lock()
	if d < 0 {
		d = 0
	}
	l.fadeDuration = d
	l.mu.Unlock()
}

// Close stops the position ticker and releases the media output.
func (l *Layer) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	l.mu.Lock()
	l.playbackID++
	l.mu.Unlock()
	return l.out.Close()
}

// startLocked loads and plays the track at index, skipping entries that do
// not resolve or fail to load. fadeIn > 0 starts silent and ramps to the
// effective volume concurrently with playback. Returns true when the
// selection moved.
func (l *Layer) startLocked(index int, fadeIn time.Duration) bool {
	attempts := l.q.len()
	for attempt := 0; attempt < attempts; attempt++ {
		l.q.selectIndex(index)
		track, ok := l.q.trackAt(index)
		if !ok {
			break
		}
		if !l.resolver.Exists(track.FilePath) {
			slog.Warn("track does not resolve, skipping",
				"layer", l.name, "path", track.FilePath)
			next, okNext := l.q.nextIndex()
			if !okNext {
				break
			}
			index = next
			continue
		}

		l.playbackID++
		id := l.playbackID
		if err := l.out.Load(track.FilePath, func() { l.onTrackFinished(id) }); err != nil {
			slog.Warn("failed to load track",
				"layer", l.name, "path", track.FilePath, "err", err)
			next, okNext := l.q.nextIndex()
			if !okNext {
				break
			}
			index = next
			continue
		}
		l.outLoaded = true
		l.fade.cancel()
		if fadeIn > 0 {
			l.fade.setLevel(0)
		} else {
			l.fade.setLevel(l.effectiveVolumeLocked())
		}

		duration := l.out.Duration()
		l.q.setTrackDuration(l.q.currentIndex, duration)
		l.state.CurrentTrackIndex = l.q.currentIndex
		l.state.Position = 0
		l.state.Duration = duration

		if err := l.out.Play(); err != nil {
			// e.g. an autoplay policy rejection: swallowed, state stays
			// paused, the user retries via an explicit control
			slog.Warn("playback start rejected",
				"layer", l.name, "path", track.FilePath, "err", err)
			l.state.IsPlaying = false
			l.fade.setLevel(l.effectiveVolumeLocked())
			return true
		}
		l.state.IsPlaying = true
		if fadeIn > 0 {
			l.fade.rampTo(l.effectiveVolumeLocked(), fadeIn)
		}
		return true
	}

	l.stopImmediateLocked()
	return true
}

// resumeLocked restarts a paused output, fading in when configured.
func (l *Layer) resumeLocked() {
	if l.fadeDuration > 0 {
		l.fade.cancel()
		l.fade.setLevel(0)
	}
	if err := l.out.Play(); err != nil {
		slog.Warn("playback start rejected", "layer", l.name, "err", err)
		l.fade.setLevel(l.effectiveVolumeLocked())
		return
	}
	l.state.IsPlaying = true
	if l.fadeDuration > 0 {
		l.fade.rampTo(l.effectiveVolumeLocked(), l.fadeDuration)
	} else {
		l.fade.setLevel(l.effectiveVolumeLocked())
	}
}

// switchLocked moves playback to index. A playing layer with a configured
// fade ramps to silence first; the lock is released around the wait.
// Returns false when a newer transition superseded this one.
func (l *Layer) switchLocked(index int) bool {
	wasPlaying := l.state.IsPlaying
	if wasPlaying && l.fadeDuration > 0 {
		l.fading++
		ramp := l.fade.rampTo(0, l.fadeDuration)
		l.mu.Unlock()
		err := ramp.Wait()
		l.mu.Lock()
		l.fading--
		if err != nil {
			return false
		}
	}
	if wasPlaying {
		l.startLocked(index, l.fadeDuration)
	} else {
		l.playbackID++
		l.out.Stop()
		l.outLoaded = false
		l.q.selectIndex(index)
		l.state.CurrentTrackIndex = l.q.currentIndex
		l.state.Position = 0
		l.state.Duration = 0
	}
	return true
}

// stopImmediateLocked halts the output and resets transport state without
// any fade.
func (l *Layer) stopImmediateLocked() {
	l.playbackID++
	l.out.Stop()
	l.outLoaded = false
	l.state.IsPlaying = false
	l.state.Position = 0
	l.fade.cancel()
	l.fade.setLevel(l.effectiveVolumeLocked())
}

func (l *Layer) loadPlaylistLocked(p Playlist) {
	l.playbackID++
	l.out.Stop()
	l.outLoaded = false
	l.q.loadPlaylist(p)
	l.state.CurrentPlaylistID = p.ID
	l.state.CurrentTrackIndex = -1
	l.state.IsPlaying = false
	l.state.Position = 0
	l.state.Duration = 0
}

// onTrackFinished handles natural end-of-track: repeat the same track,
// advance, or stop on exhaustion. Stale callbacks from replaced tracks are
// dropped via the playback id.
func (l *Layer) onTrackFinished(id uint64) {
	l.mu.Lock()
	if id != l.playbackID {
		l.mu.Unlock()
		return
	}
	trackChanged := false
	if l.state.RepeatMode == RepeatTrack {
		l.startLocked(l.q.currentIndex, 0)
	} else if next, ok := l.q.nextIndex(); ok {
		trackChanged = l.startLocked(next, 0)
	} else {
		l.stopImmediateLocked()
	}
	l.mu.Unlock()
	l.emitState()
	if trackChanged {
		l.emitTrack()
	}
}

// positionLoop samples the output position twice a second while playing;
// continuous position is not otherwise observable without per-frame cost.
func (l *Layer) positionLoop() {
	for {
		select {
		case <-l.closed:
			return
		case <-l.clock.After(positionTick):
		}
		l.mu.Lock()
		emit := false
		if l.state.IsPlaying && l.outLoaded {
			l.state.Position = l.out.Position()
			emit = true
		}
		l.mu.Unlock()
		if emit {
			l.emitState()
		}
	}
}

func (l *Layer) effectiveVolumeLocked() float64 {
	if l.state.IsMuted {
		return 0
	}
	return l.state.Volume
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
