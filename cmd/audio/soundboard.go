package audio

import (
	"log/slog"
	"sync"
)

// defaultSoundboardSlots bounds how many one-shot effects can overlap.
const defaultSoundboardSlots = 8

// Soundboard is a bounded pool of overlapping one-shot playback slots,
// fully decoupled from the two music layers. When every slot is busy the
// oldest one is evicted (FIFO) and repurposed.
type Soundboard struct {
	mu        sync.Mutex
	capacity  int
	newOutput OutputFactory
	slots     []*soundboardSlot
	master    float64     // 0-100, used when an effect has no volume
	muted     func() bool // effects go silent while this reports true
	seq       uint64
}

type soundboardSlot struct {
	out  Output
	busy bool
	seq  uint64 // play order, for FIFO eviction
}

// NewSoundboard creates a pool of at most capacity slots; capacity <= 0
// falls back to the default. muted may be nil.
func NewSoundboard(capacity int, factory OutputFactory, master float64, muted func() bool) *Soundboard {
	if capacity <= 0 {
		capacity = defaultSoundboardSlots
	}
	return &Soundboard{
		capacity:  capacity,
		newOutput: factory,
		master:    clampVolume(master),
		muted:     muted,
	}
}

// SetMasterVolume replaces the fallback volume for future effects.
func (s *Soundboard) SetMasterVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.master = clampVolume(v)
}

// Play fires a one-shot effect. Failures (missing file, rejected playback)
// are swallowed; the effect simply does not sound.
func (s *Soundboard) Play(effect SoundEffect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.acquireSlotLocked()
	s.seq++
	slot.seq = s.seq
	slot.busy = true

	volume := s.master
	if effect.Volume != nil {
		volume = clampVolume(*effect.Volume)
	}
	if s.muted != nil && s.muted() {
		volume = 0
	}

	sl := slot
	if err := slot.out.Load(effect.FilePath, func() {
		s.mu.Lock()
		sl.busy = false
		s.mu.Unlock()
	}); err != nil {
		slog.Warn("sound effect failed to load",
			"effect", effect.Name, "path", effect.FilePath, "err", err)
		slot.busy = false
		return
	}
	slot.out.SetVolume(volume)
	if err := slot.out.Play(); err != nil {
		slog.Warn("sound effect playback rejected", "effect", effect.Name, "err", err)
		slot.busy = false
		slot.out.Stop()
	}
}

// acquireSlotLocked reuses an idle slot, grows the pool up to capacity, or
// evicts the oldest busy slot.
func (s *Soundboard) acquireSlotLocked() *soundboardSlot {
	for _, slot := range s.slots {
		if !slot.busy {
			return slot
		}
	}
	if len(s.slots) < s.capacity {
		slot := &soundboardSlot{out: s.newOutput()}
		s.slots = append(s.slots, slot)
		return slot
	}
	oldest := s.slots[0]
	for _, slot := range s.slots[1:] {
		if slot.seq < oldest.seq {
			oldest = slot
		}
	}
	oldest.out.Stop()
	oldest.busy = false
	return oldest
}

// StopAll silences every slot.
func (s *Soundboard) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.slots {
		slot.out.Stop()
		slot.busy = false
	}
}

// ActiveSlots reports how many slots are currently playing.
func (s *Soundboard) ActiveSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, slot := range s.slots {
		if slot.busy {
			n++
		}
	}
	return n
}

// Close releases every slot's output.
func (s *Soundboard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, slot := range s.slots {
		if err := slot.out.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.slots = nil
	return firstErr
}
