//go:build (linux && cgo) || windows || darwin

package audio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// mixRate is the shared speaker sample rate; every track is resampled to it
// so layers and soundboard slots can mix freely.
const mixRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(mixRate, mixRate.N(time.Second/10))
	})
	return speakerErr
}

// beepOutput is one playback chain (streamer -> ctrl -> volume) mixed into
// the shared speaker.
type beepOutput struct {
	mu       sync.Mutex
	resolver Resolver
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	loadSeq  uint64 // bumped on Load/Stop to drop stale finish callbacks
}

// NewOutput returns the beep-backed output implementation for this build.
func NewOutput(resolver Resolver) Output {
	return &beepOutput{resolver: resolver, level: 100}
}

// SupportedFormats lists the file extensions the output can decode.
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg"}
}

func decode(rc io.ReadCloser, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(rc)
	case ".wav":
		return wav.Decode(rc)
	case ".flac":
		return flac.Decode(rc)
	case ".ogg":
		return vorbis.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func (o *beepOutput) Load(path string, onFinished func()) error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()

	rc, err := o.resolver.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	streamer, format, err := decode(rc, path)
	if err != nil {
		_ = rc.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}

	o.loadSeq++
	seq := o.loadSeq
	o.streamer = streamer
	o.format = format
	resampled := beep.Resample(4, format.SampleRate, mixRate, streamer)
	o.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	o.volume = &effects.Volume{
		Streamer: o.ctrl,
		Base:     2,
		Volume:   volumeGain(o.level),
		Silent:   o.level <= 0,
	}

	speaker.Play(beep.Seq(o.volume, beep.Callback(func() {
		// Separate goroutine so the layer can start the next track without
		// deadlocking against the speaker mutex.
		go func() {
			o.mu.Lock()
			stale := seq != o.loadSeq
			o.mu.Unlock()
			if !stale && onFinished != nil {
				onFinished()
			}
		}()
	})))

	return nil
}

// volumeGain maps the 0-100 level to beep's exponential volume scale.
func volumeGain(level float64) float64 {
	return level/100*2 - 1
}

func (o *beepOutput) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return ErrNothingLoaded
	}
	speaker.Lock()
	o.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (o *beepOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return
	}
	speaker.Lock()
	o.ctrl.Paused = true
	speaker.Unlock()
}

func (o *beepOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

// stopLocked tears down the playback chain. Nilling the ctrl streamer lets
// the mixer drain and drop it; the loadSeq bump keeps the drained chain's
// finish callback from firing.
func (o *beepOutput) stopLocked() {
	o.loadSeq++
	if o.ctrl != nil {
		speaker.Lock()
		o.ctrl.Paused = true
		o.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if o.streamer != nil {
		_ = o.streamer.Close()
		o.streamer = nil
	}
	o.ctrl = nil
	o.volume = nil
}

func (o *beepOutput) SetVolume(level float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.level = level
	if o.volume == nil {
		return
	}
	speaker.Lock()
	o.volume.Volume = volumeGain(level)
	o.volume.Silent = level <= 0
	speaker.Unlock()
}

func (o *beepOutput) Seek(pos time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.streamer == nil {
		return ErrNothingLoaded
	}
	speaker.Lock()
	defer speaker.Unlock()
	return o.streamer.Seek(o.format.SampleRate.N(pos))
}

func (o *beepOutput) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := o.streamer.Position()
	speaker.Unlock()
	return o.format.SampleRate.D(pos)
}

func (o *beepOutput) Duration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.streamer == nil {
		return 0
	}
	speaker.Lock()
	length := o.streamer.Len()
	speaker.Unlock()
	return o.format.SampleRate.D(length)
}

func (o *beepOutput) Close() error {
	o.Stop()
	return nil
}
