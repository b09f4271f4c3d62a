//go:build !((linux && cgo) || windows || darwin)

package audio

import "time"

// AudioAvailable indicates whether audio playback is supported in this build.
// The engine still runs; transport state changes, nothing is audible.
const AudioAvailable = false

// SupportedFormats lists the file extensions the output can decode.
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg"}
}

// noopOutput keeps the engine functional in builds without an audio backend.
type noopOutput struct{}

// NewOutput returns the no-op output implementation for this build.
func NewOutput(resolver Resolver) Output {
	return noopOutput{}
}

func (noopOutput) Load(path string, onFinished func()) error { return nil }

func (noopOutput) Play() error { return nil }

func (noopOutput) Pause() {}

func (noopOutput) Stop() {}

func (noopOutput) SetVolume(level float64) {}

func (noopOutput) Seek(pos time.Duration) error { return nil }

func (noopOutput) Position() time.Duration { return 0 }

func (noopOutput) Duration() time.Duration { return 0 }

func (noopOutput) Close() error { return nil }
