package audio

import (
	"io"
	"os"
	"path/filepath"
	"time"
)

// Output is one exclusively owned media output: the engine's boundary with
// the actual audio backend. A layer or soundboard slot owns exactly one
// output; outputs are never shared.
type Output interface {
	// Load prepares the track at path for playback from position zero,
	// replacing whatever was loaded before. onFinished fires once, on its
	// own goroutine, when the track plays to completion; it does not fire
	// for tracks cut short by Load/Stop/Close.
	Load(path string, onFinished func()) error
	// Play starts or resumes playback of the loaded track.
	Play() error
	// Pause halts playback, keeping the position.
	Pause()
	// Stop halts playback and discards the loaded track.
	Stop()
	// SetVolume sets the applied output level (0-100). This is the audible
	// level, after mute and fades; the logical volume lives in the layer.
	SetVolume(level float64)
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Close() error
}

// OutputFactory creates an independent output per layer or soundboard slot.
type OutputFactory func() Output

// Resolver is the file-resolution capability the engine borrows from its
// host: given a library-relative path, check existence and open the media.
type Resolver interface {
	Exists(path string) bool
	Open(path string) (io.ReadSeekCloser, error)
}

// DirResolver resolves library-relative paths against a root directory.
type DirResolver struct {
	Root string
}

func (r DirResolver) abs(path string) string {
	return filepath.Join(r.Root, filepath.FromSlash(path))
}

func (r DirResolver) Exists(path string) bool {
	info, err := os.Stat(r.abs(path))
	return err == nil && !info.IsDir()
}

func (r DirResolver) Open(path string) (io.ReadSeekCloser, error) {
	return os.Open(r.abs(path))
}
