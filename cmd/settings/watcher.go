package settings

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/greyveil/bard/cmd/audio"
)

// debounceDelay coalesces the burst of filesystem events an editor emits
// when saving a file into a single reload.
const debounceDelay = 250 * time.Millisecond

// Watcher reloads the settings file whenever it changes on disk and feeds
// the parsed result to a callback. Unparseable intermediate states (partial
// writes, syntax errors mid-edit) are skipped.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	onChange func(audio.Settings)

	mu       sync.Mutex
	debounce *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// Watch starts watching the settings file at path. The callback runs on the
// watcher's goroutine; it must not block for long.
func Watch(path string, onChange func(audio.Settings)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace files atomically
	// and the inode-level watch would go stale after the first save.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		fsw:      fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("settings watcher error", "err", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}
	s, err := Load(w.path)
	if err != nil {
		slog.Warn("settings file changed but could not be parsed",
			"path", w.path, "err", err)
		return
	}
	w.onChange(s)
}

// Close stops the watcher and cancels any pending reload.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
