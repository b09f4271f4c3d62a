package audio

import "log/slog"

// invokeSafely runs a listener callback, containing panics so one broken
// subscriber cannot break another's notification.
func invokeSafely(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("audio listener panicked", "listener", kind, "panic", r)
		}
	}()
	fn()
}
