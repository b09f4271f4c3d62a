package audio

import (
	"log/slog"
	"sync"
)

// Config assembles a Player. Zero fields get working defaults: system
// clock, the build's real output backend, the default soundboard size.
type Config struct {
	Resolver        Resolver
	Clock           Clock
	NewOutput       OutputFactory
	Settings        Settings
	SoundboardSlots int
}

// Player composes the two music layers and the soundboard, and adds
// scene-level semantics on top: loading a scene, tracking which scene is
// active, mood lookup and settings hot-reload.
type Player struct {
	// Primary and Ambient are the two independent playback channels,
	// exposed directly rather than through delegating accessors.
	Primary *Layer
	Ambient *Layer

	// Soundboard plays one-shot effects over whatever music is playing.
	Soundboard *Soundboard

	mu          sync.Mutex
	settings    Settings
	activeScene *SceneConfig
	listenerID  uint64
	listeners   map[uint64]func()
}

// NewPlayer builds a player from the given configuration.
func NewPlayer(cfg Config) *Player {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	factory := cfg.NewOutput
	if factory == nil {
		factory = func() Output { return NewOutput(cfg.Resolver) }
	}

	fade := cfg.Settings.FadeDuration()
	primary := NewLayer("primary", factory(), cfg.Resolver, clock, fade)
	ambient := NewLayer("ambient", factory(), cfg.Resolver, clock, fade)
	if cfg.Settings.PrimaryVolume > 0 {
		primary.SetVolume(cfg.Settings.PrimaryVolume)
	}
	if cfg.Settings.AmbientVolume > 0 {
		ambient.SetVolume(cfg.Settings.AmbientVolume)
	}

	soundboard := NewSoundboard(cfg.SoundboardSlots, factory,
		cfg.Settings.SoundboardVolume,
		func() bool { return primary.State().IsMuted })

	return &Player{
		Primary:    primary,
		Ambient:    ambient,
		Soundboard: soundboard,
		settings:   cfg.Settings,
		listeners:  make(map[uint64]func()),
	}
}

// Settings returns the current settings snapshot.
func (p *Player) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// PlayMood crossfades the primary layer to the first playlist tagged with
// the given mood. An unknown mood is a silent no-op.
func (p *Player) PlayMood(mood string) {
	p.mu.Lock()
	settings := p.settings
	p.mu.Unlock()

	playlist, ok := settings.PlaylistByMood(mood)
	if !ok {
		slog.Debug("no playlist for mood", "mood", mood)
		return
	}
	p.Primary.CrossfadeToPlaylist(playlist, settings.FadeDuration())
}

// PlayForSceneType maps a scene type to a mood and plays it. Skipped
// entirely when autoplay-on-scene-change is disabled.
func (p *Player) PlayForSceneType(sceneType string) {
	p.mu.Lock()
	settings := p.settings
	p.mu.Unlock()

	if !settings.AutoplayOnSceneChange {
		return
	}
	p.PlayMood(settings.MoodForSceneType(sceneType))
}

// LoadSceneMusic switches both layers to a scene's selections. The scene
// change is announced immediately so UIs update before any audio settles;
// both layers then fade out in parallel, and only once both fades resolve
// are the new playlists loaded (and started, when autoPlay is set).
func (p *Player) LoadSceneMusic(cfg SceneConfig, autoPlay bool) {
	p.mu.Lock()
	retained := cfg
	p.activeScene = &retained
	settings := p.settings
	p.mu.Unlock()
	p.notifySceneChange()

	var wg sync.WaitGroup
	for _, layer := range []*Layer{p.Primary, p.Ambient} {
		wg.Add(1)
		go func(l *Layer) {
			defer wg.Done()
			l.Stop()
		}(layer)
	}
	wg.Wait()

	p.loadLayerSelection(p.Primary, settings, cfg.PrimaryPlaylistID, cfg.PrimaryTrackPath)
	p.loadLayerSelection(p.Ambient, settings, cfg.AmbientPlaylistID, cfg.AmbientTrackPath)

	if autoPlay {
		if cfg.PrimaryPlaylistID != nil {
			p.Primary.Play()
		}
		if cfg.AmbientPlaylistID != nil {
			p.Ambient.Play()
		}
	}
}

// loadLayerSelection loads one layer's playlist/track selection; a nil
// playlist id leaves the layer idle, a missing playlist degrades to "no
// selection" with a logged warning.
func (p *Player) loadLayerSelection(layer *Layer, settings Settings, playlistID, trackPath *string) {
	if playlistID == nil {
		return
	}
	playlist, ok := settings.PlaylistByID(*playlistID)
	if !ok {
		slog.Warn("scene references unknown playlist",
			"layer", layer.Name(), "playlistId", *playlistID)
		return
	}
	layer.LoadPlaylist(playlist)
	if trackPath != nil {
		if !layer.SelectTrackPath(*trackPath) {
			slog.Warn("scene track not in playlist",
				"layer", layer.Name(), "path", *trackPath)
		}
	}
}

// LoadScene resolves a named scene from settings and loads it, honoring
// the scene's own autoPlay flag.
func (p *Player) LoadScene(scene Scene) {
	p.LoadSceneMusic(scene.Music, scene.Music.AutoPlay)
}

// IsScenePlaying reports whether cfg addresses the retained active scene.
// This is config identity, not transport state: a scene stays "active"
// mid-fade or when a layer was paused by hand.
func (p *Player) IsScenePlaying(cfg SceneConfig) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeScene != nil && p.activeScene.SameSceneAs(cfg)
}

// ActiveScene returns a copy of the retained active scene, if any.
func (p *Player) ActiveScene() (SceneConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.activeScene == nil {
		return SceneConfig{}, false
	}
	return *p.activeScene, true
}

// StopAll stops both layers in parallel and clears the active scene.
func (p *Player) StopAll() {
	var wg sync.WaitGroup
	for _, layer := range []*Layer{p.Primary, p.Ambient} {
		wg.Add(1)
		go func(l *Layer) {
			defer wg.Done()
			l.Stop()
		}(layer)
	}
	wg.Wait()
	p.Soundboard.StopAll()

	p.mu.Lock()
	p.activeScene = nil
	p.mu.Unlock()
	p.notifySceneChange()
}

// PlaySoundEffect fires a one-shot effect through the soundboard.
func (p *Player) PlaySoundEffect(effect SoundEffect) {
	p.Soundboard.Play(effect)
}

// OnSceneChange registers a scene-change listener and returns its
// unsubscribe. Listener panics are contained and logged.
func (p *Player) OnSceneChange(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listenerID++
	id := p.listenerID
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *Player) notifySceneChange() {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		invokeSafely("scene", fn)
	}
}

// ReloadSettings replaces the settings snapshot after an external edit and
// refreshes each layer's loaded playlist in place: a surviving playlist is
// reloaded (keeping the current track where possible), a deleted one stops
// its layer outright.
func (p *Player) ReloadSettings(s Settings) {
	p.mu.Lock()
	p.settings = s
	p.mu.Unlock()

	p.Soundboard.SetMasterVolume(s.SoundboardVolume)
	for _, layer := range []*Layer{p.Primary, p.Ambient} {
		layer.SetFadeDuration(s.FadeDuration())
		id := layer.State().CurrentPlaylistID
		if id == "" {
			continue
		}
		if playlist, ok := s.PlaylistByID(id); ok {
			layer.ReloadPlaylist(playlist)
		} else {
			layer.Stop()
		}
	}
}

// Close releases both layers and the soundboard.
func (p *Player) Close() error {
	err := p.Primary.Close()
	if e := p.Ambient.Close(); err == nil {
		err = e
	}
	if e := p.Soundboard.Close(); err == nil {
		err = e
	}
	return err
}
