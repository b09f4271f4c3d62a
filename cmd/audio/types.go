package audio

import (
	"time"
)

// Track is one playable entry in a layer's queue. Identity is the file path;
// Duration is filled in once the output has decoded the file.
type Track struct {
	FilePath string
	Title    string
	Duration time.Duration
}

// Playlist is an ordered list of track paths with a free-form mood tag used
// for scene-driven lookup. Uniqueness of IDs is owned by the settings layer.
type Playlist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Mood       string   `json:"mood"`
	TrackPaths []string `json:"trackPaths"`
}

// RepeatMode controls what happens when a layer reaches the end of a track
// or of its playlist.
type RepeatMode string

const (
	RepeatNone     RepeatMode = "none"
	RepeatTrack    RepeatMode = "track"
	RepeatPlaylist RepeatMode = "playlist"
)

// PlaybackState is the externally observable state of one layer. There is
// exactly one authoritative instance per layer; UIs receive copies through
// the state-change listeners.
type PlaybackState struct {
	IsPlaying         bool
	CurrentTrackIndex int // -1 when no track is selected
	CurrentPlaylistID string
	Volume            float64 // logical volume, 0-100
	IsMuted           bool
	IsShuffled        bool
	RepeatMode        RepeatMode
	Position          time.Duration
	Duration          time.Duration
}

// SceneConfig pairs playlist/track selections for both layers. Nil fields
// mean "no selection for that layer" and are distinct from any path.
type SceneConfig struct {
	PrimaryPlaylistID *string `json:"primaryPlaylistId"`
	PrimaryTrackPath  *string `json:"primaryTrackPath"`
	AmbientPlaylistID *string `json:"ambientPlaylistId"`
	AmbientTrackPath  *string `json:"ambientTrackPath"`
	AutoPlay          bool    `json:"autoPlay"`
}

// SameSceneAs reports whether two configs address the same scene. Only the
// four identifying fields count; AutoPlay is intentionally excluded.
func (c SceneConfig) SameSceneAs(other SceneConfig) bool {
	return strPtrEqual(c.PrimaryPlaylistID, other.PrimaryPlaylistID) &&
		strPtrEqual(c.PrimaryTrackPath, other.PrimaryTrackPath) &&
		strPtrEqual(c.AmbientPlaylistID, other.AmbientPlaylistID) &&
		strPtrEqual(c.AmbientTrackPath, other.AmbientTrackPath)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Scene is a named, addressable scene definition from the settings file.
type Scene struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	SceneType string      `json:"sceneType"`
	Music     SceneConfig `json:"music"`
}

// SoundEffect is a stateless one-shot descriptor consumed per play request.
// A nil Volume falls back to the soundboard master volume.
type SoundEffect struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FilePath string   `json:"filePath"`
	Icon     string   `json:"icon,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
}

// Settings is the immutable snapshot the player works from. The settings
// package owns loading, saving and watching the backing file; the player
// only ever replaces its snapshot through ReloadSettings.
type Settings struct {
	Playlists             []Playlist        `json:"playlists"`
	Scenes                []Scene           `json:"scenes"`
	SoundEffects          []SoundEffect     `json:"soundEffects"`
	SceneMoods            map[string]string `json:"sceneMoods"`
	FadeDurationMs        int               `json:"fadeDurationMs"`
	PrimaryVolume         float64           `json:"primaryVolume"`
	AmbientVolume         float64           `json:"ambientVolume"`
	SoundboardVolume      float64           `json:"soundboardVolume"`
	AutoplayOnSceneChange bool              `json:"autoplayOnSceneChange"`
}

// FadeDuration returns the configured fade duration, never negative.
func (s Settings) FadeDuration() time.Duration {
	if s.FadeDurationMs <= 0 {
		return 0
	}
	return time.Duration(s.FadeDurationMs) * time.Millisecond
}

// PlaylistByID returns the playlist with the given id.
func (s Settings) PlaylistByID(id string) (Playlist, bool) {
	for _, p := range s.Playlists {
		if p.ID == id {
			return p, true
		}
	}
	return Playlist{}, false
}

// PlaylistByMood returns the first playlist whose mood tag matches.
func (s Settings) PlaylistByMood(mood string) (Playlist, bool) {
	for _, p := range s.Playlists {
		if p.Mood == mood {
			return p, true
		}
	}
	return Playlist{}, false
}

// EffectByName returns the sound effect with the given name.
func (s Settings) EffectByName(name string) (SoundEffect, bool) {
	for _, e := range s.SoundEffects {
		if e.Name == name {
			return e, true
		}
	}
	return SoundEffect{}, false
}

// MoodForSceneType maps a scene type to a playlist mood, defaulting to
// "ambient" for unmapped types.
func (s Settings) MoodForSceneType(sceneType string) string {
	if mood, ok := s.SceneMoods[sceneType]; ok {
		return mood
	}
	return "ambient"
}
