// Package settings provides loading, saving and watching of the bard
// settings file.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/greyveil/bard/cmd/audio"
)

const (
	defaultFadeMs           = 2000
	defaultPrimaryVolume    = 70
	defaultAmbientVolume    = 50
	defaultSoundboardVolume = 80
)

// Default returns settings with sensible defaults and no content.
func Default() audio.Settings {
	return audio.Settings{
		SceneMoods: map[string]string{
			"combat":      "tense",
			"exploration": "mysterious",
			"social":      "cheerful",
			"rest":        "calm",
		},
		FadeDurationMs:   defaultFadeMs,
		PrimaryVolume:    defaultPrimaryVolume,
		AmbientVolume:    defaultAmbientVolume,
		SoundboardVolume: defaultSoundboardVolume,
	}
}

// DefaultPath returns the settings file location. The BARD_SETTINGS
// environment variable overrides it; otherwise the file lives under the
// user config directory (XDG_CONFIG_HOME or ~/.config).
func DefaultPath() string {
	if p := os.Getenv("BARD_SETTINGS"); p != "" {
		return p
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "bard", "settings.json")
}

// Load reads settings from path. A missing file yields the defaults.
func Load(path string) (audio.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return audio.Settings{}, err
	}

	var s audio.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return audio.Settings{}, err
	}

	// Apply defaults for missing fields
	if s.SceneMoods == nil {
		s.SceneMoods = Default().SceneMoods
	}
	if s.FadeDurationMs == 0 {
		s.FadeDurationMs = defaultFadeMs
	}
	if s.PrimaryVolume == 0 {
		s.PrimaryVolume = defaultPrimaryVolume
	}
	if s.AmbientVolume == 0 {
		s.AmbientVolume = defaultAmbientVolume
	}
	if s.SoundboardVolume == 0 {
		s.SoundboardVolume = defaultSoundboardVolume
	}

	return s, nil
}

// Save writes settings to path, creating parent directories as needed.
func Save(path string, s audio.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
