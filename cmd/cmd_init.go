package cmd

import (
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/greyveil/bard/cmd/audio"
	"github.com/greyveil/bard/cmd/settings"
)

type InitParams struct {
	Settings string `short:"s" help:"Settings file path (default: standard config location)." default:""`
	Force    bool   `short:"f" help:"Overwrite an existing settings file."`
}

func InitCmd() *cobra.Command {
	return boa.CmdT[InitParams]{
		Use:         "init",
		Short:       "Create a starter settings file",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *InitParams, cmd *cobra.Command, args []string) {
			if err := runInit(params); err != nil {
				fmt.Fprintf(os.Stderr, "init: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runInit(params *InitParams) error {
	path, err := settingsPath(params.Settings)
	if err != nil {
		return err
	}
	if !params.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := settings.Save(path, starterSettings()); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Edit it to point the playlists at your music files.")
	return nil
}

// starterSettings scaffolds a settings file with one playlist per default
// mood, an example scene and an example sound effect.
func starterSettings() audio.Settings {
	s := settings.Default()

	battleID := uuid.NewString()
	tavernID := uuid.NewString()
	forestID := uuid.NewString()
	s.Playlists = []audio.Playlist{
		{
			ID:         battleID,
			Name:       "Battle",
			Mood:       "tense",
			TrackPaths: []string{"music/battle-drums.mp3", "music/war-horns.mp3"},
		},
		{
			ID:         tavernID,
			Name:       "Tavern",
			Mood:       "cheerful",
			TrackPaths: []string{"music/tavern-lute.mp3"},
		},
		{
			ID:         forestID,
			Name:       "Forest ambience",
			Mood:       "mysterious",
			TrackPaths: []string{"music/forest-night.ogg"},
		},
	}
	s.Scenes = []audio.Scene{
		{
			ID:        uuid.NewString(),
			Name:      "Ambush",
			SceneType: "combat",
			Music: audio.SceneConfig{
				PrimaryPlaylistID: &battleID,
				AmbientPlaylistID: &forestID,
				AutoPlay:          true,
			},
		},
		{
			ID:        uuid.NewString(),
			Name:      "The Prancing Pony",
			SceneType: "social",
			Music: audio.SceneConfig{
				PrimaryPlaylistID: &tavernID,
			},
		},
	}
	s.SoundEffects = []audio.SoundEffect{
		{ID: uuid.NewString(), Name: "thunder", FilePath: "sfx/thunder.wav", Icon: "⛈"},
		{ID: uuid.NewString(), Name: "sword-clash", FilePath: "sfx/sword-clash.wav", Icon: "⚔"},
	}
	return s
}
