package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/greyveil/bard/cmd/audio"
	"github.com/greyveil/bard/cmd/settings"
)

type PlayParams struct {
	Settings string `short:"s" help:"Settings file path (default: standard config location)." default:""`
	Dir      string `short:"C" help:"Base directory for track paths." default:"."`
	Mood     string `short:"m" optional:"true" help:"Play the first playlist tagged with this mood."`
	Playlist string `short:"p" optional:"true" help:"Play a playlist by name or id."`
	Scene    string `optional:"true" help:"Load a scene by name or id."`
	NoWatch  bool   `long:"no-watch" help:"Do not reload settings when the file changes."`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play",
		Short:       "Play music until interrupted",
		Long: `Play music headlessly: a mood, a playlist or a full scene.

Track paths in the settings file resolve relative to --dir. The settings
file is watched for edits and reloaded live unless --no-watch is set.
Press Ctrl+C to fade out and exit.`,
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			if err := runPlay(params); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlay(params *PlayParams) error {
	selections := 0
	for _, v := range []string{params.Mood, params.Playlist, params.Scene} {
		if v != "" {
			selections++
		}
	}
	if selections != 1 {
		return fmt.Errorf("pass exactly one of --mood, --playlist or --scene")
	}
	if !audio.AudioAvailable {
		return audio.ErrAudioUnavailable
	}

	s, path, err := loadSettings(params.Settings)
	if err != nil {
		return err
	}

	player := audio.NewPlayer(audio.Config{
		Resolver: audio.DirResolver{Root: params.Dir},
		Settings: s,
	})
	defer player.Close()

	for _, layer := range []*audio.Layer{player.Primary, player.Ambient} {
		l := layer
		l.OnTrackChange(func(t *audio.Track) {
			if t != nil {
				fmt.Printf("[%s] now playing: %s\n", l.Name(), t.Title)
			}
		})
	}

	switch {
	case params.Scene != "":
		scene, ok := findScene(s, params.Scene)
		if !ok {
			return fmt.Errorf("unknown scene %q (see: bard scenes)", params.Scene)
		}
		fmt.Printf("Loading scene: %s\n", scene.Name)
		player.LoadSceneMusic(scene.Music, true)
	case params.Playlist != "":
		playlist, ok := findPlaylist(s, params.Playlist)
		if !ok {
			return fmt.Errorf("unknown playlist %q (see: bard playlists)", params.Playlist)
		}
		player.Primary.CrossfadeToPlaylist(playlist, s.FadeDuration())
	case params.Mood != "":
		if _, ok := s.PlaylistByMood(params.Mood); !ok {
			return fmt.Errorf("no playlist tagged with mood %q (see: bard playlists)", params.Mood)
		}
		player.PlayMood(params.Mood)
	}

	if !params.NoWatch {
		watcher, err := settings.Watch(path, func(edited audio.Settings) {
			fmt.Println("Settings file changed, reloading")
			player.ReloadSettings(edited)
		})
		if err != nil {
			slog.Warn("could not watch settings file", "path", path, "err", err)
		} else {
			defer watcher.Close()
		}
	}

	fmt.Println("Press Ctrl+C to stop.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println("\nFading out...")
	player.StopAll()
	return nil
}

// findScene matches a scene by id, or by name (case-insensitive).
func findScene(s audio.Settings, key string) (audio.Scene, bool) {
	for _, scene := range s.Scenes {
		if scene.ID == key || strings.EqualFold(scene.Name, key) {
			return scene, true
		}
	}
	return audio.Scene{}, false
}

// findPlaylist matches a playlist by id, or by name (case-insensitive).
func findPlaylist(s audio.Settings, key string) (audio.Playlist, bool) {
	for _, p := range s.Playlists {
		if p.ID == key || strings.EqualFold(p.Name, key) {
			return p, true
		}
	}
	return audio.Playlist{}, false
}
