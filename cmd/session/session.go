// Package session provides the interactive bard session: a terminal UI
// driving both music layers, scenes and the soundboard.
package session

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/greyveil/bard/cmd/audio"
	"github.com/greyveil/bard/cmd/common"
	"github.com/greyveil/bard/cmd/settings"
)

type Params struct {
	Settings string `short:"s" help:"Settings file path (default: standard config location)." default:""`
	Dir      string `short:"C" help:"Base directory for track paths." default:"."`
	NoWatch  bool   `long:"no-watch" help:"Do not reload settings when the file changes."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "session",
		Short: "Run an interactive game session",
		Long: `Run an interactive audio session for the table.

Scenes, transport controls and the soundboard are all one keypress away.
The settings file is watched for edits and reloaded live unless
--no-watch is set.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runSession(params); err != nil {
				fmt.Fprintf(os.Stderr, "session: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runSession(params *Params) error {
	if !audio.AudioAvailable {
		return audio.ErrAudioUnavailable
	}

	path := params.Settings
	if path == "" {
		path = settings.DefaultPath()
	}
	if path == "" {
		return fmt.Errorf("could not determine settings location, pass --settings")
	}
	s, err := settings.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	player := audio.NewPlayer(audio.Config{
		Resolver: audio.DirResolver{Root: params.Dir},
		Settings: s,
	})
	defer player.Close()

	reloads := make(chan audio.Settings, 1)
	if !params.NoWatch {
		watcher, err := settings.Watch(path, func(edited audio.Settings) {
			select {
			case reloads <- edited:
			default:
			}
		})
		if err != nil {
			slog.Warn("could not watch settings file", "path", path, "err", err)
		} else {
			defer watcher.Close()
		}
	}

	m := initialModel(player, s, path, reloads)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}

	player.StopAll()
	return nil
}
