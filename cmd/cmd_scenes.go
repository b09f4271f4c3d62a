package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/greyveil/bard/cmd/audio"
)

type ScenesParams struct {
	Settings string `short:"s" help:"Settings file path (default: standard config location)." default:""`
	JSON     bool   `long:"json" help:"Output as JSON"`
}

func ScenesCmd() *cobra.Command {
	return boa.CmdT[ScenesParams]{
		Use:         "scenes",
		Short:       "List configured scenes",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ScenesParams, cmd *cobra.Command, args []string) {
			if err := runScenes(params); err != nil {
				fmt.Fprintf(os.Stderr, "scenes: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runScenes(params *ScenesParams) error {
	s, path, err := loadSettings(params.Settings)
	if err != nil {
		return err
	}

	if len(s.Scenes) == 0 {
		fmt.Println("No scenes configured")
		fmt.Printf("\nAdd scenes to %s or run: bard init\n", path)
		return nil
	}

	if params.JSON {
		data, err := json.MarshalIndent(s.Scenes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(getTermWidth())

	t.AppendHeader(table.Row{"Name", "Type", "Primary", "Ambient", "Autoplay"})
	for _, scene := range s.Scenes {
		t.AppendRow(table.Row{
			scene.Name,
			scene.SceneType,
			layerSelection(s, scene.Music.PrimaryPlaylistID, scene.Music.PrimaryTrackPath),
			layerSelection(s, scene.Music.AmbientPlaylistID, scene.Music.AmbientTrackPath),
			scene.Music.AutoPlay,
		})
	}
	t.Render()

	fmt.Printf("\nStart one with: bard play --scene <name>\n")
	return nil
}

// layerSelection renders one layer's playlist/track selection for display.
func layerSelection(s audio.Settings, playlistID, trackPath *string) string {
	if playlistID == nil {
		return "-"
	}
	name := *playlistID
	if p, ok := s.PlaylistByID(*playlistID); ok {
		name = p.Name
	}
	if trackPath != nil {
		return fmt.Sprintf("%s (%s)", name, *trackPath)
	}
	return name
}
