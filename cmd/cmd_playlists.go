package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type PlaylistsParams struct {
	Settings string `short:"s" help:"Settings file path (default: standard config location)." default:""`
	JSON     bool   `long:"json" help:"Output as JSON"`
}

func PlaylistsCmd() *cobra.Command {
	return boa.CmdT[PlaylistsParams]{
		Use:         "playlists",
		Aliases:     []string{"pl"},
		Short:       "List configured playlists",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlaylistsParams, cmd *cobra.Command, args []string) {
			if err := runPlaylists(params); err != nil {
				fmt.Fprintf(os.Stderr, "playlists: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlaylists(params *PlaylistsParams) error {
	s, path, err := loadSettings(params.Settings)
	if err != nil {
		return err
	}

	if len(s.Playlists) == 0 {
		fmt.Println("No playlists configured")
		fmt.Printf("\nAdd playlists to %s or run: bard init\n", path)
		return nil
	}

	if params.JSON {
		data, err := json.MarshalIndent(s.Playlists, "", "  ")
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

	t.AppendHeader(table.Row{"Name", "Mood", "Tracks", "ID"})
	for _, p := range s.Playlists {
		t.AppendRow(table.Row{p.Name, p.Mood, len(p.TrackPaths), p.ID})
	}
	t.Render()

	fmt.Printf("\nPlay one with: bard play --playlist <name>\n")
	return nil
}
