package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type EffectsParams struct {
	Settings string `short:"s" help:"Settings file path (default: standard config location)." default:""`
	JSON     bool   `long:"json" help:"Output as JSON"`
}

func EffectsCmd() *cobra.Command {
	return boa.CmdT[EffectsParams]{
		Use:         "effects",
		Aliases:     []string{"fx"},
		Short:       "List configured sound effects",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *EffectsParams, cmd *cobra.Command, args []string) {
			if err := runEffects(params); err != nil {
				fmt.Fprintf(os.Stderr, "effects: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runEffects(params *EffectsParams) error {
	s, path, err := loadSettings(params.Settings)
	if err != nil {
		return err
	}

	if len(s.SoundEffects) == 0 {
		fmt.Println("No sound effects configured")
		fmt.Printf("\nAdd effects to %s or run: bard init\n", path)
		return nil
	}

	if params.JSON {
		data, err := json.MarshalIndent(s.SoundEffects, "", "  ")
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

	t.AppendHeader(table.Row{"", "Name", "File", "Volume"})
	for _, e := range s.SoundEffects {
		volume := "master"
		if e.Volume != nil {
			volume = fmt.Sprintf("%.0f", *e.Volume)
		}
		t.AppendRow(table.Row{e.Icon, e.Name, e.FilePath, volume})
	}
	t.Render()

	fmt.Printf("\nPlay one with: bard sfx <name>\n")
	return nil
}
