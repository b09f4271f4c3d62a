package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/greyveil/bard/cmd"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "bard",
		Short:   "The game master's audio companion",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			cmd.InitCmd(),
			cmd.PlaylistsCmd(),
			cmd.ScenesCmd(),
			cmd.EffectsCmd(),
			cmd.PlayCmd(),
			cmd.SfxCmd(),
			cmd.SessionCmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
