package cmd

import (
	"github.com/spf13/cobra"

	"github.com/greyveil/bard/cmd/session"
)

func SessionCmd() *cobra.Command {
	return session.Cmd()
}
