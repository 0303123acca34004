package commands

import (
	"fmt"

	"github.com/reeflective/console"
	"github.com/spf13/cobra"
)

// shellCmd launches an interactive socket-table explorer built on
// reeflective/console, the same menu-driven REPL shape gobfdctl's
// shell.go hand-rolled over bufio before this repository generalized
// it to the library it was already depending on.
func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive socketctl shell",
		Long:  "Launches a reeflective/console REPL exposing list/stat/mcast against the configured daemon.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			app := console.New("socketctl")

			menu := app.ActiveMenu()
			menu.SetCommands(func() *cobra.Command {
				root := &cobra.Command{Use: "socketctl"}
				root.AddCommand(listCmd())
				root.AddCommand(statCmd())
				root.AddCommand(mcastCmd())
				root.AddCommand(versionCmd())
				return root
			})

			menu.Prompt().Primary = func() string {
				return fmt.Sprintf("socketctl (%s)> ", serverAddr)
			}

			return app.Start()
		},
	}
}
