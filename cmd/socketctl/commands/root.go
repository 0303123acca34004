// Package commands implements the socketctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// httpClient is the HTTP client used for every request against the
	// daemon's introspection endpoint.
	httpClient = &http.Client{Timeout: 5 * time.Second}

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the socketcored admin endpoint base URL.
	serverAddr string
)

// rootCmd is the top-level cobra command for socketctl.
var rootCmd = &cobra.Command{
	Use:   "socketctl",
	Short: "CLI client for the socketcored daemon",
	Long:  "socketctl queries the socketcored daemon's JSON introspection endpoint to inspect open sockets and multicast membership.",
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8780",
		"socketcored admin endpoint base URL")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(statCmd())
	rootCmd.AddCommand(mcastCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
