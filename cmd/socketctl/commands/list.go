package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all open sockets",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var sockets []socketView
			if err := fetchJSON("/sockets", &sockets); err != nil {
				return fmt.Errorf("list sockets: %w", err)
			}

			out, err := formatSockets(sockets, outputFormat)
			if err != nil {
				return fmt.Errorf("format sockets: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

func statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show open-socket counts by kind",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var sockets []socketView
			if err := fetchJSON("/sockets", &sockets); err != nil {
				return fmt.Errorf("fetch sockets: %w", err)
			}

			counts := map[string]int{}
			for _, s := range sockets {
				counts[s.Kind]++
			}

			out, err := formatStats(counts, outputFormat)
			if err != nil {
				return fmt.Errorf("format stats: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}
