package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func mcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcast",
		Short: "List multicast group membership by socket",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var groups []groupView
			if err := fetchJSON("/groups", &groups); err != nil {
				return fmt.Errorf("list multicast groups: %w", err)
			}

			out, err := formatGroups(groups, outputFormat)
			if err != nil {
				return fmt.Errorf("format groups: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}
