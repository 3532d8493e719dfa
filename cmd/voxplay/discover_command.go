// ABOUTME: The discover command: list studio servers seen via mDNS
// ABOUTME: One browse pass, no config or server connection required
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/discovery"
	"github.com/theepicsaxguy/OpenVox/internal/logging"
)

func newDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "discover",
		Short:       "List studio servers on the local network",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := discovery.Browse(cmd.Context(), logging.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No studio servers found on the network.")
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{c.Name, c.URL()})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "URL"}, rows))
			fmt.Fprintln(out, "Set server.url in the config, or pass --server, to use one.")
			return nil
		},
	}
}
