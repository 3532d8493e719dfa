// ABOUTME: The history command: recently played episodes from the local cache
// ABOUTME: Reads the history database directly, no server connection needed
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/history"
)

const historyListLimit = 20

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var clearHistory bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently played episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.HistoryDBPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if clearHistory {
				if err := store.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear history: %w", err)
				}
				fmt.Fprintln(out, "Cleared listening history.")
				return nil
			}

			entries, err := store.Recent(cmd.Context(), historyListLimit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No listening history yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					fmt.Sprintf("%d", e.EpisodeID),
					e.Title,
					fmt.Sprintf("chunk %d at %s", e.ChunkIndex+1, formatClock(e.Position)),
					fmt.Sprintf("%.0f%%", e.Percent),
					e.LastPlayed.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Position", "Heard", "Last played"}, rows, 0, 3))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearHistory, "clear", false, "Forget all listening history")
	return cmd
}
