// ABOUTME: The library command: a plain listing of the server's episodes
// ABOUTME: Flattens the folder tree into one table with folder paths
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/studio"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "List the server's episode library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.studioClient(cmd.Context())
			if err != nil {
				return err
			}
			tree, err := client.Library(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch library: %w", err)
			}

			rows := libraryRows(tree)
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "The library is empty.")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Folder", "Status", "Duration"}, rows, 0, 4))
			return nil
		},
	}
}

func libraryRows(tree *studio.LibraryTree) [][]string {
	var rows [][]string
	appendEpisodes := func(path string, episodes []studio.Episode) {
		for _, ep := range episodes {
			rows = append(rows, []string{
				fmt.Sprintf("%d", ep.ID),
				ep.Title,
				path,
				ep.Status,
				formatClock(ep.TotalDuration),
			})
		}
	}

	appendEpisodes("", tree.Episodes)
	var walk func(path string, folders []*studio.Folder)
	walk = func(path string, folders []*studio.Folder) {
		for _, f := range folders {
			if f == nil {
				continue
			}
			full := f.Name
			if path != "" {
				full = path + "/" + f.Name
			}
			appendEpisodes(full, f.Episodes)
			walk(full, f.Folders)
		}
	}
	walk("", tree.Folders)
	return rows
}
