// ABOUTME: The add command: import a text file and queue episode generation
// ABOUTME: Creates a source on the server, then an episode from it
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/studio"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var voice string
	var format string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Import a text document and generate an episode from it",
		Long:  "Import a text document and generate an episode from it. Pass - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, name, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("the document is empty")
			}
			if title == "" {
				title = name
			}

			client, err := ctx.studioClient(cmd.Context())
			if err != nil {
				return err
			}
			source, err := client.CreateSource(cmd.Context(), title, text)
			if err != nil {
				return fmt.Errorf("create source: %w", err)
			}
			episode, err := client.CreateEpisode(cmd.Context(), studio.CreateEpisodeRequest{
				SourceID:     source.ID,
				Title:        title,
				VoiceID:      voice,
				OutputFormat: format,
			})
			if err != nil {
				return fmt.Errorf("create episode: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created episode #%d (%s); generation is queued.\n", episode.ID, episode.Title)
			fmt.Fprintf(out, "Run `voxplay play %d` to listen while chunks arrive.\n", episode.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Episode title (default: the file name)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice to generate with (server default when empty)")
	cmd.Flags().StringVar(&format, "format", "", "Audio output format (server default when empty)")
	return cmd
}

// readDocument returns the document text and a fallback title. A path of
// "-" reads stdin.
func readDocument(stdin io.Reader, path string) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "Untitled", nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("file does not exist: %s", absPath)
		}
		return "", "", fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("%s is a directory", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", "", fmt.Errorf("read file: %w", err)
	}
	name := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
	return string(data), name, nil
}
