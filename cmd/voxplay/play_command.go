// ABOUTME: The play command and the shared player session runner
// ABOUTME: Opens the TUI, optionally jumping straight into one episode
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/app"
	"github.com/theepicsaxguy/OpenVox/internal/logging"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play <episode-id>",
		Short: "Open the player on a specific episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid episode id %q", args[0])
			}
			return runPlayer(ctx, cmd, id)
		},
	}
}

// runPlayer starts a full player session and blocks until it ends. The
// session owns the terminal, so logs go to file only.
func runPlayer(ctx *commandContext, cmd *cobra.Command, episodeID int64) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !interactiveTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("the player needs an interactive terminal; use `voxplay library` or `voxplay history` for plain output")
	}

	logger, err := logging.NewFromConfig(cfg, true)
	if err != nil {
		return err
	}

	session := app.New(app.Config{
		Settings:  cfg,
		Logger:    logger,
		EpisodeID: episodeID,
		NoAudio:   ctx.noAudio(),
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	done := make(chan struct{})
	go func() {
		select {
		case <-sig:
			session.Stop()
		case <-done:
		}
	}()

	err = session.Start()
	close(done)
	return err
}

func interactiveTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
