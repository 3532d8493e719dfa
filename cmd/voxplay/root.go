// ABOUTME: Root command wiring for the voxplay CLI
// ABOUTME: Running voxplay with no subcommand opens the player
package main

import (
	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/version"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var serverFlag string
	var noAudioFlag bool

	ctx := newCommandContext(&configFlag, &serverFlag, &noAudioFlag)

	rootCmd := &cobra.Command{
		Use:           "voxplay",
		Short:         "Terminal player for OpenVox studio servers",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(ctx, cmd, 0)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Studio server URL (overrides config and discovery)")
	rootCmd.PersistentFlags().BoolVar(&noAudioFlag, "no-audio", false, "Track positions without opening an audio device")

	rootCmd.AddCommand(newPlayCommand(ctx))
	rootCmd.AddCommand(newLibraryCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newDiscoverCommand())
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
