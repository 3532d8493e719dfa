// ABOUTME: Configuration subcommands: write a sample file, show the result
// ABOUTME: init never loads existing config so it works on broken files
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set server.url, or leave it empty to use mDNS discovery.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file does not exist; showing defaults.")
			}
			fmt.Fprintln(out)

			serverURL := cfg.Server.URL
			if serverURL == "" {
				serverURL = "(discover via mDNS)"
			}
			fmt.Fprintf(out, "Server URL:     %s\n", serverURL)
			fmt.Fprintf(out, "Token set:      %s\n", yesNo(cfg.Server.Token != ""))
			fmt.Fprintf(out, "Discovery:      %s\n", yesNo(cfg.Server.Discover))
			fmt.Fprintf(out, "Timeout:        %s\n", cfg.Timeout())
			fmt.Fprintf(out, "Save interval:  %s\n", cfg.SaveInterval())
			fmt.Fprintf(out, "Skip step:      %ds\n", cfg.Playback.SkipSeconds)
			fmt.Fprintf(out, "Autoplay:       %s\n", yesNo(cfg.Playback.Autoplay))
			fmt.Fprintf(out, "Volume:         %d%%\n", cfg.Playback.Volume)
			fmt.Fprintf(out, "State dir:      %s\n", cfg.Paths.StateDir)
			fmt.Fprintf(out, "Log dir:        %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Log level:      %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
