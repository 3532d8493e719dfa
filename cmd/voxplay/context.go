// ABOUTME: Shared command state: lazy config loading and client dialing
// ABOUTME: Applies the --server override and resolves discovery for one-shot commands
package main

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theepicsaxguy/OpenVox/internal/config"
	"github.com/theepicsaxguy/OpenVox/internal/discovery"
	"github.com/theepicsaxguy/OpenVox/internal/logging"
	"github.com/theepicsaxguy/OpenVox/internal/studio"
)

type commandContext struct {
	configFlag  *string
	serverFlag  *string
	noAudioFlag *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, serverFlag *string, noAudioFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		serverFlag:  serverFlag,
		noAudioFlag: noAudioFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil {
			if url := strings.TrimSpace(*c.serverFlag); url != "" {
				cfg.Server.URL = strings.TrimRight(url, "/")
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) noAudio() bool {
	return c.noAudioFlag != nil && *c.noAudioFlag
}

// studioClient dials the configured server for a one-shot command. When no
// URL is configured it browses mDNS, the same way a player session does.
func (c *commandContext) studioClient(ctx context.Context) (*studio.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	clientID := uuid.New().String()
	dial := func(baseURL string) (*studio.Client, error) {
		return studio.New(studio.Config{
			BaseURL:  baseURL,
			Token:    cfg.Server.Token,
			ClientID: clientID,
			Timeout:  cfg.Timeout(),
		})
	}

	if cfg.Server.URL != "" {
		return dial(cfg.Server.URL)
	}

	baseURL, err := discovery.Find(ctx, logging.NewNop(), func(ctx context.Context, baseURL string) error {
		client, err := dial(baseURL)
		if err != nil {
			return err
		}
		return client.Health(ctx)
	})
	if err != nil {
		return nil, err
	}
	return dial(baseURL)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
