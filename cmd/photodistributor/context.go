package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"photodistributor/internal/config"
	"photodistributor/internal/journal"
	"photodistributor/internal/logging"
	"photodistributor/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = services.Wrap(services.ErrConfiguration, "config", "--log-level", "", err)
					return
				}
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// applyPathOverrides replaces configured sources and destination with flag
// values, expanded the same way the config file's paths are.
func (c *commandContext) applyPathOverrides(sources []string, dest string) (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		expanded := make([]string, 0, len(sources))
		for _, source := range sources {
			path, err := config.ExpandPath(strings.TrimSpace(source))
			if err != nil {
				return nil, fmt.Errorf("--source %q: %w", source, err)
			}
			expanded = append(expanded, path)
		}
		cfg.Paths.Sources = expanded
	}
	if strings.TrimSpace(dest) != "" {
		path, err := config.ExpandPath(strings.TrimSpace(dest))
		if err != nil {
			return nil, fmt.Errorf("--dest %q: %w", dest, err)
		}
		cfg.Paths.Destination = path
	}
	return cfg, nil
}

func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
