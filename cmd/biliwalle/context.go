package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"biliwalle/internal/config"
	"biliwalle/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string
	verboseFlag   *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
		verboseFlag:   verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.requestedPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.applyLogOverrides(cfg)
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) requestedPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// loadedConfigPath is the document the config came from, or "" when only
// defaults were used.
func (c *commandContext) loadedConfigPath() string {
	if !c.configExists {
		return ""
	}
	return c.configPath
}

func (c *commandContext) applyLogOverrides(cfg *config.Config) {
	if c.logLevelFlag != nil {
		if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
			cfg.Logging.Level = level
		}
	}
	if c.verboseFlag != nil && *c.verboseFlag {
		cfg.Logging.Level = "debug"
	}
	if c.logFormatFlag != nil {
		if format := strings.ToLower(strings.TrimSpace(*c.logFormatFlag)); format != "" {
			cfg.Logging.Format = format
		}
	}
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
