package main

import (
	"strings"

	"github.com/spf13/cobra"

	"MentionsScanner/internal/app"
	"MentionsScanner/internal/config"
	"MentionsScanner/internal/logging"
)

type commandContext struct {
	configFlag *string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) loadConfig() (config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	return config.Load(path)
}

// withApp builds the application for one command run and closes it afterwards.
// adjust may tweak the loaded config before adapters are built.
func (c *commandContext) withApp(cmd *cobra.Command, adjust func(*config.Config), fn func(*app.Application) error) (err error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if adjust != nil {
		adjust(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(application)
}
