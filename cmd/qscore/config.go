package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/qscore/internal/output"
	"github.com/panbanda/qscore/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[path]",
				Description: `Validates a qscore configuration file for syntax errors and invalid values.

Examples:
  qscore config validate                     # default config locations
  qscore -c qscore.toml config validate      # specific file`,
				Action: runConfigValidateCmd,
			},
			{
				Name:      "show",
				Usage:     "Show the effective configuration",
				ArgsUsage: "[path]",
				Action:    runConfigShowCmd,
			},
		},
	}
}

func runConfigValidateCmd(c *cli.Context) error {
	s, err := newSession(c, pathArg(c))
	if err != nil {
		heading := "Failed to load configuration:"
		if config.IsConfigurationError(err) {
			heading = "Configuration validation failed:"
		}
		errs := output.NewWriterFormatter(output.FormatText, c.App.ErrWriter, !color.NoColor)
		errs.Error(heading)
		fmt.Fprintf(c.App.ErrWriter, "  - %s\n", err)
		return err
	}

	f := output.NewWriterFormatter(output.FormatText, c.App.Writer, s.cfg.Output.Color && !color.NoColor)
	if s.configPath != "" {
		f.Success("Configuration valid: %s", s.configPath)
	} else {
		f.Info("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	s, err := newSession(c, pathArg(c))
	if err != nil {
		return err
	}

	if s.configPath != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", s.configPath)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(*s.cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(content)
	return err
}
