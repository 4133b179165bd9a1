package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/qscore/internal/logging"
	"github.com/panbanda/qscore/internal/output"
	"github.com/panbanda/qscore/pkg/config"
	"github.com/urfave/cli/v2"
)

// session is the state every command starts from: the project root, its
// effective configuration and the diagnostics logger.
type session struct {
	root       string
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
}

// pathArg returns the first positional argument, defaulting to ".".
func pathArg(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// newSession loads the configuration for root and applies the global flags.
func newSession(c *cli.Context, root string) (*session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", root, err)
	}

	var (
		cfg  *config.Config
		path string
	)
	if path = c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadOrDefault(abs)
	}
	if err != nil {
		return nil, err
	}

	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &session{
		root:       abs,
		configPath: path,
		cfg:        cfg,
		logger: logging.New(
			logging.WithWriter(c.App.ErrWriter),
			logging.WithVerbose(c.Bool("verbose")),
			logging.WithColor(cfg.Output.Color && !color.NoColor),
		),
	}, nil
}

// path resolves a configured path against the project root.
func (s *session) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

// formatter writes to --output when given, otherwise to the app writer.
func (s *session) formatter(c *cli.Context) (*output.Formatter, error) {
	format := output.ParseFormat(s.cfg.Output.Format)
	if out := c.String("output"); out != "" {
		return output.NewFormatter(format, out, false)
	}
	return output.NewWriterFormatter(format, c.App.Writer, s.cfg.Output.Color && !color.NoColor), nil
}
