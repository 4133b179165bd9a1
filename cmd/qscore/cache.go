package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/qscore/internal/cache"
	"github.com/panbanda/qscore/internal/output"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Rule result cache management commands",
		Subcommands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Show the number, size and age of cached rule results",
				ArgsUsage: "[path]",
				Action:    runCacheStatsCmd,
			},
			{
				Name:      "clear",
				Usage:     "Remove all cached rule results",
				ArgsUsage: "[path]",
				Action:    runCacheClearCmd,
			},
		},
	}
}

// openCache opens the configured cache directory even when caching is
// disabled for scoring runs.
func openCache(c *cli.Context) (*session, *cache.Cache, error) {
	s, err := newSession(c, pathArg(c))
	if err != nil {
		return nil, nil, err
	}
	ch, err := cache.New(s.path(s.cfg.Cache.Dir), s.cfg.Cache.TTL, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return s, ch, nil
}

func runCacheStatsCmd(c *cli.Context) error {
	s, ch, err := openCache(c)
	if err != nil {
		return err
	}

	stats, err := ch.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	formatter, err := s.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.Report{
		Title: "Rule Cache",
		Sections: []output.Renderable{
			output.NewTable("",
				[]string{"Directory", "Entries", "Size", "Oldest", "Newest"},
				[][]string{{
					stats.Dir,
					fmt.Sprintf("%d", stats.Entries),
					fmt.Sprintf("%d B", stats.TotalSize),
					stats.OldestAge.Round(time.Second).String(),
					stats.NewestAge.Round(time.Second).String(),
				}},
				nil, nil),
		},
		Data: stats,
	})
}

func runCacheClearCmd(c *cli.Context) error {
	s, ch, err := openCache(c)
	if err != nil {
		return err
	}
	if err := ch.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	output.NewWriterFormatter(output.FormatText, c.App.Writer, s.cfg.Output.Color && !color.NoColor).
		Success("Cache cleared: %s", s.path(s.cfg.Cache.Dir))
	return nil
}
