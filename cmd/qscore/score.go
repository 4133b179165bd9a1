package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/qscore/internal/cache"
	"github.com/panbanda/qscore/internal/history"
	"github.com/panbanda/qscore/internal/progress"
	"github.com/panbanda/qscore/internal/scanner"
	"github.com/panbanda/qscore/internal/service/analysis"
	"github.com/panbanda/qscore/internal/service/metrics"
	"github.com/panbanda/qscore/internal/vcs"
	"github.com/panbanda/qscore/pkg/analyzer/rules"
	"github.com/panbanda/qscore/pkg/analyzer/score"
	"github.com/panbanda/qscore/pkg/analyzer/trend"
	"github.com/panbanda/qscore/pkg/models"
	"github.com/urfave/cli/v2"
)

func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Calculate the quality score of a project",
		ArgsUsage: "[path]",
		Description: `Scans the project, evaluates custom rules, collects the metric bundles
found in the metrics directory and prints the weighted score.

Exits with status 1 when the score is below the passing threshold.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rules",
				Aliases: []string{"r"},
				Usage:   "Path to custom rules file (default from config)",
			},
			&cli.StringFlag{
				Name:  "metrics-dir",
				Usage: "Directory holding metric bundle files (default from config)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Neither read nor record score history",
			},
		},
		Action: runScoreCmd,
	}
}

func runScoreCmd(c *cli.Context) error {
	start := time.Now()

	s, err := newSession(c, pathArg(c))
	if err != nil {
		return err
	}
	cfg := s.cfg

	files, err := scanFiles(c, s)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		s.logger.Warn("no source files found under %s", s.root)
	}
	s.logger.Debug("scanned %d files under %s", len(files), s.root)

	ruleCache, err := cache.New(s.path(cfg.Cache.Dir), cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		s.logger.Warn("rule cache disabled: %v", err)
		ruleCache = nil
	}

	tracker := progress.NewTracker("Evaluating rules", len(files),
		progress.WithWriter(c.App.ErrWriter),
		progress.WithEnabled(progress.Interactive(c.App.ErrWriter)),
	)
	engine := rules.NewEngine(
		rules.WithLogger(s.logger),
		rules.WithCache(ruleCache),
		rules.WithDefaultExtensions(cfg.Rules.FileExtensions),
		rules.WithProgress(tracker.Tick),
	)

	rulesFile := c.String("rules")
	if rulesFile == "" {
		rulesFile = s.path(cfg.Rules.File)
	}

	metricsDir := c.String("metrics-dir")
	if metricsDir == "" {
		metricsDir = s.path(cfg.Metrics.Dir)
	}

	opts := []analysis.Option{
		analysis.WithMaxFanOut(cfg.Metrics.MaxFanOut),
		analysis.WithBatchSize(cfg.Metrics.BatchSize),
		analysis.WithLogger(s.logger),
	}
	for cat, p := range metrics.FileProviders(metricsDir) {
		opts = append(opts, analysis.WithProvider(cat, p))
	}
	if engine.LoadRules(rulesFile) {
		opts = append(opts, analysis.WithRules(engine))
	}

	bundles := analysis.New(opts...).Run(c.Context, files)
	tracker.FinishSuccess()
	if err := c.Context.Err(); err != nil {
		return err
	}

	scoreOpts := []score.Option{
		score.WithWeights(cfg.ScoreWeights()),
		score.WithLogger(s.logger),
	}
	if cfg.History.Enabled && !c.Bool("no-history") {
		store := history.Open(s.path(cfg.History.File),
			history.WithMaxRecords(cfg.History.MaxRecords),
			history.WithLogger(s.logger),
		)
		scoreOpts = append(scoreOpts, score.WithTrend(trend.New(store)), score.WithHistory(store))
	}

	meta := models.Metadata{
		ProjectPath:   s.root,
		Commit:        vcs.HeadCommit(vcs.DefaultOpener(), s.root),
		FilesAnalyzed: len(files),
		Duration:      time.Since(start),
		Version:       version,
	}
	result := score.New(scoreOpts...).CalculateScore(bundles.ScoreInput(meta))

	formatter, err := s.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if !result.Overall.PassesThresholds {
		return errScoreFailed
	}
	return nil
}

// scanFiles lists the source files of the session root. A file argument is
// scored on its own when the scanner accepts it.
func scanFiles(c *cli.Context, s *session) ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", s.root, err)
	}

	scan := scanner.NewScanner(s.cfg)
	if !info.IsDir() {
		ok, err := scan.ScanFile(s.root)
		if err != nil || !ok {
			return nil, err
		}
		file := s.root
		s.root = filepath.Dir(s.root)
		return []string{file}, nil
	}

	spinner := progress.NewSpinner("Scanning files",
		progress.WithWriter(c.App.ErrWriter),
		progress.WithEnabled(progress.Interactive(c.App.ErrWriter)),
	)
	files, err := scan.ScanDir(s.root)
	if err != nil {
		spinner.FinishError(err)
		return nil, err
	}
	spinner.FinishSuccess()
	return files, nil
}
