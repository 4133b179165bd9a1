package main

import (
	"fmt"

	"github.com/panbanda/qscore/internal/history"
	"github.com/panbanda/qscore/internal/output"
	"github.com/panbanda/qscore/pkg/analyzer/trend"
	"github.com/panbanda/qscore/pkg/models"
	"github.com/urfave/cli/v2"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Show recorded scores and their velocity",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"d"},
				Value:   30,
				Usage:   "Velocity window in days",
			},
		},
		Action: runHistoryCmd,
	}
}

type historyReport struct {
	File     string                    `json:"file" yaml:"file"`
	Days     int                       `json:"days" yaml:"days"`
	Velocity float64                   `json:"velocity" yaml:"velocity"`
	Records  []models.HistoricalRecord `json:"records" yaml:"records"`
}

// validateDays validates the --days flag and returns an error if invalid.
func validateDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("--days must be a positive integer (got %d)", days)
	}
	return nil
}

func runHistoryCmd(c *cli.Context) error {
	days := c.Int("days")
	if err := validateDays(days); err != nil {
		return err
	}

	s, err := newSession(c, pathArg(c))
	if err != nil {
		return err
	}

	store := history.Open(s.path(s.cfg.History.File),
		history.WithMaxRecords(s.cfg.History.MaxRecords),
		history.WithLogger(s.logger),
	)
	records := store.Records()
	if len(records) == 0 {
		s.logger.Info("no score history recorded at %s", store.Path())
	}

	velocity := trend.New(store).Velocity(days)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f", r.Score),
			string(r.Grade),
			fmt.Sprintf("%.1f", r.ComponentScores.CodeQuality),
			fmt.Sprintf("%.1f", r.ComponentScores.TestCoverage),
			fmt.Sprintf("%.1f", r.ComponentScores.Architecture),
			fmt.Sprintf("%.1f", r.ComponentScores.Security),
			r.Commit,
		})
	}

	formatter, err := s.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.Report{
		Title: "Score History",
		Sections: []output.Renderable{
			output.NewTable("Records",
				[]string{"Timestamp", "Score", "Grade", "Code Quality", "Test Coverage", "Architecture", "Security", "Commit"},
				rows,
				[]string{"Total", fmt.Sprintf("%d", len(records)), "", "", "", "", "", ""},
				nil),
			&output.Section{
				Title:   "Velocity",
				Content: fmt.Sprintf("%+.2f points/day over the last %d days", velocity, days),
			},
		},
		Data: historyReport{
			File:     store.Path(),
			Days:     days,
			Velocity: velocity,
			Records:  records,
		},
	})
}
