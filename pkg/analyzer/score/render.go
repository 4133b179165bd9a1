package score

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/qscore/internal/output"
	"github.com/panbanda/qscore/pkg/models"
)

// RenderData returns the result for structured encoders.
func (r *Result) RenderData() any {
	return r
}

// RenderText writes a human-readable report.
func (r *Result) RenderText(w io.Writer, colored bool) error {
	headline := fmt.Sprintf("Quality Score: %.1f/100 (%s) %s",
		r.Overall.Score, r.Overall.Grade, strings.ToUpper(string(r.Overall.Status)))
	if colored {
		c := color.New(color.Bold, color.FgGreen)
		if r.Overall.Status != models.StatusPass {
			c = color.New(color.Bold, color.FgRed)
		}
		c.Fprintln(w, headline)
	} else {
		fmt.Fprintln(w, headline)
	}
	fmt.Fprintln(w, r.Overall.Summary)
	fmt.Fprintln(w)

	for _, t := range r.tables() {
		if err := t.RenderText(w, colored); err != nil {
			return err
		}
	}

	if r.Trend != nil {
		if colored {
			color.New(color.Bold).Fprintln(w, "Trend")
		} else {
			fmt.Fprintln(w, "Trend")
		}
		fmt.Fprintln(w, r.Trend.Summary)
	}
	return nil
}

// RenderMarkdown writes the report as markdown.
func (r *Result) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Quality Score: %.1f/100 (%s)\n\n", r.Overall.Score, r.Overall.Grade)
	fmt.Fprintf(w, "**Status:** %s\n\n%s\n\n", r.Overall.Status, r.Overall.Summary)

	for _, t := range r.tables() {
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}

	if r.Trend != nil {
		fmt.Fprintf(w, "## Trend\n\n%s\n\n", r.Trend.Summary)
	}
	return nil
}

func (r *Result) tables() []*output.Table {
	components := make([][]string, 0, len(models.Categories))
	for _, cat := range models.Categories {
		c := r.ComponentScores.Get(cat)
		components = append(components, []string{
			cat.Label(),
			fmt.Sprintf("%.1f", c.Score),
			fmt.Sprintf("%.2f", c.Weight),
			fmt.Sprintf("%.1f", c.WeightedScore),
		})
	}
	tables := []*output.Table{
		output.NewTable("Components",
			[]string{"Category", "Score", "Weight", "Weighted"},
			components,
			[]string{"Overall", "", "", fmt.Sprintf("%.1f", r.Overall.Score)},
			nil),
	}

	if len(r.Findings) > 0 {
		counts := models.CountBySeverity(r.Findings)
		var rows [][]string
		for _, sev := range []models.Severity{
			models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow, models.SeverityInfo,
		} {
			if n := counts[sev]; n > 0 {
				rows = append(rows, []string{string(sev), fmt.Sprintf("%d", n)})
			}
		}
		tables = append(tables, output.NewTable("Findings",
			[]string{"Severity", "Count"}, rows,
			[]string{"Total", fmt.Sprintf("%d", len(r.Findings))}, nil))
	}

	if len(r.Recommendations) > 0 {
		rows := make([][]string, 0, len(r.Recommendations))
		for _, rec := range r.Recommendations {
			rows = append(rows, []string{string(rec.Priority), rec.Category.Label(), rec.Issue, rec.EstimatedEffort})
		}
		tables = append(tables, output.NewTable("Recommendations",
			[]string{"Priority", "Category", "Issue", "Effort"}, rows, nil, nil))
	}

	if cr := r.Metadata.CustomRules; cr != nil {
		tables = append(tables, output.NewTable("Custom Rules",
			[]string{"Rules Applied", "Violations", "Critical", "Warning", "Info", "Adjustment"},
			[][]string{{
				fmt.Sprintf("%d", cr.RulesApplied),
				fmt.Sprintf("%d", cr.Violations),
				fmt.Sprintf("%d", cr.Critical),
				fmt.Sprintf("%d", cr.Warning),
				fmt.Sprintf("%d", cr.Info),
				fmt.Sprintf("%.1f", cr.ScoreAdjustment),
			}}, nil, nil))
	}

	return tables
}
