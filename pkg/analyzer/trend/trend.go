// Package trend compares a freshly computed score against stored history.
package trend

import (
	"fmt"
	"strings"
	"time"

	"github.com/panbanda/qscore/pkg/models"
	"github.com/panbanda/qscore/pkg/stats"
)

// Thresholds, in percent, used to classify change.
const (
	// DirectionThreshold separates improving/degrading from stable.
	DirectionThreshold = 0.5
	// ConcerningThreshold is the relative category decline, against the
	// immediately previous record, that flags a category as concerning.
	ConcerningThreshold = 2.0
	// AverageThreshold separates above/below from in line with the 7-day average.
	AverageThreshold = 1.0

	volatileAbove   = 5.0
	consistentBelow = 1.0
	lastN           = 5
	shortWindowDays = 7
	longWindowDays  = 30
)

// Direction is the movement of the overall score.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionDegrading Direction = "degrading"
	DirectionStable    Direction = "stable"
)

// Movement is the movement of a single category score.
type Movement string

const (
	MovementUp     Movement = "up"
	MovementDown   Movement = "down"
	MovementStable Movement = "stable"
)

// HistoryReader provides stored records, oldest first.
type HistoryReader interface {
	Records() []models.HistoricalRecord
}

// CategoryTrend is the change of one category against the previous record.
type CategoryTrend struct {
	Current       float64  `json:"current" yaml:"current"`
	Previous      *float64 `json:"previous,omitempty" yaml:"previous,omitempty"`
	ChangePercent float64  `json:"change_percent" yaml:"change_percent"`
	Direction     Movement `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// Trend is the result of comparing the current score with history.
// When no history exists only CurrentScore and the current category values are set.
type Trend struct {
	CurrentScore      float64                           `json:"current_score" yaml:"current_score"`
	PreviousScore     *float64                          `json:"previous_score,omitempty" yaml:"previous_score,omitempty"`
	ChangePercent     float64                           `json:"change_percent" yaml:"change_percent"`
	Direction         Direction                         `json:"direction,omitempty" yaml:"direction,omitempty"`
	Categories        map[models.Category]CategoryTrend `json:"categories" yaml:"categories"`
	HistoryLength     int                               `json:"history_length" yaml:"history_length"`
	LastScores        []float64                         `json:"last_scores,omitempty" yaml:"last_scores,omitempty"`
	SevenDayAverage   float64                           `json:"seven_day_average,omitempty" yaml:"seven_day_average,omitempty"`
	ThirtyDayAverage  float64                           `json:"thirty_day_average,omitempty" yaml:"thirty_day_average,omitempty"`
	Volatility        float64                           `json:"volatility" yaml:"volatility"`
	Best              float64                           `json:"best,omitempty" yaml:"best,omitempty"`
	Worst             float64                           `json:"worst,omitempty" yaml:"worst,omitempty"`
	Slope             float64                           `json:"slope" yaml:"slope"`
	ConcerningMetrics []models.Category                 `json:"concerning_metrics,omitempty" yaml:"concerning_metrics,omitempty"`
	Summary           string                            `json:"summary" yaml:"summary"`
}

// HasHistory reports whether any stored record was compared against.
func (t *Trend) HasHistory() bool {
	return t != nil && t.HistoryLength > 0
}

// Analyzer computes trends from a history reader. It never mutates history.
type Analyzer struct {
	history HistoryReader
	now     func() time.Time
}

// Option configures the Analyzer.
type Option func(*Analyzer)

// WithClock sets the time source used for the 7 and 30 day windows.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// New creates a trend analyzer reading from history.
func New(history HistoryReader, opts ...Option) *Analyzer {
	a := &Analyzer{
		history: history,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeTrend compares current against the most recent stored record and
// summarizes the stored history.
func (a *Analyzer) AnalyzeTrend(current float64, components models.CategoryScores) *Trend {
	records := a.records()

	t := &Trend{
		CurrentScore:  current,
		Categories:    make(map[models.Category]CategoryTrend, len(models.Categories)),
		HistoryLength: len(records),
	}
	for _, cat := range models.Categories {
		t.Categories[cat] = CategoryTrend{Current: components.Get(cat)}
	}

	if len(records) == 0 {
		t.Summary = "No history yet; this run establishes the baseline."
		return t
	}

	prev := records[len(records)-1]
	previous := prev.Score
	t.PreviousScore = &previous
	t.ChangePercent = stats.ChangePercent(current, previous)
	t.Direction = direction(t.ChangePercent)

	for _, cat := range models.Categories {
		cur, was := components.Get(cat), prev.ComponentScores.Get(cat)
		change := stats.ChangePercent(cur, was)
		t.Categories[cat] = CategoryTrend{
			Current:       cur,
			Previous:      &was,
			ChangePercent: change,
			Direction:     movement(change),
		}
		if change < -ConcerningThreshold {
			t.ConcerningMetrics = append(t.ConcerningMetrics, cat)
		}
	}

	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = r.Score
	}

	start := len(scores) - lastN
	if start < 0 {
		start = 0
	}
	t.LastScores = append([]float64(nil), scores[start:]...)

	now := a.now()
	t.SevenDayAverage = windowAverage(records, now, shortWindowDays, current)
	t.ThirtyDayAverage = windowAverage(records, now, longWindowDays, current)
	t.Volatility = stats.PopStdDev(scores)
	t.Worst, t.Best = stats.MinMax(scores)
	t.Slope = stats.Slope(scores)
	t.Summary = summarize(t)

	return t
}

// Velocity returns the score change per day across records inside the last
// days days. It is 0 with fewer than two such records or a non-positive window.
func (a *Analyzer) Velocity(days int) float64 {
	if days <= 0 {
		return 0
	}
	cutoff := a.now().Add(-time.Duration(days) * 24 * time.Hour)

	var window []models.HistoricalRecord
	for _, r := range a.records() {
		if !r.Timestamp.Before(cutoff) {
			window = append(window, r)
		}
	}
	if len(window) < 2 {
		return 0
	}
	return (window[len(window)-1].Score - window[0].Score) / float64(days)
}

func (a *Analyzer) records() []models.HistoricalRecord {
	if a == nil || a.history == nil {
		return nil
	}
	return a.history.Records()
}

func direction(change float64) Direction {
	switch {
	case change > DirectionThreshold:
		return DirectionImproving
	case change < -DirectionThreshold:
		return DirectionDegrading
	default:
		return DirectionStable
	}
}

func movement(change float64) Movement {
	switch {
	case change > DirectionThreshold:
		return MovementUp
	case change < -DirectionThreshold:
		return MovementDown
	default:
		return MovementStable
	}
}

// windowAverage averages the scores of records within days of now, or
// returns fallback when the window is empty.
func windowAverage(records []models.HistoricalRecord, now time.Time, days int, fallback float64) float64 {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	var scores []float64
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			scores = append(scores, r.Score)
		}
	}
	if len(scores) == 0 {
		return fallback
	}
	return stats.Mean(scores)
}

func summarize(t *Trend) string {
	var parts []string

	switch t.Direction {
	case DirectionImproving:
		parts = append(parts, fmt.Sprintf("Quality is improving (%+.1f%% since the last run)", t.ChangePercent))
	case DirectionDegrading:
		parts = append(parts, fmt.Sprintf("Quality is degrading (%+.1f%% since the last run)", t.ChangePercent))
	default:
		parts = append(parts, "Quality is stable since the last run")
	}

	vsAverage := stats.ChangePercent(t.CurrentScore, t.SevenDayAverage)
	switch {
	case vsAverage > AverageThreshold:
		parts = append(parts, fmt.Sprintf("above the 7-day average of %.1f", t.SevenDayAverage))
	case vsAverage < -AverageThreshold:
		parts = append(parts, fmt.Sprintf("below the 7-day average of %.1f", t.SevenDayAverage))
	default:
		parts = append(parts, fmt.Sprintf("in line with the 7-day average of %.1f", t.SevenDayAverage))
	}

	// volatility needs at least two stored scores to mean anything
	if t.HistoryLength >= 2 {
		switch {
		case t.Volatility > volatileAbove:
			parts = append(parts, fmt.Sprintf("scores have been inconsistent (volatility %.1f)", t.Volatility))
		case t.Volatility < consistentBelow:
			parts = append(parts, "scores show excellent consistency")
		}
	}

	if len(t.ConcerningMetrics) > 0 {
		names := make([]string, len(t.ConcerningMetrics))
		for i, c := range t.ConcerningMetrics {
			names[i] = string(c)
		}
		parts = append(parts, "declining: "+strings.Join(names, ", "))
	}

	return strings.Join(parts, "; ") + "."
}
