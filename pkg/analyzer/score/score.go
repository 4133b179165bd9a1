// Package score combines category metric bundles into a weighted, graded
// quality score with recommendations and an optional trend.
package score

import (
	"time"

	"github.com/panbanda/qscore/internal/logging"
	"github.com/panbanda/qscore/pkg/analyzer/trend"
	"github.com/panbanda/qscore/pkg/models"
	"github.com/panbanda/qscore/pkg/stats"
)

// Recorder persists history records.
type Recorder interface {
	Append(rec models.HistoricalRecord) error
}

// Engine computes scoring results.
type Engine struct {
	weights Weights
	trend   *trend.Analyzer
	history Recorder
	logger  *logging.Logger
	now     func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithWeights sets the category weights. They are assumed valid; see Weights.Validate.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithTrend attaches a trend analysis to every result.
func WithTrend(a *trend.Analyzer) Option {
	return func(e *Engine) {
		e.trend = a
	}
}

// WithHistory records every result after the trend has been computed.
func WithHistory(r Recorder) Option {
	return func(e *Engine) {
		e.history = r
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the time source used when metadata carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates a scoring engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the configured weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// CalculateScore scores the input. The rule adjustment is applied to the code
// quality category before weighting, so the overall score stays the sum of the
// weighted scores. When a trend analyzer is attached it reads history before
// the new record is appended. History failures never fail scoring.
func (e *Engine) CalculateScore(in Input) *Result {
	scores := CategoryScores(in)
	scores.CodeQuality = stats.Clamp(scores.CodeQuality+in.RuleAdjustment, 0, 100)

	components := models.ComponentScores{
		CodeQuality:  models.NewComponentScore(scores.CodeQuality, e.weights.CodeQuality),
		TestCoverage: models.NewComponentScore(scores.TestCoverage, e.weights.TestCoverage),
		Architecture: models.NewComponentScore(scores.Architecture, e.weights.Architecture),
		Security:     models.NewComponentScore(scores.Security, e.weights.Security),
	}

	var overall float64
	for _, cat := range models.Categories {
		overall += components.Get(cat).WeightedScore
	}
	overall = stats.Clamp(overall, 0, 100)
	grade := Grade(overall)
	status := Status(overall)

	meta := in.Metadata
	if meta.Timestamp.IsZero() {
		meta.Timestamp = e.now().UTC()
	}

	findings := append([]models.Finding{}, in.Findings...)

	result := &Result{
		Overall: Overall{
			Score:            overall,
			Grade:            grade,
			Status:           status,
			Summary:          Summary(grade, overall),
			PassesThresholds: status == models.StatusPass,
		},
		ComponentScores: components,
		Findings:        findings,
		Recommendations: GenerateRecommendations(in),
		Metadata:        meta,
	}

	if e.trend != nil {
		result.Trend = e.trend.AnalyzeTrend(overall, components.Scores())
	}

	if e.history != nil {
		if err := e.history.Append(result.Record()); err != nil {
			e.logger.Warn("score history not saved: %v", err)
		}
	}

	return result
}
