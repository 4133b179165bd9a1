package score

import (
	"fmt"
	"math"

	"github.com/panbanda/qscore/pkg/analyzer/trend"
	"github.com/panbanda/qscore/pkg/models"
)

// WeightTolerance is how far the weight sum may drift from 1.0.
const WeightTolerance = 0.001

// PassThreshold is the minimum overall score that passes.
const PassThreshold = 80.0

// Weights defines the weight of each category in the overall score.
type Weights struct {
	CodeQuality  float64 `json:"code_quality" yaml:"code_quality" toml:"code_quality"`
	TestCoverage float64 `json:"test_coverage" yaml:"test_coverage" toml:"test_coverage"`
	Architecture float64 `json:"architecture" yaml:"architecture" toml:"architecture"`
	Security     float64 `json:"security" yaml:"security" toml:"security"`
}

// DefaultWeights returns the default weights (sum to 1.0).
func DefaultWeights() Weights {
	return Weights{
		CodeQuality:  0.30,
		TestCoverage: 0.25,
		Architecture: 0.25,
		Security:     0.20,
	}
}

// Get returns the weight of a category.
func (w Weights) Get(cat models.Category) float64 {
	switch cat {
	case models.CategoryCodeQuality:
		return w.CodeQuality
	case models.CategoryTestCoverage:
		return w.TestCoverage
	case models.CategoryArchitecture:
		return w.Architecture
	case models.CategorySecurity:
		return w.Security
	default:
		return 0
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.CodeQuality + w.TestCoverage + w.Architecture + w.Security
}

// Validate checks every weight is in [0,1] and that they sum to 1.0.
func (w Weights) Validate() error {
	for _, cat := range models.Categories {
		v := w.Get(cat)
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("weight for %s must be between 0 and 1, got %g", cat, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > WeightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// Input is everything a scoring run consumes. Any metric bundle may be nil.
type Input struct {
	CodeQuality  *models.CodeQualityMetrics
	TestCoverage *models.TestCoverageMetrics
	Architecture *models.ArchitectureMetrics
	Security     *models.SecurityMetrics
	Findings     []models.Finding
	Metadata     models.Metadata
	// RuleAdjustment is the custom rule score adjustment, in [-10, 0].
	RuleAdjustment float64
}

// Overall is the headline outcome of a scoring run.
type Overall struct {
	Score            float64       `json:"score" yaml:"score"`
	Grade            models.Grade  `json:"grade" yaml:"grade"`
	Status           models.Status `json:"status" yaml:"status"`
	Summary          string        `json:"summary" yaml:"summary"`
	PassesThresholds bool          `json:"passes_thresholds" yaml:"passes_thresholds"`
}

// Result is the complete outcome of a scoring run. It is created once and
// only a derived HistoricalRecord is persisted.
type Result struct {
	Overall         Overall                 `json:"overall" yaml:"overall"`
	ComponentScores models.ComponentScores  `json:"component_scores" yaml:"component_scores"`
	Findings        []models.Finding        `json:"findings" yaml:"findings"`
	Recommendations []models.Recommendation `json:"recommendations" yaml:"recommendations"`
	Trend           *trend.Trend            `json:"trend,omitempty" yaml:"trend,omitempty"`
	Metadata        models.Metadata         `json:"metadata" yaml:"metadata"`
}

// Record derives the persisted history record from the result.
func (r *Result) Record() models.HistoricalRecord {
	return models.HistoricalRecord{
		Timestamp:       r.Metadata.Timestamp,
		Score:           r.Overall.Score,
		Grade:           r.Overall.Grade,
		ComponentScores: r.ComponentScores.Scores(),
		Commit:          r.Metadata.Commit,
	}
}
