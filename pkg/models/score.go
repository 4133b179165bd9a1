package models

import "time"

// Grade is a letter grade derived from an overall score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Status is the pass/fail outcome of a scoring run.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// ComponentScore is a category's score together with its weight.
type ComponentScore struct {
	Score         float64 `json:"score" yaml:"score"`
	Weight        float64 `json:"weight" yaml:"weight"`
	WeightedScore float64 `json:"weighted_score" yaml:"weighted_score"`
}

// NewComponentScore builds a ComponentScore with WeightedScore = score * weight.
func NewComponentScore(score, weight float64) ComponentScore {
	return ComponentScore{
		Score:         score,
		Weight:        weight,
		WeightedScore: score * weight,
	}
}

// ComponentScores holds one ComponentScore per category.
type ComponentScores struct {
	CodeQuality  ComponentScore `json:"code_quality" yaml:"code_quality"`
	TestCoverage ComponentScore `json:"test_coverage" yaml:"test_coverage"`
	Architecture ComponentScore `json:"architecture" yaml:"architecture"`
	Security     ComponentScore `json:"security" yaml:"security"`
}

// Get returns the ComponentScore for a category.
func (c ComponentScores) Get(cat Category) ComponentScore {
	switch cat {
	case CategoryCodeQuality:
		return c.CodeQuality
	case CategoryTestCoverage:
		return c.TestCoverage
	case CategoryArchitecture:
		return c.Architecture
	case CategorySecurity:
		return c.Security
	default:
		return ComponentScore{}
	}
}

// Scores returns the raw per-category scores.
func (c ComponentScores) Scores() CategoryScores {
	return CategoryScores{
		CodeQuality:  c.CodeQuality.Score,
		TestCoverage: c.TestCoverage.Score,
		Architecture: c.Architecture.Score,
		Security:     c.Security.Score,
	}
}

// CategoryScores holds one 0-100 score per category.
type CategoryScores struct {
	CodeQuality  float64 `json:"code_quality" yaml:"code_quality"`
	TestCoverage float64 `json:"test_coverage" yaml:"test_coverage"`
	Architecture float64 `json:"architecture" yaml:"architecture"`
	Security     float64 `json:"security" yaml:"security"`
}

// Get returns the score for a category.
func (c CategoryScores) Get(cat Category) float64 {
	switch cat {
	case CategoryCodeQuality:
		return c.CodeQuality
	case CategoryTestCoverage:
		return c.TestCoverage
	case CategoryArchitecture:
		return c.Architecture
	case CategorySecurity:
		return c.Security
	default:
		return 0
	}
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the sort rank of a priority (critical = 0).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Recommendation is a prioritized remediation suggestion.
type Recommendation struct {
	Priority        Priority `json:"priority" yaml:"priority"`
	Category        Category `json:"category" yaml:"category"`
	Issue           string   `json:"issue" yaml:"issue"`
	Remediation     string   `json:"remediation" yaml:"remediation"`
	EstimatedEffort string   `json:"estimated_effort" yaml:"estimated_effort"`
	ExpectedImpact  string   `json:"expected_impact" yaml:"expected_impact"`
	RelatedFindings []string `json:"related_findings,omitempty" yaml:"related_findings,omitempty"`
}

// Metadata describes the run that produced a result.
type Metadata struct {
	Timestamp     time.Time     `json:"timestamp" yaml:"timestamp"`
	ProjectPath   string        `json:"project_path,omitempty" yaml:"project_path,omitempty"`
	Commit        string        `json:"commit,omitempty" yaml:"commit,omitempty"`
	FilesAnalyzed int           `json:"files_analyzed" yaml:"files_analyzed"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Version       string        `json:"version,omitempty" yaml:"version,omitempty"`
	// CustomRules summarizes custom rule evaluation, when rules were loaded.
	CustomRules *RuleSummary `json:"custom_rules,omitempty" yaml:"custom_rules,omitempty"`
}

// RuleSummary is the report-facing digest of a custom rule evaluation.
type RuleSummary struct {
	RulesApplied    int           `json:"rules_applied" yaml:"rules_applied"`
	Violations      int           `json:"violations" yaml:"violations"`
	Critical        int           `json:"critical" yaml:"critical"`
	Warning         int           `json:"warning" yaml:"warning"`
	Info            int           `json:"info" yaml:"info"`
	ScoreAdjustment float64       `json:"score_adjustment" yaml:"score_adjustment"`
	ExecutionTime   time.Duration `json:"execution_time" yaml:"execution_time"`
}

// HistoricalRecord is one persisted past run, used for trend comparison.
type HistoricalRecord struct {
	Timestamp       time.Time      `json:"timestamp" yaml:"timestamp"`
	Score           float64        `json:"score" yaml:"score"`
	Grade           Grade          `json:"grade" yaml:"grade"`
	ComponentScores CategoryScores `json:"component_scores" yaml:"component_scores"`
	Commit          string         `json:"commit,omitempty" yaml:"commit,omitempty"`
}
