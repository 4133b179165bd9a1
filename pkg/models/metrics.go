package models

// Metric bundles are produced by external category analyzers. Any of them may be
// absent (nil) for a run; scorers substitute a default sub-score in that case.

// CodeQualityMetrics is the metric bundle for the code quality category.
type CodeQualityMetrics struct {
	Complexity  ComplexityMetrics  `json:"complexity" yaml:"complexity"`
	Duplication DuplicationMetrics `json:"duplication" yaml:"duplication"`
	Linting     LintingMetrics     `json:"linting" yaml:"linting"`
}

// ComplexityMetrics summarizes function complexity across the codebase.
type ComplexityMetrics struct {
	AverageComplexity float64                `json:"average_complexity" yaml:"average_complexity"`
	MaxComplexity     int                    `json:"max_complexity" yaml:"max_complexity"`
	Distribution      ComplexityDistribution `json:"distribution" yaml:"distribution"`
	// CriticalFunctions optionally names the functions counted as critical.
	CriticalFunctions []string `json:"critical_functions,omitempty" yaml:"critical_functions,omitempty"`
}

// ComplexityDistribution counts functions per complexity class.
type ComplexityDistribution struct {
	Good     int `json:"good" yaml:"good"`
	Warning  int `json:"warning" yaml:"warning"`
	Critical int `json:"critical" yaml:"critical"`
}

// Total returns the number of classified functions.
func (d ComplexityDistribution) Total() int {
	return d.Good + d.Warning + d.Critical
}

// DuplicationMetrics describes copy-paste duplication.
type DuplicationMetrics struct {
	Percentage      float64 `json:"percentage" yaml:"percentage"`
	DuplicateBlocks int     `json:"duplicate_blocks" yaml:"duplicate_blocks"`
	DuplicateLines  int     `json:"duplicate_lines" yaml:"duplicate_lines"`
}

// LintingMetrics counts linter diagnostics.
type LintingMetrics struct {
	Errors   int            `json:"errors" yaml:"errors"`
	Warnings int            `json:"warnings" yaml:"warnings"`
	ByRule   map[string]int `json:"by_rule,omitempty" yaml:"by_rule,omitempty"`
}

// TestCoverageMetrics is the metric bundle for the test coverage category.
type TestCoverageMetrics struct {
	Overall       CoverageSummary      `json:"overall" yaml:"overall"`
	Effectiveness EffectivenessMetrics `json:"effectiveness" yaml:"effectiveness"`
	Gaps          []CoverageGap        `json:"gaps,omitempty" yaml:"gaps,omitempty"`
}

// CoverageSummary holds coverage percentages (0-100).
type CoverageSummary struct {
	Lines      float64 `json:"lines" yaml:"lines"`
	Branches   float64 `json:"branches" yaml:"branches"`
	Functions  float64 `json:"functions" yaml:"functions"`
	Statements float64 `json:"statements" yaml:"statements"`
}

// Average returns the mean of the four coverage percentages.
func (c CoverageSummary) Average() float64 {
	return (c.Lines + c.Branches + c.Functions + c.Statements) / 4
}

// EffectivenessMetrics rates how meaningful the test suite is.
type EffectivenessMetrics struct {
	Score      float64 `json:"score" yaml:"score"`
	TestFiles  int     `json:"test_files" yaml:"test_files"`
	TotalTests int     `json:"total_tests" yaml:"total_tests"`
}

// CoverageGap is a file whose coverage falls below expectations.
type CoverageGap struct {
	File       string  `json:"file" yaml:"file"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// ArchitectureMetrics is the metric bundle for the architecture category.
type ArchitectureMetrics struct {
	Components   ArchitectureComponents `json:"components" yaml:"components"`
	Dependencies DependencyMetrics      `json:"dependencies" yaml:"dependencies"`
	Patterns     PatternMetrics         `json:"patterns" yaml:"patterns"`
}

// ArchitectureComponents summarizes component sizing.
type ArchitectureComponents struct {
	Total       int      `json:"total" yaml:"total"`
	AverageSize float64  `json:"average_size" yaml:"average_size"`
	Oversized   []string `json:"oversized,omitempty" yaml:"oversized,omitempty"`
}

// DependencyMetrics describes the module dependency graph health.
type DependencyMetrics struct {
	Circular   [][]string            `json:"circular,omitempty" yaml:"circular,omitempty"`
	Violations []DependencyViolation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// DependencyViolation is an import that breaks a layering rule.
type DependencyViolation struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Rule string `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// PatternMetrics scores adherence to framework patterns (0-100 each).
type PatternMetrics struct {
	ReduxScore float64 `json:"redux_score" yaml:"redux_score"`
	HookScore  float64 `json:"hook_score" yaml:"hook_score"`
}

// SecurityMetrics is the metric bundle for the security category.
type SecurityMetrics struct {
	Vulnerabilities   VulnerabilityCounts `json:"vulnerabilities" yaml:"vulnerabilities"`
	Patterns          PatternCounts       `json:"patterns" yaml:"patterns"`
	PerformanceIssues int                 `json:"performance_issues" yaml:"performance_issues"`
}

// VulnerabilityCounts counts dependency vulnerabilities by severity.
type VulnerabilityCounts struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Moderate int `json:"moderate" yaml:"moderate"`
	Low      int `json:"low" yaml:"low"`
}

// PatternCounts counts insecure source patterns by severity.
type PatternCounts struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
}
