package score

import (
	"math"

	"github.com/panbanda/qscore/pkg/models"
	"github.com/panbanda/qscore/pkg/stats"
)

// =============================================================================
// CATEGORY SCORING
// =============================================================================
//
// Each category's metric bundle is reduced to a 0-100 score where higher is
// better. A nil bundle means the analyzer produced nothing for this run and a
// fixed default is substituted. Missing coverage data is penalized harder than
// the other categories.
// =============================================================================

// Default scores substituted for a nil metric bundle.
const (
	DefaultCodeQualityScore  = 50.0
	DefaultTestCoverageScore = 30.0
	DefaultArchitectureScore = 50.0
	DefaultSecurityScore     = 50.0
)

// -----------------------------------------------------------------------------
// Code Quality
// -----------------------------------------------------------------------------
//
//	codeQuality = complexity*0.40 + duplication*0.35 + linting*0.25
// -----------------------------------------------------------------------------

// ScoreCodeQuality scores the code quality bundle.
func ScoreCodeQuality(m *models.CodeQualityMetrics) float64 {
	if m == nil {
		return DefaultCodeQualityScore
	}
	score := ComplexityScore(m.Complexity.Distribution)*0.4 +
		DuplicationScore(m.Duplication.Percentage)*0.35 +
		LintingScore(m.Linting.Errors, m.Linting.Warnings)*0.25
	return bound(score)
}

// ComplexityScore penalizes the share of critical functions four times as
// hard as the share of warning functions. No classified functions scores 100.
func ComplexityScore(d models.ComplexityDistribution) float64 {
	total := d.Total()
	if total == 0 {
		return 100
	}
	criticalPct := float64(d.Critical) / float64(total) * 100
	warningPct := float64(d.Warning) / float64(total) * 100
	return stats.Floor0(100 - criticalPct*2 - warningPct*0.5)
}

// DuplicationScore maps a duplication percentage onto a stepped scale:
//
//	<3%: 100, <5%: 90, <10%: 70, otherwise 100-(pct-10)*5 capped at 70.
//
// The cap keeps the score non-increasing across the 10% boundary.
func DuplicationScore(percent float64) float64 {
	switch {
	case percent < 3:
		return 100
	case percent < 5:
		return 90
	case percent < 10:
		return 70
	default:
		return stats.Floor0(math.Min(70, 100-(percent-10)*5))
	}
}

// LintingScore costs 15 points per error (at most 100) and 2 points per
// warning beyond the first five (at most 50).
func LintingScore(errors, warnings int) float64 {
	score := 100 - math.Min(float64(errors)*15, 100)
	if warnings > 5 {
		score -= math.Min(float64(warnings-5)*2, 50)
	}
	return stats.Floor0(score)
}

// -----------------------------------------------------------------------------
// Test Coverage
// -----------------------------------------------------------------------------
//
//	testCoverage = avg(lines, branches, functions, statements)*0.6 + effectiveness*0.4
// -----------------------------------------------------------------------------

// ScoreTestCoverage scores the test coverage bundle.
func ScoreTestCoverage(m *models.TestCoverageMetrics) float64 {
	if m == nil {
		return DefaultTestCoverageScore
	}
	return bound(m.Overall.Average()*0.6 + m.Effectiveness.Score*0.4)
}

// -----------------------------------------------------------------------------
// Architecture
// -----------------------------------------------------------------------------
//
//	architecture = components*0.35 + dependencies*0.35 + patterns*0.30
// -----------------------------------------------------------------------------

// ScoreArchitecture scores the architecture bundle.
func ScoreArchitecture(m *models.ArchitectureMetrics) float64 {
	if m == nil {
		return DefaultArchitectureScore
	}
	components := stats.Floor0(100 - float64(len(m.Components.Oversized))*10)
	dependencies := stats.Floor0(100 -
		float64(len(m.Dependencies.Circular))*20 -
		float64(len(m.Dependencies.Violations))*10)
	patterns := (m.Patterns.ReduxScore + m.Patterns.HookScore) / 2

	return bound(components*0.35 + dependencies*0.35 + patterns*0.3)
}

// -----------------------------------------------------------------------------
// Security
// -----------------------------------------------------------------------------
//
// Vulnerabilities and risky patterns are flat deductions. Performance issues
// cost 2 points each, at most 30.
// -----------------------------------------------------------------------------

// ScoreSecurity scores the security bundle.
func ScoreSecurity(m *models.SecurityMetrics) float64 {
	if m == nil {
		return DefaultSecurityScore
	}
	score := 100 -
		float64(m.Vulnerabilities.Critical)*25 -
		float64(m.Vulnerabilities.High)*10 -
		float64(m.Patterns.Critical)*15 -
		float64(m.Patterns.High)*5 -
		math.Min(float64(m.PerformanceIssues)*2, 30)
	return bound(score)
}

// CategoryScores scores every bundle of the input.
func CategoryScores(in Input) models.CategoryScores {
	return models.CategoryScores{
		CodeQuality:  ScoreCodeQuality(in.CodeQuality),
		TestCoverage: ScoreTestCoverage(in.TestCoverage),
		Architecture: ScoreArchitecture(in.Architecture),
		Security:     ScoreSecurity(in.Security),
	}
}

func bound(score float64) float64 {
	return stats.Clamp(score, 0, 100)
}
