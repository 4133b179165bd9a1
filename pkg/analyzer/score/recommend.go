package score

import (
	"fmt"
	"sort"

	"github.com/panbanda/qscore/pkg/models"
)

// MaxRecommendations caps the number of recommendations in a result.
const MaxRecommendations = 5

// Recommendation trigger thresholds.
const (
	duplicationTrigger   = 5.0
	coverageTrigger      = 80.0
	effectivenessTrigger = 70.0
	maxRelatedFindings   = 10
)

// GenerateRecommendations evaluates the fixed trigger conditions against the
// metric bundles, stable-sorts candidates by priority and keeps the first five.
// Nil bundles trigger nothing.
func GenerateRecommendations(in Input) []models.Recommendation {
	var recs []models.Recommendation

	if cq := in.CodeQuality; cq != nil {
		if n := cq.Complexity.Distribution.Critical; n > 0 {
			recs = append(recs, models.Recommendation{
				Priority:        models.PriorityHigh,
				Category:        models.CategoryCodeQuality,
				Issue:           fmt.Sprintf("%d functions have critical complexity", n),
				Remediation:     "Split complex functions into smaller units and replace nested conditionals with early returns",
				EstimatedEffort: fmt.Sprintf("%d-%d hours", n, n*2),
				ExpectedImpact:  fmt.Sprintf("Removes %d critical complexity hotspots and raises the complexity sub-score", n),
			})
		}
		if pct := cq.Duplication.Percentage; pct > duplicationTrigger {
			recs = append(recs, models.Recommendation{
				Priority:        models.PriorityMedium,
				Category:        models.CategoryCodeQuality,
				Issue:           fmt.Sprintf("Code duplication is %.1f%%", pct),
				Remediation:     "Extract duplicated blocks into shared functions or components",
				EstimatedEffort: fmt.Sprintf("%d duplicate blocks to consolidate", cq.Duplication.DuplicateBlocks),
				ExpectedImpact:  fmt.Sprintf("Brings duplication from %.1f%% toward the 3%% target", pct),
			})
		}
	}

	if tc := in.TestCoverage; tc != nil {
		if avg := tc.Overall.Average(); avg < coverageTrigger {
			recs = append(recs, models.Recommendation{
				Priority:        models.PriorityHigh,
				Category:        models.CategoryTestCoverage,
				Issue:           fmt.Sprintf("Average test coverage is %.1f%%", avg),
				Remediation:     "Add tests for uncovered branches and functions, starting with the largest coverage gaps",
				EstimatedEffort: fmt.Sprintf("%.0f%% coverage to add", coverageTrigger-avg),
				ExpectedImpact:  fmt.Sprintf("Raises coverage from %.1f%% to %.0f%%", avg, coverageTrigger),
			})
		}
		if eff := tc.Effectiveness.Score; eff < effectivenessTrigger {
			recs = append(recs, models.Recommendation{
				Priority:        models.PriorityMedium,
				Category:        models.CategoryTestCoverage,
				Issue:           fmt.Sprintf("Test effectiveness score is %.1f", eff),
				Remediation:     "Strengthen assertions and cover edge cases instead of only exercising happy paths",
				EstimatedEffort: fmt.Sprintf("Review %d test files", tc.Effectiveness.TestFiles),
				ExpectedImpact:  fmt.Sprintf("Raises test effectiveness from %.1f to at least %.0f", eff, effectivenessTrigger),
			})
		}
	}

	if arch := in.Architecture; arch != nil {
		if n := len(arch.Dependencies.Circular); n > 0 {
			recs = append(recs, models.Recommendation{
				Priority:        models.PriorityHigh,
				Category:        models.CategoryArchitecture,
				Issue:           fmt.Sprintf("%d circular dependencies detected", n),
				Remediation:     "Break cycles by extracting shared code or inverting dependencies",
				EstimatedEffort: fmt.Sprintf("%d-%d hours", n*2, n*4),
				ExpectedImpact:  fmt.Sprintf("Recovers up to %d dependency points", n*20),
			})
		}
		if n := len(arch.Components.Oversized); n > 0 {
			recs = append(recs, models.Recommendation{
				Priority:        models.PriorityMedium,
				Category:        models.CategoryArchitecture,
				Issue:           fmt.Sprintf("%d oversized components", n),
				Remediation:     "Split oversized components into focused subcomponents",
				EstimatedEffort: fmt.Sprintf("%d-%d hours", n, n*3),
				ExpectedImpact:  fmt.Sprintf("Recovers up to %d component points", n*10),
			})
		}
	}

	if sec := in.Security; sec != nil {
		if n := sec.Vulnerabilities.Critical; n > 0 {
			recs = append(recs, models.Recommendation{
				Priority:        models.PriorityCritical,
				Category:        models.CategorySecurity,
				Issue:           fmt.Sprintf("%d critical vulnerabilities", n),
				Remediation:     "Upgrade or replace the affected dependencies immediately",
				EstimatedEffort: fmt.Sprintf("%d dependency updates", n),
				ExpectedImpact:  fmt.Sprintf("Recovers %d security points", n*25),
			})
		}
	}

	for i := range recs {
		recs[i].RelatedFindings = relatedFindings(in.Findings, recs[i].Category)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return recs
}

// relatedFindings returns the ids of the most severe findings in a category.
func relatedFindings(findings []models.Finding, cat models.Category) []string {
	var matched []models.Finding
	for _, f := range findings {
		if f.Category == cat {
			matched = append(matched, f)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Severity.Rank() < matched[j].Severity.Rank()
	})
	if len(matched) > maxRelatedFindings {
		matched = matched[:maxRelatedFindings]
	}

	var ids []string
	for _, f := range matched {
		ids = append(ids, f.ID)
	}
	return ids
}
