package rules

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/qscore/pkg/models"
	"github.com/panbanda/qscore/pkg/stats"
)

// FindingIDPrefix prefixes the id of every finding produced from a rule violation.
const FindingIDPrefix = "custom-rule-"

// Aggregate tallies violations by severity and computes the clamped score adjustment.
func Aggregate(violations []Violation, rulesApplied int, elapsed time.Duration) *Evaluation {
	var counts SeverityCounts
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			counts.Critical++
		case SeverityWarning:
			counts.Warning++
		case SeverityInfo:
			counts.Info++
		}
	}

	if violations == nil {
		violations = []Violation{}
	}
	return &Evaluation{
		Violations:           violations,
		ViolationsBySeverity: counts,
		ScoreAdjustment:      ScoreAdjustment(counts),
		RulesApplied:         rulesApplied,
		ExecutionTime:        elapsed,
	}
}

// Merge combines the evaluations of disjoint file batches into one. Rules
// applied in several batches are counted once.
func Merge(evals ...*Evaluation) *Evaluation {
	var violations []Violation
	var elapsed time.Duration
	applied := make(map[string]bool)
	evaluated, skipped, fallback := 0, 0, 0

	for _, ev := range evals {
		if ev == nil {
			continue
		}
		violations = append(violations, ev.Violations...)
		elapsed += ev.ExecutionTime
		evaluated += ev.FilesEvaluated
		skipped += ev.FilesSkipped
		for _, id := range ev.applied {
			applied[id] = true
		}
		fallback = max(fallback, ev.RulesApplied)
	}

	rulesApplied := len(applied)
	if rulesApplied == 0 {
		rulesApplied = fallback
	}
	merged := Aggregate(violations, rulesApplied, elapsed)
	merged.FilesEvaluated = evaluated
	merged.FilesSkipped = skipped
	for id := range applied {
		merged.applied = append(merged.applied, id)
	}
	return merged
}

// Summary digests an evaluation for result metadata.
func (ev *Evaluation) Summary() *models.RuleSummary {
	if ev == nil {
		return nil
	}
	return &models.RuleSummary{
		RulesApplied:    ev.RulesApplied,
		Violations:      len(ev.Violations),
		Critical:        ev.ViolationsBySeverity.Critical,
		Warning:         ev.ViolationsBySeverity.Warning,
		Info:            ev.ViolationsBySeverity.Info,
		ScoreAdjustment: ev.ScoreAdjustment,
		ExecutionTime:   ev.ExecutionTime,
	}
}

// ScoreAdjustment returns the weighted sum of the counts, clamped to
// [AdjustmentFloor, AdjustmentCeiling].
func ScoreAdjustment(c SeverityCounts) float64 {
	var raw float64
	raw += float64(c.Critical) * SeverityCritical.Weight()
	raw += float64(c.Warning) * SeverityWarning.Weight()
	raw += float64(c.Info) * SeverityInfo.Weight()
	return stats.Clamp(raw, AdjustmentFloor, AdjustmentCeiling)
}

// FindingSeverity maps a rule severity onto the finding severity scale.
func FindingSeverity(s Severity) models.Severity {
	switch s {
	case SeverityCritical:
		return models.SeverityCritical
	case SeverityWarning:
		return models.SeverityHigh
	default:
		return models.SeverityLow
	}
}

// ToFindings converts violations into code-quality findings.
func ToFindings(violations []Violation) []models.Finding {
	findings := make([]models.Finding, 0, len(violations))
	for _, v := range violations {
		findings = append(findings, ToFinding(v))
	}
	return findings
}

// ToFinding converts a single violation. The id is stable for the same
// rule, file and position.
func ToFinding(v Violation) models.Finding {
	f := models.Finding{
		ID:          findingID(v),
		Severity:    FindingSeverity(v.Severity),
		Category:    models.CategoryCodeQuality,
		Title:       v.RuleName,
		Description: v.Message,
		Location:    &models.Location{File: v.File, Line: v.Line},
		Remediation: fmt.Sprintf("Resolve the %q rule violation", v.RuleName),
		Evidence:    v.Evidence,
	}
	if f.Title == "" {
		f.Title = v.RuleID
	}
	return f
}

func findingID(v Violation) string {
	key := v.File + ":" + strconv.Itoa(v.Line) + ":" + strconv.Itoa(v.Column)
	return FindingIDPrefix + v.RuleID + "-" + strconv.FormatUint(xxhash.Sum64String(key), 16)
}
