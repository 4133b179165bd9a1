package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriority_Rank(t *testing.T) {
	tests := []struct {
		p    Priority
		want int
	}{
		{PriorityCritical, 0},
		{PriorityHigh, 1},
		{PriorityMedium, 2},
		{PriorityLow, 3},
		{Priority("unknown"), 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.p), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Rank())
		})
	}
}

func TestSeverity_Rank(t *testing.T) {
	ordered := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].Rank(), ordered[i].Rank(), "%s before %s", ordered[i-1], ordered[i])
	}
}

func TestComponentScores(t *testing.T) {
	c := ComponentScores{
		CodeQuality:  NewComponentScore(80, 0.3),
		TestCoverage: NewComponentScore(60, 0.25),
		Architecture: NewComponentScore(90, 0.25),
		Security:     NewComponentScore(100, 0.2),
	}

	assert.InDelta(t, 24.0, c.Get(CategoryCodeQuality).WeightedScore, 1e-9)
	assert.InDelta(t, 20.0, c.Get(CategorySecurity).WeightedScore, 1e-9)
	assert.Equal(t, ComponentScore{}, c.Get(Category("style")))

	scores := c.Scores()
	for _, cat := range Categories {
		assert.Equal(t, c.Get(cat).Score, scores.Get(cat), cat.Label())
	}
	assert.Zero(t, scores.Get(Category("style")))
}

func TestCategory_Label(t *testing.T) {
	assert.Equal(t, "Code Quality", CategoryCodeQuality.Label())
	assert.Equal(t, "Test Coverage", CategoryTestCoverage.Label())
	assert.Equal(t, "style", Category("style").Label())
}

func TestCountBySeverity(t *testing.T) {
	counts := CountBySeverity([]Finding{
		{ID: "a", Severity: SeverityCritical},
		{ID: "b", Severity: SeverityLow},
		{ID: "c", Severity: SeverityCritical},
	})

	assert.Equal(t, map[Severity]int{SeverityCritical: 2, SeverityLow: 1}, counts)
	assert.Empty(t, CountBySeverity(nil))
}

func TestComplexityDistribution_Total(t *testing.T) {
	assert.Equal(t, 6, ComplexityDistribution{Good: 3, Warning: 2, Critical: 1}.Total())
}

func TestCoverageSummary_Average(t *testing.T) {
	assert.Equal(t, 70.0, CoverageSummary{Lines: 80, Branches: 60, Functions: 70, Statements: 70}.Average())
}
