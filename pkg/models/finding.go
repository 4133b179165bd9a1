package models

// Severity is the severity of a reported finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities from most to least severe (critical = 0).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Category identifies one of the four scored quality categories.
type Category string

const (
	CategoryCodeQuality  Category = "codeQuality"
	CategoryTestCoverage Category = "testCoverage"
	CategoryArchitecture Category = "architecture"
	CategorySecurity     Category = "security"
)

// Categories lists the scored categories in report order.
var Categories = []Category{
	CategoryCodeQuality,
	CategoryTestCoverage,
	CategoryArchitecture,
	CategorySecurity,
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	switch c {
	case CategoryCodeQuality:
		return "Code Quality"
	case CategoryTestCoverage:
		return "Test Coverage"
	case CategoryArchitecture:
		return "Architecture"
	case CategorySecurity:
		return "Security"
	default:
		return string(c)
	}
}

// Location points at a position in a source file.
type Location struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Finding is a reported issue, independent of how it was detected.
// Findings are created once and never mutated.
type Finding struct {
	ID          string    `json:"id" yaml:"id"`
	Severity    Severity  `json:"severity" yaml:"severity"`
	Category    Category  `json:"category" yaml:"category"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Location    *Location `json:"location,omitempty" yaml:"location,omitempty"`
	Remediation string    `json:"remediation" yaml:"remediation"`
	Evidence    string    `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
