package rules

import (
	"time"
)

// Severity is the severity of a custom rule.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Weight returns the score adjustment contributed by one violation of this severity.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return -2
	case SeverityWarning:
		return -1
	case SeverityInfo:
		return -0.5
	default:
		return 0
	}
}

func (s Severity) String() string { return string(s) }

// Score adjustment bounds.
const (
	AdjustmentFloor   = -10.0
	AdjustmentCeiling = 0.0
)

// DefaultFileExtensions are evaluated when a rule names no extensions.
var DefaultFileExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// Kind discriminates the rule variants.
type Kind string

const (
	KindPattern    Kind = "pattern"
	KindComplexity Kind = "complexity"
	KindNaming     Kind = "naming"
	KindStructure  Kind = "structure"
)

// ComplexityType selects what a complexity rule measures.
type ComplexityType string

const (
	ComplexityLines      ComplexityType = "lines"
	ComplexityParameters ComplexityType = "parameters"
	ComplexityNesting    ComplexityType = "nesting"
	ComplexityCyclomatic ComplexityType = "cyclomaticComplexity"
)

// NameType selects which identifiers a naming rule inspects.
type NameType string

const (
	NameFunction  NameType = "function"
	NameVariable  NameType = "variable"
	NameClass     NameType = "class"
	NameConstant  NameType = "constant"
	NameInterface NameType = "interface"
)

// StructureCheckType selects what a structure rule measures.
type StructureCheckType string

const (
	StructureMaxFileSize StructureCheckType = "maxFileSize"
)

// Check is the variant-specific part of a rule. It is implemented only by
// PatternCheck, ComplexityCheck, NamingCheck and StructureCheck.
type Check interface {
	Kind() Kind
	sealed()
}

// PatternCheck flags every regex match in a file.
type PatternCheck struct {
	Pattern string `json:"pattern"`
}

// ComplexityCheck flags code exceeding a complexity threshold.
type ComplexityCheck struct {
	Type      ComplexityType `json:"complexityType"`
	Threshold float64        `json:"threshold"`
}

// NamingCheck flags identifiers that do not match a naming pattern.
type NamingCheck struct {
	NameType NameType `json:"nameType"`
	Pattern  string   `json:"pattern"`
}

// StructureCheck flags files exceeding a structural limit.
type StructureCheck struct {
	Check     StructureCheckType `json:"check"`
	Threshold float64            `json:"threshold"` // KB for maxFileSize
}

func (PatternCheck) Kind() Kind    { return KindPattern }
func (ComplexityCheck) Kind() Kind { return KindComplexity }
func (NamingCheck) Kind() Kind     { return KindNaming }
func (StructureCheck) Kind() Kind  { return KindStructure }

func (PatternCheck) sealed()    {}
func (ComplexityCheck) sealed() {}
func (NamingCheck) sealed()     {}
func (StructureCheck) sealed()  {}

// Rule is a user-defined quality check. Rules are loaded once and read-only afterwards.
type Rule struct {
	ID              string   `json:"id"`
	Name            string   `json:"name,omitempty"`
	Description     string   `json:"description,omitempty"`
	Severity        Severity `json:"severity"`
	Message         string   `json:"message"`
	Enabled         bool     `json:"enabled"`
	ExcludePatterns []string `json:"excludePatterns,omitempty"`
	FileExtensions  []string `json:"fileExtensions,omitempty"`
	Check           Check    `json:"-"`
}

// DisplayName returns the rule name, falling back to its id.
func (r Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Extensions returns the file extensions the rule applies to.
func (r Rule) Extensions() []string {
	if len(r.FileExtensions) == 0 {
		return DefaultFileExtensions
	}
	return r.FileExtensions
}

// Violation is a single match of a rule against source text.
type Violation struct {
	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	Severity Severity `json:"severity"`
	File     string   `json:"file"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Evidence string   `json:"evidence"`
}

// SeverityCounts tallies violations per rule severity.
type SeverityCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// Total returns the number of counted violations.
func (c SeverityCounts) Total() int {
	return c.Critical + c.Warning + c.Info
}

// Evaluation is the outcome of running the active rules over a file set.
type Evaluation struct {
	Violations           []Violation    `json:"violations"`
	ViolationsBySeverity SeverityCounts `json:"violations_by_severity"`
	ScoreAdjustment      float64        `json:"score_adjustment"`
	RulesApplied         int            `json:"rules_applied"`
	FilesEvaluated       int            `json:"files_evaluated"`
	FilesSkipped         int            `json:"files_skipped"`
	ExecutionTime        time.Duration  `json:"execution_time"`

	applied []string
}

// RuleError describes why a rule was rejected at load time.
type RuleError struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Validation is the aggregate outcome of validating a rule document.
type Validation struct {
	Valid    bool        `json:"valid"`
	Loaded   bool        `json:"loaded"`
	Total    int         `json:"total"`
	Accepted int         `json:"accepted"`
	Rejected []RuleError `json:"rejected,omitempty"`
	Error    string      `json:"error,omitempty"`
}
