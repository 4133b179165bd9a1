// Package rules evaluates user-defined pattern, complexity, naming and structure
// rules against source text and turns their violations into findings.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/panbanda/qscore/internal/cache"
	"github.com/panbanda/qscore/internal/logging"
	"github.com/panbanda/qscore/pkg/source"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Engine loads custom rules and evaluates them against files.
type Engine struct {
	src        source.ContentSource
	logger     *logging.Logger
	cache      *cache.Cache
	extensions []string
	onProgress func()

	rules       []Rule
	validation  Validation
	fingerprint string

	mu      sync.Mutex
	regexps map[string]compiledRegex
}

type compiledRegex struct {
	re  *regexp.Regexp
	err error
}

// Option configures the Engine.
type Option func(*Engine)

// WithSource sets where file content is read from.
func WithSource(src source.ContentSource) Option {
	return func(e *Engine) {
		e.src = src
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCache enables reuse of per-file violations across runs.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithDefaultExtensions overrides the extensions used by rules that name none.
func WithDefaultExtensions(exts []string) Option {
	return func(e *Engine) {
		if len(exts) > 0 {
			e.extensions = normalizeExtensions(exts)
		}
	}
}

// WithProgress sets a callback invoked after each file is evaluated.
func WithProgress(fn func()) Option {
	return func(e *Engine) {
		e.onProgress = fn
	}
}

// NewEngine creates a rule engine with no rules loaded.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		src:        source.NewFilesystem(),
		extensions: DefaultFileExtensions,
		regexps:    make(map[string]compiledRegex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadRules reads a rule document from path. It returns false, leaving zero
// active rules, when the file is missing or is not a valid rule document.
// Individually invalid rules are dropped without failing the load.
func (e *Engine) LoadRules(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		e.reset(fmt.Sprintf("read rules file: %v", err))
		e.logger.Debug("custom rules not loaded from %s: %v", path, err)
		return false
	}
	ok := e.LoadRulesFromBytes(data)
	if ok {
		e.logger.Debug("loaded %d of %d custom rules from %s", len(e.rules), e.validation.Total, path)
	}
	return ok
}

// LoadRulesFromBytes parses a rule document of the form {"rules": [...]}.
func (e *Engine) LoadRulesFromBytes(data []byte) bool {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		e.reset(fmt.Sprintf("malformed rules document: %v", err))
		return false
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		e.reset("rules document must be a JSON object")
		return false
	}
	items, ok := obj["rules"].([]any)
	if !ok {
		e.reset(`rules document must contain a "rules" array`)
		return false
	}

	validation := Validation{Loaded: true, Total: len(items)}
	accepted := make([]Rule, 0, len(items))
	seen := make(map[string]bool, len(items))

	for i, item := range items {
		id := ruleIDOf(item)
		if err := validateRule(item); err != nil {
			validation.Rejected = append(validation.Rejected, RuleError{Index: i, ID: id, Reason: err.Error()})
			continue
		}
		if seen[id] {
			validation.Rejected = append(validation.Rejected, RuleError{Index: i, ID: id, Reason: "duplicate rule id"})
			continue
		}
		rule, err := decodeRule(item)
		if err != nil {
			validation.Rejected = append(validation.Rejected, RuleError{Index: i, ID: id, Reason: err.Error()})
			continue
		}
		seen[id] = true
		accepted = append(accepted, rule)
	}

	validation.Accepted = len(accepted)
	validation.Valid = len(validation.Rejected) == 0

	e.rules = accepted
	e.validation = validation
	e.fingerprint = fingerprint(accepted)
	for _, rej := range validation.Rejected {
		e.logger.Debug("custom rule #%d (%s) rejected: %s", rej.Index, rej.ID, rej.Reason)
	}
	return true
}

// ValidateRulesConfig reports the validation outcome of the last load.
func (e *Engine) ValidateRulesConfig() Validation {
	v := e.validation
	v.Rejected = append([]RuleError(nil), e.validation.Rejected...)
	return v
}

// Rules returns the active rule set.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// EnabledRules returns the active rules with Enabled set.
func (e *Engine) EnabledRules() []Rule {
	var enabled []Rule
	for _, r := range e.rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled
}

// Fingerprint identifies the active rule set; it changes whenever any rule does.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

func (e *Engine) reset(reason string) {
	e.rules = nil
	e.fingerprint = ""
	e.validation = Validation{Error: reason}
}

// regex compiles and memoizes a pattern. Compile errors are memoized too.
func (e *Engine) regex(pattern string) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.regexps[pattern]; ok {
		return c.re, c.err
	}
	re, err := regexp.Compile(pattern)
	e.regexps[pattern] = compiledRegex{re: re, err: err}
	return re, err
}

// rawRule is the on-disk shape of a rule: common fields plus every variant field.
type rawRule struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Type            Kind               `json:"type"`
	Severity        Severity           `json:"severity"`
	Message         string             `json:"message"`
	Enabled         bool               `json:"enabled"`
	ExcludePatterns []string           `json:"excludePatterns,omitempty"`
	FileExtensions  []string           `json:"fileExtensions,omitempty"`
	Pattern         string             `json:"pattern,omitempty"`
	ComplexityType  ComplexityType     `json:"complexityType,omitempty"`
	NameType        NameType           `json:"nameType,omitempty"`
	Check           StructureCheckType `json:"check,omitempty"`
	Threshold       *float64           `json:"threshold,omitempty"`
}

func decodeRule(item any) (Rule, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return Rule{}, fmt.Errorf("encode rule: %w", err)
	}
	var raw rawRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return Rule{}, fmt.Errorf("decode rule: %w", err)
	}

	rule := Rule{
		ID:              raw.ID,
		Name:            raw.Name,
		Description:     raw.Description,
		Severity:        raw.Severity,
		Message:         raw.Message,
		Enabled:         raw.Enabled,
		ExcludePatterns: raw.ExcludePatterns,
		FileExtensions:  normalizeExtensions(raw.FileExtensions),
	}

	var threshold float64
	if raw.Threshold != nil {
		threshold = *raw.Threshold
	}

	switch raw.Type {
	case KindPattern:
		rule.Check = PatternCheck{Pattern: raw.Pattern}
	case KindComplexity:
		rule.Check = ComplexityCheck{Type: raw.ComplexityType, Threshold: threshold}
	case KindNaming:
		rule.Check = NamingCheck{NameType: raw.NameType, Pattern: raw.Pattern}
	case KindStructure:
		rule.Check = StructureCheck{Check: raw.Check, Threshold: threshold}
	default:
		return Rule{}, fmt.Errorf("unknown rule type %q", raw.Type)
	}
	return rule, nil
}

// MarshalJSON writes the rule back in its on-disk shape.
func (r Rule) MarshalJSON() ([]byte, error) {
	raw := rawRule{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Severity:        r.Severity,
		Message:         r.Message,
		Enabled:         r.Enabled,
		ExcludePatterns: r.ExcludePatterns,
		FileExtensions:  r.FileExtensions,
	}
	switch c := r.Check.(type) {
	case PatternCheck:
		raw.Type = KindPattern
		raw.Pattern = c.Pattern
	case ComplexityCheck:
		raw.Type = KindComplexity
		raw.ComplexityType = c.Type
		raw.Threshold = &c.Threshold
	case NamingCheck:
		raw.Type = KindNaming
		raw.NameType = c.NameType
		raw.Pattern = c.Pattern
	case StructureCheck:
		raw.Type = KindStructure
		raw.Check = c.Check
		raw.Threshold = &c.Threshold
	}
	return json.Marshal(raw)
}

func ruleIDOf(item any) string {
	if obj, ok := item.(map[string]any); ok {
		if id, ok := obj["id"].(string); ok {
			return id
		}
	}
	return ""
}

func fingerprint(rules []Rule) string {
	data, err := json.Marshal(rules)
	if err != nil {
		return ""
	}
	return cache.HashBytes(data)
}

// normalizeExtensions lower-cases extensions and ensures a leading dot.
func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return nil
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
