package rules

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/panbanda/qscore/internal/cache"
)

// Evaluate applies every enabled rule to every eligible file. A file that
// cannot be read contributes no violations; a rule whose regex does not
// compile is skipped for that file. Evaluation never aborts.
func (e *Engine) Evaluate(files []string) *Evaluation {
	start := time.Now()
	enabled := e.EnabledRules()

	applied := make(map[string]bool, len(enabled))
	var violations []Violation
	evaluated, skipped := 0, 0

	for _, path := range files {
		eligible := e.eligibleRules(enabled, path)
		if len(eligible) == 0 {
			e.tick()
			continue
		}

		data, err := e.src.Read(path)
		if err != nil {
			e.logger.Debug("skipping %s: %v", path, err)
			skipped++
			e.tick()
			continue
		}
		evaluated++

		for _, r := range eligible {
			if e.runnable(r) {
				applied[r.ID] = true
			}
		}
		violations = append(violations, e.evaluateFile(eligible, path, data)...)
		e.tick()
	}

	eval := Aggregate(violations, len(applied), time.Since(start))
	eval.FilesEvaluated = evaluated
	eval.FilesSkipped = skipped
	for id := range applied {
		eval.applied = append(eval.applied, id)
	}
	return eval
}

// runnable reports whether the rule's regex, if it has one, compiles.
func (e *Engine) runnable(r Rule) bool {
	var pattern string
	switch c := r.Check.(type) {
	case PatternCheck:
		pattern = c.Pattern
	case NamingCheck:
		pattern = c.Pattern
	default:
		return true
	}
	_, err := e.regex(pattern)
	return err == nil
}

func (e *Engine) tick() {
	if e.onProgress != nil {
		e.onProgress()
	}
}

// eligibleRules returns the rules whose extensions include the file's extension.
func (e *Engine) eligibleRules(rules []Rule, path string) []Rule {
	ext := strings.ToLower(filepath.Ext(path))
	var out []Rule
	for _, r := range rules {
		exts := r.FileExtensions
		if len(exts) == 0 {
			exts = e.extensions
		}
		for _, x := range exts {
			if x == ext {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// evaluateFile runs the eligible rules on one file, consulting the cache when enabled.
func (e *Engine) evaluateFile(rules []Rule, path string, data []byte) []Violation {
	var key, hash string
	if e.cache != nil {
		key = cacheKey(e.fingerprint, rules, path)
		hash = cache.HashBytes(data)
		if cached, ok := e.cache.GetWithHash(key, hash); ok {
			var vs []Violation
			if err := json.Unmarshal(cached, &vs); err == nil {
				return vs
			}
		}
	}

	content := string(data)
	var out []Violation
	for _, r := range rules {
		out = append(out, e.evaluateRule(r, path, content)...)
	}

	if e.cache != nil {
		if encoded, err := json.Marshal(out); err == nil {
			if err := e.cache.SetWithHash(key, hash, encoded); err != nil {
				e.logger.Debug("cache write for %s failed: %v", path, err)
			}
		}
	}
	return out
}

// cacheKey identifies a file's results by rule document and the rules that
// apply to the file, since the default extensions can change between runs.
func cacheKey(fingerprint string, rules []Rule, path string) string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	sort.Strings(ids)
	return "rules:" + fingerprint + ":" + strings.Join(ids, ",") + ":" + path
}

// evaluateRule dispatches on the rule variant.
func (e *Engine) evaluateRule(r Rule, path, content string) []Violation {
	switch c := r.Check.(type) {
	case PatternCheck:
		return e.evaluatePattern(r, c, path, content)
	case ComplexityCheck:
		return e.evaluateComplexity(r, c, path, content)
	case NamingCheck:
		return e.evaluateNaming(r, c, path, content)
	case StructureCheck:
		return e.evaluateStructure(r, c, path, content)
	default:
		return nil
	}
}

func (e *Engine) evaluatePattern(r Rule, c PatternCheck, path, content string) []Violation {
	re, err := e.regex(c.Pattern)
	if err != nil {
		e.logger.Debug("rule %s: invalid pattern %q: %v", r.ID, c.Pattern, err)
		return nil
	}

	var out []Violation
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		matches := re.FindAllStringIndex(line, -1)
		if len(matches) == 0 || e.excluded(r, line) {
			continue
		}
		for _, m := range matches {
			col := utf8.RuneCountInString(line[:m[0]]) + 1
			out = append(out, newViolation(r, path, i+1, col, r.Message, line[m[0]:m[1]]))
		}
	}
	return out
}

func (e *Engine) evaluateComplexity(r Rule, c ComplexityCheck, path, content string) []Violation {
	switch c.Type {
	case ComplexityLines:
		lines := len(strings.Split(content, "\n"))
		if float64(lines) > c.Threshold {
			return []Violation{newViolation(r, path, 0, 0, r.Message,
				fmt.Sprintf("%d lines (threshold %g)", lines, c.Threshold))}
		}
		return nil

	case ComplexityParameters:
		idx := newLineIndex(content)
		var out []Violation
		for _, fn := range extractFunctions(content) {
			if float64(len(fn.Params)) <= c.Threshold {
				continue
			}
			line, col := idx.position(fn.Offset)
			if e.excluded(r, idx.lineText(content, line)) {
				continue
			}
			out = append(out, newViolation(r, path, line, col, r.Message,
				fmt.Sprintf("%s has %d parameters (threshold %g)", fn.Name, len(fn.Params), c.Threshold)))
		}
		return out

	case ComplexityNesting:
		depth, offset := maxNesting(content)
		if float64(depth) <= c.Threshold {
			return nil
		}
		line, col := newLineIndex(content).position(offset)
		return []Violation{newViolation(r, path, line, col, r.Message,
			fmt.Sprintf("max nesting depth %d (threshold %g)", depth, c.Threshold))}

	case ComplexityCyclomatic:
		return e.evaluateCyclomatic(r, c, path, content)

	default:
		return nil
	}
}

// evaluateCyclomatic scores each function-like scope as 1 plus its control-flow
// units. A file with no recognizable function is scored as a single scope.
func (e *Engine) evaluateCyclomatic(r Rule, c ComplexityCheck, path, content string) []Violation {
	idx := newLineIndex(content)
	fns := extractFunctions(content)

	if len(fns) == 0 {
		complexity := 1 + cyclomaticUnits(content)
		if float64(complexity) <= c.Threshold {
			return nil
		}
		return []Violation{newViolation(r, path, 0, 0, r.Message,
			fmt.Sprintf("file has cyclomatic complexity %d (threshold %g)", complexity, c.Threshold))}
	}

	var out []Violation
	for _, fn := range fns {
		complexity := 1 + cyclomaticUnits(content[fn.BodyStart:fn.BodyEnd])
		if float64(complexity) <= c.Threshold {
			continue
		}
		line, col := idx.position(fn.Offset)
		if e.excluded(r, idx.lineText(content, line)) {
			continue
		}
		out = append(out, newViolation(r, path, line, col, r.Message,
			fmt.Sprintf("%s has cyclomatic complexity %d (threshold %g)", fn.Name, complexity, c.Threshold)))
	}
	return out
}

func (e *Engine) evaluateNaming(r Rule, c NamingCheck, path, content string) []Violation {
	re, err := e.regex(c.Pattern)
	if err != nil {
		e.logger.Debug("rule %s: invalid naming pattern %q: %v", r.ID, c.Pattern, err)
		return nil
	}

	idx := newLineIndex(content)
	var out []Violation
	for _, id := range extractIdentifiers(content, c.NameType) {
		if re.MatchString(id.Name) {
			continue
		}
		line, col := idx.position(id.Offset)
		if e.excluded(r, id.Name) || e.excluded(r, idx.lineText(content, line)) {
			continue
		}
		out = append(out, newViolation(r, path, line, col, r.Message, id.Name))
	}
	return out
}

func (e *Engine) evaluateStructure(r Rule, c StructureCheck, path, content string) []Violation {
	switch c.Check {
	case StructureMaxFileSize:
		kb := float64(len(content)) / 1024
		if kb <= c.Threshold {
			return nil
		}
		size := fmt.Sprintf("%.1fKB", kb)
		msg := fmt.Sprintf("%s (file size %s exceeds %gKB)", r.Message, size, c.Threshold)
		return []Violation{newViolation(r, path, 0, 0, msg, size)}
	default:
		return nil
	}
}

// excluded reports whether text matches any of the rule's exclude patterns.
// Exclude patterns that fail to compile never match.
func (e *Engine) excluded(r Rule, text string) bool {
	for _, p := range r.ExcludePatterns {
		re, err := e.regex(p)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// maxNesting tracks brace, bracket and paren depth across content and returns
// the deepest level reached and the offset where it was first reached.
func maxNesting(content string) (int, int) {
	depth, maxDepth, at := 0, 0, 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{', '[', '(':
			depth++
			if depth > maxDepth {
				maxDepth = depth
				at = i
			}
		case '}', ']', ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return maxDepth, at
}

func newViolation(r Rule, path string, line, col int, msg, evidence string) Violation {
	return Violation{
		RuleID:   r.ID,
		RuleName: r.DisplayName(),
		Severity: r.Severity,
		File:     path,
		Line:     line,
		Column:   col,
		Message:  msg,
		Evidence: evidence,
	}
}
