package rules

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Extraction is regex based, not a parser. The idioms below are the contract:
// function declarations, arrow functions assigned to const/let, const/let/var
// declarations, `class X`, `interface X`, and uppercase-leading consts.

const ident = `[A-Za-z_$][\w$]*`

var (
	functionDeclRe = regexp.MustCompile(`\bfunction\b\s*\*?\s*(` + ident + `)\s*\(([^)]*)\)`)
	arrowParamsRe  = regexp.MustCompile(`\b(?:const|let)\s+(` + ident + `)\s*=\s*(?:async\s*)?\(([^)]*)\)\s*(?::\s*[^=;{]+)?=>`)
	arrowSingleRe  = regexp.MustCompile(`\b(?:const|let)\s+(` + ident + `)\s*=\s*(?:async\s+)?(` + ident + `)\s*=>`)
	variableRe     = regexp.MustCompile(`\b(?:const|let|var)\s+(` + ident + `)`)
	classRe        = regexp.MustCompile(`\bclass\s+(` + ident + `)`)
	interfaceRe    = regexp.MustCompile(`\binterface\s+(` + ident + `)`)
	constantRe     = regexp.MustCompile(`\bconst\s+([A-Z][\w$]*)\s*=`)
	controlFlowRe  = regexp.MustCompile(`\b(?:if|else|for|while|case|catch)\b`)
)

// identifier is a name found in source text.
type identifier struct {
	Name   string
	Offset int // byte offset of the name
}

// function is a function-like scope found in source text.
type function struct {
	Name      string
	Offset    int // byte offset of the declaration
	Params    []string
	BodyStart int // byte offset of the body, inclusive
	BodyEnd   int // byte offset of the body, exclusive
}

// extractFunctions finds function declarations and arrow functions assigned
// to const/let, with or without parenthesized parameters, ordered by position.
func extractFunctions(content string) []function {
	var fns []function

	for _, m := range functionDeclRe.FindAllStringSubmatchIndex(content, -1) {
		params := content[m[4]:m[5]]
		start, end := blockBody(content, m[1])
		fns = append(fns, function{
			Name:      content[m[2]:m[3]],
			Offset:    m[0],
			Params:    splitParams(params),
			BodyStart: start,
			BodyEnd:   end,
		})
	}

	for _, m := range arrowParamsRe.FindAllStringSubmatchIndex(content, -1) {
		params := content[m[4]:m[5]]
		start, end := arrowBody(content, m[1])
		fns = append(fns, function{
			Name:      content[m[2]:m[3]],
			Offset:    m[0],
			Params:    splitParams(params),
			BodyStart: start,
			BodyEnd:   end,
		})
	}

	for _, m := range arrowSingleRe.FindAllStringSubmatchIndex(content, -1) {
		start, end := arrowBody(content, m[1])
		fns = append(fns, function{
			Name:      content[m[2]:m[3]],
			Offset:    m[0],
			Params:    []string{content[m[4]:m[5]]},
			BodyStart: start,
			BodyEnd:   end,
		})
	}

	sortFunctions(fns)
	return fns
}

// extractIdentifiers returns the identifiers of the given kind.
func extractIdentifiers(content string, kind NameType) []identifier {
	switch kind {
	case NameFunction:
		var ids []identifier
		ids = append(ids, submatches(functionDeclRe, content)...)
		ids = append(ids, submatches(arrowParamsRe, content)...)
		ids = append(ids, submatches(arrowSingleRe, content)...)
		sortIdentifiers(ids)
		return ids
	case NameVariable:
		return submatches(variableRe, content)
	case NameClass:
		return submatches(classRe, content)
	case NameInterface:
		return submatches(interfaceRe, content)
	case NameConstant:
		return submatches(constantRe, content)
	default:
		return nil
	}
}

func submatches(re *regexp.Regexp, content string) []identifier {
	var ids []identifier
	for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
		ids = append(ids, identifier{Name: content[m[2]:m[3]], Offset: m[2]})
	}
	return ids
}

// splitParams splits a parameter list on commas, dropping empty entries.
func splitParams(params string) []string {
	var out []string
	for _, p := range strings.Split(params, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// blockBody locates the brace-delimited body starting at the first '{' after from.
// A declaration without a body (e.g. an overload signature) yields an empty range.
func blockBody(content string, from int) (int, int) {
	for i := from; i < len(content); i++ {
		switch content[i] {
		case '{':
			return i, matchBrace(content, i)
		case ';':
			return from, from
		}
	}
	return from, from
}

// arrowBody locates an arrow function body: a block, or an expression up to end of line.
func arrowBody(content string, from int) (int, int) {
	i := from
	for i < len(content) && (content[i] == ' ' || content[i] == '\t' || content[i] == '\r' || content[i] == '\n') {
		i++
	}
	if i < len(content) && content[i] == '{' {
		return i, matchBrace(content, i)
	}
	end := strings.IndexByte(content[i:], '\n')
	if end < 0 {
		return i, len(content)
	}
	return i, i + end
}

// matchBrace returns the offset just past the brace closing the one at open.
// Unbalanced input runs to end of content.
func matchBrace(content string, open int) int {
	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(content)
}

// cyclomaticUnits counts control-flow tokens: if, else, for, while, case,
// catch, &&, || and the ternary '?'. Optional chaining (?.), nullish
// coalescing (??) and optional markers (?:) are not counted.
func cyclomaticUnits(text string) int {
	units := len(controlFlowRe.FindAllStringIndex(text, -1))
	units += strings.Count(text, "&&")
	units += strings.Count(text, "||")
	for i := 0; i < len(text); i++ {
		if text[i] != '?' {
			continue
		}
		if i+1 < len(text) && (text[i+1] == '.' || text[i+1] == '?' || text[i+1] == ':') {
			if text[i+1] == '?' {
				i++
			}
			continue
		}
		if i > 0 && text[i-1] == '?' {
			continue
		}
		units++
	}
	return units
}

// lineIndex maps byte offsets to 1-based line and character column numbers.
type lineIndex struct {
	content string
	starts  []int
}

func newLineIndex(content string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{content: content, starts: starts}
}

// position returns the 1-based line and column of a byte offset. Columns
// count characters, not bytes.
func (li lineIndex) position(offset int) (line, col int) {
	lo, hi := 0, len(li.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, utf8.RuneCountInString(li.content[li.starts[lo]:offset]) + 1
}

// lineText returns the text of a 1-based line without its newline.
func (li lineIndex) lineText(content string, line int) string {
	if line < 1 || line > len(li.starts) {
		return ""
	}
	start := li.starts[line-1]
	end := len(content)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	return strings.TrimSuffix(content[start:end], "\r")
}

func sortFunctions(fns []function) {
	sort.SliceStable(fns, func(i, j int) bool { return fns[i].Offset < fns[j].Offset })
}

func sortIdentifiers(ids []identifier) {
	sort.SliceStable(ids, func(i, j int) bool { return ids[i].Offset < ids[j].Offset })
}
