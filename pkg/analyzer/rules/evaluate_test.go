package rules

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/panbanda/qscore/internal/cache"
	"github.com/panbanda/qscore/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, files map[string]string, rules string, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithSource(source.NewMemory(files))}, opts...)
	e := NewEngine(opts...)
	require.True(t, e.LoadRulesFromBytes([]byte(`{"rules":[`+rules+`]}`)))
	require.True(t, e.ValidateRulesConfig().Valid, "%+v", e.ValidateRulesConfig().Rejected)
	return e
}

func TestEvaluate_PatternMatch(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"src/app.ts": "console.log('x')\nconst a = 1\n"},
		`{"id":"no-console","name":"No console","type":"pattern","severity":"warning","message":"Remove console.log","enabled":true,"pattern":"console\\.log"}`,
	)

	eval := e.Evaluate([]string{"src/app.ts"})

	require.Len(t, eval.Violations, 1)
	v := eval.Violations[0]
	assert.Equal(t, "no-console", v.RuleID)
	assert.Equal(t, "No console", v.RuleName)
	assert.Equal(t, SeverityWarning, v.Severity)
	assert.Equal(t, "src/app.ts", v.File)
	assert.Equal(t, 1, v.Line)
	assert.Equal(t, 1, v.Column)
	assert.Equal(t, "console.log", v.Evidence)
	assert.Equal(t, "Remove console.log", v.Message)
	assert.Equal(t, SeverityCounts{Warning: 1}, eval.ViolationsBySeverity)
	assert.Equal(t, -1.0, eval.ScoreAdjustment)
	assert.Equal(t, 1, eval.RulesApplied)
	assert.Equal(t, 1, eval.FilesEvaluated)
}

func TestEvaluate_PatternEveryMatchWithColumns(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.js": "let x = 1\n  TODO one; TODO two\n"},
		`{"id":"todo","type":"pattern","severity":"info","message":"todo","enabled":true,"pattern":"TODO"}`,
	)

	eval := e.Evaluate([]string{"a.js"})

	require.Len(t, eval.Violations, 2)
	assert.Equal(t, 2, eval.Violations[0].Line)
	assert.Equal(t, 3, eval.Violations[0].Column)
	assert.Equal(t, 2, eval.Violations[1].Line)
	assert.Equal(t, 13, eval.Violations[1].Column)
	assert.Equal(t, -1.0, eval.ScoreAdjustment)
}

func TestEvaluate_PatternExcludedLine(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "console.log('x') // allow-console\nconsole.log('y')\n"},
		`{"id":"no-console","type":"pattern","severity":"warning","message":"m","enabled":true,"pattern":"console\\.log","excludePatterns":["allow-console"]}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 1)
	assert.Equal(t, 2, eval.Violations[0].Line)
}

func TestEvaluate_ExcludedEverywhere(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "console.log('x') // ok\n"},
		`{"id":"no-console","type":"pattern","severity":"warning","message":"m","enabled":true,"pattern":"console\\.log","excludePatterns":["// ok"]}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	assert.Empty(t, eval.Violations)
	assert.Equal(t, 0.0, eval.ScoreAdjustment)
}

func TestEvaluate_FileExtensions(t *testing.T) {
	files := map[string]string{
		"a.ts":     "bad",
		"b.py":     "bad",
		"c.TSX":    "bad",
		"d.vue":    "bad",
		"Makefile": "bad",
	}

	t.Run("default extensions", func(t *testing.T) {
		e := newTestEngine(t, files,
			`{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"bad"}`)
		eval := e.Evaluate([]string{"a.ts", "b.py", "c.TSX", "d.vue", "Makefile"})
		assert.Len(t, eval.Violations, 2)
		assert.Equal(t, 2, eval.FilesEvaluated)
	})

	t.Run("rule extensions", func(t *testing.T) {
		e := newTestEngine(t, files,
			`{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"bad","fileExtensions":["vue","py"]}`)
		eval := e.Evaluate([]string{"a.ts", "b.py", "c.TSX", "d.vue", "Makefile"})
		require.Len(t, eval.Violations, 2)
		assert.Equal(t, "b.py", eval.Violations[0].File)
		assert.Equal(t, "d.vue", eval.Violations[1].File)
	})

	t.Run("engine default override", func(t *testing.T) {
		e := newTestEngine(t, files,
			`{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"bad"}`,
			WithDefaultExtensions([]string{"py"}))
		eval := e.Evaluate([]string{"a.ts", "b.py"})
		require.Len(t, eval.Violations, 1)
		assert.Equal(t, "b.py", eval.Violations[0].File)
	})
}

func TestEvaluate_DisabledRulesAreNotApplied(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "foo bar"},
		`{"id":"on","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"foo"},
		 {"id":"off","type":"pattern","severity":"critical","message":"m","enabled":false,"pattern":"bar"},
		 {"id":"quiet","type":"pattern","severity":"critical","message":"m","enabled":true,"pattern":"nothing-here"}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 1)
	assert.Equal(t, "on", eval.Violations[0].RuleID)
	assert.Equal(t, 2, eval.RulesApplied)
}

func TestEvaluate_RulesAppliedCountsOnlyExercisedRules(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "x"},
		`{"id":"ts","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"},
		 {"id":"py","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x","fileExtensions":[".py"]}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	assert.Equal(t, 1, eval.RulesApplied)
}

func TestEvaluate_UnreadableFileIsSkipped(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"present.ts": "debugger"},
		`{"id":"r","type":"pattern","severity":"critical","message":"m","enabled":true,"pattern":"debugger"}`,
	)

	eval := e.Evaluate([]string{"missing.ts", "present.ts"})

	require.Len(t, eval.Violations, 1)
	assert.Equal(t, "present.ts", eval.Violations[0].File)
	assert.Equal(t, 1, eval.FilesSkipped)
	assert.Equal(t, 1, eval.FilesEvaluated)
}

func TestEvaluate_InvalidRegexSkipsRule(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "foo(["},
		`{"id":"broken","type":"pattern","severity":"critical","message":"m","enabled":true,"pattern":"(["},
		 {"id":"ok","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"foo"},
		 {"id":"broken-naming","type":"naming","severity":"critical","message":"m","enabled":true,"nameType":"class","pattern":"*"}`,
	)

	var eval *Evaluation
	require.NotPanics(t, func() { eval = e.Evaluate([]string{"a.ts"}) })

	require.Len(t, eval.Violations, 1)
	assert.Equal(t, "ok", eval.Violations[0].RuleID)
	assert.Equal(t, 1, eval.RulesApplied, "rules with invalid regexes are never exercised")
}

func TestEvaluate_NoFiles(t *testing.T) {
	e := newTestEngine(t, nil,
		`{"id":"r","type":"pattern","severity":"critical","message":"m","enabled":true,"pattern":"x"}`)

	eval := e.Evaluate(nil)

	assert.NotNil(t, eval.Violations)
	assert.Empty(t, eval.Violations)
	assert.Equal(t, 0, eval.RulesApplied)
	assert.Equal(t, 0.0, eval.ScoreAdjustment)
}

func TestEvaluate_ComplexityLines(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		threshold int
		want      int
	}{
		{"under", "a\nb", 3, 0},
		{"equal", "a\nb\nc", 3, 0},
		{"over", "a\nb\nc\nd", 3, 1},
		{"trailing newline counts", "a\nb\nc\n", 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t,
				map[string]string{"a.ts": tt.content},
				`{"id":"long","type":"complexity","severity":"warning","message":"too long","enabled":true,"complexityType":"lines","threshold":`+strconv.Itoa(tt.threshold)+`}`,
			)
			eval := e.Evaluate([]string{"a.ts"})
			require.Len(t, eval.Violations, tt.want)
			if tt.want > 0 {
				assert.Contains(t, eval.Violations[0].Evidence, "4 lines")
			}
		})
	}
}

func TestEvaluate_ComplexityParameters(t *testing.T) {
	content := strings.Join([]string{
		"function many(a, b, c, d) {",
		"  return a",
		"}",
		"const arrow = (x, y) => x + y",
		"const wide = async (p1, p2, p3, p4, p5) => {",
		"  return p1",
		"}",
		"function none() {}",
	}, "\n")

	e := newTestEngine(t,
		map[string]string{"a.ts": content},
		`{"id":"params","type":"complexity","severity":"warning","message":"too many params","enabled":true,"complexityType":"parameters","threshold":3}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 2)
	assert.Equal(t, 1, eval.Violations[0].Line)
	assert.Contains(t, eval.Violations[0].Evidence, "many has 4 parameters")
	assert.Equal(t, 5, eval.Violations[1].Line)
	assert.Contains(t, eval.Violations[1].Evidence, "wide has 5 parameters")
}

func TestEvaluate_ComplexityNesting(t *testing.T) {
	content := "if (a) {\n  if (b) {\n    foo([1])\n  }\n}\n"

	t.Run("exceeded", func(t *testing.T) {
		e := newTestEngine(t,
			map[string]string{"a.ts": content},
			`{"id":"deep","type":"complexity","severity":"warning","message":"too deep","enabled":true,"complexityType":"nesting","threshold":3}`,
		)
		eval := e.Evaluate([]string{"a.ts"})
		require.Len(t, eval.Violations, 1)
		assert.Equal(t, 3, eval.Violations[0].Line)
		assert.Contains(t, eval.Violations[0].Evidence, "depth 4")
	})

	t.Run("within", func(t *testing.T) {
		e := newTestEngine(t,
			map[string]string{"a.ts": content},
			`{"id":"deep","type":"complexity","severity":"warning","message":"too deep","enabled":true,"complexityType":"nesting","threshold":4}`,
		)
		assert.Empty(t, e.Evaluate([]string{"a.ts"}).Violations)
	})
}

func TestEvaluate_ComplexityCyclomatic(t *testing.T) {
	content := strings.Join([]string{
		"function branchy(x) {",
		"  if (x) { return 1 } else if (x > 2) { return 2 }",
		"  return x ? 3 : 4",
		"}",
		"function chained(a) {",
		"  return a?.b ?? a?.c",
		"}",
		"function guarded(a, b) {",
		"  try { run() } catch (e) { return a && b || a }",
		"}",
	}, "\n")

	e := newTestEngine(t,
		map[string]string{"a.ts": content},
		`{"id":"cc","type":"complexity","severity":"critical","message":"too complex","enabled":true,"complexityType":"cyclomaticComplexity","threshold":3}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 2)
	assert.Equal(t, 1, eval.Violations[0].Line)
	assert.Contains(t, eval.Violations[0].Evidence, "branchy has cyclomatic complexity 5")
	assert.Equal(t, 8, eval.Violations[1].Line)
	assert.Contains(t, eval.Violations[1].Evidence, "guarded has cyclomatic complexity 4")
}

func TestEvaluate_ComplexityCyclomaticWithoutFunctions(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "if (a) {}\nwhile (b) {}\n"},
		`{"id":"cc","type":"complexity","severity":"critical","message":"m","enabled":true,"complexityType":"cyclomaticComplexity","threshold":2}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 1)
	assert.Equal(t, 0, eval.Violations[0].Line)
	assert.Contains(t, eval.Violations[0].Evidence, "complexity 3")
}

func TestEvaluate_Naming(t *testing.T) {
	tests := []struct {
		name     string
		nameType NameType
		pattern  string
		content  string
		want     []string
	}{
		{
			name:     "class",
			nameType: NameClass,
			pattern:  "^[A-Z]",
			content:  "class fooBar {}\nclass Good {}\n",
			want:     []string{"fooBar"},
		},
		{
			name:     "interface",
			nameType: NameInterface,
			pattern:  "^I[A-Z]",
			content:  "interface IUser {}\ninterface Props {}\n",
			want:     []string{"Props"},
		},
		{
			name:     "constant",
			nameType: NameConstant,
			pattern:  "^[A-Z][A-Z0-9_]*$",
			content:  "const MAX_SIZE = 1\nconst MaxCount = 2\nconst lower = 3\n",
			want:     []string{"MaxCount"},
		},
		{
			name:     "variable",
			nameType: NameVariable,
			pattern:  "^[a-z][A-Za-z0-9]*$",
			content:  "let count = 0\nvar snake_case = 1\nconst ok = 2\n",
			want:     []string{"snake_case"},
		},
		{
			name:     "function",
			nameType: NameFunction,
			pattern:  "^[a-z]",
			content:  "function Bad() {}\nfunction good() {}\nconst Arrow = () => 1\nconst single = x => x\nconst Single = x => x\n",
			want:     []string{"Bad", "Arrow", "Single"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t,
				map[string]string{"a.ts": tt.content},
				`{"id":"naming","type":"naming","severity":"info","message":"bad name","enabled":true,"nameType":"`+string(tt.nameType)+`","pattern":"`+tt.pattern+`"}`,
			)
			eval := e.Evaluate([]string{"a.ts"})

			var got []string
			for _, v := range eval.Violations {
				got = append(got, v.Evidence)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_NamingPosition(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "// header\nexport class fooBar {}\n"},
		`{"id":"naming","type":"naming","severity":"info","message":"m","enabled":true,"nameType":"class","pattern":"^[A-Z]"}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 1)
	assert.Equal(t, 2, eval.Violations[0].Line)
	assert.Equal(t, 14, eval.Violations[0].Column)
}

func TestEvaluate_NamingExcluded(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "class legacy_thing {}\nclass other_thing {}\n"},
		`{"id":"naming","type":"naming","severity":"info","message":"m","enabled":true,"nameType":"class","pattern":"^[A-Z]","excludePatterns":["^legacy_"]}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 1)
	assert.Equal(t, "other_thing", eval.Violations[0].Evidence)
}

func TestEvaluate_StructureMaxFileSize(t *testing.T) {
	big := strings.Repeat("x", 2048+102)
	e := newTestEngine(t,
		map[string]string{"big.ts": big, "small.ts": "x"},
		`{"id":"size","type":"structure","severity":"warning","message":"File too large","enabled":true,"check":"maxFileSize","threshold":1}`,
	)

	eval := e.Evaluate([]string{"big.ts", "small.ts"})

	require.Len(t, eval.Violations, 1)
	v := eval.Violations[0]
	assert.Equal(t, "big.ts", v.File)
	assert.Equal(t, "2.1KB", v.Evidence)
	assert.Contains(t, v.Message, "2.1KB")
	assert.True(t, strings.HasPrefix(v.Message, "File too large"))
}

func TestEvaluate_ProgressCallback(t *testing.T) {
	var ticks int
	e := newTestEngine(t,
		map[string]string{"a.ts": "x", "b.ts": "x"},
		`{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"}`,
		WithProgress(func() { ticks++ }),
	)

	e.Evaluate([]string{"a.ts", "b.ts", "c.py", "missing.ts"})

	assert.Equal(t, 4, ticks)
}

func TestEvaluate_CachedResultsMatch(t *testing.T) {
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	require.NoError(t, err)

	files := map[string]string{"a.ts": "console.log(1)\nconsole.log(2)\n"}
	rule := `{"id":"no-console","type":"pattern","severity":"warning","message":"m","enabled":true,"pattern":"console\\.log"}`

	first := newTestEngine(t, files, rule, WithCache(c)).Evaluate([]string{"a.ts"})
	second := newTestEngine(t, files, rule, WithCache(c)).Evaluate([]string{"a.ts"})

	require.Len(t, first.Violations, 2)
	assert.Equal(t, first.Violations, second.Violations)

	changed := map[string]string{"a.ts": "console.log(1)\n"}
	third := newTestEngine(t, changed, rule, WithCache(c)).Evaluate([]string{"a.ts"})
	assert.Len(t, third.Violations, 1)
}

func TestEvaluate_CacheRespectsDefaultExtensions(t *testing.T) {
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	require.NoError(t, err)

	files := map[string]string{"a.js": "eval(x)\n"}
	rules := `{"id":"any-ext","type":"pattern","severity":"warning","message":"m","enabled":true,"pattern":"eval"},
		{"id":"js-only","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"eval","fileExtensions":[".js"]}`

	first := newTestEngine(t, files, rules, WithCache(c)).Evaluate([]string{"a.js"})
	require.Len(t, first.Violations, 2)

	narrowed := newTestEngine(t, files, rules, WithCache(c), WithDefaultExtensions([]string{".ts"})).Evaluate([]string{"a.js"})
	uncached := newTestEngine(t, files, rules, WithDefaultExtensions([]string{".ts"})).Evaluate([]string{"a.js"})

	require.Len(t, narrowed.Violations, 1)
	assert.Equal(t, "js-only", narrowed.Violations[0].RuleID)
	assert.Equal(t, uncached.Violations, narrowed.Violations)
	assert.Equal(t, uncached.ScoreAdjustment, narrowed.ScoreAdjustment)
	assert.Equal(t, 1, narrowed.RulesApplied)
}

func TestEvaluate_ColumnsCountCharacters(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "é console.log(1)\n/* é */ const name = (a, b) => a\n"},
		`{"id":"no-console","type":"pattern","severity":"warning","message":"m","enabled":true,"pattern":"console\\.log"},
		 {"id":"max-params","type":"complexity","severity":"info","message":"m","enabled":true,"complexityType":"parameters","threshold":1}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	byRule := map[string]Violation{}
	for _, v := range eval.Violations {
		byRule[v.RuleID] = v
	}
	require.Len(t, byRule, 2)
	assert.Equal(t, 1, byRule["no-console"].Line)
	assert.Equal(t, 3, byRule["no-console"].Column)
	assert.Equal(t, 2, byRule["max-params"].Line)
	assert.Equal(t, 9, byRule["max-params"].Column)
}

func TestEvaluate_ParametersSeeEveryFunctionIdiom(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "function f(a, b, c, d) {}\nconst g = (a, b, c, d, e) => a\nconst h = x => x\n"},
		`{"id":"no-params","type":"complexity","severity":"info","message":"m","enabled":true,"complexityType":"parameters","threshold":0}`,
	)

	eval := e.Evaluate([]string{"a.ts"})

	require.Len(t, eval.Violations, 3)
	for i, line := range []int{1, 2, 3} {
		assert.Equal(t, line, eval.Violations[i].Line)
	}
	assert.Equal(t, "h has 1 parameters (threshold 0)", eval.Violations[2].Evidence)
}


func TestMerge_Batches(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{
			"a.ts": "console.log(1)\n",
			"b.ts": "console.log(2)\n// TODO\n",
			"c.ts": "const ok = true\n",
		},
		`{"id":"no-console","type":"pattern","severity":"critical","message":"m","enabled":true,"pattern":"console\\.log"},
		 {"id":"todo","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"TODO"}`,
	)

	whole := e.Evaluate([]string{"a.ts", "b.ts", "c.ts"})
	merged := Merge(e.Evaluate([]string{"a.ts"}), e.Evaluate([]string{"b.ts", "c.ts"}), nil)

	assert.Equal(t, whole.Violations, merged.Violations)
	assert.Equal(t, whole.ViolationsBySeverity, merged.ViolationsBySeverity)
	assert.Equal(t, whole.ScoreAdjustment, merged.ScoreAdjustment)
	assert.Equal(t, 2, merged.RulesApplied)
	assert.Equal(t, 3, merged.FilesEvaluated)
}

func TestMerge_Empty(t *testing.T) {
	merged := Merge()

	assert.NotNil(t, merged.Violations)
	assert.Zero(t, merged.RulesApplied)
	assert.Zero(t, merged.ScoreAdjustment)
}

func TestEvaluation_Summary(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"a.ts": "console.log(1)\nconsole.log(2)\n"},
		`{"id":"no-console","type":"pattern","severity":"warning","message":"m","enabled":true,"pattern":"console\\.log"}`,
	)

	s := e.Evaluate([]string{"a.ts"}).Summary()

	require.NotNil(t, s)
	assert.Equal(t, 1, s.RulesApplied)
	assert.Equal(t, 2, s.Violations)
	assert.Equal(t, 2, s.Warning)
	assert.Equal(t, -2.0, s.ScoreAdjustment)

	var nilEval *Evaluation
	assert.Nil(t, nilEval.Summary())
}
