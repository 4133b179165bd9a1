package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules_MissingFile(t *testing.T) {
	e := NewEngine()

	ok := e.LoadRules(filepath.Join(t.TempDir(), "nope.json"))

	assert.False(t, ok)
	assert.Empty(t, e.Rules())
	assert.False(t, e.ValidateRulesConfig().Loaded)
	assert.NotEmpty(t, e.ValidateRulesConfig().Error)
}

func TestLoadRules_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rules":[
		{"id":"no-console","type":"pattern","severity":"warning","message":"no console","enabled":true,"pattern":"console\\.log"}
	]}`), 0o644))

	e := NewEngine()
	require.True(t, e.LoadRules(path))

	rules := e.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "no-console", rules[0].ID)
	assert.Equal(t, PatternCheck{Pattern: `console\.log`}, rules[0].Check)
	assert.NotEmpty(t, e.Fingerprint())
}

func TestLoadRulesFromBytes_MalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"invalid json", `{"rules": [`},
		{"not an object", `[1, 2, 3]`},
		{"missing rules array", `{"other": []}`},
		{"rules not an array", `{"rules": {}}`},
		{"empty input", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			assert.False(t, e.LoadRulesFromBytes([]byte(tt.doc)))
			assert.Empty(t, e.Rules())
			assert.Empty(t, e.Fingerprint())
		})
	}
}

func TestLoadRulesFromBytes_FailedReloadClearsRules(t *testing.T) {
	e := NewEngine()
	require.True(t, e.LoadRulesFromBytes([]byte(`{"rules":[
		{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"}
	]}`)))
	require.Len(t, e.Rules(), 1)

	assert.False(t, e.LoadRulesFromBytes([]byte(`not json`)))
	assert.Empty(t, e.Rules())
}

func TestLoadRulesFromBytes_SchemaValidation(t *testing.T) {
	tests := []struct {
		name  string
		rule  string
		valid bool
	}{
		{
			name:  "valid pattern",
			rule:  `{"id":"a","type":"pattern","severity":"critical","message":"m","enabled":true,"pattern":"x"}`,
			valid: true,
		},
		{
			name: "pattern without pattern",
			rule: `{"id":"a","type":"pattern","severity":"critical","message":"m","enabled":true}`,
		},
		{
			name:  "valid complexity",
			rule:  `{"id":"a","type":"complexity","severity":"warning","message":"m","enabled":true,"complexityType":"lines","threshold":300}`,
			valid: true,
		},
		{
			name: "complexity without threshold",
			rule: `{"id":"a","type":"complexity","severity":"warning","message":"m","enabled":true,"complexityType":"lines"}`,
		},
		{
			name: "complexity with unknown complexityType",
			rule: `{"id":"a","type":"complexity","severity":"warning","message":"m","enabled":true,"complexityType":"depth","threshold":3}`,
		},
		{
			name:  "valid naming",
			rule:  `{"id":"a","type":"naming","severity":"info","message":"m","enabled":true,"nameType":"class","pattern":"^[A-Z]"}`,
			valid: true,
		},
		{
			name: "naming without nameType",
			rule: `{"id":"a","type":"naming","severity":"info","message":"m","enabled":true,"pattern":"^[A-Z]"}`,
		},
		{
			name:  "valid structure",
			rule:  `{"id":"a","type":"structure","severity":"info","message":"m","enabled":false,"check":"maxFileSize","threshold":10}`,
			valid: true,
		},
		{
			name: "structure without check",
			rule: `{"id":"a","type":"structure","severity":"info","message":"m","enabled":true,"threshold":10}`,
		},
		{
			name: "unknown severity",
			rule: `{"id":"a","type":"pattern","severity":"error","message":"m","enabled":true,"pattern":"x"}`,
		},
		{
			name: "unknown type",
			rule: `{"id":"a","type":"regex","severity":"info","message":"m","enabled":true,"pattern":"x"}`,
		},
		{
			name: "missing enabled",
			rule: `{"id":"a","type":"pattern","severity":"info","message":"m","pattern":"x"}`,
		},
		{
			name: "missing id",
			rule: `{"type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"}`,
		},
		{
			name: "threshold is a string",
			rule: `{"id":"a","type":"complexity","severity":"info","message":"m","enabled":true,"complexityType":"lines","threshold":"10"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			require.True(t, e.LoadRulesFromBytes([]byte(`{"rules":[`+tt.rule+`]}`)))

			v := e.ValidateRulesConfig()
			assert.True(t, v.Loaded)
			assert.Equal(t, 1, v.Total)
			assert.Equal(t, tt.valid, v.Valid)
			if tt.valid {
				assert.Len(t, e.Rules(), 1)
				assert.Empty(t, v.Rejected)
			} else {
				assert.Empty(t, e.Rules())
				require.Len(t, v.Rejected, 1)
				assert.Equal(t, 0, v.Rejected[0].Index)
				assert.NotEmpty(t, v.Rejected[0].Reason)
			}
		})
	}
}

func TestLoadRulesFromBytes_KeepsValidRulesAlongsideInvalid(t *testing.T) {
	e := NewEngine()
	ok := e.LoadRulesFromBytes([]byte(`{"rules":[
		{"id":"good","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"},
		{"id":"bad","type":"pattern","severity":"info","message":"m","enabled":true},
		{"id":"good","type":"pattern","severity":"critical","message":"dup","enabled":true,"pattern":"y"}
	]}`))
	require.True(t, ok)

	rules := e.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, SeverityInfo, rules[0].Severity, "first rule with a duplicated id wins")

	v := e.ValidateRulesConfig()
	assert.False(t, v.Valid)
	assert.Equal(t, 3, v.Total)
	assert.Equal(t, 1, v.Accepted)
	require.Len(t, v.Rejected, 2)
	assert.Equal(t, "bad", v.Rejected[0].ID)
	assert.Equal(t, "duplicate rule id", v.Rejected[1].Reason)
}

func TestLoadRulesFromBytes_DecodesVariants(t *testing.T) {
	e := NewEngine()
	require.True(t, e.LoadRulesFromBytes([]byte(`{"rules":[
		{"id":"p","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x","fileExtensions":["TS","js"]},
		{"id":"c","type":"complexity","severity":"info","message":"m","enabled":true,"complexityType":"nesting","threshold":4},
		{"id":"n","type":"naming","severity":"info","message":"m","enabled":true,"nameType":"interface","pattern":"^I"},
		{"id":"s","type":"structure","severity":"info","message":"m","enabled":true,"check":"maxFileSize","threshold":12.5}
	]}`)))

	rules := e.Rules()
	require.Len(t, rules, 4)
	assert.Equal(t, []string{".ts", ".js"}, rules[0].FileExtensions)
	assert.Equal(t, ComplexityCheck{Type: ComplexityNesting, Threshold: 4}, rules[1].Check)
	assert.Equal(t, NamingCheck{NameType: NameInterface, Pattern: "^I"}, rules[2].Check)
	assert.Equal(t, StructureCheck{Check: StructureMaxFileSize, Threshold: 12.5}, rules[3].Check)

	kinds := make([]Kind, 0, len(rules))
	for _, r := range rules {
		kinds = append(kinds, r.Check.Kind())
	}
	assert.Equal(t, []Kind{KindPattern, KindComplexity, KindNaming, KindStructure}, kinds)
}

func TestFingerprint_ChangesWithRules(t *testing.T) {
	a := NewEngine()
	require.True(t, a.LoadRulesFromBytes([]byte(`{"rules":[
		{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"}
	]}`)))
	b := NewEngine()
	require.True(t, b.LoadRulesFromBytes([]byte(`{"rules":[
		{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"y"}
	]}`)))
	c := NewEngine()
	require.True(t, c.LoadRulesFromBytes([]byte(`{"rules":[
		{"id":"r","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"}
	]}`)))

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}

func TestEnabledRules(t *testing.T) {
	e := NewEngine()
	require.True(t, e.LoadRulesFromBytes([]byte(`{"rules":[
		{"id":"on","type":"pattern","severity":"info","message":"m","enabled":true,"pattern":"x"},
		{"id":"off","type":"pattern","severity":"info","message":"m","enabled":false,"pattern":"x"}
	]}`)))

	enabled := e.EnabledRules()
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].ID)
	assert.Len(t, e.Rules(), 2)
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Nil(t, normalizeExtensions(nil))
	assert.Equal(t, []string{".ts", ".jsx", ".vue"}, normalizeExtensions([]string{"ts", ".JSX", " vue ", ""}))
}

func TestRule_DisplayNameAndExtensions(t *testing.T) {
	r := Rule{ID: "id-only"}
	assert.Equal(t, "id-only", r.DisplayName())
	assert.Equal(t, DefaultFileExtensions, r.Extensions())

	r.Name = "Readable"
	r.FileExtensions = []string{".vue"}
	assert.Equal(t, "Readable", r.DisplayName())
	assert.Equal(t, []string{".vue"}, r.Extensions())
}
