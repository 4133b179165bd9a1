package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ruleSchema describes a single custom rule. Variant requirements are
// expressed with if/then so a rule of one type only needs its own fields.
const ruleSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "type", "severity", "message", "enabled"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "description": {"type": "string"},
    "type": {"enum": ["pattern", "complexity", "naming", "structure"]},
    "severity": {"enum": ["critical", "warning", "info"]},
    "message": {"type": "string"},
    "enabled": {"type": "boolean"},
    "excludePatterns": {"type": "array", "items": {"type": "string"}},
    "fileExtensions": {"type": "array", "items": {"type": "string"}},
    "pattern": {"type": "string", "minLength": 1},
    "complexityType": {"enum": ["lines", "parameters", "nesting", "cyclomaticComplexity"]},
    "nameType": {"enum": ["function", "variable", "class", "constant", "interface"]},
    "check": {"enum": ["maxFileSize"]},
    "threshold": {"type": "number"}
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"const": "pattern"}}, "required": ["type"]},
      "then": {"required": ["pattern"]}
    },
    {
      "if": {"properties": {"type": {"const": "complexity"}}, "required": ["type"]},
      "then": {"required": ["complexityType", "threshold"]}
    },
    {
      "if": {"properties": {"type": {"const": "naming"}}, "required": ["type"]},
      "then": {"required": ["nameType", "pattern"]}
    },
    {
      "if": {"properties": {"type": {"const": "structure"}}, "required": ["type"]},
      "then": {"required": ["check", "threshold"]}
    }
  ]
}`

const ruleSchemaURL = "rule.json"

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

// schema returns the compiled rule schema.
func schema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(ruleSchema))
		if err != nil {
			compiledSchemaErr = fmt.Errorf("parse rule schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(ruleSchemaURL, doc); err != nil {
			compiledSchemaErr = fmt.Errorf("add rule schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = c.Compile(ruleSchemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// validateRule checks one decoded rule object against the schema.
func validateRule(v any) error {
	sch, err := schema()
	if err != nil {
		return err
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%s", flattenValidationError(err))
	}
	return nil
}

// flattenValidationError joins a multi-line validation message into one line.
func flattenValidationError(err error) string {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	parts := make([]string, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		// first line is the generic "validation failed" header
		if i == 0 && len(lines) > 1 {
			continue
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}
