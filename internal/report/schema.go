// Package report renders triage results as JSON records and writes them out.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildResultJSONSchema returns the JSON schema of a published result record.
// Every field name must be present in extractedFields, as a string or null.
func BuildResultJSONSchema(fieldNames, routes []string) map[string]any {
	fieldProps := make(map[string]any, len(fieldNames))
	for _, n := range fieldNames {
		fieldProps[n] = map[string]any{"type": []string{"string", "null"}}
	}
	route := map[string]any{"type": "string"}
	if len(routes) > 0 {
		route["enum"] = routes
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"inputFile": map[string]any{"type": "string", "minLength": 1},
			"extractedFields": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           fieldProps,
				"required":             fieldNames,
			},
			"missingFields": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "enum": fieldNames},
				"uniqueItems": true,
			},
			"recommendedRoute": route,
			"reasoning":        map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"inputFile", "extractedFields", "missingFields", "recommendedRoute", "reasoning"},
	}
}

// CompileSchema compiles a schema map for repeated validation.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("result.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJSONAgainstSchema validates "data" against a compiled schema.
func ValidateJSONAgainstSchema(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
