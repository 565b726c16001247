package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildLabReportJSONSchema returns the JSON-Schema the extraction response
// must satisfy. Values may be null (blurry or cut-off report regions);
// category values are deliberately unconstrained objects so that a single
// malformed category degrades tolerantly instead of failing the document.
func BuildLabReportJSONSchema() map[string]any {
	strOrNull := func() map[string]any {
		return map[string]any{"type": []string{"string", "null"}}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hospital_info": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        strOrNull(),
					"report_type": strOrNull(),
				},
			},
			"patient_info": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":             strOrNull(),
					"id":               strOrNull(),
					"age_sex":          strOrNull(),
					"sample_date":      strOrNull(),
					"referring_doctor": strOrNull(),
				},
			},
			"biochemistry_results": map[string]any{
				"type": "object",
			},
		},
		"required": []string{"hospital_info", "patient_info", "biochemistry_results"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
