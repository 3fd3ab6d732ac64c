package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jarnaud/docfields/constants"
)

// BuildResultJSONSchema returns the JSON-Schema (draft 2020-12 subset) of a
// serialized ExtractionResult, as a generic map. Downstream consumers (review
// UI, persistence) rely on this exact shape.
func BuildResultJSONSchema() map[string]any {
	fieldProps := make(map[string]any, len(constants.AllFields))
	required := make([]any, 0, len(constants.AllFields))
	for _, f := range constants.AllFields {
		fieldProps[string(f)] = fieldProp(f)
		required = append(required, string(f))
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"run_id": map[string]any{"type": "string", "minLength": 36, "maxLength": 36},
			"module": map[string]any{
				"type": "string",
				"enum": []any{"invoice", "expense", "tender", "table"},
			},
			"field_set": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           fieldProps,
				"required":             required,
			},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"totals_ok":  map[string]any{"type": "boolean"},
			"trace": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"step": map[string]any{"type": "string", "minLength": 1},
						"status": map[string]any{
							"type": "string",
							"enum": []any{"start", "success", "failed", "no_match", "partial"},
						},
						"metrics": map[string]any{"type": "object"},
					},
					"required": []any{"step", "status"},
				},
			},
		},
		"required": []any{"run_id", "module", "field_set", "confidence", "totals_ok", "trace"},
	}
}

func fieldProp(f constants.Field) map[string]any {
	switch f {
	case constants.FieldHT, constants.FieldTVAAmount, constants.FieldTTC,
		constants.FieldNetToPay, constants.FieldTenderBudget:
		return map[string]any{"type": []any{"number", "null"}}
	case constants.FieldTVAPct:
		return map[string]any{"type": []any{"number", "null"}, "minimum": 0.0, "maximum": 100.0}
	case constants.FieldDocumentDate, constants.FieldTenderDeadline:
		return map[string]any{"type": []any{"string", "null"}, "pattern": `^\d{4}-\d{2}-\d{2}$`}
	default:
		return map[string]any{"type": []any{"string", "null"}}
	}
}

// ValidateResultJSON validates a serialized ExtractionResult against the
// output contract.
func ValidateResultJSON(data []byte) error {
	return validateAgainst(BuildResultJSONSchema(), data)
}

func validateAgainst(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
