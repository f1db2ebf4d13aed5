package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// BuildBiodataJSONSchema returns the JSON Schema every field map must satisfy, both
// provider output and operator edits. All properties are optional and nullable.
func BuildBiodataJSONSchema() map[string]any {
	props := make(map[string]any, len(entity.FieldNames))
	for _, name := range entity.FieldNames {
		props[name] = map[string]any{"type": []string{"string", "null"}, "maxLength": 2000}
	}
	props["age"] = map[string]any{"type": []string{"integer", "null"}, "minimum": 16, "maximum": 120}
	props["gender"] = map[string]any{"enum": []any{
		string(constants.GenderMale), string(constants.GenderFemale), string(constants.GenderOther), nil,
	}}
	props["marital_status"] = map[string]any{"enum": []any{
		string(constants.MaritalSingle), string(constants.MaritalMarried),
		string(constants.MaritalDivorced), string(constants.MaritalWidowed), nil,
	}}
	props["email"] = map[string]any{"type": []string{"string", "null"}, "maxLength": 320}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema(BuildBiodataJSONSchema())
})

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("biodata.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("biodata.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateFieldsJSON validates data against the biodata schema.
func ValidateFieldsJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return ValidateFieldsValue(v)
}

// ValidateFieldsValue validates an already decoded JSON value against the biodata schema.
func ValidateFieldsValue(v any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
