package extract

import (
	"encoding/json"
	"log/slog"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// ParseReply turns a provider's text reply into a Result: isolate the JSON object,
// sanitize it, validate it against the biodata schema and score its coverage.
// Malformed replies are provider errors.
func ParseReply(content, model string, logger *slog.Logger) (Result, error) {
	raw, err := IsolateJSON(content)
	if err != nil {
		return Result{}, Errorf(KindProviderError, "malformed response: %v", err)
	}
	cleaned, _, err := NormalizeAndSanitizeJSON(raw, logger)
	if err != nil {
		return Result{}, Errorf(KindProviderError, "malformed response: %v", err)
	}
	if err := ValidateFieldsJSON(cleaned); err != nil {
		return Result{}, Errorf(KindProviderError, "schema validation failed: %v", err)
	}
	fields, err := FieldsFromJSON(cleaned)
	if err != nil {
		return Result{}, Errorf(KindProviderError, "unmarshal fields: %v", err)
	}
	return Result{
		Fields:     fields,
		Confidence: Coverage(fields),
		RawText:    content,
		Model:      model,
	}, nil
}

// FieldsFromJSON decodes sanitized field JSON.
func FieldsFromJSON(b []byte) (entity.Fields, error) {
	var f entity.Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return f, err
	}
	return f, nil
}
