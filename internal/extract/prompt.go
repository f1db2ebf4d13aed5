package extract

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// SystemPrompt instructs the model to read a biodata document and emit schema JSON.
func SystemPrompt() string {
	parts := []string{
		"You are a matrimonial biodata parser. Read the attached document (scan or photo) and return ONLY a JSON object.",
		"Use exactly these keys: " + strings.Join(entity.FieldNames, ", ") + ".",
		"'age' is an integer number of years; compute it from the date of birth if only that is given.",
		"'gender' is one of male, female, other. 'marital_status' is one of single, married, divorced, widowed.",
		"Copy values as written; do not translate names or places.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// UserPrompt carries the filename hint and the schema.
func UserPrompt(filename string) string {
	var b strings.Builder
	b.WriteString("Filename: ")
	b.WriteString(filename)
	b.WriteString("\n\nJSON Schema:\n")
	b.WriteString(mustJSON(BuildBiodataJSONSchema()))
	b.WriteString("\n\nReturn ONLY JSON that matches the schema.")
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
