package profiles

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
)

// MergeFields applies updates over current and validates the result. A nil
// value clears the field. Unknown field names and values that do not match
// the biodata schema are rejected.
func MergeFields(current entity.Fields, updates map[string]any) (entity.Fields, error) {
	var unknown []string
	for k := range updates {
		if !entity.IsField(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return entity.Fields{}, common.InvalidInputf("unknown fields: %s", strings.Join(unknown, ", "))
	}

	merged := current.Map()
	for k, v := range updates {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = canonicalize(k, v)
	}

	b, err := json.Marshal(merged)
	if err != nil {
		return entity.Fields{}, common.InvalidInputf("encode fields: %v", err)
	}
	if err := extract.ValidateFieldsJSON(b); err != nil {
		return entity.Fields{}, common.InvalidInputf("%v", err)
	}
	fields, err := entity.FieldsFromMap(merged)
	if err != nil {
		return entity.Fields{}, common.InvalidInputf("%v", err)
	}
	return fields, nil
}

// canonicalize maps enum synonyms ("F", "unmarried") to their stored form.
func canonicalize(key string, v any) any {
	str, ok := v.(string)
	if !ok {
		return v
	}
	switch key {
	case "gender":
		if g, ok := constants.CanonicalGender(str); ok {
			return string(g)
		}
	case "marital_status":
		if m, ok := constants.CanonicalMaritalStatus(str); ok {
			return string(m)
		}
	}
	return v
}
