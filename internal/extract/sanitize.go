package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

var (
	reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)
	reLeadingInt = regexp.MustCompile(`\d{1,3}`)
	keyReplacer  = strings.NewReplacer(" ", "_", "-", "_")
)

// synonyms maps labels models commonly emit onto schema names.
var synonyms = map[string]string{
	"full_name":     "name",
	"dob":           "date_of_birth",
	"birth_date":    "date_of_birth",
	"qualification": "education",
	"profession":    "occupation",
	"job":           "occupation",
	"salary":        "income",
	"annual_income": "income",
	"employer":      "company",
	"father":        "father_name",
	"mother":        "mother_name",
	"native":        "native_place",
	"hometown":      "native_place",
	"city":          "current_city",
	"location":      "current_city",
	"sub_caste":     "subcaste",
	"rasi":          "rashi",
	"zodiac":        "rashi",
	"star":          "nakshatra",
	"mangal_dosha":  "manglik",
	"phone":         "contact_number",
	"mobile":        "contact_number",
	"contact":       "contact_number",
	"email_id":      "email",
	"marital":       "marital_status",
	"expectations":  "partner_preferences",
	"preferences":   "partner_preferences",
	"about_me":      "about",
	"interests":     "hobbies",
}

var nullish = map[string]struct{}{
	"": {}, "null": {}, "none": {}, "n/a": {}, "na": {}, "-": {}, "unknown": {}, "not mentioned": {},
}

// IsolateJSON returns the outermost JSON object found in a model reply,
// tolerating markdown fences and surrounding prose.
func IsolateJSON(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	m := reJSONObject.FindString(s)
	if m == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	return []byte(m), nil
}

// NormalizeAndSanitizeJSON
// - Renames known synonyms (phone -> contact_number)
// - Drops null/empty values and unknown keys
// - Coerces age to an integer and scalars to strings
// - Canonicalizes gender and marital_status, dropping values it cannot map
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var in map[string]any
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	m := make(map[string]any, len(in))

	// 1) normalize keys, then rename synonyms without overwriting canonical keys
	renames := make(map[string]any)
	for k, v := range in {
		key := keyReplacer.Replace(strings.ToLower(strings.TrimSpace(k)))
		if to, ok := synonyms[key]; ok {
			renames[to] = v
			continue
		}
		m[key] = v
	}
	for to, v := range renames {
		if _, exists := m[to]; exists {
			dropped = append(dropped, to+"(duplicate)")
			continue
		}
		m[to] = v
	}

	// 2) remove unknown keys
	for k := range maps.Clone(m) {
		if !entity.IsField(k) {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// 3) flatten values to strings, dropping nullish ones
	for k, v := range maps.Clone(m) {
		s, ok := flatten(v)
		if !ok {
			delete(m, k)
			dropped = append(dropped, k+"(type)")
			continue
		}
		if _, isNull := nullish[strings.ToLower(s)]; isNull {
			delete(m, k)
			dropped = append(dropped, k+"(empty)")
			continue
		}
		m[k] = s
	}

	// 4) typed fields
	if v, ok := m["age"].(string); ok {
		if age, ok := parseAge(v); ok {
			m["age"] = age
		} else {
			delete(m, "age")
			dropped = append(dropped, "age(range)")
		}
	}
	if v, ok := m["gender"].(string); ok {
		if g, ok := constants.CanonicalGender(v); ok {
			m["gender"] = string(g)
		} else {
			delete(m, "gender")
			dropped = append(dropped, "gender(enum)")
		}
	}
	if v, ok := m["marital_status"].(string); ok {
		if ms, ok := constants.CanonicalMaritalStatus(v); ok {
			m["marital_status"] = string(ms)
		} else {
			delete(m, "marital_status")
			dropped = append(dropped, "marital_status(enum)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func flatten(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		if t {
			return "yes", true
		}
		return "no", true
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", "), true
	default:
		return "", false
	}
}

func parseAge(s string) (int, bool) {
	n, err := strconv.Atoi(reLeadingInt.FindString(s))
	if err != nil || n < 16 || n > 120 {
		return 0, false
	}
	return n, true
}
