package entity

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/joseph-ayodele/biodata-tracker/constants"
)

// Profile is one biodata record as stored and validated.
type Profile struct {
	ID               string              `json:"id"`
	Fields           Fields              `json:"fields"`
	OCRStatus        constants.OCRStatus `json:"ocr_status"`
	OCRConfidence    *float64            `json:"ocr_confidence,omitempty"`
	SourceFile       string              `json:"source_file,omitempty"`
	OriginalFilename string              `json:"original_filename,omitempty"`
	RawOCRText       string              `json:"raw_ocr_text,omitempty"`
	Version          int64               `json:"version"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Fields = p.Fields.Clone()
	if p.OCRConfidence != nil {
		c := *p.OCRConfidence
		out.OCRConfidence = &c
	}
	return &out
}

// Fields is the fixed schema of optional biodata attributes.
type Fields struct {
	Name         *string                  `json:"name,omitempty"`
	Age          *int                     `json:"age,omitempty"`
	Gender       *constants.Gender        `json:"gender,omitempty"`
	DateOfBirth  *string                  `json:"date_of_birth,omitempty"`
	Height       *string                  `json:"height,omitempty"`
	Weight       *string                  `json:"weight,omitempty"`
	Complexion   *string                  `json:"complexion,omitempty"`
	BloodGroup   *string                  `json:"blood_group,omitempty"`
	Education    *string                  `json:"education,omitempty"`
	Occupation   *string                  `json:"occupation,omitempty"`
	Income       *string                  `json:"income,omitempty"`
	Company      *string                  `json:"company,omitempty"`
	FatherName   *string                  `json:"father_name,omitempty"`
	FatherOccup  *string                  `json:"father_occupation,omitempty"`
	MotherName   *string                  `json:"mother_name,omitempty"`
	MotherOccup  *string                  `json:"mother_occupation,omitempty"`
	Siblings     *string                  `json:"siblings,omitempty"`
	NativePlace  *string                  `json:"native_place,omitempty"`
	CurrentCity  *string                  `json:"current_city,omitempty"`
	State        *string                  `json:"state,omitempty"`
	Country      *string                  `json:"country,omitempty"`
	Religion     *string                  `json:"religion,omitempty"`
	Caste        *string                  `json:"caste,omitempty"`
	Subcaste     *string                  `json:"subcaste,omitempty"`
	Gotra        *string                  `json:"gotra,omitempty"`
	Rashi        *string                  `json:"rashi,omitempty"`
	Nakshatra    *string                  `json:"nakshatra,omitempty"`
	Manglik      *string                  `json:"manglik,omitempty"`
	Contact      *string                  `json:"contact_number,omitempty"`
	Email        *string                  `json:"email,omitempty"`
	Marital      *constants.MaritalStatus `json:"marital_status,omitempty"`
	PartnerPrefs *string                  `json:"partner_preferences,omitempty"`
	Hobbies      *string                  `json:"hobbies,omitempty"`
	About        *string                  `json:"about,omitempty"`
}

// FieldNames lists the JSON names of every Fields attribute in declaration order.
var FieldNames = fieldNames()

var fieldSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FieldNames))
	for _, n := range FieldNames {
		m[n] = struct{}{}
	}
	return m
}()

func fieldNames() []string {
	t := reflect.TypeOf(Fields{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		out = append(out, name)
	}
	return out
}

// IsField reports whether name is a known biodata field.
func IsField(name string) bool {
	_, ok := fieldSet[name]
	return ok
}

// Map returns the populated fields keyed by JSON name.
func (f Fields) Map() map[string]any {
	b, err := json.Marshal(f)
	if err != nil {
		return map[string]any{}
	}
	m := map[string]any{}
	_ = json.Unmarshal(b, &m)
	for k, v := range m {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			delete(m, k)
		}
	}
	return m
}

// FieldsFromMap decodes a JSON-shaped map into Fields.
func FieldsFromMap(m map[string]any) (Fields, error) {
	var f Fields
	b, err := json.Marshal(m)
	if err != nil {
		return f, fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("decode fields: %w", err)
	}
	return f, nil
}

// Filled counts populated fields.
func (f Fields) Filled() int {
	return len(f.Map())
}

// Clone deep-copies all pointer fields. Values are copied as stored, blank
// strings included.
func (f Fields) Clone() Fields {
	out := f
	v := reflect.ValueOf(&out).Elem()
	for i := 0; i < v.NumField(); i++ {
		fv := v.Field(i)
		if fv.Kind() != reflect.Pointer || fv.IsNil() {
			continue
		}
		cp := reflect.New(fv.Type().Elem())
		cp.Elem().Set(fv.Elem())
		fv.Set(cp)
	}
	return out
}

// Location joins the city, state and country parts that are present.
func (f Fields) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []*string{f.CurrentCity, f.State, f.Country} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, ", ")
}

// Str dereferences an optional string.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
