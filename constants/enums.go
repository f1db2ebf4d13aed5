package constants

import (
	"strings"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Opposite returns the complementary gender used for reference-profile matching.
func (g Gender) Opposite() (Gender, bool) {
	switch g {
	case GenderMale:
		return GenderFemale, true
	case GenderFemale:
		return GenderMale, true
	}
	return "", false
}

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

var genderSynonyms = map[string]Gender{
	"male":   GenderMale,
	"m":      GenderMale,
	"man":    GenderMale,
	"boy":    GenderMale,
	"groom":  GenderMale,
	"female": GenderFemale,
	"f":      GenderFemale,
	"woman":  GenderFemale,
	"girl":   GenderFemale,
	"bride":  GenderFemale,
	"other":  GenderOther,
}

var maritalSynonyms = map[string]MaritalStatus{
	"single":        MaritalSingle,
	"unmarried":     MaritalSingle,
	"never married": MaritalSingle,
	"bachelor":      MaritalSingle,
	"married":       MaritalMarried,
	"divorced":      MaritalDivorced,
	"divorcee":      MaritalDivorced,
	"separated":     MaritalDivorced,
	"widowed":       MaritalWidowed,
	"widow":         MaritalWidowed,
	"widower":       MaritalWidowed,
}

// CanonicalGender maps free-form labels ("Boy", "F") onto the Gender enum.
func CanonicalGender(input string) (Gender, bool) {
	g, ok := genderSynonyms[strings.ToLower(strings.TrimSpace(input))]
	return g, ok
}

// CanonicalMaritalStatus maps free-form labels onto the MaritalStatus enum.
func CanonicalMaritalStatus(input string) (MaritalStatus, bool) {
	m, ok := maritalSynonyms[strings.ToLower(strings.TrimSpace(input))]
	return m, ok
}
