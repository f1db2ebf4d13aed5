package entity

import "github.com/joseph-ayodele/biodata-tracker/constants"

// Preferences is a partial set of match criteria. Nil or empty members are unspecified.
type Preferences struct {
	Gender        *constants.Gender        `json:"gender,omitempty"`
	MinAge        *int                     `json:"min_age,omitempty"`
	MaxAge        *int                     `json:"max_age,omitempty"`
	Religion      string                   `json:"religion,omitempty"`
	Caste         string                   `json:"caste,omitempty"`
	Education     string                   `json:"education,omitempty"`
	Occupation    string                   `json:"occupation,omitempty"`
	Location      string                   `json:"location,omitempty"`
	MaritalStatus *constants.MaritalStatus `json:"marital_status,omitempty"`
}

// Empty reports whether no criterion is specified.
func (p Preferences) Empty() bool {
	return p.Gender == nil && p.MinAge == nil && p.MaxAge == nil &&
		p.Religion == "" && p.Caste == "" && p.Education == "" &&
		p.Occupation == "" && p.Location == "" && p.MaritalStatus == nil
}

// MatchResult is one ranked candidate. It is never persisted.
type MatchResult struct {
	Profile         *Profile `json:"profile"`
	SimilarityScore float64  `json:"similarity_score"`
	MatchReasons    []string `json:"match_reasons"`
}

// SearchStats aggregates approved profiles.
type SearchStats struct {
	Total      int            `json:"total"`
	ByGender   map[string]int `json:"by_gender"`
	ByReligion map[string]int `json:"by_religion"`
	ByLocation map[string]int `json:"by_location"`
	MinAge     *int           `json:"min_age,omitempty"`
	MaxAge     *int           `json:"max_age,omitempty"`
}

// ProfilePage is one page of a profile listing.
type ProfilePage struct {
	Items    []*Profile `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
