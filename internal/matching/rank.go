package matching

import (
	"fmt"
	"sort"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// Engine scores profiles against preferences. It holds no state besides its
// configuration and is safe for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

type criterion struct {
	weight float64
	score  float64
	reason string
}

// Rank scores every approved candidate other than excludeID, drops those
// scoring zero, and returns the best limit results ordered by score then id.
// Empty preferences rank nothing.
func (e *Engine) Rank(prefs entity.Preferences, candidates []*entity.Profile, limit int, excludeID string) []entity.MatchResult {
	out := []entity.MatchResult{}
	if prefs.Empty() {
		return out
	}
	for _, c := range candidates {
		if c == nil || c.OCRStatus != constants.OCRStatusApproved || (excludeID != "" && c.ID == excludeID) {
			continue
		}
		score, reasons := e.Score(prefs, c.Fields)
		if score <= 0 {
			continue
		}
		out = append(out, entity.MatchResult{Profile: c, SimilarityScore: score, MatchReasons: reasons})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SimilarityScore != out[j].SimilarityScore {
			return out[i].SimilarityScore > out[j].SimilarityScore
		}
		return out[i].Profile.ID < out[j].Profile.ID
	})
	if n := e.cfg.clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out
}

// Score is the weighted mean of the specified criteria, plus the reasons for
// criteria at or above the reason threshold in canonical order.
func (e *Engine) Score(prefs entity.Preferences, f entity.Fields) (float64, []string) {
	var total, weights float64
	reasons := []string{}
	for _, c := range e.criteria(prefs, f) {
		weights += c.weight
		total += c.weight * c.score
		if c.score >= e.cfg.ReasonThreshold && c.score > 0 {
			reasons = append(reasons, c.reason)
		}
	}
	if weights == 0 {
		return 0, reasons
	}
	return total / weights, reasons
}

func (e *Engine) criteria(p entity.Preferences, f entity.Fields) []criterion {
	w := e.cfg.Weights
	var out []criterion

	if p.Gender != nil {
		c := criterion{weight: w.Gender}
		if f.Gender != nil && equalFold(string(*p.Gender), string(*f.Gender)) {
			c.score = 1
			c.reason = fmt.Sprintf("Gender: %s", *f.Gender)
		}
		out = append(out, c)
	}
	if p.MinAge != nil || p.MaxAge != nil {
		c := criterion{weight: w.Age}
		if f.Age != nil {
			c.score = e.ageScore(*f.Age, p.MinAge, p.MaxAge)
			c.reason = fmt.Sprintf("Age: %d years", *f.Age)
		}
		out = append(out, c)
	}
	if p.Religion != "" {
		out = append(out, exact(w.Religion, p.Religion, f.Religion, "Religion"))
	}
	if p.Caste != "" {
		out = append(out, exact(w.Caste, p.Caste, f.Caste, "Caste"))
	}
	if p.Education != "" {
		out = append(out, text(w.Education, p.Education, f.Education, "Education"))
	}
	if p.Occupation != "" {
		out = append(out, text(w.Occupation, p.Occupation, f.Occupation, "Occupation"))
	}
	if p.Location != "" {
		c := criterion{weight: w.Location}
		for _, part := range []*string{f.CurrentCity, f.State, f.Country} {
			c.score = max(c.score, textScore(p.Location, entity.Str(part)))
		}
		c.score = max(c.score, textScore(p.Location, f.Location()))
		c.reason = "Location: " + firstNonEmpty(f.CurrentCity, f.State, f.Country)
		out = append(out, c)
	}
	if p.MaritalStatus != nil {
		c := criterion{weight: w.Marital}
		if f.Marital != nil && equalFold(string(*p.MaritalStatus), string(*f.Marital)) {
			c.score = 1
			c.reason = fmt.Sprintf("Marital Status: %s", *f.Marital)
		}
		out = append(out, c)
	}
	return out
}

// ageScore is 1 inside [lo, hi] and falls off linearly for up to AgeTolerance
// years outside it.
func (e *Engine) ageScore(age int, lo, hi *int) float64 {
	d := 0
	switch {
	case lo != nil && age < *lo:
		d = *lo - age
	case hi != nil && age > *hi:
		d = age - *hi
	}
	if d == 0 {
		return 1
	}
	if d > e.cfg.AgeTolerance {
		return 0
	}
	return 1 - float64(d)/float64(e.cfg.AgeTolerance+1)
}

func exact(weight float64, want string, have *string, label string) criterion {
	c := criterion{weight: weight}
	if have != nil && equalFold(want, *have) {
		c.score = 1
		c.reason = fmt.Sprintf("%s: %s", label, *have)
	}
	return c
}

func text(weight float64, want string, have *string, label string) criterion {
	c := criterion{weight: weight, score: textScore(want, entity.Str(have))}
	if have != nil {
		c.reason = fmt.Sprintf("%s: %s", label, *have)
	}
	return c
}

func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if s := entity.Str(v); s != "" {
			return s
		}
	}
	return ""
}

// ReferencePreferences derives preferences from a reference profile: the
// opposite gender (when configured), age within ReferenceAgeWindow, and the
// same religion and caste.
func (e *Engine) ReferencePreferences(ref *entity.Profile) entity.Preferences {
	var p entity.Preferences
	f := ref.Fields
	if f.Gender != nil {
		if e.cfg.OppositeGender {
			if g, ok := f.Gender.Opposite(); ok {
				p.Gender = &g
			}
		} else {
			g := *f.Gender
			p.Gender = &g
		}
	}
	if f.Age != nil {
		lo, hi := *f.Age-e.cfg.ReferenceAgeWindow, *f.Age+e.cfg.ReferenceAgeWindow
		p.MinAge, p.MaxAge = &lo, &hi
	}
	p.Religion = entity.Str(f.Religion)
	p.Caste = entity.Str(f.Caste)
	return p
}

// Stats aggregates approved profiles.
func Stats(profiles []*entity.Profile) entity.SearchStats {
	s := entity.SearchStats{
		ByGender:   map[string]int{},
		ByReligion: map[string]int{},
		ByLocation: map[string]int{},
	}
	for _, p := range profiles {
		if p.OCRStatus != constants.OCRStatusApproved {
			continue
		}
		s.Total++
		f := p.Fields
		if f.Gender != nil {
			s.ByGender[string(*f.Gender)]++
		}
		if r := entity.Str(f.Religion); r != "" {
			s.ByReligion[r]++
		}
		if c := entity.Str(f.CurrentCity); c != "" {
			s.ByLocation[c]++
		}
		if f.Age != nil {
			age := *f.Age
			if s.MinAge == nil || age < *s.MinAge {
				s.MinAge = &age
			}
			if s.MaxAge == nil || age > *s.MaxAge {
				v := age
				s.MaxAge = &v
			}
		}
	}
	return s
}
