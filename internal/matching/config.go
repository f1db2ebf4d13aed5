package matching

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Weights are the relative importance of each criterion. Only the weights of
// criteria a query specifies take part in the score.
type Weights struct {
	Age        float64 `toml:"age"`
	Gender     float64 `toml:"gender"`
	Religion   float64 `toml:"religion"`
	Caste      float64 `toml:"caste"`
	Education  float64 `toml:"education"`
	Occupation float64 `toml:"occupation"`
	Location   float64 `toml:"location"`
	Marital    float64 `toml:"marital_status"`
}

// Config tunes the ranking engine.
type Config struct {
	Weights Weights `toml:"weights"`
	// AgeTolerance is how many years outside the requested range still earn partial credit.
	AgeTolerance int `toml:"age_tolerance"`
	// ReasonThreshold is the minimum criterion score listed in match reasons.
	ReasonThreshold float64 `toml:"reason_threshold"`
	// ReferenceAgeWindow is the +/- age range derived from a reference profile.
	ReferenceAgeWindow int  `toml:"reference_age_window"`
	OppositeGender     bool `toml:"opposite_gender"`
	DefaultLimit       int  `toml:"default_limit"`
	MaxLimit           int  `toml:"max_limit"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Age:        0.15,
			Gender:     0.20,
			Religion:   0.15,
			Caste:      0.10,
			Education:  0.15,
			Occupation: 0.10,
			Location:   0.10,
			Marital:    0.05,
		},
		AgeTolerance:       2,
		ReasonThreshold:    0.5,
		ReferenceAgeWindow: 5,
		OppositeGender:     true,
		DefaultLimit:       20,
		MaxLimit:           100,
	}
}

// LoadConfig overlays the TOML file at path on DefaultConfig. An empty path or
// a missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("open matching config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse matching config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"age": w.Age, "gender": w.Gender, "religion": w.Religion, "caste": w.Caste,
		"education": w.Education, "occupation": w.Occupation, "location": w.Location, "marital_status": w.Marital,
	} {
		if v < 0 {
			return fmt.Errorf("matching config: weight %s must not be negative", name)
		}
	}
	if c.AgeTolerance < 0 || c.ReferenceAgeWindow < 0 {
		return fmt.Errorf("matching config: age tolerance and reference window must not be negative")
	}
	if c.ReasonThreshold < 0 || c.ReasonThreshold > 1 {
		return fmt.Errorf("matching config: reason_threshold must be within [0,1]")
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("matching config: need 0 < default_limit <= max_limit")
	}
	return nil
}

// clampLimit applies DefaultLimit to non-positive values and caps at MaxLimit.
func (c Config) clampLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	return min(limit, c.MaxLimit)
}
