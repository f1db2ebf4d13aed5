package matching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matching.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
age_tolerance = 3
reason_threshold = 0.75

[weights]
gender = 0.5
caste = 0.0
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.AgeTolerance)
	assert.Equal(t, 0.75, cfg.ReasonThreshold)
	assert.Equal(t, 0.5, cfg.Weights.Gender)
	assert.Zero(t, cfg.Weights.Caste)
	assert.Equal(t, 0.15, cfg.Weights.Age)
	assert.Equal(t, 20, cfg.DefaultLimit)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.toml":  "colour_weight = 1\n",
		"negative.toml": "[weights]\nage = -1\n",
		"limits.toml":   "default_limit = 50\nmax_limit = 10\n",
		"syntax.toml":   "age_tolerance = \n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
