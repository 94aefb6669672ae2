package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, 0.4, cfg.Search.Thresholds.Prioritization)
	assert.Equal(t, 40, cfg.Search.Limits.MaxCandidates)
	assert.Equal(t, []string{"quality", "date-window", "country"}, cfg.Search.RelaxOrder)
	assert.True(t, cfg.Search.Flags.EnableRelaxation)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 6, cfg.Cache.TTLHours)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("EVENTSCOUT_STORE_DRIVER", "postgres")
	t.Setenv("EVENTSCOUT_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_ConfigFile(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte(`
search:
  limits:
    max_candidates: 99
anthropic:
  rank_model: custom-model
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 99, cfg.Search.Limits.MaxCandidates)
	assert.Equal(t, "custom-model", cfg.Anthropic.RankModel)
	// Unset keys keep defaults.
	assert.Equal(t, 10, cfg.Search.Limits.MaxExtractions)
}

func TestTimeoutConfig_Durations(t *testing.T) {
	tc := TimeoutConfig{DiscoverySecs: 15, PrioritizationSecs: 20, ParsingSecs: 30, RunSecs: 120}
	d := tc.Durations()

	assert.Equal(t, 15*time.Second, d.Discovery)
	assert.Equal(t, 20*time.Second, d.Prioritization)
	assert.Equal(t, 30*time.Second, d.Parsing)
	assert.Equal(t, 2*time.Minute, d.Run)
}

func TestRequestDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	req := cfg.RequestDefaults()
	assert.Equal(t, cfg.Search.Thresholds, req.Thresholds)
	assert.Equal(t, cfg.Search.Limits, req.Limits)
	assert.Equal(t, 15*time.Second, req.Timeouts.Discovery)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope"})
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
