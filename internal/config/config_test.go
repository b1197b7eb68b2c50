package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Upstream.BaseURL)
	assert.Equal(t, "context_length", cfg.Catalog.SortBy)
	assert.True(t, cfg.Catalog.Reverse)
	assert.False(t, cfg.Catalog.IncludeRouters)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.RefreshInterval)
	assert.Equal(t, 3, cfg.Router.ErrorThreshold)
	assert.Equal(t, 1, cfg.Router.SameModelRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Router.BackoffInitial)
	assert.Equal(t, 3*time.Minute, cfg.Router.RequestDeadline)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoadConfigFlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("port", "8080", "")
	flags.Int("limit", 0, "")
	flags.String("provider", "", "")
	flags.Int("min-context-length", 0, "")
	flags.Int("error-threshold", 3, "")
	require.NoError(t, flags.Parse([]string{
		"--port=9000",
		"--limit=5",
		"--provider=meta-llama",
		"--min-context-length=32000",
		"--error-threshold=2",
	}))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Catalog.Limit)
	assert.Equal(t, "meta-llama", cfg.Catalog.Provider)
	assert.Equal(t, 32000, cfg.Catalog.MinContextLength)
	assert.Equal(t, 2, cfg.Router.ErrorThreshold)
}

func TestLoadConfigEnvOverridesDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:9091/api/v1")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9091/api/v1", cfg.Upstream.BaseURL)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoadConfigRequireParamsFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("require-params", nil, "")
	require.NoError(t, flags.Parse([]string{"--require-params=tools,response_format"}))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"tools", "response_format"}, cfg.Catalog.RequireParams)
}
