package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "hevy-mcp", cfg.Package)
	assert.Equal(t, "installed", cfg.Launch)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.TraceEndpoint)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(APIKeyEnv, "secret")
	t.Setenv("HEVY_MCP_PACKAGE", "hevy-mcp@1.2.3")
	t.Setenv("HEVY_MCP_LAUNCH", "npx")
	t.Setenv("HEVY_SMOKE_LOG_LEVEL", "debug")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hevy-mcp@1.2.3", cfg.Package)
	assert.Equal(t, "npx", cfg.Launch)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:4318", cfg.TraceEndpoint)
}

func TestValidate_MissingKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, errors.Is(cfg.Validate(), ErrMissingAPIKey))
}

func TestLoad_KeyIsPassedThroughVerbatim(t *testing.T) {
	for _, v := range []string{"   ", " secret\t"} {
		t.Setenv(APIKeyEnv, v)
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, v, cfg.APIKey)
		assert.NoError(t, cfg.Validate(), "value %q is set and must be accepted", v)
	}
}
