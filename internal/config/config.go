// Package config loads the smoke harness settings from the process
// environment. Only the Hevy API key is required; everything else has a
// default suited to the nightly job.
package config

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
)

// APIKeyEnv is the variable carrying the Hevy credential. It is read by the
// harness and injected, under the same name, into the server's environment.
const APIKeyEnv = "HEVY_API_KEY"

// ErrMissingAPIKey reports an unset or empty HEVY_API_KEY.
var ErrMissingAPIKey = errors.New(APIKeyEnv + " environment variable not set")

// Config holds the harness settings. Defaults are provided via struct tags.
type Config struct {
	// APIKey authenticates the server against the Hevy API. ENV: HEVY_API_KEY
	APIKey string `env:"HEVY_API_KEY"`
	// Package is the npm package providing the server. ENV: HEVY_MCP_PACKAGE
	Package string `env:"HEVY_MCP_PACKAGE,default=hevy-mcp"`
	// Launch selects how the server is started: installed, npx or fake. ENV: HEVY_MCP_LAUNCH
	Launch string `env:"HEVY_MCP_LAUNCH,default=installed"`
	// LogLevel for the structured stderr log. ENV: HEVY_SMOKE_LOG_LEVEL
	LogLevel string `env:"HEVY_SMOKE_LOG_LEVEL,default=warn"`
	// TraceEndpoint enables OTLP/HTTP trace export when set. ENV: OTEL_EXPORTER_OTLP_ENDPOINT
	TraceEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Package:  "hevy-mcp",
		Launch:   "installed",
		LogLevel: "warn",
	}
}

// Load decodes the environment into a Config. It does not validate the
// credential; callers run Validate at the point where absence is fatal.
func Load() (Config, error) {
	cfg := Default()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: decode environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the one precondition of a run: a non-empty API key.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
