package session

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/ggoodman/hevy-mcp-smoke/internal/config"
	"github.com/ggoodman/hevy-mcp-smoke/internal/provision"
)

// ServerName is the key the hevy server is registered under.
const ServerName = "hevy"

// FakeServerCommand is the subcommand of this binary that serves the fake
// hevy server on stdio.
const FakeServerCommand = "fake-server"

// Launch selects how the server subprocess is started.
type Launch string

const (
	// LaunchInstalled runs the globally installed package executable.
	LaunchInstalled Launch = "installed"
	// LaunchNpx resolves and runs the package through `npx -y`.
	LaunchNpx Launch = "npx"
	// LaunchFake re-executes this binary as the fake server.
	LaunchFake Launch = "fake"
)

// ParseLaunch validates a launch mode name.
func ParseLaunch(s string) (Launch, error) {
	switch l := Launch(strings.ToLower(strings.TrimSpace(s))); l {
	case LaunchInstalled, LaunchNpx, LaunchFake:
		return l, nil
	default:
		return "", fmt.Errorf("session: unknown launch mode %q (want installed, npx or fake)", s)
	}
}

// NeedsInstall reports whether the package must be installed before launch.
func (l Launch) NeedsInstall() bool { return l == LaunchInstalled }

// ServerEntry describes how to launch one server.
type ServerEntry struct {
	Command string
	Args    []string
	Env     map[string]string
}

// CommandLine renders the entry for logs.
func (e ServerEntry) CommandLine() string {
	return strings.Join(append([]string{e.Command}, e.Args...), " ")
}

func (e ServerEntry) clone() ServerEntry {
	return ServerEntry{
		Command: e.Command,
		Args:    slices.Clone(e.Args),
		Env:     maps.Clone(e.Env),
	}
}

// ServerConfig maps server names to launch entries.
type ServerConfig struct {
	Servers map[string]ServerEntry
}

// Names returns the configured server names in sorted order.
func (c ServerConfig) Names() []string {
	return slices.Sorted(maps.Keys(c.Servers))
}

// Entry returns a copy of the named entry.
func (c ServerConfig) Entry(name string) (ServerEntry, bool) {
	e, ok := c.Servers[name]
	if !ok {
		return ServerEntry{}, false
	}
	return e.clone(), true
}

// NewServerConfig builds a single-entry configuration for the hevy server
// started according to launch, with the API key injected into its
// environment.
func NewServerConfig(name string, launch Launch, pkg, apiKey string) (ServerConfig, error) {
	var entry ServerEntry
	switch launch {
	case LaunchInstalled:
		entry = ServerEntry{Command: provision.CommandName(pkg), Args: []string{}}
	case LaunchNpx:
		entry = ServerEntry{Command: "npx", Args: []string{"-y", pkg}}
	case LaunchFake:
		self, err := os.Executable()
		if err != nil {
			return ServerConfig{}, fmt.Errorf("session: resolve own executable: %w", err)
		}
		entry = ServerEntry{Command: self, Args: []string{FakeServerCommand}}
	default:
		return ServerConfig{}, fmt.Errorf("session: unknown launch mode %q", launch)
	}
	entry.Env = map[string]string{config.APIKeyEnv: apiKey}

	return ServerConfig{Servers: map[string]ServerEntry{name: entry}}, nil
}
