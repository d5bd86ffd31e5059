// Package provision installs the hevy-mcp package from npm and confirms the
// resulting executable can be found on PATH.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var (
	// ErrInstallFailed reports a non-zero exit from the package manager.
	ErrInstallFailed = errors.New("provision: install failed")
	// ErrNotOnPath reports that the install succeeded but the executable
	// cannot be resolved.
	ErrNotOnPath = errors.New("provision: command not found after installation")
)

// Installer performs a global npm install of Package.
type Installer struct {
	// Package is the npm package spec, e.g. "hevy-mcp" or "hevy-mcp@1.2.3".
	Package string
	// Runner defaults to ExecRunner.
	Runner CommandRunner
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	Logger   *slog.Logger
}

// Install runs `npm install -g <Package>` and returns the resolved path of
// the installed executable.
func (i *Installer) Install(ctx context.Context) (string, error) {
	runner := i.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	lookPath := i.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	log := i.Logger
	if log == nil {
		log = slog.Default()
	}

	_, stderr, code, err := runner.Run(ctx, "npm", "install", "-g", i.Package)
	if code != 0 || err != nil {
		log.DebugContext(ctx, "npm install failed", slog.Int("exit_code", int(code)), slog.String("package", i.Package))
		msg := strings.TrimSpace(string(stderr))
		if msg == "" && err != nil {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrInstallFailed, msg)
	}

	command := CommandName(i.Package)
	path, err := lookPath(command)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotOnPath, command, err)
	}
	log.DebugContext(ctx, "package installed", slog.String("package", i.Package), slog.String("path", path))
	return path, nil
}

// CommandName strips an npm version or tag suffix from a package spec,
// keeping the scope of scoped packages intact: "hevy-mcp@1.2.3" becomes
// "hevy-mcp" and "@scope/tool@latest" becomes "tool".
func CommandName(pkg string) string {
	name := pkg
	if strings.HasPrefix(name, "@") {
		if slash := strings.Index(name, "/"); slash >= 0 {
			name = name[slash+1:]
		}
	}
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	return name
}
