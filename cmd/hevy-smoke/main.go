// Command hevy-smoke checks that the hevy-mcp server installs, starts and
// answers a read-only tool call. It is meant to run nightly with
// HEVY_API_KEY set.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ggoodman/hevy-mcp-smoke/internal/smoke"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var se *smoke.Error
		if !errors.As(err, &se) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(smoke.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hevy-smoke",
		Short: "Smoke test for the hevy-mcp server",
		// Failures are reported on stdout by the run itself.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "log level for stderr (debug, info, warn, error); overrides HEVY_SMOKE_LOG_LEVEL")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("hevy-smoke version %s\n", version))

	root.AddCommand(newRunCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newFakeServerCmd())
	return root
}
