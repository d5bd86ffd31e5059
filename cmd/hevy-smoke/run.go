package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ggoodman/hevy-mcp-smoke/internal/config"
	"github.com/ggoodman/hevy-mcp-smoke/internal/logctx"
	"github.com/ggoodman/hevy-mcp-smoke/internal/session"
	"github.com/ggoodman/hevy-mcp-smoke/internal/smoke"
	"github.com/ggoodman/hevy-mcp-smoke/internal/telemetry"
)

type runFlags struct {
	launch string
	pkg    string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.launch, "launch", "", "how to start the server: installed, npx or fake; overrides HEVY_MCP_LAUNCH")
	cmd.Flags().StringVar(&f.pkg, "package", "", "npm package to test; overrides HEVY_MCP_PACKAGE")
}

// environment is everything a smoke run needs, resolved from env and flags.
type environment struct {
	runner    *smoke.Runner
	logger    *slog.Logger
	telemetry *telemetry.Provider
}

func setup(ctx context.Context, cmd *cobra.Command, f *runFlags) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := smoke.CheckEnvironment(cfg, cmd.OutOrStdout()); err != nil {
		return nil, err
	}
	if f.launch != "" {
		cfg.Launch = f.launch
	}
	if f.pkg != "" {
		cfg.Package = f.pkg
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	launch, err := session.ParseLaunch(cfg.Launch)
	if err != nil {
		return nil, err
	}
	level, err := logctx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logctx.NewLogger(os.Stderr, level)

	tp, err := telemetry.Setup(ctx, cfg.TraceEndpoint)
	if err != nil {
		return nil, err
	}

	return &environment{
		runner: &smoke.Runner{
			Config: cfg,
			Launch: launch,
			Out:    cmd.OutOrStdout(),
			Logger: logger,
			Tracer: tp.Tracer(),
		},
		logger:    logger,
		telemetry: tp,
	}, nil
}

func (e *environment) shutdown() {
	// The run context may already be canceled; flushing gets its own.
	if err := e.telemetry.Shutdown(context.Background()); err != nil {
		e.logger.Warn("flushing traces", slog.String("err", err.Error()))
	}
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Install, start and exercise the server once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd.Context(), cmd, &f)
			if err != nil {
				return err
			}
			defer env.shutdown()
			return env.runner.Run(cmd.Context())
		},
	}
	f.register(cmd)
	return cmd
}
