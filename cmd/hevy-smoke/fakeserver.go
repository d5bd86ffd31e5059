package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggoodman/hevy-mcp-smoke/internal/config"
	"github.com/ggoodman/hevy-mcp-smoke/internal/fakehevy"
	"github.com/ggoodman/hevy-mcp-smoke/internal/logctx"
	"github.com/ggoodman/hevy-mcp-smoke/stdio"
)

func newFakeServerCmd() *cobra.Command {
	var (
		empty          bool
		omit           []string
		fixtures       string
		maxMessageSize int
	)
	cmd := &cobra.Command{
		Use:   "fake-server",
		Short: "Serve a fake hevy MCP server on stdio",
		Long:  "Serve a stand-in for hevy-mcp on stdin/stdout, answering from fixture data. Used by `run --launch=fake`.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if os.Getenv(config.APIKeyEnv) == "" {
				return fmt.Errorf("%s environment variable is not set", config.APIKeyEnv)
			}

			lvlName, _ := cmd.Flags().GetString("log-level")
			if lvlName == "" {
				lvlName = os.Getenv("HEVY_SMOKE_LOG_LEVEL")
			}
			level := slog.LevelWarn
			if lvlName != "" {
				l, err := logctx.ParseLevel(lvlName)
				if err != nil {
					return err
				}
				level = l
			}
			// stdout carries the protocol; logs must stay on stderr.
			logger := logctx.NewLogger(os.Stderr, level)

			opts := []fakehevy.Option{fakehevy.WithoutTools(omit...)}
			if fixtures != "" {
				fh, err := os.Open(fixtures)
				if err != nil {
					return fmt.Errorf("open fixtures: %w", err)
				}
				fx, err := fakehevy.LoadFixtures(fh)
				_ = fh.Close()
				if err != nil {
					return err
				}
				opts = append(opts, fakehevy.WithFixtures(fx))
			}
			if empty {
				opts = append(opts, fakehevy.WithEmptyAccount())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h := stdio.NewHandler(fakehevy.NewServer(opts...),
				stdio.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
				stdio.WithLogger(logger),
				stdio.WithMaxMessageSize(maxMessageSize),
			)
			return h.Serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&empty, "empty", false, "serve an account with no data")
	cmd.Flags().StringSliceVar(&omit, "omit", nil, "tool names to leave out of the listing")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "YAML fixture file replacing the built-in data")
	cmd.Flags().IntVar(&maxMessageSize, "max-message-size", 4<<20, "longest accepted inbound JSON-RPC line in bytes")
	return cmd
}
