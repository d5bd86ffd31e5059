package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ggoodman/hevy-mcp-smoke/internal/smoke"
)

const defaultSchedule = "0 3 * * *"

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

func parseCronExpressionUTC(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, fmt.Errorf("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

func newScheduleCmd() *cobra.Command {
	var (
		f      runFlags
		expr   string
		runNow bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the smoke test on a UTC cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := setup(ctx, cmd, &f)
			if err != nil {
				return err
			}
			defer env.shutdown()

			schedule, err := parseCronExpressionUTC(expr)
			if err != nil {
				return err
			}

			return runSchedule(ctx, schedule, runNow, env.logger, func(ctx context.Context) error {
				return env.runner.Run(ctx)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&expr, "cron", defaultSchedule, "five-field cron expression, evaluated in UTC")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run once immediately before waiting for the schedule")
	return cmd
}

// runSchedule invokes run at every activation of schedule until ctx is done.
// A failed run is logged and never stops the loop. Runs do not overlap.
func runSchedule(ctx context.Context, schedule cron.Schedule, runNow bool, logger *slog.Logger, run func(context.Context) error) error {
	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	once := func() {
		start := time.Now()
		err := run(ctx)
		attrs := []any{slog.Duration("elapsed", time.Since(start)), slog.Int("exit_code", smoke.ExitCode(err))}
		if err != nil {
			logger.ErrorContext(ctx, "scheduled smoke run failed", append(attrs, slog.String("kind", smoke.KindOf(err).String()), slog.String("err", err.Error()))...)
			return
		}
		logger.InfoContext(ctx, "scheduled smoke run passed", attrs...)
	}
	c.Schedule(schedule, cron.FuncJob(once))

	if runNow {
		once()
	}

	c.Start()
	logger.InfoContext(ctx, "smoke schedule started", slog.Time("next", schedule.Next(time.Now().UTC())))
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
