// Package smoke runs the end-to-end check of a hevy MCP server: provision the
// package, open a session, confirm the expected tools are advertised and make
// one read-only call. Progress is reported as glyph-prefixed lines on an
// io.Writer; failures come back as *Error values carrying their Kind.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ggoodman/hevy-mcp-smoke/internal/config"
	"github.com/ggoodman/hevy-mcp-smoke/internal/logctx"
	"github.com/ggoodman/hevy-mcp-smoke/internal/provision"
	"github.com/ggoodman/hevy-mcp-smoke/internal/session"
	"github.com/ggoodman/hevy-mcp-smoke/internal/telemetry"
)

// Installer provisions the server package and returns the executable path.
type Installer interface {
	Install(ctx context.Context) (string, error)
}

// Runner executes one smoke run per call to Run.
type Runner struct {
	Config config.Config
	Launch session.Launch

	// Installer is used when Launch requires a global install.
	Installer Installer
	// Connector opens the server session. Defaults to session.SDKConnector.
	Connector session.Connector
	// ServerConfig overrides the entry derived from Launch and Config.
	ServerConfig *session.ServerConfig

	Out    io.Writer
	Logger *slog.Logger
	Tracer trace.Tracer
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer == nil {
		return noop.NewTracerProvider().Tracer(telemetry.InstrumentationName)
	}
	return r.Tracer
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out(), format+"\n", args...)
}

// CheckEnvironment gates a run on the credential. On failure it reports the
// missing variable on out and returns a KindPrecondition error.
func CheckEnvironment(cfg config.Config, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "❌ %s environment variable not set\n", config.APIKeyEnv)
		return fail(KindPrecondition, "check environment", err)
	}
	return nil
}

// Run performs the whole sequence. The session, once creation has been
// attempted, is closed exactly once before Run returns.
func (r *Runner) Run(ctx context.Context) (err error) {
	if err := CheckEnvironment(r.Config, r.out()); err != nil {
		return err
	}

	ctx = logctx.WithRunData(ctx, logctx.NewRunData(string(r.Launch), r.Config.Package))
	ctx, span := r.tracer().Start(ctx, telemetry.SpanRun, trace.WithAttributes(
		attribute.String("smoke.launch", string(r.Launch)),
		attribute.String("smoke.package", r.Config.Package),
	))
	defer func() {
		if err != nil {
			span.SetAttributes(attribute.String("smoke.failure_kind", KindOf(err).String()))
		}
		telemetry.End(span, err)
	}()
	r.log().InfoContext(ctx, "smoke run started")

	if r.Launch.NeedsInstall() {
		if err := r.install(ctx); err != nil {
			return err
		}
	}

	r.printf("🔧 Configuring %s...", provision.CommandName(r.Config.Package))
	cfg, err := r.serverConfig()
	if err != nil {
		r.printf("❌ Test failed with error: %v", err)
		return fail(KindUnexpected, "configure server", err)
	}

	connector := r.Connector
	if connector == nil {
		connector = &session.SDKConnector{Logger: r.log()}
	}
	mgr := session.NewManager(cfg, connector, r.log())
	defer func() {
		if cerr := mgr.CloseAll(); cerr != nil {
			r.log().WarnContext(ctx, "closing sessions", slog.String("err", cerr.Error()))
		}
	}()

	r.printf("🚀 Starting MCP session...")
	if err := r.openSessions(ctx, mgr); err != nil {
		r.printf("❌ Test failed with error: %v", err)
		return fail(KindUnexpected, "open session", err)
	}

	s, ok := mgr.Session(session.ServerName)
	if !ok {
		r.printf("❌ Failed to create session")
		return fail(KindSession, "get session", fmt.Errorf("%w %q", session.ErrSessionMissing, session.ServerName))
	}
	r.printf("✅ Session created successfully")

	if err := r.Verify(ctx, s); err != nil {
		return err
	}

	r.printf("\n🎉 All tests passed!")
	r.log().InfoContext(ctx, "smoke run passed")
	return nil
}

func (r *Runner) install(ctx context.Context) error {
	pkg := r.Config.Package
	ctx, span := r.tracer().Start(ctx, telemetry.SpanInstall)

	r.printf("📦 Installing %s from npm...", pkg)
	inst := r.Installer
	if inst == nil {
		inst = &provision.Installer{Package: pkg, Logger: r.log()}
	}
	path, err := inst.Install(ctx)
	telemetry.End(span, err)
	switch {
	case errors.Is(err, provision.ErrNotOnPath):
		r.printf("❌ %s command not found after installation", provision.CommandName(pkg))
		return fail(KindProvisioning, "resolve command", err)
	case err != nil:
		r.printf("❌ Failed to install %s: %v", pkg, err)
		return fail(KindProvisioning, "install package", err)
	}

	r.printf("✅ %s installed successfully", pkg)
	r.printf("   Command location: %s", path)
	return nil
}

func (r *Runner) serverConfig() (session.ServerConfig, error) {
	if r.ServerConfig != nil {
		return *r.ServerConfig, nil
	}
	return session.NewServerConfig(session.ServerName, r.Launch, r.Config.Package, r.Config.APIKey)
}

func (r *Runner) openSessions(ctx context.Context, mgr *session.Manager) error {
	ctx, span := r.tracer().Start(ctx, telemetry.SpanOpenSessions)
	err := mgr.OpenAll(ctx)
	telemetry.End(span, err)
	return err
}

// Verify lists the tools of s, checks the expected ones are present and makes
// the probe call. Empty probe content is reported as a warning, not a failure.
func (r *Runner) Verify(ctx context.Context, s session.Session) error {
	r.printf("📋 Listing available tools...")
	tools, err := r.listTools(ctx, s)
	if err != nil {
		r.printf("❌ Test failed with error: %v", err)
		return fail(KindUnexpected, "list tools", err)
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	r.printf("   Found %d tools: %s", len(names), formatList(names))

	if missing := MissingTools(ExpectedTools, names); len(missing) > 0 {
		r.printf("❌ Missing expected tools: %s", formatList(missing))
		return fail(KindVerification, "verify tools", fmt.Errorf("%w: %s", ErrMissingTools, formatList(missing)))
	}
	r.printf("✅ All expected tools are registered")

	r.printf("🏋️ Calling %s tool...", ProbeTool)
	res, err := r.callProbe(ctx, s)
	if err != nil {
		r.printf("❌ Test failed with error: %v", err)
		return fail(KindUnexpected, "call "+ProbeTool, err)
	}
	if res.IsError {
		r.log().WarnContext(ctx, "probe returned a tool error", slog.String("tool", ProbeTool))
	}

	if len(res.Content) > 0 {
		r.printf("✅ %s returned: %s...", ProbeTool, Preview(res.Content[0].Text, PreviewLength))
	} else {
		r.printf("⚠️ %s returned empty content (may be expected if no workouts)", ProbeTool)
	}
	return nil
}

func (r *Runner) listTools(ctx context.Context, s session.Session) ([]session.Tool, error) {
	ctx, span := r.tracer().Start(ctx, telemetry.SpanListTools)
	tools, err := s.ListTools(ctx)
	span.SetAttributes(attribute.Int("smoke.tool_count", len(tools)))
	telemetry.End(span, err)
	return tools, err
}

func (r *Runner) callProbe(ctx context.Context, s session.Session) (*session.CallResult, error) {
	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: ProbeTool})
	ctx, span := r.tracer().Start(ctx, telemetry.SpanCallTool, trace.WithAttributes(attribute.String("smoke.tool", ProbeTool)))
	res, err := s.CallTool(ctx, ProbeTool, ProbeArgs())
	if res != nil {
		span.SetAttributes(attribute.Int("smoke.content_blocks", len(res.Content)), attribute.Bool("smoke.is_error", res.IsError))
	}
	telemetry.End(span, err)
	return res, err
}
