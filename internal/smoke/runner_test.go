package smoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ggoodman/hevy-mcp-smoke/internal/config"
	"github.com/ggoodman/hevy-mcp-smoke/internal/fakehevy"
	"github.com/ggoodman/hevy-mcp-smoke/internal/provision"
	"github.com/ggoodman/hevy-mcp-smoke/internal/session"
	"github.com/ggoodman/hevy-mcp-smoke/internal/telemetry"
	"github.com/ggoodman/hevy-mcp-smoke/stdio"
)

const helperEnv = "HEVY_SMOKE_RUNNER_HELPER"

func TestMain(m *testing.M) {
	if mode, ok := os.LookupEnv(helperEnv); ok {
		var opts []fakehevy.Option
		switch mode {
		case "empty":
			opts = append(opts, fakehevy.WithEmptyAccount())
		case "no-routines":
			opts = append(opts, fakehevy.WithoutTools(fakehevy.ToolGetRoutines))
		}
		if err := stdio.NewHandler(fakehevy.NewServer(opts...)).Serve(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

type fakeSession struct {
	tools   []string
	content []session.ContentBlock
	callErr error
	listErr error
	closes  int
	calls   []string
	args    map[string]any
}

func (s *fakeSession) ListTools(context.Context) ([]session.Tool, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]session.Tool, 0, len(s.tools))
	for _, n := range s.tools {
		out = append(out, session.Tool{Name: n})
	}
	return out, nil
}

func (s *fakeSession) CallTool(_ context.Context, name string, args map[string]any) (*session.CallResult, error) {
	s.calls = append(s.calls, name)
	s.args = args
	if s.callErr != nil {
		return nil, s.callErr
	}
	return &session.CallResult{Content: s.content}, nil
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}

type fakeConnector struct {
	sess     *fakeSession
	err      error
	connects int
}

func (c *fakeConnector) Connect(context.Context, string, session.ServerEntry) (session.Session, error) {
	c.connects++
	if c.err != nil {
		return nil, c.err
	}
	return c.sess, nil
}

type fakeInstaller struct {
	path  string
	err   error
	calls int
}

func (i *fakeInstaller) Install(context.Context) (string, error) {
	i.calls++
	return i.path, i.err
}

func allTools() []string {
	return []string{"get-workouts", "get-routines", "get-exercise-templates"}
}

func newRunner(conn session.Connector, inst Installer, launch session.Launch) (*Runner, *bytes.Buffer) {
	var out bytes.Buffer
	return &Runner{
		Config:    config.Config{APIKey: "key", Package: "hevy-mcp"},
		Launch:    launch,
		Installer: inst,
		Connector: conn,
		Out:       &out,
	}, &out
}

func TestRun_MissingCredentialStopsBeforeAnyWork(t *testing.T) {
	conn := &fakeConnector{sess: &fakeSession{tools: allTools()}}
	inst := &fakeInstaller{path: "/usr/bin/hevy-mcp"}
	r, out := newRunner(conn, inst, session.LaunchInstalled)
	r.Config.APIKey = ""

	err := r.Run(t.Context())
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Equal(t, KindPrecondition, KindOf(err))
	assert.NotZero(t, ExitCode(err))
	assert.Zero(t, inst.calls)
	assert.Zero(t, conn.connects)
	assert.Equal(t, "❌ HEVY_API_KEY environment variable not set\n", out.String())
}

func TestRun_Success(t *testing.T) {
	sess := &fakeSession{tools: allTools(), content: []session.ContentBlock{{Type: "text", Text: `[{"id":"w1"}]`}}}
	inst := &fakeInstaller{path: "/usr/local/bin/hevy-mcp"}
	r, out := newRunner(&fakeConnector{sess: sess}, inst, session.LaunchInstalled)

	err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.Equal(t, 1, sess.closes)
	assert.Equal(t, []string{"get-workouts"}, sess.calls)
	assert.Equal(t, map[string]any{"page": 1, "pageSize": 1}, sess.args)

	want := strings.Join([]string{
		"📦 Installing hevy-mcp from npm...",
		"✅ hevy-mcp installed successfully",
		"   Command location: /usr/local/bin/hevy-mcp",
		"🔧 Configuring hevy-mcp...",
		"🚀 Starting MCP session...",
		"✅ Session created successfully",
		"📋 Listing available tools...",
		"   Found 3 tools: [get-workouts, get-routines, get-exercise-templates]",
		"✅ All expected tools are registered",
		"🏋️ Calling get-workouts tool...",
		`✅ get-workouts returned: [{"id":"w1"}]...`,
		"",
		"🎉 All tests passed!",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestRun_NpxSkipsInstall(t *testing.T) {
	inst := &fakeInstaller{}
	sess := &fakeSession{tools: allTools()}
	r, out := newRunner(&fakeConnector{sess: sess}, inst, session.LaunchNpx)

	require.NoError(t, r.Run(t.Context()))
	assert.Zero(t, inst.calls)
	assert.NotContains(t, out.String(), "📦")
}

func TestRun_ClosesOnceWhenCallFails(t *testing.T) {
	sess := &fakeSession{tools: allTools(), callErr: errors.New("upstream 500")}
	r, out := newRunner(&fakeConnector{sess: sess}, nil, session.LaunchNpx)

	err := r.Run(t.Context())
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.Equal(t, 1, ExitCode(err))
	assert.Equal(t, 1, sess.closes)
	assert.Contains(t, out.String(), "❌ Test failed with error: upstream 500")
}

func TestRun_ClosesOnceWhenListFails(t *testing.T) {
	sess := &fakeSession{listErr: errors.New("connection reset")}
	r, _ := newRunner(&fakeConnector{sess: sess}, nil, session.LaunchNpx)

	err := r.Run(t.Context())
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.Equal(t, 1, sess.closes)
	assert.Empty(t, sess.calls)
}

func TestRun_MissingRoutines(t *testing.T) {
	sess := &fakeSession{tools: []string{"get-workouts", "get-exercise-templates"}}
	r, out := newRunner(&fakeConnector{sess: sess}, nil, session.LaunchNpx)

	err := r.Run(t.Context())
	require.ErrorIs(t, err, ErrMissingTools)
	assert.Equal(t, KindVerification, KindOf(err))
	assert.Equal(t, 5, ExitCode(err))
	assert.Contains(t, out.String(), "❌ Missing expected tools: [get-routines]\n")
	assert.Empty(t, sess.calls)
	assert.Equal(t, 1, sess.closes)
}

func TestRun_EmptyContentIsAWarning(t *testing.T) {
	sess := &fakeSession{tools: allTools()}
	r, out := newRunner(&fakeConnector{sess: sess}, nil, session.LaunchNpx)

	err := r.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.Contains(t, out.String(), "⚠️ get-workouts returned empty content (may be expected if no workouts)\n")
	assert.Contains(t, out.String(), "🎉 All tests passed!")
}

func TestRun_PreviewIsTruncated(t *testing.T) {
	sess := &fakeSession{tools: allTools(), content: []session.ContentBlock{{Type: "text", Text: strings.Repeat("X", 300)}}}
	r, out := newRunner(&fakeConnector{sess: sess}, nil, session.LaunchNpx)

	require.NoError(t, r.Run(t.Context()))
	assert.Contains(t, out.String(), "✅ get-workouts returned: "+strings.Repeat("X", 200)+"...\n")
	assert.NotContains(t, out.String(), strings.Repeat("X", 201))
}

func TestRun_InstallFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		line string
	}{
		{"npm fails", fmt.Errorf("%w: npm ERR! code E404", provision.ErrInstallFailed), "❌ Failed to install hevy-mcp: "},
		{"not on path", fmt.Errorf("%w: hevy-mcp", provision.ErrNotOnPath), "❌ hevy-mcp command not found after installation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &fakeConnector{sess: &fakeSession{tools: allTools()}}
			r, out := newRunner(conn, &fakeInstaller{err: tc.err}, session.LaunchInstalled)

			err := r.Run(t.Context())
			require.ErrorIs(t, err, tc.err)
			assert.Equal(t, KindProvisioning, KindOf(err))
			assert.Equal(t, 3, ExitCode(err))
			assert.Contains(t, out.String(), tc.line)
			assert.Zero(t, conn.connects)
		})
	}
}

func TestRun_ConnectFailure(t *testing.T) {
	conn := &fakeConnector{err: errors.New("exec: \"hevy-mcp\": executable file not found in $PATH")}
	r, out := newRunner(conn, nil, session.LaunchNpx)

	err := r.Run(t.Context())
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.Contains(t, out.String(), "❌ Test failed with error: ")
}

func TestRun_SessionAbsent(t *testing.T) {
	sess := &fakeSession{tools: allTools()}
	r, out := newRunner(&fakeConnector{sess: sess}, nil, session.LaunchNpx)
	r.ServerConfig = &session.ServerConfig{Servers: map[string]session.ServerEntry{"other": {Command: "x"}}}

	err := r.Run(t.Context())
	require.ErrorIs(t, err, session.ErrSessionMissing)
	assert.Equal(t, KindSession, KindOf(err))
	assert.Equal(t, 4, ExitCode(err))
	assert.Contains(t, out.String(), "❌ Failed to create session\n")
	assert.Equal(t, 1, sess.closes)
}

func TestRun_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	sess := &fakeSession{tools: []string{"get-workouts"}}
	r, _ := newRunner(&fakeConnector{sess: sess}, &fakeInstaller{path: "/bin/hevy-mcp"}, session.LaunchInstalled)
	r.Tracer = telemetry.NewProvider(tp).Tracer()

	require.Error(t, r.Run(t.Context()))

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		telemetry.SpanInstall,
		telemetry.SpanOpenSessions,
		telemetry.SpanListTools,
		telemetry.SpanRun,
	}, names)
}

func TestRun_AgainstFakeServer(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)

	cases := []struct {
		mode    string
		wantErr bool
		line    string
	}{
		{"full", false, "✅ get-workouts returned: [\n  {"},
		{"empty", false, "✅ get-workouts returned: No workouts found for the specified parameters..."},
		{"no-routines", true, "❌ Missing expected tools: [get-routines]"},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			r, out := newRunner(nil, nil, session.LaunchFake)
			r.ServerConfig = &session.ServerConfig{Servers: map[string]session.ServerEntry{
				session.ServerName: {
					Command: self,
					Env:     map[string]string{helperEnv: tc.mode, config.APIKeyEnv: "key"},
				},
			}}

			err := r.Run(t.Context())
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out.String(), tc.line)
		})
	}
}
