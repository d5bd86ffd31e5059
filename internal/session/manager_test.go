package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	closes   int
	closeErr error
}

func (s *stubSession) ListTools(context.Context) ([]Tool, error) { return nil, nil }
func (s *stubSession) CallTool(context.Context, string, map[string]any) (*CallResult, error) {
	return &CallResult{}, nil
}
func (s *stubSession) Close() error {
	s.closes++
	return s.closeErr
}

type stubConnector struct {
	sessions map[string]*stubSession
	fail     map[string]error
	order    []string
}

func (c *stubConnector) Connect(_ context.Context, name string, _ ServerEntry) (Session, error) {
	c.order = append(c.order, name)
	if err := c.fail[name]; err != nil {
		return nil, err
	}
	s := &stubSession{}
	if c.sessions == nil {
		c.sessions = map[string]*stubSession{}
	}
	c.sessions[name] = s
	return s, nil
}

func twoServers() ServerConfig {
	return ServerConfig{Servers: map[string]ServerEntry{
		"b": {Command: "b"},
		"a": {Command: "a"},
	}}
}

func TestManager_OpenAllInNameOrder(t *testing.T) {
	conn := &stubConnector{}
	m := NewManager(twoServers(), conn, nil)

	require.NoError(t, m.OpenAll(t.Context()))
	assert.Equal(t, []string{"a", "b"}, conn.order)

	s, ok := m.Session("a")
	require.True(t, ok)
	assert.Same(t, conn.sessions["a"], s)

	_, ok = m.Session("missing")
	assert.False(t, ok)
}

func TestManager_CloseAllRunsOnce(t *testing.T) {
	conn := &stubConnector{}
	m := NewManager(twoServers(), conn, nil)
	require.NoError(t, m.OpenAll(t.Context()))

	require.NoError(t, m.CloseAll())
	require.NoError(t, m.CloseAll())

	for name, s := range conn.sessions {
		assert.Equal(t, 1, s.closes, "session %s", name)
	}
	_, ok := m.Session("a")
	assert.False(t, ok)
	assert.ErrorIs(t, m.OpenAll(t.Context()), ErrClosed)
}

func TestManager_PartialOpenStillCloses(t *testing.T) {
	boom := errors.New("boom")
	conn := &stubConnector{fail: map[string]error{"b": boom}}
	m := NewManager(twoServers(), conn, nil)

	err := m.OpenAll(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"b"`)

	require.NoError(t, m.CloseAll())
	assert.Equal(t, 1, conn.sessions["a"].closes)
}

func TestManager_CloseErrorsAreJoined(t *testing.T) {
	conn := &stubConnector{}
	m := NewManager(twoServers(), conn, nil)
	require.NoError(t, m.OpenAll(t.Context()))
	failure := errors.New("still running")
	conn.sessions["b"].closeErr = failure

	err := m.CloseAll()
	require.ErrorIs(t, err, failure)
	assert.Equal(t, err, m.CloseAll())
	assert.Equal(t, 1, conn.sessions["a"].closes)
}
