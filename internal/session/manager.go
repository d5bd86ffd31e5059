package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ggoodman/hevy-mcp-smoke/internal/logctx"
)

// Manager owns the sessions for a ServerConfig. CloseAll releases every
// session exactly once, however many times it is called.
type Manager struct {
	cfg       ServerConfig
	connector Connector
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[string]Session
	closed   bool

	closeOnce sync.Once
	closeErr  error
}

// NewManager returns a Manager that opens sessions with connector.
func NewManager(cfg ServerConfig, connector Connector, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:       cfg,
		connector: connector,
		log:       log,
		sessions:  make(map[string]Session),
	}
}

// OpenAll connects to every configured server in name order. Sessions opened
// before a failure stay registered so CloseAll can release them.
func (m *Manager) OpenAll(ctx context.Context) error {
	for _, name := range m.cfg.Names() {
		entry, _ := m.cfg.Entry(name)
		sctx := logctx.WithServerData(ctx, &logctx.ServerData{Name: name, Command: entry.CommandLine()})

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return ErrClosed
		}
		_, open := m.sessions[name]
		m.mu.Unlock()
		if open {
			continue
		}

		m.log.DebugContext(sctx, "opening session")
		s, err := m.connector.Connect(sctx, name, entry)
		if err != nil {
			return fmt.Errorf("session: connect %q: %w", name, err)
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			_ = s.Close()
			return ErrClosed
		}
		m.sessions[name] = s
		m.mu.Unlock()
		m.log.DebugContext(sctx, "session open")
	}
	return nil
}

// Session returns the open session for name.
func (m *Manager) Session(name string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[name]
	return s, ok
}

// CloseAll closes every open session. Only the first call does any work; later
// calls return the same result.
func (m *Manager) CloseAll() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		sessions := m.sessions
		m.sessions = make(map[string]Session)
		m.mu.Unlock()

		var errs []error
		for _, name := range m.cfg.Names() {
			s, ok := sessions[name]
			if !ok {
				continue
			}
			if err := s.Close(); err != nil {
				errs = append(errs, fmt.Errorf("session: close %q: %w", name, err))
			}
		}
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}
