package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/flowdraft/pkg/cache"
)

// Manager keeps one session per workflow. Sessions idle for longer than the
// store TTL are evicted and closed, which aborts any in-flight save.
type Manager struct {
	mu       sync.Mutex
	backend  Backend
	cfg      Config
	sessions *cache.Store[*Session]
	logger   *slog.Logger
}

func NewManager(backend Backend, sessions *cache.Store[*Session], cfg Config) *Manager {
	cfg = cfg.withDefaults()

	m := &Manager{
		backend:  backend,
		cfg:      cfg,
		sessions: sessions,
		logger:   cfg.Logger.With("module", "editor_manager"),
	}

	sessions.OnEvict(func(workflowID string, s *Session) {
		m.logger.Info("Closing idle editor session", "workflow_id", workflowID, "dirty", s.Dirty())
		s.Close()
	})

	return m
}

// Open returns the workflow's live session, loading a new one if needed.
func (m *Manager) Open(ctx context.Context, workflowID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions.Get(workflowID); ok {
		m.sessions.Touch(workflowID)

		return s, nil
	}

	s, err := Open(ctx, workflowID, m.backend, m.cfg)
	if err != nil {
		return nil, err
	}

	m.sessions.Set(workflowID, s)
	m.logger.InfoContext(ctx, "Editor session opened", "workflow_id", workflowID)

	return s, nil
}

// Get returns a live session and restarts its idle timer.
func (m *Manager) Get(workflowID string) (*Session, bool) {
	s, ok := m.sessions.Get(workflowID)
	if ok {
		m.sessions.Touch(workflowID)
	}

	return s, ok
}

// Discard closes and forgets a session. Unsaved changes are lost.
func (m *Manager) Discard(workflowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(workflowID)
	if !ok {
		return false
	}

	m.sessions.Delete(workflowID)
	s.Close()

	return true
}

// Cleanup evicts idle sessions, letting a cache.Janitor drive the manager.
func (m *Manager) Cleanup() int {
	return m.sessions.Cleanup()
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}
