package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fenestra-io/configurator/internal/core"
	"github.com/fenestra-io/configurator/internal/events"
)

// Manager owns all live configuration sessions. Each session's state triple
// is owned exclusively by that session; no two sessions share structures.
type Manager struct {
	backend core.Backend
	bus     *events.Bus
	samples SampleProvider
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// ManagerOption configures the manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithSampleProvider sets the offline definition source.
func WithSampleProvider(samples SampleProvider) ManagerOption {
	return func(m *Manager) {
		m.samples = samples
	}
}

// NewManager creates a session manager.
func NewManager(backend core.Backend, bus *events.Bus, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend:  backend,
		bus:      bus,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new configuration session for a catalog model code:
// instantiate the vendor model, fetch the initial definition, fetch the
// initial dimensions. When the vendor is unreachable the session starts in
// fallback mode on a bundled sample tree instead of failing outright.
func (m *Manager) Create(ctx context.Context, modelCode string) (*Session, error) {
	id := uuid.NewString()

	guid, err := m.backend.CreateModel(ctx, modelCode)
	if err != nil {
		if core.IsCategory(err, core.ErrCatValidation) {
			return nil, err
		}
		m.logger.Warn("model create failed, starting offline session", "model_code", modelCode, "error", err)
		s := newSession(id, modelCode, "", m.backend, m.bus, m.samples, m.logger)
		s.mu.Lock()
		s.fallback = true
		s.applySampleLocked()
		hasSample := s.def != nil
		s.mu.Unlock()
		if !hasSample {
			return nil, core.ErrTransport(core.CodeModelCreateFailed, "vendor unreachable and no sample definition available").WithCause(err)
		}
		m.register(s)
		m.bus.Publish(events.NewSessionCreatedEvent(id, modelCode, ""))
		m.bus.Publish(events.NewFallbackEnteredEvent(id, err))
		return s, nil
	}

	s := newSession(id, modelCode, guid, m.backend, m.bus, m.samples, m.logger)
	s.RefreshDefinition(ctx)
	s.RefreshDimensions(ctx)

	m.register(s)
	m.bus.Publish(events.NewSessionCreatedEvent(id, modelCode, guid))
	return s, nil
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, core.ErrNotFound("session", id)
	}
	return s, nil
}

// Close tears down a session and discards its state.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return core.ErrNotFound("session", id)
	}
	m.bus.Publish(events.NewSessionClosedEvent(id))
	return nil
}

// List returns all live session IDs.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll tears down every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, id := range ids {
		m.bus.Publish(events.NewSessionClosedEvent(id))
	}
}
