package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/loop"
	"github.com/wricardo/tile-pairs-game/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// StateListener receives a snapshot whenever a session's board changes
type StateListener func(sessionID string, snap engine.Snapshot)

// EventListener receives every engine event of a session
type EventListener func(sessionID string, ev engine.Event)

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used by the manager and passed to engines
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStateListener registers a listener for board snapshots
func WithStateListener(fn StateListener) Option {
	return func(m *Manager) {
		m.onState = fn
	}
}

// WithEventListener registers a listener for engine events
func WithEventListener(fn EventListener) Option {
	return func(m *Manager) {
		m.onEvent = fn
	}
}

// WithFrameInterval sets the animation frame interval of new loops
func WithFrameInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.frame = d
	}
}

// Manager handles game session lifecycle. Every session owns one engine
// and the loop goroutine that drives it.
type Manager struct {
	sessions map[string]*service.Session
	cancels  map[string]context.CancelFunc
	logger   *zap.Logger
	onState  StateListener
	onEvent  EventListener
	frame    time.Duration
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		cancels:  make(map[string]context.CancelFunc),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create creates a new session with the given ID and configuration and
// starts its loop.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	}
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	sessionLogger := m.logger.With(zap.String("session_id", id))
	eng, err := engine.NewEngine(config,
		engine.WithLogger(sessionLogger),
		engine.WithEventHandler(func(ev engine.Event) {
			if m.onEvent != nil {
				m.onEvent(id, ev)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	opts := []loop.Option{loop.WithLogger(sessionLogger)}
	if m.frame > 0 {
		opts = append(opts, loop.WithFrameInterval(m.frame))
	}
	if m.onState != nil {
		opts = append(opts, loop.WithOnChange(func(snap engine.Snapshot) {
			m.onState(id, snap)
		}))
	}
	l := loop.New(eng, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			sessionLogger.Error("game loop exited", zap.Error(err))
		}
	}()

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Loop:           l,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	key := strings.ToLower(id)
	m.sessions[key] = session
	m.cancels[key] = cancel

	m.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("config", config.Name),
	)
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete stops a session's loop and removes it
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	session, exists := m.sessions[key]
	if !exists {
		return ErrSessionNotFound
	}

	m.stop(key, session)
	m.logger.Info("session deleted", zap.String("session_id", session.ID))
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for key, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			m.stop(key, session)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every session and waits for their loops to exit
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	for key, session := range m.sessions {
		sessions = append(sessions, session)
		m.stop(key, session)
	}
	m.mu.Unlock()

	var errs error
	for _, session := range sessions {
		select {
		case <-session.Loop.Done():
		case <-ctx.Done():
			errs = multierr.Append(errs, fmt.Errorf("session %s: %w", session.ID, ctx.Err()))
		}
	}
	return errs
}

// stop cancels a session loop and forgets the session. Callers hold mu.
func (m *Manager) stop(key string, session *service.Session) {
	if cancel, ok := m.cancels[key]; ok {
		cancel()
		delete(m.cancels, key)
	}
	session.Loop.Stop()
	delete(m.sessions, key)
}

// generateSessionID generates a random 4-character session ID that is not
// already in use. Callers hold mu.
func (m *Manager) generateSessionID() string {
	for {
		bytes := make([]byte, 2)
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
