package application

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wireloop/mcpgo/internal/domain"
)

// SessionCloser tears down whatever transport-specific resources back a
// session (an SSE client's event channel, a child process's pipes). It must
// be safe to call more than once.
type SessionCloser func() error

type managedSession struct {
	session *domain.Session
	close   SessionCloser
}

// SessionManager owns the live session registry: the SSE transport registers
// one managedSession per connected client; the stdio transport registers
// exactly one for the lifetime of the process. An idle sweeper evicts
// sessions that have gone quiet past the configured timeout.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*managedSession
	logger   *Logger
}

// NewSessionManager creates an empty manager.
func NewSessionManager(logger *Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[domain.SessionID]*managedSession),
		logger:   logger,
	}
}

// Register adds a session under management. closer may be nil for
// transports with nothing extra to release.
func (m *SessionManager) Register(session *domain.Session, closer SessionCloser) {
	if closer == nil {
		closer = func() error { return nil }
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = &managedSession{session: session, close: closer}
}

// Lookup returns the session for id, if it is still registered, refreshing
// its last-activity timestamp on a hit.
func (m *SessionManager) Lookup(id domain.SessionID) (*domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	entry.session.Touch()
	return entry.session, true
}

// Remove closes and forgets a session. Removing an unknown id is a no-op.
func (m *SessionManager) Remove(id domain.SessionID) error {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return entry.close()
}

// Len reports how many sessions are currently registered.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every registered session concurrently, bounded by ctx's
// deadline, and forgets all of them regardless of individual close errors.
func (m *SessionManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	entries := make([]*managedSession, 0, len(m.sessions))
	for _, entry := range m.sessions {
		entries = append(entries, entry)
	}
	m.sessions = make(map[domain.SessionID]*managedSession)
	m.mu.Unlock()

	group, _ := errgroup.WithContext(ctx)
	for _, entry := range entries {
		entry := entry
		group.Go(func() error {
			return entry.close()
		})
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SweepIdle removes every session idle for longer than timeout, closing each
// one. It returns the number evicted, for logging by the caller.
func (m *SessionManager) SweepIdle(timeout time.Duration) int {
	now := time.Now()

	m.mu.Lock()
	var stale []domain.SessionID
	for id, entry := range m.sessions {
		if entry.session.IdleSince(now) > timeout {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		if err := m.Remove(id); err != nil {
			m.logger.LogError("error closing idle session", "session_id", string(id), "error", err)
		} else {
			m.logger.LogInfo("evicted idle session", "session_id", string(id))
		}
	}
	return len(stale)
}

// RunSweeper blocks, evicting idle sessions every interval, until ctx is
// canceled. Callers run it in its own goroutine.
func (m *SessionManager) RunSweeper(ctx context.Context, idleTimeout, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepIdle(idleTimeout)
		}
	}
}
