package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionID is an opaque, cryptographically random session identifier
// (a UUIDv4, >=128 bits), unique within the lifetime of a server process.
type SessionID string

// NewSessionID mints a fresh session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Session is the server-side record of one live transport connection. A
// session exists for the lifetime of that connection and exclusively owns
// its transport. State and LastActivityAt are guarded by a mutex because,
// within a session, multiple tool calls may be in flight concurrently (each
// on its own goroutine) while the state machine and idle clock are shared.
type Session struct {
	ID        SessionID
	CreatedAt time.Time

	mu             sync.Mutex
	state          SessionState
	lastActivityAt time.Time
}

// NewSession creates a fresh session in the Opening state.
func NewSession(id SessionID) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		CreatedAt:      now,
		state:          Opening,
		lastActivityAt: now,
	}
}

// State returns the session's current protocol state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session to st.
func (s *Session) SetState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Touch records activity, used by the session manager's lookup to reset the
// idle-eviction clock.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivityAt = time.Now()
	s.mu.Unlock()
}

// IdleSince reports how long the session has been without activity.
func (s *Session) IdleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivityAt)
}
