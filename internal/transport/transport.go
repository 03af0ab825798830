// Package transport implements the two MCP transport bindings: line-delimited
// JSON-RPC over stdio, and Server-Sent Events paired with HTTP POST.
package transport

import (
	"context"

	"github.com/wireloop/mcpgo/internal/domain"
)

// Inbound pairs a decoded request with the session it arrived on, so a single
// Receive channel can serve a transport with many concurrent sessions.
type Inbound struct {
	SessionID domain.SessionID
	Request   *domain.Request
}

// Transport is the boundary between the wire and the dispatcher. Every
// implementation owns zero or more sessions and is responsible for minting a
// domain.Session the first time a peer connects to it.
type Transport interface {
	// Start begins accepting connections/input. It returns once listening
	// has begun (or immediately for stdio); Receive delivers frames
	// asynchronously afterwards.
	Start(ctx context.Context) error

	// Receive returns the channel of inbound frames. It is closed once the
	// transport has fully shut down.
	Receive() <-chan Inbound

	// Send transmits resp to the named session. Returns an error if the
	// session is unknown or the transport is closed.
	Send(sessionID domain.SessionID, resp *domain.Response) error

	// Sessions reports every session currently owned by this transport, for
	// the session manager to register at Start and evict on demand.
	Sessions() []*domain.Session

	// Session looks up one session by id, for dispatch and registration.
	Session(id domain.SessionID) (*domain.Session, bool)

	// CloseSession evicts a single session (used by the idle sweeper and by
	// the session manager's Remove); it must be safe to call more than once.
	CloseSession(id domain.SessionID) error

	// Close shuts down the transport and every session it owns.
	Close() error
}
