// Package client implements the host side of MCP: a request/response
// dispatcher over a pluggable transport, and a typed API built on top of it
// (Initialize, ListTools, CallTool, ListResources, ReadResource, ListPrompts,
// GetPrompt).
package client

import (
	"github.com/wireloop/mcpgo/internal/domain"
)

// Transport is the client-side half of the wire: write one Request, read a
// stream of Responses as they arrive (order is not guaranteed to match
// requests — the dispatcher matches by id). Unlike the server's
// internal/transport.Transport, there is exactly one peer, so no session
// routing is needed.
type Transport interface {
	// Send transmits req to the peer.
	Send(req *domain.Request) error

	// Receive returns the channel of incoming Responses. It is closed when
	// the transport shuts down, which the dispatcher treats as every
	// pending call failing with a connection-closed error.
	Receive() <-chan *domain.Response

	// Close shuts down the transport.
	Close() error
}
