package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wireloop/mcpgo/internal/domain"
	"github.com/wireloop/mcpgo/internal/transport"
)

// Server wires a transport to the dispatcher and session manager: it starts
// the transport, registers whatever sessions it hands back, and fans every
// inbound frame out to its own goroutine so that slow tool calls on one
// session never hold up another (spec's concurrent-within-a-session model
// extends naturally to across sessions too).
type Server struct {
	transport      transport.Transport
	dispatcher     *Dispatcher
	sessions       *SessionManager
	logger         *Logger
	requestTimeout time.Duration
}

// NewServer wires a Server over an already-constructed Dispatcher and
// SessionManager. requestTimeout bounds how long a single dispatched request
// may run before its context is canceled.
func NewServer(t transport.Transport, dispatcher *Dispatcher, sessions *SessionManager, logger *Logger, requestTimeout time.Duration) *Server {
	return &Server{
		transport:      t,
		dispatcher:     dispatcher,
		sessions:       sessions,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// Start begins accepting connections and processing requests. It returns
// once the transport itself has started; request processing continues in
// the background until ctx is canceled or the transport's Receive channel
// closes.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	for _, session := range s.transport.Sessions() {
		s.sessions.Register(session, s.closerFor(session.ID))
	}

	go s.processRequests(ctx)
	return nil
}

func (s *Server) closerFor(id domain.SessionID) SessionCloser {
	return func() error { return s.transport.CloseSession(id) }
}

func (s *Server) processRequests(ctx context.Context) {
	inbound := s.transport.Receive()
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-inbound:
			if !ok {
				return
			}
			session, ok := s.sessions.Lookup(in.SessionID)
			if !ok {
				resolved, found := s.transport.Session(in.SessionID)
				if !found {
					s.logger.LogError("request for unknown session", "session_id", string(in.SessionID))
					continue
				}
				s.sessions.Register(resolved, s.closerFor(resolved.ID))
				session = resolved
			}

			go s.handle(ctx, session, in.Request)
		}
	}
}

func (s *Server) handle(ctx context.Context, session *domain.Session, req *domain.Request) {
	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	resp := s.dispatcher.Handle(reqCtx, session, req)
	if resp == nil {
		return
	}
	if err := s.transport.Send(session.ID, resp); err != nil {
		s.logger.LogError("failed to send response", "session_id", string(session.ID), "error", err)
	}
}

// RegisterShutdownHooks adds this server's teardown steps — closing every
// managed session, and closing the transport itself — to shutdowner, which
// runs them concurrently.
func (s *Server) RegisterShutdownHooks(shutdowner *Shutdowner) {
	shutdowner.Register(func(ctx context.Context) error {
		return s.sessions.CloseAll(ctx)
	})
	shutdowner.Register(func(ctx context.Context) error {
		return s.transport.Close()
	})
}
