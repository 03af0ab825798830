package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/wireloop/mcpgo/internal/domain"
)

const (
	// sseOutboundQueueSize is the per-session bounded outbound queue depth
	// from spec §5: overflow drops the oldest unsent frame rather than
	// blocking the producing goroutine.
	sseOutboundQueueSize = 256
	sseKeepAliveInterval = 30 * time.Second
)

// sseConn is one connected SSE client: its session record plus the plumbing
// needed to push Responses to it and to recognize when it goes away.
type sseConn struct {
	session *domain.Session
	done    chan struct{}
	once    sync.Once

	mu       sync.Mutex
	outbound []*domain.Response
	wake     chan struct{}
	logger   func(msg string, keysAndValues ...interface{})
}

func newSSEConn(session *domain.Session) *sseConn {
	return &sseConn{
		session: session,
		done:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// enqueue appends resp to the outbound queue, dropping the oldest pending
// frame if the queue is already at capacity. Never blocks.
func (c *sseConn) enqueue(resp *domain.Response) {
	c.mu.Lock()
	if len(c.outbound) >= sseOutboundQueueSize {
		c.outbound = c.outbound[1:]
		if c.logger != nil {
			c.logger("sse outbound queue full, dropping oldest frame", "session_id", string(c.session.ID))
		}
	}
	c.outbound = append(c.outbound, resp)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// drain pops every currently queued frame for writing.
func (c *sseConn) drain() []*domain.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outbound) == 0 {
		return nil
	}
	out := c.outbound
	c.outbound = nil
	return out
}

func (c *sseConn) close() {
	c.once.Do(func() { close(c.done) })
}

// SSEServerTransport exposes an SSE endpoint (GET) for server-to-client
// messages and a paired HTTP POST endpoint for client-to-server messages,
// binding each POST to the session named by its sessionId query parameter.
type SSEServerTransport struct {
	host         string
	port         int
	ssePath      string
	messagesPath string

	server *http.Server

	mu         sync.RWMutex
	conns      map[domain.SessionID]*sseConn
	closed     bool
	inbound    chan Inbound
	dropLogger func(msg string, keysAndValues ...interface{})
	middleware func(http.Handler) http.Handler
}

// NewSSEServerTransport builds a transport bound to host:port, serving SSE on
// ssePath and accepting POSTed frames on messagesPath.
func NewSSEServerTransport(host string, port int, ssePath, messagesPath string) *SSEServerTransport {
	return &SSEServerTransport{
		host:         host,
		port:         port,
		ssePath:      ssePath,
		messagesPath: messagesPath,
		conns:        make(map[domain.SessionID]*sseConn),
		inbound:      make(chan Inbound, 32),
	}
}

// Handler returns the http.Handler this transport serves, with any
// middleware installed via Use already applied.
func (t *SSEServerTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(t.ssePath, t.handleSSE)
	mux.HandleFunc(t.messagesPath, t.handleMessage)

	var handler http.Handler = mux
	if t.middleware != nil {
		handler = t.middleware(handler)
	}
	return handler
}

// Use installs a middleware wrapping every request this transport serves
// (the auth gate, for instance). It must be called before Start.
func (t *SSEServerTransport) Use(mw func(http.Handler) http.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.middleware = mw
}

// Start binds a listener and begins serving in the background.
func (t *SSEServerTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.mu.Unlock()

	t.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", t.host, t.port),
		Handler: t.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (t *SSEServerTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	conn := newSSEConn(domain.NewSession(domain.NewSessionID()))

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	conn.logger = t.dropLogger
	t.conns[conn.session.ID] = conn
	t.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	endpoint := fmt.Sprintf("%s?sessionId=%s", t.messagesPath, conn.session.ID)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()
	defer t.forget(conn.session.ID)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.done:
			return
		case <-conn.wake:
			for _, resp := range conn.drain() {
				data, err := domain.EncodeResponse(resp)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
			}
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (t *SSEServerTransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := domain.SessionID(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		http.Error(w, "missing sessionId parameter", http.StatusBadRequest)
		return
	}

	t.mu.RLock()
	conn, ok := t.conns[sessionID]
	t.mu.RUnlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Parse error: "+err.Error(), http.StatusBadRequest)
		return
	}

	req, _, err := domain.DecodeRequest(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn.session.Touch()

	select {
	case t.inbound <- Inbound{SessionID: sessionID, Request: req}:
		w.WriteHeader(http.StatusAccepted)
	default:
		t.replyError(conn, req.ID, domain.InternalError, "request queue full", nil)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}

func (t *SSEServerTransport) replyError(conn *sseConn, id interface{}, code int, message string, data interface{}) {
	conn.enqueue(domain.NewErrorResponse(id, code, message, data))
}

func (t *SSEServerTransport) forget(id domain.SessionID) {
	t.mu.Lock()
	delete(t.conns, id)
	t.mu.Unlock()
}

// Send implements Transport. It never blocks: an overflowing outbound queue
// drops its oldest unsent frame instead of rejecting this one.
func (t *SSEServerTransport) Send(sessionID domain.SessionID, resp *domain.Response) error {
	t.mu.RLock()
	conn, ok := t.conns[sessionID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown session: %s", sessionID)
	}

	conn.enqueue(resp)
	return nil
}

// Session implements Transport.
func (t *SSEServerTransport) Session(id domain.SessionID) (*domain.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conn, ok := t.conns[id]
	if !ok {
		return nil, false
	}
	return conn.session, true
}

// SetDropLogger installs a callback invoked whenever a session's outbound
// queue overflows and drops its oldest frame.
func (t *SSEServerTransport) SetDropLogger(fn func(msg string, keysAndValues ...interface{})) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dropLogger = fn
}

// Receive implements Transport.
func (t *SSEServerTransport) Receive() <-chan Inbound {
	return t.inbound
}

// Sessions implements Transport.
func (t *SSEServerTransport) Sessions() []*domain.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*domain.Session, 0, len(t.conns))
	for _, conn := range t.conns {
		out = append(out, conn.session)
	}
	return out
}

// CloseSession evicts a single session, used by the idle sweeper.
func (t *SSEServerTransport) CloseSession(id domain.SessionID) error {
	t.mu.Lock()
	conn, ok := t.conns[id]
	if ok {
		delete(t.conns, id)
	}
	t.mu.Unlock()

	if ok {
		conn.close()
	}
	return nil
}

// Close shuts down the HTTP server and every connected session.
func (t *SSEServerTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conns := t.conns
	t.conns = make(map[domain.SessionID]*sseConn)
	t.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
	close(t.inbound)

	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
