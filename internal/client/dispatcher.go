package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wireloop/mcpgo/internal/domain"
)

// DefaultSSETimeout and DefaultStdioTimeout are the per-request timeouts
// spec §5 prescribes for each transport binding: local child processes may
// be slow to warm up, so stdio gets twice the budget of a network round
// trip over SSE.
const (
	DefaultSSETimeout   = 30 * time.Second
	DefaultStdioTimeout = 60 * time.Second
)

// TimeoutError is returned by Dispatcher.Call when a request's deadline
// elapses before a matching response arrives, distinct from a transport
// closing out from under the call.
type TimeoutError struct {
	Method string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out: %s", e.Method)
}

// ClosedError is returned to every pending call when the transport's
// receive channel closes.
type ClosedError struct{}

func (e *ClosedError) Error() string { return "transport closed" }

// Dispatcher matches outgoing requests to their eventual responses by id,
// racing each call against both the caller's context and a default
// per-request timeout, and forwarding a connection-closed error to every
// pending call if the transport's Receive channel closes out from under it.
type Dispatcher struct {
	transport      Transport
	defaultTimeout time.Duration
	logDrop        func(id string)

	mu      sync.Mutex
	pending map[string]chan *domain.Response
	closed  bool
}

// NewDispatcher wires a Dispatcher over transport with the given default
// per-call timeout, and starts its receive loop. Call Close to stop it and
// fail any in-flight calls.
func NewDispatcher(transport Transport, defaultTimeout time.Duration) *Dispatcher {
	d := &Dispatcher{
		transport:      transport,
		defaultTimeout: defaultTimeout,
		pending:        make(map[string]chan *domain.Response),
	}
	go d.receiveLoop()
	return d
}

// SetDropLogger installs a callback invoked whenever a response arrives
// whose id matches no pending call (already resolved, or never sent) —
// spec's prescribed policy is to log and drop it, never treat it as an
// error.
func (d *Dispatcher) SetDropLogger(fn func(id string)) {
	d.mu.Lock()
	d.logDrop = fn
	d.mu.Unlock()
}

func (d *Dispatcher) receiveLoop() {
	for resp := range d.transport.Receive() {
		id := idKey(resp.ID)

		d.mu.Lock()
		ch, ok := d.pending[id]
		if ok {
			delete(d.pending, id)
		}
		logDrop := d.logDrop
		d.mu.Unlock()

		if ok {
			ch <- resp
		} else if logDrop != nil {
			logDrop(id)
		}
	}
	d.failAllPending(&ClosedError{})
}

func (d *Dispatcher) failAllPending(err error) {
	d.mu.Lock()
	pending := d.pending
	d.pending = make(map[string]chan *domain.Response)
	d.closed = true
	d.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}

// Call sends method/params as a request and blocks until a matching response
// arrives, ctx is done, the default timeout elapses, or the transport
// closes — whichever comes first.
func (d *Dispatcher) Call(ctx context.Context, method string, params interface{}) (*domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, d.defaultTimeout)
	defer cancel()

	id := uuid.NewString()
	ch := make(chan *domain.Response, 1)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, &ClosedError{}
	}
	d.pending[id] = ch
	d.mu.Unlock()

	req := &domain.Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := d.transport.Send(req); err != nil {
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
		return nil, fmt.Errorf("send request: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, &ClosedError{}
		}
		return resp, nil
	case <-ctx.Done():
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Method: method}
		}
		return nil, ctx.Err()
	}
}

// Notify sends method/params as a notification (no response expected).
func (d *Dispatcher) Notify(method string, params interface{}) error {
	req := &domain.Request{JSONRPC: "2.0", Method: method, Params: params}
	return d.transport.Send(req)
}

// Close releases the underlying transport.
func (d *Dispatcher) Close() error {
	return d.transport.Close()
}

func idKey(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
