package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/wireloop/mcpgo/internal/domain"
)

// StdioTransport speaks line-delimited JSON-RPC over stdin/stdout. It serves
// exactly one implicit session for the lifetime of the process — there is no
// peer to distinguish, so SessionID is fixed at construction.
type StdioTransport struct {
	reader  *bufio.Reader
	writer  io.Writer
	session *domain.Session
	inbound chan Inbound
	mu      sync.Mutex
	closed  bool
}

// NewStdioTransport serves over the process's own stdin/stdout.
func NewStdioTransport() *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout)
}

// NewStdioTransportWithIO serves over custom streams, for tests.
func NewStdioTransportWithIO(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		reader:  bufio.NewReaderSize(r, 64*1024),
		writer:  w,
		session: domain.NewSession(domain.NewSessionID()),
		inbound: make(chan Inbound, 16),
	}
}

// Start begins the read loop in its own goroutine.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.mu.Unlock()

	go t.readLoop(ctx)
	return nil
}

func (t *StdioTransport) readLoop(ctx context.Context) {
	defer close(t.inbound)

	var buf []byte
	chunk := make([]byte, 64*1024)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := t.reader.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				line, consumed, ok, parseErr := domain.TryParseLine(buf)
				if parseErr != nil {
					t.sendDecodeError(nil, domain.ParseError, parseErr.Error())
					buf = buf[min(consumed, len(buf)):]
					continue
				}
				if !ok {
					break
				}
				buf = buf[consumed:]
				if line == nil {
					continue
				}

				req, kind, decodeErr := domain.DecodeRequest(line)
				if decodeErr != nil {
					t.sendDecodeError(requestIDOrNil(req), domain.InvalidRequest, decodeErr.Error())
					continue
				}
				_ = kind

				select {
				case t.inbound <- Inbound{SessionID: t.session.ID, Request: req}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func requestIDOrNil(req *domain.Request) interface{} {
	if req == nil {
		return nil
	}
	return req.ID
}

func (t *StdioTransport) sendDecodeError(id interface{}, code int, message string) {
	_ = t.Send(t.session.ID, domain.NewErrorResponse(id, code, message, nil))
}

// Send writes resp as a single JSON line to stdout.
func (t *StdioTransport) Send(sessionID domain.SessionID, resp *domain.Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}
	if sessionID != t.session.ID {
		return fmt.Errorf("unknown session: %s", sessionID)
	}

	data, err := domain.EncodeResponse(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if flusher, ok := t.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Receive implements Transport.
func (t *StdioTransport) Receive() <-chan Inbound {
	return t.inbound
}

// Sessions implements Transport.
func (t *StdioTransport) Sessions() []*domain.Session {
	return []*domain.Session{t.session}
}

// Session implements Transport.
func (t *StdioTransport) Session(id domain.SessionID) (*domain.Session, bool) {
	if id != t.session.ID {
		return nil, false
	}
	return t.session, true
}

// CloseSession implements Transport. Stdio serves exactly one session, so
// closing it closes the whole transport.
func (t *StdioTransport) CloseSession(id domain.SessionID) error {
	if id != t.session.ID {
		return fmt.Errorf("unknown session: %s", id)
	}
	return t.Close()
}

// Close implements Transport.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return nil
}
