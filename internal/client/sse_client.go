package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wireloop/mcpgo/internal/domain"
)

// SSETransport connects to a remote MCP server's SSE endpoint, waits for the
// server-assigned "endpoint" event to learn where to POST outgoing requests,
// then streams "message" events back as Responses.
type SSETransport struct {
	httpClient *http.Client
	sseURL     string

	mu          sync.Mutex
	messagesURL string
	closed      bool

	endpointReady chan struct{}
	inbound       chan *domain.Response
	cancel        context.CancelFunc
}

// NewSSETransport connects to baseURL+ssePath and blocks (up to
// connectTimeout) until the server's endpoint event has been received, so
// Send can be called immediately afterwards.
func NewSSETransport(ctx context.Context, baseURL, ssePath string, connectTimeout time.Duration) (*SSETransport, error) {
	ctx, cancel := context.WithCancel(ctx)

	t := &SSETransport{
		httpClient:    &http.Client{},
		sseURL:        strings.TrimRight(baseURL, "/") + ssePath,
		endpointReady: make(chan struct{}),
		inbound:       make(chan *domain.Response, 16),
		cancel:        cancel,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.sseURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build SSE request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect to SSE endpoint: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		cancel()
		resp.Body.Close()
		return nil, fmt.Errorf("SSE endpoint returned status %d", resp.StatusCode)
	}

	go t.readLoop(resp.Body)

	select {
	case <-t.endpointReady:
		return t, nil
	case <-time.After(connectTimeout):
		cancel()
		return nil, fmt.Errorf("timed out waiting for endpoint event")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *SSETransport) readLoop(body io.ReadCloser) {
	defer body.Close()
	defer close(t.inbound)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), domain.MaxLineSize)

	var event string
	var data bytes.Buffer

	flush := func() {
		defer func() {
			event = ""
			data.Reset()
		}()

		payload := data.String()
		switch event {
		case "endpoint":
			t.setEndpoint(payload)
		default:
			// Response frames carry no "event:" line on the wire (bare
			// "data: <json>"); a "message" event is also accepted for
			// servers that label it explicitly.
			resp, err := domain.DecodeResponse([]byte(payload))
			if err == nil {
				t.inbound <- resp
			}
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event != "" || data.Len() > 0 {
				flush()
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		default:
			// comment line (keep-alive) or unrecognized field; ignore
		}
	}
}

func (t *SSETransport) setEndpoint(path string) {
	resolved := path
	if parsed, err := url.Parse(path); err == nil && !parsed.IsAbs() {
		if base, baseErr := url.Parse(t.sseURL); baseErr == nil {
			resolved = base.ResolveReference(parsed).String()
		}
	}

	t.mu.Lock()
	t.messagesURL = resolved
	t.mu.Unlock()

	select {
	case <-t.endpointReady:
	default:
		close(t.endpointReady)
	}
}

// Send POSTs req to the server-assigned messages endpoint.
func (t *SSETransport) Send(req *domain.Request) error {
	t.mu.Lock()
	closed := t.closed
	messagesURL := t.messagesURL
	t.mu.Unlock()

	if closed {
		return fmt.Errorf("transport is closed")
	}
	if messagesURL == "" {
		return fmt.Errorf("endpoint not yet known")
	}

	data, err := domain.Encode(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, messagesURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build POST request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server rejected request: status %d", resp.StatusCode)
	}
	return nil
}

// Receive implements Transport.
func (t *SSETransport) Receive() <-chan *domain.Response {
	return t.inbound
}

// Close implements Transport.
func (t *SSETransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.cancel()
	return nil
}
