package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/wireloop/mcpgo/internal/domain"
)

// StdioTransport spawns an MCP server binary as a child process and speaks
// line-delimited JSON-RPC over its stdin/stdout: our writes become the
// child's requests, the child's stdout lines become our Responses.
type StdioTransport struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	inbound chan *domain.Response
	mu      sync.Mutex
	closed  bool

	gracePeriod time.Duration
}

// NewStdioTransport spawns command with args and begins reading its stdout.
// gracePeriod bounds how long Close waits after SIGTERM before SIGKILL.
func NewStdioTransport(ctx context.Context, command string, args []string, gracePeriod time.Duration) (*StdioTransport, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stderr = os.Stderr
	// Put the child in its own process group so Close can signal the whole
	// tree (the child plus any grandchildren it spawns) instead of just the
	// one process.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open child stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open child stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start child process: %w", err)
	}

	t := &StdioTransport{
		cmd:         cmd,
		stdin:       stdin,
		inbound:     make(chan *domain.Response, 16),
		gracePeriod: gracePeriod,
	}
	go t.readLoop(stdout)
	return t, nil
}

func (t *StdioTransport) readLoop(stdout io.Reader) {
	defer close(t.inbound)

	reader := bufio.NewReaderSize(stdout, 64*1024)
	var buf []byte
	chunk := make([]byte, 64*1024)

	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				line, consumed, ok, parseErr := domain.TryParseLine(buf)
				if parseErr != nil {
					buf = buf[minInt(consumed, len(buf)):]
					continue
				}
				if !ok {
					break
				}
				buf = buf[consumed:]
				if line == nil {
					continue
				}

				resp, decodeErr := domain.DecodeResponse(line)
				if decodeErr != nil {
					continue
				}
				t.inbound <- resp
			}
		}
		if err != nil {
			return
		}
	}
}

// Send implements Transport.
func (t *StdioTransport) Send(req *domain.Request) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	data, err := domain.Encode(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	_, err = t.stdin.Write(append(data, '\n'))
	return err
}

// Receive implements Transport.
func (t *StdioTransport) Receive() <-chan *domain.Response {
	return t.inbound
}

// Close implements Transport, terminating the child process gracefully.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	_ = t.stdin.Close()

	if t.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := t.cmd.Wait()
		// A child that dies from the signals sent below has been closed as
		// asked; only other exit failures are reported.
		if exitErr, ok := err.(*exec.ExitError); ok {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				err = nil
			}
		}
		done <- err
	}()

	// Negating the pid signals the whole process group (see Setpgid above),
	// reaching grandchildren the child itself spawned.
	pgid := -t.cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case err := <-done:
		return err
	case <-time.After(t.gracePeriod):
		_ = syscall.Kill(pgid, syscall.SIGKILL)
		return <-done
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
