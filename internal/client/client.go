package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wireloop/mcpgo/internal/domain"
)

// Client is the typed host-side API over a Dispatcher: one method per MCP
// operation, each decoding the raw JSON-RPC result into its concrete shape.
type Client struct {
	dispatcher *Dispatcher
	info       domain.ClientInfo
}

// New wires a Client over transport with the default SSE per-call timeout,
// identifying itself as info during Initialize. Use NewWithTimeout for a
// stdio transport, whose default timeout is longer.
func New(transport Transport, info domain.ClientInfo) *Client {
	return NewWithTimeout(transport, info, DefaultSSETimeout)
}

// NewWithTimeout wires a Client over transport with an explicit per-call
// timeout.
func NewWithTimeout(transport Transport, info domain.ClientInfo, timeout time.Duration) *Client {
	return &Client{dispatcher: NewDispatcher(transport, timeout), info: info}
}

// Initialize performs the MCP handshake: sends initialize, then the
// notifications/initialized notification once the server has responded.
func (c *Client) Initialize(ctx context.Context) (*domain.InitializeResult, error) {
	params := domain.InitializeParams{
		ProtocolVersion: domain.ProtocolVersion,
		ClientInfo:      c.info,
	}

	resp, err := c.dispatcher.Call(ctx, "initialize", params)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	var result domain.InitializeResult
	if err := decodeResult(resp.Result, &result); err != nil {
		return nil, err
	}

	if err := c.dispatcher.Notify("notifications/initialized", nil); err != nil {
		return nil, fmt.Errorf("send notifications/initialized: %w", err)
	}

	return &result, nil
}

// ListTools calls tools/list.
func (c *Client) ListTools(ctx context.Context) ([]domain.ToolDefinition, error) {
	resp, err := c.dispatcher.Call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	var result struct {
		Tools []domain.ToolDefinition `json:"tools"`
	}
	if err := decodeResult(resp.Result, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool calls tools/call.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*domain.ToolCallResult, error) {
	resp, err := c.dispatcher.Call(ctx, "tools/call", domain.ToolCallRequest{Name: name, Arguments: arguments})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	var result domain.ToolCallResult
	if err := decodeResult(resp.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResources calls resources/list.
func (c *Client) ListResources(ctx context.Context) ([]domain.ResourceDescriptor, error) {
	resp, err := c.dispatcher.Call(ctx, "resources/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	var result struct {
		Resources []domain.ResourceDescriptor `json:"resources"`
	}
	if err := decodeResult(resp.Result, &result); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// ReadResource calls resources/read.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]domain.ResourceContent, error) {
	resp, err := c.dispatcher.Call(ctx, "resources/read", domain.ResourceReadRequest{URI: uri})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	var result struct {
		Contents []domain.ResourceContent `json:"contents"`
	}
	if err := decodeResult(resp.Result, &result); err != nil {
		return nil, err
	}
	return result.Contents, nil
}

// ListPrompts calls prompts/list.
func (c *Client) ListPrompts(ctx context.Context) ([]domain.PromptDescriptor, error) {
	resp, err := c.dispatcher.Call(ctx, "prompts/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	var result struct {
		Prompts []domain.PromptDescriptor `json:"prompts"`
	}
	if err := decodeResult(resp.Result, &result); err != nil {
		return nil, err
	}
	return result.Prompts, nil
}

// GetPrompt calls prompts/get.
func (c *Client) GetPrompt(ctx context.Context, name string, arguments map[string]interface{}) ([]domain.PromptMessage, error) {
	resp, err := c.dispatcher.Call(ctx, "prompts/get", domain.PromptGetRequest{Name: name, Arguments: arguments})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, resp.Error
	}

	var result struct {
		Messages []domain.PromptMessage `json:"messages"`
	}
	if err := decodeResult(resp.Result, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// Close shuts down the underlying transport.
func (c *Client) Close() error {
	return c.dispatcher.Close()
}

func decodeResult(raw interface{}, out interface{}) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
