package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wireloop/mcpgo/internal/domain"
)

// Dispatcher routes JSON-RPC requests to the tool/resource/prompt registries,
// gating every method against the session's protocol state first. It is
// stateless: all per-connection state lives on the *domain.Session passed
// into Handle, so one Dispatcher serves every session a transport hands it.
type Dispatcher struct {
	serverInfo   domain.ServerInfo
	instructions string
	tools        *ToolRegistry
	resources    *ResourceRegistry
	prompts      *PromptRegistry
	guard        *domain.MethodGuard
	logger       *Logger
}

// NewDispatcher wires a Dispatcher over the given registries. resources and
// prompts may be nil if the server exposes neither.
func NewDispatcher(serverInfo domain.ServerInfo, instructions string, tools *ToolRegistry, resources *ResourceRegistry, prompts *PromptRegistry, logger *Logger) *Dispatcher {
	return &Dispatcher{
		serverInfo:   serverInfo,
		instructions: instructions,
		tools:        tools,
		resources:    resources,
		prompts:      prompts,
		guard:        domain.NewMethodGuard(),
		logger:       logger,
	}
}

// Handle processes one decoded frame against session, returning the response
// to send back. A notification (req.IsNotification()) yields a nil response:
// the caller must not write anything to the wire for it, per spec.
func (d *Dispatcher) Handle(ctx context.Context, session *domain.Session, req *domain.Request) *domain.Response {
	state := session.State()
	if err := d.guard.Check(state, req.Method); err != nil {
		d.logger.LogError("method rejected by protocol state", "method", req.Method, "state", state.String())
		if req.IsNotification() {
			return nil
		}
		return domain.NewErrorResponse(req.ID, domain.InvalidRequest, err.Error(), nil)
	}

	resp := d.dispatch(ctx, req)
	if resp == nil || !resp.IsError() {
		session.SetState(d.guard.Advance(state, req.Method))
	}
	session.Touch()

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, req *domain.Request) *domain.Response {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "ping":
		return domain.NewResultResponse(req.ID, map[string]interface{}{})
	case "tools/list":
		return d.handleToolsList(req)
	case "tools/call":
		return d.handleToolsCall(ctx, req)
	case "resources/list":
		return d.handleResourcesList(ctx, req)
	case "resources/read":
		return d.handleResourcesRead(ctx, req)
	case "prompts/list":
		return d.handlePromptsList(ctx, req)
	case "prompts/get":
		return d.handlePromptsGet(ctx, req)
	default:
		return domain.NewErrorResponse(req.ID, domain.MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

func (d *Dispatcher) capabilities() domain.Capabilities {
	var caps domain.Capabilities
	if d.tools != nil && d.tools.Len() > 0 {
		caps.Tools = &domain.ToolsCapability{}
	}
	if d.resources != nil && d.resources.Len() > 0 {
		caps.Resources = &domain.ResourcesCapability{}
	}
	if d.prompts != nil && d.prompts.Len() > 0 {
		caps.Prompts = &domain.PromptsCapability{}
	}
	return caps
}

func (d *Dispatcher) handleInitialize(req *domain.Request) *domain.Response {
	var params domain.InitializeParams
	if err := decodeParams(req.Params, &params); err != nil {
		return domain.NewErrorResponse(req.ID, domain.InvalidParams, "invalid initialize params: "+err.Error(), nil)
	}

	result := domain.InitializeResult{
		ProtocolVersion: domain.ProtocolVersion,
		Capabilities:    d.capabilities(),
		ServerInfo:      d.serverInfo,
		Instructions:    d.instructions,
	}
	return domain.NewResultResponse(req.ID, result)
}

func (d *Dispatcher) handleToolsList(req *domain.Request) *domain.Response {
	if d.tools == nil {
		return domain.NewResultResponse(req.ID, map[string]interface{}{"tools": []domain.ToolDefinition{}})
	}
	return domain.NewResultResponse(req.ID, map[string]interface{}{"tools": d.tools.ListTools()})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *domain.Request) *domain.Response {
	if d.tools == nil {
		return domain.NewErrorResponse(req.ID, domain.MethodNotFound, "server exposes no tools", nil)
	}

	var params domain.ToolCallRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return domain.NewErrorResponse(req.ID, domain.InvalidParams, "invalid tools/call params: "+err.Error(), nil)
	}

	result, rpcErr := d.tools.Call(ctx, &params)
	if rpcErr != nil {
		return domain.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return domain.NewResultResponse(req.ID, result)
}

func (d *Dispatcher) handleResourcesList(ctx context.Context, req *domain.Request) *domain.Response {
	if d.resources == nil {
		return domain.NewResultResponse(req.ID, map[string]interface{}{"resources": []domain.ResourceDescriptor{}})
	}
	list, err := d.resources.List(ctx)
	if err != nil {
		return domain.NewErrorResponse(req.ID, domain.InternalError, err.Error(), nil)
	}
	return domain.NewResultResponse(req.ID, map[string]interface{}{"resources": list})
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, req *domain.Request) *domain.Response {
	if d.resources == nil {
		return domain.NewErrorResponse(req.ID, domain.ResourceNotFound, "server exposes no resources", nil)
	}

	var params domain.ResourceReadRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return domain.NewErrorResponse(req.ID, domain.InvalidParams, "invalid resources/read params: "+err.Error(), nil)
	}

	content, rpcErr := d.resources.Read(ctx, params.URI)
	if rpcErr != nil {
		return domain.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return domain.NewResultResponse(req.ID, map[string]interface{}{"contents": []domain.ResourceContent{*content}})
}

func (d *Dispatcher) handlePromptsList(ctx context.Context, req *domain.Request) *domain.Response {
	if d.prompts == nil {
		return domain.NewResultResponse(req.ID, map[string]interface{}{"prompts": []domain.PromptDescriptor{}})
	}
	return domain.NewResultResponse(req.ID, map[string]interface{}{"prompts": d.prompts.List()})
}

func (d *Dispatcher) handlePromptsGet(ctx context.Context, req *domain.Request) *domain.Response {
	if d.prompts == nil {
		return domain.NewErrorResponse(req.ID, domain.PromptNotFound, "server exposes no prompts", nil)
	}

	var params domain.PromptGetRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return domain.NewErrorResponse(req.ID, domain.InvalidParams, "invalid prompts/get params: "+err.Error(), nil)
	}

	messages, rpcErr := d.prompts.Get(ctx, &params)
	if rpcErr != nil {
		return domain.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return domain.NewResultResponse(req.ID, map[string]interface{}{"messages": messages})
}

// decodeParams re-marshals the generic params value decoded off the wire
// (a map[string]interface{}, or nil) into a concrete struct.
func decodeParams(raw interface{}, out interface{}) error {
	if raw == nil {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}
