package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wireloop/mcpgo/internal/domain"
)

// ToolHandler is the low-level contract a registered tool implements: accept
// already-bound arguments, return either a result or an error. Business
// errors (returned error) are captured by the registry and turned into
// ToolCallResult{IsError:true}; they never become a JSON-RPC error. A
// *BindError is the one exception: it means argument binding itself failed
// (e.g. a type mismatch), which is a protocol-level InvalidParams error.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// BindError is returned by a handler when it cannot bind/coerce the supplied
// arguments into its declared parameter type, per spec's "type mismatch ->
// InvalidParams" rule. Unlike any other handler error, it surfaces as a
// JSON-RPC error response, never a tool-level ToolCallResult{isError:true}.
type BindError struct {
	Message string
}

func (e *BindError) Error() string { return e.Message }

type toolEntry struct {
	def     domain.ToolDefinition
	handler ToolHandler
}

// ToolRegistry holds the immutable-after-startup name->handler map. tools/list
// returns entries in registration order; tools/call binds arguments and
// invokes the handler, recovering from panics.
type ToolRegistry struct {
	order   []string
	entries map[string]toolEntry
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{entries: make(map[string]toolEntry)}
}

// Register adds a tool with an explicit JSON Schema. Returns an error if the
// name is already registered — duplicate registration is a configuration
// error, meant to be caught at startup.
func (r *ToolRegistry) Register(name, description string, schema domain.JSONSchema, handler ToolHandler) error {
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}

	r.entries[name] = toolEntry{
		def: domain.ToolDefinition{
			Name:        name,
			Description: description,
			InputSchema: schema,
		},
		handler: handler,
	}
	r.order = append(r.order, name)
	return nil
}

// ListTools returns all registered tool descriptors in insertion order.
func (r *ToolRegistry) ListTools() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].def)
	}
	return out
}

// Len reports how many tools are registered, used to decide whether the
// "tools" capability is advertised during initialize.
func (r *ToolRegistry) Len() int {
	return len(r.order)
}

// Call executes a tool by name. Returns a *domain.Error (protocol-level) for
// an unknown tool, a malformed call envelope, a missing required parameter or
// arguments that fail to bind; otherwise returns a
// ToolCallResult — a handler error or panic is captured inside it, never
// surfaced as a Go error.
func (r *ToolRegistry) Call(ctx context.Context, req *domain.ToolCallRequest) (*domain.ToolCallResult, *domain.Error) {
	if req.Name == "" {
		return nil, &domain.Error{Code: domain.InvalidParams, Message: "missing required parameter: name"}
	}

	entry, ok := r.entries[req.Name]
	if !ok {
		return nil, &domain.Error{Code: domain.InvalidParams, Message: fmt.Sprintf("Tool not found: %s", req.Name)}
	}

	args := req.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}

	if missing := firstMissingRequired(entry.def.InputSchema, args); missing != "" {
		return nil, &domain.Error{Code: domain.InvalidParams, Message: fmt.Sprintf("missing required parameter: %s", missing)}
	}

	result, bindErr := r.invoke(ctx, entry.handler, args)
	if bindErr != nil {
		return nil, &domain.Error{Code: domain.InvalidParams, Message: bindErr.Message}
	}
	return result, nil
}

// invoke runs handler, recovering from panics and wrapping business errors
// and raw return values into a ToolCallResult. A *BindError is reported back
// to Call instead, since it is a protocol-level failure, not a tool-level one.
func (r *ToolRegistry) invoke(ctx context.Context, handler ToolHandler, args map[string]interface{}) (result *domain.ToolCallResult, bindErr *BindError) {
	defer func() {
		if rec := recover(); rec != nil {
			result = domain.NewErrorResult(fmt.Sprintf("panic: %v", rec))
		}
	}()

	value, err := handler(ctx, args)
	if err != nil {
		var be *BindError
		if errors.As(err, &be) {
			return nil, be
		}
		return domain.NewErrorResult(err.Error()), nil
	}

	return wrapToolValue(value), nil
}

// wrapToolValue converts a handler's raw return value into a ToolCallResult.
// An already-built *domain.ToolCallResult passes through unchanged; any other
// value is rendered as a single text block, pretty-printed as JSON for
// complex (non-string, non-primitive) types, per spec's default wrapping
// policy.
func wrapToolValue(value interface{}) *domain.ToolCallResult {
	if result, ok := value.(*domain.ToolCallResult); ok {
		return result
	}

	switch v := value.(type) {
	case nil:
		return domain.NewTextResult("")
	case string:
		return domain.NewTextResult(v)
	case fmt.Stringer:
		return domain.NewTextResult(v.String())
	}

	switch value.(type) {
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return domain.NewTextResult(fmt.Sprintf("%v", value))
	}

	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return domain.NewTextResult(fmt.Sprintf("%v", value))
	}
	return domain.NewTextResult(string(pretty))
}

// firstMissingRequired returns the first required property (in schema order)
// absent from args, or "" if all are present.
func firstMissingRequired(schema domain.JSONSchema, args map[string]interface{}) string {
	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			return name
		}
	}
	return ""
}
