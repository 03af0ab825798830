package application

import (
	"context"
	"fmt"

	"github.com/wireloop/mcpgo/internal/domain"
)

// PromptProvider backs prompts/list and prompts/get.
type PromptProvider interface {
	List(ctx context.Context) ([]domain.PromptDescriptor, error)
	Get(ctx context.Context, name string, args map[string]interface{}) ([]domain.PromptMessage, error)
}

// PromptRegistry is a flat name->handler map, matching the tool registry's
// shape rather than the resource registry's fan-out, since prompts are
// expected to be named uniquely by the server author.
type PromptRegistry struct {
	order   []string
	entries map[string]promptEntry
}

type promptEntry struct {
	def     domain.PromptDescriptor
	handler func(ctx context.Context, args map[string]interface{}) ([]domain.PromptMessage, error)
}

// NewPromptRegistry creates an empty registry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{entries: make(map[string]promptEntry)}
}

// Register adds a prompt template. Returns an error on duplicate name.
func (r *PromptRegistry) Register(descriptor domain.PromptDescriptor, handler func(ctx context.Context, args map[string]interface{}) ([]domain.PromptMessage, error)) error {
	if _, exists := r.entries[descriptor.Name]; exists {
		return fmt.Errorf("prompt %q is already registered", descriptor.Name)
	}
	r.entries[descriptor.Name] = promptEntry{def: descriptor, handler: handler}
	r.order = append(r.order, descriptor.Name)
	return nil
}

// Len reports how many prompts are registered.
func (r *PromptRegistry) Len() int {
	return len(r.order)
}

// List returns all registered prompt descriptors in insertion order.
func (r *PromptRegistry) List() []domain.PromptDescriptor {
	out := make([]domain.PromptDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].def)
	}
	return out
}

// Get resolves a prompts/get call, validating required arguments before
// invoking the handler.
func (r *PromptRegistry) Get(ctx context.Context, req *domain.PromptGetRequest) ([]domain.PromptMessage, *domain.Error) {
	entry, ok := r.entries[req.Name]
	if !ok {
		return nil, &domain.Error{Code: domain.PromptNotFound, Message: fmt.Sprintf("Prompt not found: %s", req.Name)}
	}

	args := req.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}

	for _, arg := range entry.def.Arguments {
		if !arg.Required {
			continue
		}
		if _, present := args[arg.Name]; !present {
			return nil, &domain.Error{Code: domain.InvalidParams, Message: fmt.Sprintf("missing required argument: %s", arg.Name)}
		}
	}

	messages, err := entry.handler(ctx, args)
	if err != nil {
		return nil, &domain.Error{Code: domain.InternalError, Message: err.Error()}
	}
	return messages, nil
}
