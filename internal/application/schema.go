package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wireloop/mcpgo/internal/domain"
)

// InferSchema derives a domain.JSONSchema for T by reflection, sparing a tool
// author from hand-writing one. It is the alternative binding path spec 4.H
// allows alongside an explicit JSONSchema.
func InferSchema[T any]() (domain.JSONSchema, error) {
	reflected, err := jsonschema.For[T](nil)
	if err != nil {
		return domain.JSONSchema{}, fmt.Errorf("infer schema: %w", err)
	}
	return convertSchema(reflected), nil
}

// convertSchema narrows a full jsonschema.Schema down to the object-shaped
// fragment our wire format carries (type/properties/required). Other
// top-level keywords are dropped; each property's own schema is carried
// through whole, nested detail included.
func convertSchema(s *jsonschema.Schema) domain.JSONSchema {
	if s == nil {
		return domain.JSONSchema{Type: "object"}
	}

	out := domain.JSONSchema{
		Type:     "object",
		Required: s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]interface{}, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop
		}
	}
	return out
}

// RegisterTyped registers a tool whose input schema is inferred from Args by
// reflection, and whose handler receives Args already decoded (via a JSON
// round-trip through the bound arguments map) instead of a raw
// map[string]interface{}.
func RegisterTyped[Args any](r *ToolRegistry, name, description string, handler func(ctx context.Context, args Args) (interface{}, error)) error {
	schema, err := InferSchema[Args]()
	if err != nil {
		return err
	}

	return r.Register(name, description, schema, func(ctx context.Context, raw map[string]interface{}) (interface{}, error) {
		var args Args
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode arguments: %w", err)
		}
		if err := json.Unmarshal(encoded, &args); err != nil {
			return nil, &BindError{Message: fmt.Sprintf("invalid arguments: %v", err)}
		}
		return handler(ctx, args)
	})
}
