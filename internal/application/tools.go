package application

import "context"

// EchoArgs is the input to the built-in echo tool.
type EchoArgs struct {
	Message string `json:"message" jsonschema:"required" jsonschema_description:"text to echo back"`
}

// RegisterBuiltinTools adds the small set of self-describing tools every
// mcpgo server exposes out of the box, mainly so a fresh deployment has
// something to call from tools/list before any domain-specific tools are
// registered.
func RegisterBuiltinTools(registry *ToolRegistry) error {
	return RegisterTyped(registry, "echo", "Echoes the given message back to the caller.",
		func(ctx context.Context, args EchoArgs) (interface{}, error) {
			return args.Message, nil
		},
	)
}
