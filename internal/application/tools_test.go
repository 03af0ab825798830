package application

import (
	"context"
	"testing"

	"github.com/wireloop/mcpgo/internal/domain"
)

func TestRegisterBuiltinToolsEcho(t *testing.T) {
	r := NewToolRegistry()
	if err := RegisterBuiltinTools(r); err != nil {
		t.Fatalf("RegisterBuiltinTools() error = %v", err)
	}

	result, rpcErr := r.Call(context.Background(), &domain.ToolCallRequest{
		Name:      "echo",
		Arguments: map[string]interface{}{"message": "hello"},
	})
	if rpcErr != nil {
		t.Fatalf("Call(echo) error = %v", rpcErr)
	}
	if len(result.Content) != 1 || result.Content[0].Text != "hello" {
		t.Errorf("result = %+v, want text 'hello'", result)
	}
}
