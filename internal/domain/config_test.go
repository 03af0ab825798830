package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, `
server:
  name: mcpgo-test
transport:
  type: stdio
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Name != "mcpgo-test" {
		t.Errorf("Server.Name = %s, want mcpgo-test", cfg.Server.Name)
	}
	if cfg.Session.IdleTimeout == 0 {
		t.Error("Session.IdleTimeout should default from DefaultConfig")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadConfig() with missing file = nil error, want error")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "not: valid: yaml: [")
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() with invalid YAML = nil error, want error")
	}
}

func TestValidateRejectsBadTransportType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport.Type = "websocket"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for invalid transport type")
	}
}

func TestValidateRequiresSSEFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport.Type = "sse"
	cfg.Transport.BindHost = ""
	cfg.Transport.SSEPath = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
}

func TestValidateAuthRequiresKeysInStaticMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Mode = "static"
	cfg.Auth.APIKeys = nil

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error when static auth has no keys")
	}
}

func TestValidateAuthRequiresSecretInJWTMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Mode = "jwt"
	cfg.Auth.JWTSecret = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error when jwt auth has no secret")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides([]string{
		"MCPGO_TRANSPORT=sse",
		"MCPGO_BIND_PORT=9090",
		"MCPGO_API_KEYS=key1,key2",
		"IRRELEVANT=ignored",
	})

	if cfg.Transport.Type != "sse" {
		t.Errorf("Transport.Type = %s, want sse", cfg.Transport.Type)
	}
	if cfg.Transport.BindPort != 9090 {
		t.Errorf("Transport.BindPort = %d, want 9090", cfg.Transport.BindPort)
	}
	if len(cfg.Auth.APIKeys) != 2 || !cfg.Auth.Enabled {
		t.Errorf("Auth = %+v, want enabled with 2 keys", cfg.Auth)
	}
}

func TestSecuredPathsOrDefault(t *testing.T) {
	cfg := DefaultConfig()
	paths := cfg.SecuredPathsOrDefault()
	if len(paths) != 2 || paths[0] != "/sse" || paths[1] != "/messages" {
		t.Errorf("SecuredPathsOrDefault() = %v", paths)
	}

	cfg.Auth.SecuredPaths = []string{"/custom"}
	paths = cfg.SecuredPathsOrDefault()
	if len(paths) != 1 || paths[0] != "/custom" {
		t.Errorf("SecuredPathsOrDefault() = %v, want [/custom]", paths)
	}
}
