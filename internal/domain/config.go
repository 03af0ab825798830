package domain

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure loaded from a YAML file, then
// overlaid with environment variables, then overlaid with CLI flags (in
// cmd/mcpgo) — each layer taking precedence over the one before it.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
}

// ServerConfig identifies this server instance in the initialize handshake.
type ServerConfig struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Instructions string `yaml:"instructions,omitempty"`
	LogLevel     string `yaml:"log_level"`
}

// TransportConfig selects and configures the transport binding.
type TransportConfig struct {
	Type         string `yaml:"type"` // "stdio" or "sse"
	BindHost     string `yaml:"bind_host,omitempty"`
	BindPort     int    `yaml:"bind_port,omitempty"`
	SSEPath      string `yaml:"sse_path,omitempty"`
	MessagesPath string `yaml:"messages_path,omitempty"`
	Command      string `yaml:"command,omitempty"` // loaded and kept, but not read by serve: stdio always uses our own stdio
}

// SessionConfig tunes the session manager's timeouts.
type SessionConfig struct {
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// AuthConfig configures the API-key auth middleware.
type AuthConfig struct {
	Enabled       bool     `yaml:"enabled"`
	HeaderName    string   `yaml:"header_name"`
	AllowQueryKey bool     `yaml:"allow_query_key"`
	QueryParam    string   `yaml:"query_param"`
	Mode          string   `yaml:"mode"` // "static" or "jwt"
	APIKeys       []string `yaml:"api_keys,omitempty"`
	JWTSecret     string   `yaml:"jwt_secret,omitempty"`
	SecuredPaths  []string `yaml:"secured_paths,omitempty"`
}

// DefaultConfig returns the documented defaults from spec §5/§6.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "mcpgo",
			Version:  "0.1.0",
			LogLevel: "info",
		},
		Transport: TransportConfig{
			Type:         "stdio",
			BindHost:     "0.0.0.0",
			BindPort:     8080,
			SSEPath:      "/sse",
			MessagesPath: "/messages",
		},
		Session: SessionConfig{
			IdleTimeout:    30 * time.Minute,
			SweepInterval:  5 * time.Minute,
			RequestTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:    false,
			HeaderName: "X-API-Key",
			QueryParam: "api_key",
			Mode:       "static",
		},
	}
}

// LoadConfig reads and validates configuration from a YAML file, starting
// from DefaultConfig and overlaying only the fields present in the file.
// Returns an error if the file is missing, has invalid syntax, or fails
// validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnvOverrides overlays recognized MCPGO_* environment variables onto
// c, taking precedence over the YAML file per the documented precedence
// (env overrides file; flags, applied by the caller afterwards, override
// both).
func (c *Config) ApplyEnvOverrides(environ []string) {
	lookup := make(map[string]string, len(environ))
	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			lookup[parts[0]] = parts[1]
		}
	}

	if v, ok := lookup["MCPGO_TRANSPORT"]; ok {
		c.Transport.Type = v
	}
	if v, ok := lookup["MCPGO_BIND_HOST"]; ok {
		c.Transport.BindHost = v
	}
	if v, ok := lookup["MCPGO_BIND_PORT"]; ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Transport.BindPort = port
		}
	}
	if v, ok := lookup["MCPGO_LOG_LEVEL"]; ok {
		c.Server.LogLevel = v
	}
	if v, ok := lookup["MCPGO_API_KEYS"]; ok && v != "" {
		c.Auth.APIKeys = strings.Split(v, ",")
		c.Auth.Enabled = true
	}
	if v, ok := lookup["MCPGO_JWT_SECRET"]; ok {
		c.Auth.JWTSecret = v
		c.Auth.Mode = "jwt"
		c.Auth.Enabled = true
	}
}

// Validate checks the configuration for completeness and correctness,
// aggregating every failure into a single error.
func (c *Config) Validate() error {
	var errs []string

	if err := c.validateTransport(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.validateAuth(); err != nil {
		errs = append(errs, err.Error())
	}

	if c.Server.Name == "" {
		errs = append(errs, "server name is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateTransport() error {
	var errs []string

	if c.Transport.Type != "stdio" && c.Transport.Type != "sse" {
		errs = append(errs, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'sse'", c.Transport.Type))
	}

	if c.Transport.Type == "sse" {
		if c.Transport.BindHost == "" {
			errs = append(errs, "bind_host is required when transport type is 'sse'")
		}
		if c.Transport.BindPort <= 0 || c.Transport.BindPort > 65535 {
			errs = append(errs, fmt.Sprintf("invalid bind_port %d: must be between 1 and 65535", c.Transport.BindPort))
		}
		if c.Transport.SSEPath == "" {
			errs = append(errs, "sse_path is required when transport type is 'sse'")
		}
		if c.Transport.MessagesPath == "" {
			errs = append(errs, "messages_path is required when transport type is 'sse'")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateAuth() error {
	if !c.Auth.Enabled {
		return nil
	}

	var errs []string
	switch c.Auth.Mode {
	case "static":
		if len(c.Auth.APIKeys) == 0 {
			errs = append(errs, "auth.api_keys must be non-empty when auth is enabled in static mode")
		}
	case "jwt":
		if c.Auth.JWTSecret == "" {
			errs = append(errs, "auth.jwt_secret is required when auth is enabled in jwt mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid auth mode '%s': must be 'static' or 'jwt'", c.Auth.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// SecuredPathsOrDefault returns the configured secured paths, defaulting to
// the SSE and messages endpoints when unset.
func (c *Config) SecuredPathsOrDefault() []string {
	if len(c.Auth.SecuredPaths) > 0 {
		return c.Auth.SecuredPaths
	}
	return []string{c.Transport.SSEPath, c.Transport.MessagesPath}
}
