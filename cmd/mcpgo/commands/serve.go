package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wireloop/mcpgo/internal/application"
	"github.com/wireloop/mcpgo/internal/domain"
	"github.com/wireloop/mcpgo/internal/transport"
)

func newServeCmd() *cobra.Command {
	var (
		transportType string
		bindHost      string
		bindPort      int
		ssePath       string
		messagesPath  string
		logLevel      string
		apiKey        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := domain.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg.ApplyEnvOverrides(os.Environ())
			applyServeFlagOverrides(cmd, cfg, transportType, bindHost, bindPort, ssePath, messagesPath, logLevel, apiKey)

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&transportType, "transport", "", "transport type: stdio or sse (overrides config)")
	cmd.Flags().StringVar(&bindHost, "bind-host", "", "SSE bind host (overrides config)")
	cmd.Flags().IntVar(&bindPort, "bind-port", 0, "SSE bind port (overrides config)")
	cmd.Flags().StringVar(&ssePath, "sse-path", "", "SSE endpoint path (overrides config)")
	cmd.Flags().StringVar(&messagesPath, "messages-path", "", "SSE messages endpoint path (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "enable static auth with this API key (overrides config)")

	return cmd
}

// applyServeFlagOverrides overlays any explicitly-set flags onto cfg, the
// outermost layer of the file < env < flags precedence.
func applyServeFlagOverrides(cmd *cobra.Command, cfg *domain.Config, transportType, bindHost string, bindPort int, ssePath, messagesPath, logLevel, apiKey string) {
	flags := cmd.Flags()

	if flags.Changed("transport") {
		cfg.Transport.Type = transportType
	}
	if flags.Changed("bind-host") {
		cfg.Transport.BindHost = bindHost
	}
	if flags.Changed("bind-port") {
		cfg.Transport.BindPort = bindPort
	}
	if flags.Changed("sse-path") {
		cfg.Transport.SSEPath = ssePath
	}
	if flags.Changed("messages-path") {
		cfg.Transport.MessagesPath = messagesPath
	}
	if flags.Changed("log-level") {
		cfg.Server.LogLevel = logLevel
	}
	if flags.Changed("api-key") {
		cfg.Auth.Enabled = true
		cfg.Auth.Mode = "static"
		cfg.Auth.APIKeys = append(cfg.Auth.APIKeys, apiKey)
	}
}

func runServe(cfg *domain.Config) error {
	logger, err := application.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	tools := application.NewToolRegistry()
	if err := application.RegisterBuiltinTools(tools); err != nil {
		return fmt.Errorf("register builtin tools: %w", err)
	}
	resources := application.NewResourceRegistry()
	prompts := application.NewPromptRegistry()

	serverInfo := domain.ServerInfo{Name: cfg.Server.Name, Version: cfg.Server.Version}
	dispatcher := application.NewDispatcher(serverInfo, cfg.Server.Instructions, tools, resources, prompts, logger)
	sessions := application.NewSessionManager(logger)

	t, err := buildTransport(cfg, logger)
	if err != nil {
		return err
	}

	srv := application.NewServer(t, dispatcher, sessions, logger, cfg.Session.RequestTimeout)
	shutdowner := application.NewShutdowner(10*time.Second, logger)
	srv.RegisterShutdownHooks(shutdowner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sessions.RunSweeper(ctx, cfg.Session.IdleTimeout, cfg.Session.SweepInterval)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.LogInfo("mcpgo server started", "transport", cfg.Transport.Type, "name", cfg.Server.Name, "version", cfg.Server.Version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.LogInfo("received shutdown signal", "signal", sig.String())

	cancel()
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()

	if errs := shutdowner.Shutdown(drainCtx); len(errs) > 0 {
		return fmt.Errorf("shutdown completed with %d error(s): %v", len(errs), errs)
	}
	return nil
}

func buildTransport(cfg *domain.Config, logger *application.Logger) (transport.Transport, error) {
	switch cfg.Transport.Type {
	case "stdio":
		return transport.NewStdioTransport(), nil
	case "sse":
		sseTransport := transport.NewSSEServerTransport(cfg.Transport.BindHost, cfg.Transport.BindPort, cfg.Transport.SSEPath, cfg.Transport.MessagesPath)
		sseTransport.SetDropLogger(logger.LogError)

		if cfg.Auth.Enabled {
			validator, err := buildValidator(cfg)
			if err != nil {
				return nil, err
			}
			mw := application.NewAuthMiddleware(cfg.Auth, validator, cfg.SecuredPathsOrDefault(), logger)
			sseTransport.Use(mw.Wrap)
		} else {
			logger.LogInfo("authentication is disabled: all requests to secured paths will be allowed", "transport", "sse")
			mw := application.NewAuthMiddleware(cfg.Auth, domain.AlwaysAllowValidator{}, cfg.SecuredPathsOrDefault(), logger)
			sseTransport.Use(mw.Wrap)
		}
		return sseTransport, nil
	default:
		return nil, fmt.Errorf("invalid transport type: %s", cfg.Transport.Type)
	}
}

func buildValidator(cfg *domain.Config) (domain.APIKeyValidator, error) {
	switch cfg.Auth.Mode {
	case "static":
		return domain.NewStaticKeyValidator(cfg.Auth.APIKeys), nil
	case "jwt":
		return domain.NewJWTKeyValidator(cfg.Auth.JWTSecret), nil
	default:
		return nil, fmt.Errorf("invalid auth mode: %s", cfg.Auth.Mode)
	}
}
