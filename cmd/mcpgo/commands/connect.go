package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wireloop/mcpgo/internal/client"
	"github.com/wireloop/mcpgo/internal/domain"
)

func newConnectCmd() *cobra.Command {
	var gracePeriod time.Duration

	cmd := &cobra.Command{
		Use:   "connect -- <command> [args...]",
		Short: "Spawn an MCP server as a child process, initialize, and list its tools",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(args[0], args[1:], gracePeriod)
		},
	}

	cmd.Flags().DurationVar(&gracePeriod, "grace-period", 5*time.Second, "SIGTERM-to-SIGKILL grace period for the child process")
	return cmd
}

func runConnect(command string, args []string, gracePeriod time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport, err := client.NewStdioTransport(ctx, command, args, gracePeriod)
	if err != nil {
		return fmt.Errorf("spawn %s: %w", command, err)
	}

	c := client.NewWithTimeout(transport, domain.ClientInfo{Name: "mcpgo-connect", Version: "0.1.0"}, client.DefaultStdioTimeout)
	defer c.Close()

	result, err := c.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	fmt.Printf("connected to %s %s (protocol %s)\n", result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)

	if result.Capabilities.Tools == nil {
		fmt.Println("server exposes no tools")
		return nil
	}

	tools, err := c.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	fmt.Printf("tools: %s\n", strings.Join(names, ", "))
	return nil
}
