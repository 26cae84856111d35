package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/lodge/internal/cli"
	"github.com/aretw0/lodge/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the conversation as MCP tools (start_conversation, submit_input,
get_graph) and the lodge://graph resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sigCtx, stop := cli.ShutdownContext(cmd.Context())
		defer stop()

		// Stdout carries JSON-RPC, so logs stay on stderr.
		log.SetOutput(os.Stderr)

		app, err := loadApp(sigCtx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Service, mcp.WithLogger(app.Logger))

		switch transport {
		case "stdio":
			app.Logger.Info("starting lodge mcp server (stdio)")
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			return srv.ServeSSE(sigCtx, addr, fmt.Sprintf("http://localhost:%d", port))
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
