package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docindex/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search the index.

By default, the server communicates over stdio using JSON-RPC. Use --port to
serve streamable HTTP instead; the HTTP server also exposes Prometheus
metrics at /metrics.

Tools: search_documents, search_table_context, search_pod_queries,
search_user_context, get_document.

Examples:
  # Stdio mode (default, for desktop assistants)
  docindex mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  docindex mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "docindex": {
        "command": "/path/to/docindex",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search: svc.Search,
		Index:  svc.Index,
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr, svc.Metrics)
	}

	return server.Run(ctx)
}
