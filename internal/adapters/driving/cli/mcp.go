package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server so assistants can read login state
and stored tokens.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP on the loopback interface instead.

Examples:
  sociallogin mcp serve
  sociallogin mcp serve --port 8080`,
	RunE: runMCPServe,
}

var mcpPort int

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port on 127.0.0.1 (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	svc, err := requireService()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{OAuth: svc})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", mcpPort)
		cmd.PrintErrf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
