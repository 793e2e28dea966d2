package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the answer pipeline to MCP clients.

Tools: ask, upload_text, list_documents, evaluate.
Resources: sercha-rag://documents, sercha-rag://documents/{documentId}.

Stdio is the default transport. --port serves streamable HTTP instead, and
'sercha-rag serve --mcp-port' runs that next to the REST API.

Examples:
  sercha-rag mcp serve
  sercha-rag mcp serve --port 8080`,
	RunE: runMCPServe,
}

var mcpConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Print an mcpServers entry for this binary",
	Long: `Print the JSON that registers this binary as a stdio MCP server, for
pasting into a client's configuration file.`,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runMCPConfig,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	mcpCmd.AddCommand(mcpConfigCmd)
	rootCmd.AddCommand(mcpCmd)
}

type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

func runMCPConfig(cmd *cobra.Command, _ []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	entry := mcpServerEntry{Command: exe, Args: []string{"mcp", "serve"}}
	if home := os.Getenv("SERCHA_RAG_HOME"); home != "" {
		entry.Env = map[string]string{"SERCHA_RAG_HOME": home}
	}

	out, err := json.MarshalIndent(map[string]any{
		"mcpServers": map[string]mcpServerEntry{"sercha-rag": entry},
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := newMCPServer()
	if err != nil {
		return err
	}
	printWarnings(cmd)

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	// stdout carries JSON-RPC in stdio mode.
	logger.Info("MCP server running on stdio")
	return server.Run(cmd.Context())
}

// newMCPServer exposes the bootstrapped services as MCP tools and resources.
func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Query:      queryService,
		Documents:  documentService,
		Evaluation: evaluationService,
		Pipeline:   answerPipeline,
		Version:    version,
	})
}
