package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON HTTP API.

Endpoints:
  GET    /health             liveness
  GET    /ready              provider readiness
  GET    /metrics            Prometheus metrics
  POST   /query              answer a question
  POST   /upload             upload a file or text (multipart)
  GET    /documents          list documents
  GET    /documents/{id}     document with chunks
  DELETE /documents/{id}     delete a document

Use --mcp-port to also serve MCP over HTTP from the same process.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "listen address (default from settings)")
	serveCmd.Flags().Int("mcp-port", 0, "also serve MCP over HTTP on this port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil || documentService == nil {
		return errors.New("query and document services not configured")
	}
	printWarnings(cmd)
	logger.SetTimestamps(true)

	cfg := httpapi.Config{}
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cfg.Address = settings.Server.Address
		cfg.AllowedOrigins = settings.Server.AllowedOrigins
		cfg.MaxUploadBytes = settings.Pipeline.MaxFileSizeBytes()
		cfg.QueryTimeout = settings.Pipeline.QueryTimeout
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Address = addr
	}
	mcpPort, err := cmd.Flags().GetInt("mcp-port")
	if err != nil {
		return fmt.Errorf("getting mcp-port flag: %w", err)
	}

	api, err := httpapi.NewServer(&httpapi.Ports{
		Query:     queryService,
		Documents: documentService,
		Metrics:   httpMetrics,
		Checks:    readyChecks,
	}, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(ctx)
	})

	if mcpPort > 0 {
		mcpServer, err := newMCPServer()
		if err != nil {
			return err
		}
		addr := fmt.Sprintf(":%d", mcpPort)
		logger.Info("MCP server listening on %s", addr)
		g.Go(func() error {
			return mcpServer.RunHTTP(ctx, addr)
		})
	}

	cmd.Printf("sercha-rag API listening on %s\n", displayAddr(cfg.Address))
	return g.Wait()
}

func displayAddr(addr string) string {
	if addr == "" {
		addr = ":8000"
	}
	if addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
