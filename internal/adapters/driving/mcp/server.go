package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// defaultVersion is reported when Ports carries no build version.
const defaultVersion = "dev"

const shutdownTimeout = 5 * time.Second

// Server exposes the answer pipeline to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers a tool or resource for each port that is set.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	version := ports.Version
	if version == "" {
		version = defaultVersion
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "sercha-rag", Version: version},
			&mcp.ServerOptions{Instructions: instructionsFor(ports)},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// instructionsFor tells clients how answers cite and which of the
// optional tools this server offers.
func instructionsFor(p *Ports) string {
	lines := []string{
		"Use the ask tool for questions about the user's uploaded documents.",
		"Answers cite passages as [n]; the sources list maps each n to a document.",
	}
	if p.Documents != nil {
		lines = append(lines,
			"Add material with upload_text, list it with list_documents, and read it through the sercha-rag://documents resources.")
	}
	if p.Evaluation != nil && p.Pipeline != nil {
		lines = append(lines, "The evaluate tool scores the pipeline against its gold questions.")
	}
	return strings.Join(lines, " ")
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP transport for this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves Handler on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down MCP server on %s", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
