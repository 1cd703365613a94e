package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// readHeaderTimeout bounds slow-header clients on the HTTP transport.
const readHeaderTimeout = 10 * time.Second

// serverInstructions is sent to the client during initialization so an
// assistant knows how the tools fit together before its first call.
const serverInstructions = `testbrain turns ingested product documentation and an HTML page
under test into grounded test artifacts. Use search_evidence to inspect what
the knowledge base knows about a feature, generate_test_cases to produce a
test plan for a natural-language request (each case cites the documents it
is grounded in), and generate_script to turn one of those cases into a
Python Selenium script whose selectors are validated against the ingested
markup. The knowledge-base status resource reports whether a usable build
is active.`

// Server exposes the testing brain over the Model Context Protocol.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "testbrain",
		Version: Version,
	}
	opts := &mcp.ServerOptions{
		Instructions: serverInstructions,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, opts),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
