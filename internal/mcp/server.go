// ABOUTME: MCP server initialization and configuration
// ABOUTME: Exposes track tools and the cached run collection to AI agents

package mcp

import (
	"context"
	"fmt"

	"github.com/harper/stride/internal/storage"
	"github.com/harper/stride/internal/track"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps an MCP server over the run cache.
type Server struct {
	mcp      *mcp.Server
	repo     storage.RunRepository
	producer string
}

// Option configures a Server.
type Option func(*Server)

// WithProducer sets the creator name written by convert_track.
func WithProducer(name string) Option {
	return func(s *Server) { s.producer = name }
}

// NewServer creates MCP server with all capabilities.
func NewServer(repo storage.RunRepository, opts ...Option) (*Server, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "stride",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		repo:     repo,
		producer: track.DefaultProducer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
