// Package mcp exposes the workflow engine as MCP tools over stdio.
//
// The handlers are thin: they translate tool arguments into engine
// calls and engine Results into tool outputs, nothing more.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowd/internal/engine"
)

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "flowd").
	Name string

	// Version is the server version (default: "dev").
	Version string

	// Logger for structured logging.
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "flowd",
		Version: "dev",
		Logger:  zap.NewNop(),
	}
}

// Server wires workflow tools onto an MCP server.
type Server struct {
	mcp    *mcp.Server
	engine *engine.Service
	logger *zap.Logger
}

// NewServer creates the server and registers all workflow tools.
func NewServer(cfg *Config, eng *engine.Service) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if eng == nil {
		return nil, errors.New("engine service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    cfg.Name,
				Version: cfg.Version,
			},
			nil,
		),
		engine: eng,
		logger: cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP on the stdio transport until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
