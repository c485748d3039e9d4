// Package main runs the flowd MCP server on stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/config"
	"github.com/fyrsmithlabs/flowd/internal/engine"
	"github.com/fyrsmithlabs/flowd/internal/external"
	"github.com/fyrsmithlabs/flowd/internal/logging"
	"github.com/fyrsmithlabs/flowd/internal/mcp"
	"github.com/fyrsmithlabs/flowd/internal/store"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flowd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := os.Getenv("FLOWD_PROJECT_ROOT")
	if root == "" {
		var err error
		if root, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	// The stdio transport owns stdout; logs go to stderr as JSON so a
	// supervising tool can collect them.
	logger, err := logging.New(cfg.Logging.Level, "json")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failures are harmless

	st := store.New(root, logger.Named("store"))
	sync := external.NewMemorySync(root, logger.Named("external"))
	eng, err := engine.NewService(st, catalog.Default(), sync, logger.Named("engine"))
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "flowd",
		Version: version,
		Logger:  logger.Named("mcp"),
	}, eng)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("flowd starting",
		zap.String("version", version),
		zap.String("project_root", root))
	return srv.Run(ctx)
}
