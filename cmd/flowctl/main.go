// Package main implements the flowctl CLI for driving workflows by hand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/config"
	"github.com/fyrsmithlabs/flowd/internal/engine"
	"github.com/fyrsmithlabs/flowd/internal/external"
	"github.com/fyrsmithlabs/flowd/internal/logging"
	"github.com/fyrsmithlabs/flowd/internal/store"
)

var (
	projectRoot string
	jsonOutput  bool
	version     = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "Track a disciplined development workflow",
	Long: `flowctl tracks where a task is in a named pipeline of steps (feature,
bugfix, release, ...), gates progress behind approval checkpoints, and
keeps an append-only history per workflow.

Every command is a single read-compute-write cycle against the project's
.flowd directory; there is no server process.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project-root", "", "project root (default: $FLOWD_PROJECT_ROOT or the working directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of text")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(abortCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(typesCmd)
}

// resolveRoot picks the project root from flag, env, or cwd.
func resolveRoot() (string, error) {
	if projectRoot != "" {
		return projectRoot, nil
	}
	if env := os.Getenv("FLOWD_PROJECT_ROOT"); env != "" {
		return env, nil
	}
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	return root, nil
}

// newEngine wires config, store, catalog and external sync for one
// invocation.
func newEngine() (*engine.Service, *config.Config, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(root, logger.Named("store"))
	sync := external.NewMemorySync(root, logger.Named("external"))
	eng, err := engine.NewService(st, catalog.Default(), sync, logger.Named("engine"))
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}
