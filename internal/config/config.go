// Package config provides configuration loading for flowd.
//
// Precedence (highest to lowest): FLOWD_* environment variables, the
// project's .flowd/config.yaml, hardcoded defaults.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

// Config is the tool configuration for one project.
type Config struct {
	Workflow WorkflowConfig `koanf:"workflow"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// WorkflowConfig holds the defaults snapshotted onto every new instance.
type WorkflowConfig struct {
	// GuardLevel is how strictly the hook layer polices off-workflow
	// tool calls: block, warn or off.
	GuardLevel string `koanf:"guard_level"`

	AutoAdvance    bool `koanf:"auto_advance"`
	SyncToExternal bool `koanf:"sync_to_external"`
	MaxRetries     int  `koanf:"max_retries"`
	HistoryEnabled bool `koanf:"history_enabled"`
}

// LoggingConfig controls CLI log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // console or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workflow: WorkflowConfig{
			GuardLevel:     string(workflow.GuardWarn),
			SyncToExternal: true,
			MaxRetries:     3,
			HistoryEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch workflow.GuardLevel(c.Workflow.GuardLevel) {
	case workflow.GuardBlock, workflow.GuardWarn, workflow.GuardOff:
	default:
		return fmt.Errorf("workflow.guard_level must be block, warn or off, got %q", c.Workflow.GuardLevel)
	}
	if c.Workflow.MaxRetries < 0 {
		return fmt.Errorf("workflow.max_retries must be >= 0, got %d", c.Workflow.MaxRetries)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// InstanceConfig converts the workflow section into the per-instance
// configuration applied at start time.
func (c *Config) InstanceConfig() workflow.InstanceConfig {
	return workflow.InstanceConfig{
		GuardLevel:     workflow.GuardLevel(c.Workflow.GuardLevel),
		AutoAdvance:    c.Workflow.AutoAdvance,
		SyncToExternal: c.Workflow.SyncToExternal,
		MaxRetries:     c.Workflow.MaxRetries,
		HistoryEnabled: c.Workflow.HistoryEnabled,
	}
}
