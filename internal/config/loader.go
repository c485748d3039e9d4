package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/flowd/internal/store"
)

const (
	configFile = "config.yaml"

	// envPrefix scopes environment overrides, e.g.
	// FLOWD_WORKFLOW_GUARD_LEVEL -> workflow.guard_level.
	envPrefix = "FLOWD_"
)

// Installed reports whether the project has been set up for flowd (its
// .flowd directory exists). Callers surface the negative case as a
// distinct "setup required" condition rather than an engine error.
func Installed(projectRoot string) bool {
	info, err := os.Stat(filepath.Join(projectRoot, store.DirName))
	return err == nil && info.IsDir()
}

// ConfigPath returns the project config file location.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, store.DirName, configFile)
}

// Load builds the configuration for a project root. A missing config
// file is fine (defaults apply); a malformed one is an error, since
// silently ignoring an operator's config would be worse than failing.
func Load(projectRoot string) (*Config, error) {
	k := koanf.New(".")

	path := ConfigPath(projectRoot)
	if data, err := os.ReadFile(path); err == nil {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	// Environment overrides: strip the prefix, lowercase, and split on
	// the first underscore into section.field_name.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
