// Package config loads engine configuration from YAML with environment
// variable overrides. Precedence: defaults, then file values, then
// AGENTRELAY_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/agentrelay/agentrelay/compaction"
)

// Config is the full engine configuration.
type Config struct {
	// MaxDelegationDepth bounds delegation chain length.
	MaxDelegationDepth int `yaml:"max_delegation_depth"`
	// DefaultModel optionally overrides the engine's default model id.
	DefaultModel string `yaml:"default_model"`
	// Compaction configures the conversation compactor.
	Compaction compaction.Config `yaml:"compaction"`
	// Log configures logging output.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		MaxDelegationDepth: 3,
		Compaction:         compaction.DefaultConfig(),
		Log:                LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML config file, layering it over Default and applying
// environment overrides. An empty path skips the file and returns defaults
// plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AGENTRELAY_MAX_DELEGATION_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxDelegationDepth = n
		}
	}
	if v := os.Getenv("AGENTRELAY_DEFAULT_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("AGENTRELAY_COMPACTION_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Compaction.Enabled = b
		}
	}
	if v := os.Getenv("AGENTRELAY_COMPACTION_TOKEN_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Compaction.TokenLimit = n
		}
	}
	if v := os.Getenv("AGENTRELAY_COMPACTION_PRESERVE_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Compaction.PreserveTokens = n
		}
	}
	if v := os.Getenv("AGENTRELAY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("AGENTRELAY_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}
