package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main capgate configuration
type Config struct {
	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Bridge
	Bridge BridgeConfig `json:"bridge" mapstructure:"bridge"`

	// Executor
	Executor ExecutorConfig `json:"executor" mapstructure:"executor"`

	// Tiers
	Tiers TiersConfig `json:"tiers" mapstructure:"tiers"`

	// Capability policy file (tiers + deprecation), hot-reloaded when present
	PolicyPath string `json:"policy_path" mapstructure:"policy_path"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// BridgeConfig holds invocation bridge configuration
type BridgeConfig struct {
	CeilingTimeoutSeconds int  `json:"ceiling_timeout_seconds" mapstructure:"ceiling_timeout_seconds"`
	EnforceTierOnInvoke   bool `json:"enforce_tier_on_invoke" mapstructure:"enforce_tier_on_invoke"`
	ValidateArgs          bool `json:"validate_args" mapstructure:"validate_args"`
}

// ExecutorConfig holds process executor configuration
type ExecutorConfig struct {
	DefaultTimeoutSeconds int      `json:"default_timeout_seconds" mapstructure:"default_timeout_seconds"`
	ExtraDenyPatterns     []string `json:"extra_deny_patterns" mapstructure:"extra_deny_patterns"`
}

// TiersConfig maps the built-in capability groups to authorization tiers
type TiersConfig struct {
	Admin []string `json:"admin" mapstructure:"admin"`
	Read  []string `json:"read" mapstructure:"read"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
		Bridge: BridgeConfig{
			CeilingTimeoutSeconds: 60,
			EnforceTierOnInvoke:   false,
			ValidateArgs:          false,
		},
		Executor: ExecutorConfig{
			DefaultTimeoutSeconds: 30,
		},
		Tiers: TiersConfig{
			Admin: []string{"admin"},
			Read:  []string{"admin", "operator", "viewer"},
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
