package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateTimeoutSeconds validates a timeout value in seconds
func (v *Validator) ValidateTimeoutSeconds(name string, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, seconds)
	}
	if seconds > 3600 {
		return fmt.Errorf("%s too large (max 3600 seconds), got %d", name, seconds)
	}
	return nil
}

// ValidateTiers validates a tier list
func (v *Validator) ValidateTiers(name string, tiers []string) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%s tier list cannot be empty", name)
	}
	for _, tier := range tiers {
		if strings.TrimSpace(tier) == "" {
			return fmt.Errorf("%s tier list contains an empty tier", name)
		}
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if cfg.Logging.Level != "" {
		if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
			errors = append(errors, err)
		}
	}

	if err := v.ValidateTimeoutSeconds("bridge.ceiling_timeout_seconds", cfg.Bridge.CeilingTimeoutSeconds); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateTimeoutSeconds("executor.default_timeout_seconds", cfg.Executor.DefaultTimeoutSeconds); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateTiers("tiers.admin", cfg.Tiers.Admin); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateTiers("tiers.read", cfg.Tiers.Read); err != nil {
		errors = append(errors, err)
	}

	return errors
}
