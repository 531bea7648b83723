package config

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/AndreyAkinshin/goldtest/pkg/dbsnap"
)

var (
	// Environment variable: uppercase letters, digits and underscores.
	envVarPattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

	// Sentinel prefix: characters encoding/json writes verbatim.
	sentinelPrefixPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration with defaults applied and returns warnings
// for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if err := validateGolds(cfg.Golds); err != nil {
		return nil, err
	}
	if err := ValidateEnvVar(cfg.Generation.EnvVar); err != nil {
		return nil, err
	}
	if err := validateSentinel(cfg.Sentinel); err != nil {
		return nil, err
	}
	if _, err := dbsnap.ParseDialect(cfg.Database.Driver); err != nil {
		return nil, &ValidationError{Field: "database.driver", Message: `must be "sqlite" or "postgres"`}
	}

	if cfg.Sentinel.MaxAttempts < 8 {
		warnings = append(warnings, fmt.Sprintf("sentinel.max_attempts is %d; large payloads may fail to encode", cfg.Sentinel.MaxAttempts))
	}
	return warnings, nil
}

func validateGolds(g *GoldsConfig) error {
	root := path.Clean(strings.ReplaceAll(g.Root, "\\", "/"))
	if path.IsAbs(root) {
		return &ValidationError{Field: "golds.root", Message: "must be relative to the project root"}
	}
	if root == ".." || strings.HasPrefix(root, "../") {
		return &ValidationError{Field: "golds.root", Message: "must stay inside the project root"}
	}
	for i, p := range g.Packages {
		if strings.TrimSpace(p) == "" {
			return &ValidationError{Field: fmt.Sprintf("golds.packages[%d]", i), Message: "must not be empty"}
		}
	}
	return nil
}

func validateSentinel(s *SentinelConfig) error {
	if !sentinelPrefixPattern.MatchString(s.Prefix) {
		return &ValidationError{
			Field:   "sentinel.prefix",
			Message: "must match pattern ^[A-Za-z][A-Za-z0-9_]*$",
		}
	}
	if s.Length < 4 {
		return &ValidationError{Field: "sentinel.length", Message: "must be at least 4"}
	}
	if s.Step < 1 {
		return &ValidationError{Field: "sentinel.step", Message: "must be positive"}
	}
	if s.MaxAttempts < 1 {
		return &ValidationError{Field: "sentinel.max_attempts", Message: "must be positive"}
	}
	return nil
}

// ValidateEnvVar checks if name is a valid generation switch name.
func ValidateEnvVar(name string) error {
	if !envVarPattern.MatchString(name) {
		return &ValidationError{
			Field:   "generation.env_var",
			Message: "must match pattern ^[A-Z_][A-Z0-9_]*$",
		}
	}
	return nil
}
