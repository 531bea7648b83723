package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	warnings, err := Validate(Default())
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"absolute root", func(c *Config) { c.Golds.Root = "/abs/golds" }, "golds.root"},
		{"escaping root", func(c *Config) { c.Golds.Root = "a/../../b" }, "golds.root"},
		{"empty package", func(c *Config) { c.Golds.Packages = []string{"./...", " "} }, "golds.packages[1]"},
		{"lowercase env var", func(c *Config) { c.Generation.EnvVar = "gen" }, "generation.env_var"},
		{"prefix with symbol", func(c *Config) { c.Sentinel.Prefix = "W-" }, "sentinel.prefix"},
		{"short length", func(c *Config) { c.Sentinel.Length = 2 }, "sentinel.length"},
		{"negative step", func(c *Config) { c.Sentinel.Step = -1 }, "sentinel.step"},
		{"negative attempts", func(c *Config) { c.Sentinel.MaxAttempts = -3 }, "sentinel.max_attempts"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.modify(cfg)

			_, err := Validate(cfg)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.True(t, strings.HasPrefix(err.Error(), tt.field+": "))
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Sentinel.MaxAttempts = 2
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "sentinel.max_attempts")
}

func TestValidateEnvVar(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"GOLDTEST_GEN", "_X", "A1"} {
		assert.NoError(t, ValidateEnvVar(name), name)
	}
	for _, name := range []string{"", "1A", "gen", "A-B"} {
		assert.Error(t, ValidateEnvVar(name), name)
	}
}
