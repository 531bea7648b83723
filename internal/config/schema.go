// Package config provides configuration loading and validation for
// .goldtest/config.json and .goldtest/config.yaml.
package config

// Config represents the complete goldtest configuration.
type Config struct {
	Golds      *GoldsConfig      `json:"golds,omitempty" yaml:"golds,omitempty"`
	Generation *GenerationConfig `json:"generation,omitempty" yaml:"generation,omitempty"`
	Sentinel   *SentinelConfig   `json:"sentinel,omitempty" yaml:"sentinel,omitempty"`
	Database   *DatabaseConfig   `json:"database,omitempty" yaml:"database,omitempty"`
	Output     *OutputConfig     `json:"output,omitempty" yaml:"output,omitempty"`
}

// GoldsConfig locates gold files and the packages that produce them.
type GoldsConfig struct {
	Root     string   `json:"root,omitempty" yaml:"root,omitempty"`         // golds root, relative to the project root
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty"` // go test package patterns
}

// GenerationConfig configures gold generation runs.
type GenerationConfig struct {
	EnvVar string `json:"env_var,omitempty" yaml:"env_var,omitempty"`
}

// SentinelConfig tunes the wildcard sentinel allocator.
type SentinelConfig struct {
	Prefix      string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Length      int    `json:"length,omitempty" yaml:"length,omitempty"`
	Step        int    `json:"step,omitempty" yaml:"step,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
}

// DatabaseConfig configures the db dump and restore commands.
type DatabaseConfig struct {
	Driver string   `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string   `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Tables []string `json:"tables,omitempty" yaml:"tables,omitempty"`
	Dir    string   `json:"dir,omitempty" yaml:"dir,omitempty"` // table golds directory
}

// OutputConfig configures terminal output.
type OutputConfig struct {
	Color *bool `json:"color,omitempty" yaml:"color,omitempty"` // nil means auto-detect
}
