package config

import "github.com/AndreyAkinshin/goldtest/pkg/gold"

// Default configuration values.
const (
	DefaultGoldsRoot   = gold.DefaultRoot
	DefaultPackages    = "./..."
	DefaultEnvVar      = gold.GenerationEnv
	DefaultDriver      = "sqlite"
	DefaultDatabaseDir = "testdata/db"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	applyGoldsDefaults(cfg)
	applyGenerationDefaults(cfg)
	applySentinelDefaults(cfg)
	applyDatabaseDefaults(cfg)
	if cfg.Output == nil {
		cfg.Output = &OutputConfig{}
	}
}

func applyGoldsDefaults(cfg *Config) {
	if cfg.Golds == nil {
		cfg.Golds = &GoldsConfig{}
	}
	if cfg.Golds.Root == "" {
		cfg.Golds.Root = DefaultGoldsRoot
	}
	if len(cfg.Golds.Packages) == 0 {
		cfg.Golds.Packages = []string{DefaultPackages}
	}
}

func applyGenerationDefaults(cfg *Config) {
	if cfg.Generation == nil {
		cfg.Generation = &GenerationConfig{}
	}
	if cfg.Generation.EnvVar == "" {
		cfg.Generation.EnvVar = DefaultEnvVar
	}
}

func applySentinelDefaults(cfg *Config) {
	if cfg.Sentinel == nil {
		cfg.Sentinel = &SentinelConfig{}
	}
	if cfg.Sentinel.Prefix == "" {
		cfg.Sentinel.Prefix = gold.DefaultSentinelPrefix
	}
	if cfg.Sentinel.Length == 0 {
		cfg.Sentinel.Length = gold.DefaultSentinelLength
	}
	if cfg.Sentinel.Step == 0 {
		cfg.Sentinel.Step = gold.DefaultSentinelStep
	}
	if cfg.Sentinel.MaxAttempts == 0 {
		cfg.Sentinel.MaxAttempts = gold.DefaultSentinelMaxAttempts
	}
}

func applyDatabaseDefaults(cfg *Config) {
	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDriver
	}
	if cfg.Database.Dir == "" {
		cfg.Database.Dir = DefaultDatabaseDir
	}
}

// Allocator builds the sentinel allocator described by the configuration.
func (c *Config) Allocator() *gold.SentinelAllocator {
	s := c.Sentinel
	if s == nil {
		return gold.NewSentinelAllocator()
	}
	return &gold.SentinelAllocator{
		Prefix:        s.Prefix,
		InitialLength: s.Length,
		Step:          s.Step,
		MaxAttempts:   s.MaxAttempts,
	}
}

// Codec builds a codec that uses the configured sentinel allocator.
func (c *Config) Codec() *gold.Codec {
	return gold.NewCodec(gold.WithSentinelAllocator(c.Allocator()))
}
