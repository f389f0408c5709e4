// Package config loads ackulator configuration from .ackulator/config.yaml,
// with environment overrides on top. Missing files yield defaults, so a bare
// checkout works without any setup.
package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all ackulator configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Quantity comparison
	Comparison ComparisonConfig `yaml:"comparison"`

	// Check statement behavior
	Checks ChecksConfig `yaml:"checks"`

	// Value rendering
	Display DisplayConfig `yaml:"display"`

	// Standard environment bootstrap
	Catalog CatalogConfig `yaml:"catalog"`

	// Datalog kernel limits
	Kernel KernelConfig `yaml:"kernel"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ComparisonConfig tunes quantity equality.
type ComparisonConfig struct {
	// Epsilon is the relative tolerance applied when either side of a
	// comparison is inexact, written as a decimal string ("1e-9"). "0"
	// compares exactly even for inexact values.
	Epsilon string `yaml:"epsilon"`
}

// ChecksConfig tunes check statement behavior.
type ChecksConfig struct {
	// FatalFailures escalates a failing check from a recorded result to a
	// fatal statement error.
	FatalFailures bool `yaml:"fatal_failures"`
}

// DisplayConfig tunes value rendering.
type DisplayConfig struct {
	// Precision is the significant digit count for inexact values.
	Precision int `yaml:"precision"`
}

// CatalogConfig controls the standard environment bootstrap.
type CatalogConfig struct {
	// StandardUnits preloads the embedded standard catalog (metric
	// Length/Mass/Time units, customary derived units, constants).
	StandardUnits bool `yaml:"standard_units"`
}

// KernelConfig bounds the Datalog kernel.
type KernelConfig struct {
	// FactLimit caps the extensional fact count. <= 0 means unlimited.
	FactLimit int `yaml:"fact_limit"`
}

// LoggingConfig configures the category file logger. The logging package
// reads this section of the same file independently.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ackulator",
		Version: "0.1.0",

		Comparison: ComparisonConfig{
			Epsilon: "1e-9",
		},

		Checks: ChecksConfig{
			FatalFailures: false,
		},

		Display: DisplayConfig{
			Precision: 12,
		},

		Catalog: CatalogConfig{
			StandardUnits: true,
		},

		Kernel: KernelConfig{
			FactLimit: 1000000,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DefaultPath returns the config file path inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".ackulator", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file is not an
// error; defaults apply. Environment overrides apply last either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file, creating the directory as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies ACKULATOR_* environment variables. Malformed
// values are ignored; the file or default value stays.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ACKULATOR_EPSILON"); v != "" {
		if _, ok := new(big.Rat).SetString(v); ok {
			c.Comparison.Epsilon = v
		}
	}
	if v := os.Getenv("ACKULATOR_PRECISION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Display.Precision = n
		}
	}
	if v := os.Getenv("ACKULATOR_FACT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Kernel.FactLimit = n
		}
	}
	if v := os.Getenv("ACKULATOR_FATAL_CHECKS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Checks.FatalFailures = b
		}
	}
	if v := os.Getenv("ACKULATOR_STANDARD_UNITS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Catalog.StandardUnits = b
		}
	}
	if v := os.Getenv("ACKULATOR_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}

// GetEpsilon returns the comparison tolerance as an exact rational. Returns
// nil for "0" (exact comparison) and the 1e-9 default for unparsable text.
func (c *Config) GetEpsilon() *big.Rat {
	eps, ok := new(big.Rat).SetString(c.Comparison.Epsilon)
	if !ok {
		return big.NewRat(1, 1_000_000_000)
	}
	if eps.Sign() == 0 {
		return nil
	}
	return eps
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if eps, ok := new(big.Rat).SetString(c.Comparison.Epsilon); !ok {
		return fmt.Errorf("invalid comparison epsilon: %q", c.Comparison.Epsilon)
	} else if eps.Sign() < 0 {
		return fmt.Errorf("comparison epsilon must not be negative: %q", c.Comparison.Epsilon)
	}

	if c.Display.Precision < 1 {
		return fmt.Errorf("display precision must be at least 1, got %d", c.Display.Precision)
	}

	if c.Logging.Level != "" {
		valid := false
		for _, l := range ValidLogLevels {
			if c.Logging.Level == l {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
		}
	}

	return nil
}
