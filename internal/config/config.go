package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level autobudget.yaml configuration.
type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger"`
	Budget  BudgetConfig  `yaml:"budget"`
	Logging LoggingConfig `yaml:"logging"`
}

// LedgerConfig locates the ledger file.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// BudgetConfig controls reconciliation defaults.
type BudgetConfig struct {
	// StartDate in "YYYY-MM-DD" format; transactions before it are never
	// reconciled. Empty means no lower bound.
	StartDate string `yaml:"start_date,omitempty"`
	Currency  string `yaml:"currency"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads an autobudget.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Path: "ledger.db",
		},
		Budget: BudgetConfig{
			Currency: "EUR",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// StartDate parses the configured reconciliation start date. An empty value
// yields the zero time, meaning no lower bound.
func (c *Config) StartDate() (time.Time, error) {
	if c.Budget.StartDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.Budget.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start_date %q: %w", c.Budget.StartDate, err)
	}
	return t, nil
}
