/*
Package config loads the process configuration.

PURPOSE:
  One immutable Config constructed at startup and passed by value to the
  components that need it. No hidden shared state: components never reach
  for configuration themselves.

SOURCES (later wins):
  1. Built-in defaults
  2. YAML config file (-config flag)
  3. Environment variables with the TALLY_ prefix (envconfig)

UNITS:
  Boundary limits are configured in MAJOR currency units for operator
  convenience and converted to minor units (x100) once at load. Everything
  past Boundaries() is minor units.

EXAMPLE FILE:
  port: 8080
  db_path: tally.db
  limits:
    account_upper: 100
    account_lower: -10
    transaction_upper: 9999
    transaction_lower: -9999
*/
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/tally/ledger-engine/ledger"
)

// EnvPrefix is the prefix for environment overrides, e.g. TALLY_PORT.
const EnvPrefix = "tally"

// Limits are the boundary values in major currency units.
type Limits struct {
	AccountUpper     int64 `yaml:"account_upper" envconfig:"ACCOUNT_UPPER"`
	AccountLower     int64 `yaml:"account_lower" envconfig:"ACCOUNT_LOWER"`
	TransactionUpper int64 `yaml:"transaction_upper" envconfig:"TRANSACTION_UPPER"`
	TransactionLower int64 `yaml:"transaction_lower" envconfig:"TRANSACTION_LOWER"`
}

// Config is the full process configuration. Immutable after Load.
type Config struct {
	Port   int    `yaml:"port" envconfig:"PORT"`
	DBPath string `yaml:"db_path" envconfig:"DB_PATH"`
	Limits Limits `yaml:"limits"`
}

// Default returns the built-in configuration, matching the original
// service's fallbacks.
func Default() Config {
	return Config{
		Port:   8080,
		DBPath: "tally.db",
		Limits: Limits{
			AccountUpper:     100,
			AccountLower:     -10,
			TransactionUpper: 9999,
			TransactionLower: -9999,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults + env only.
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process environment: %w", err)
	}
	return cfg, nil
}

// Boundaries converts the configured major-unit limits into the minor-unit
// boundary policy the engine consumes.
func (c Config) Boundaries() ledger.Boundaries {
	return ledger.Boundaries{
		TransactionMax: c.Limits.TransactionUpper * 100,
		TransactionMin: c.Limits.TransactionLower * 100,
		AccountMax:     c.Limits.AccountUpper * 100,
		AccountMin:     c.Limits.AccountLower * 100,
	}
}
