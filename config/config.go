/*
config.go - Application configuration

PURPOSE:
  Loads configuration from an optional YAML file, fills in defaults and
  applies environment overrides. Command-line flags (cmd/server) are
  applied last by the caller.

PRECEDENCE (lowest to highest):
  1. DefaultConfig()
  2. YAML file (missing file is not an error)
  3. Environment variables
  4. Flags

ENVIRONMENT:
  PORT              server.port
  DATABASE_DRIVER   database.driver ("sqlite3" or "pgx")
  DATABASE_URL      database.dsn
  ADMIN_API_KEY     auth.admin_api_key
  APP_ENV           environment ("development", "production", "test")
  LOG_MODE          logging.mode
  HISTORY_MODE      policy.history_mode ("update_in_place" or "supersede")

SEE ALSO:
  - cmd/server/main.go
  - cmd/policyctl/root.go
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	HistoryUpdateInPlace = "update_in_place"
	HistorySupersede     = "supersede"
)

type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Auth        AuthConfig     `yaml:"auth"`
	Logging     LoggingConfig  `yaml:"logging"`
	Policy      PolicyConfig   `yaml:"policy"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	ReadTimeout  string   `yaml:"read_timeout"`
	WriteTimeout string   `yaml:"write_timeout"`
	IdleTimeout  string   `yaml:"idle_timeout"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	AdminAPIKey string `yaml:"admin_api_key"`
}

type LoggingConfig struct {
	Mode string `yaml:"mode"`
}

type PolicyConfig struct {
	// HistoryMode controls what an upsert does with an existing open record.
	HistoryMode string `yaml:"history_mode"`
}

func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Port:         3000,
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
			IdleTimeout:  "60s",
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "childcare.db",
		},
		Logging: LoggingConfig{Mode: EnvDevelopment},
		Policy:  PolicyConfig{HistoryMode: HistoryUpdateInPlace},
	}
}

// Load reads the YAML file at path (if any) over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		c.Auth.AdminAPIKey = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_MODE"); v != "" {
		c.Logging.Mode = v
	}
	if v := os.Getenv("HISTORY_MODE"); v != "" {
		c.Policy.HistoryMode = strings.ToLower(v)
	}
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite3", "pgx", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Policy.HistoryMode {
	case HistoryUpdateInPlace, HistorySupersede:
	default:
		return fmt.Errorf("unsupported policy.history_mode %q", c.Policy.HistoryMode)
	}
	return nil
}

// IsProduction reports whether the service runs with production semantics
// (admin routes always require an API key).
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) ReadTimeout() time.Duration  { return parseDuration(c.Server.ReadTimeout, 15*time.Second) }
func (c *Config) WriteTimeout() time.Duration { return parseDuration(c.Server.WriteTimeout, 15*time.Second) }
func (c *Config) IdleTimeout() time.Duration  { return parseDuration(c.Server.IdleTimeout, 60*time.Second) }

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
