package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given
const DefaultPath = "credit-engine.yaml"

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Approvals ApprovalsConfig `yaml:"approvals"`
	Engine    EngineConfig    `yaml:"engine"`
	Log       LogConfig       `yaml:"log"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres or sqlite3
	DSN    string `yaml:"dsn"`
}

type ApprovalsConfig struct {
	Backend  string `yaml:"backend"` // sql or dynamodb
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

type EngineConfig struct {
	Workers              int   `yaml:"workers"`
	CheckRetries         int   `yaml:"check_retries"`
	ReminderDays         []int `yaml:"reminder_days"`
	ApprovalValidityDays int   `yaml:"approval_validity_days"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var (
	ErrUnsupportedDriver  = errors.New("database driver must be postgres or sqlite3")
	ErrUnsupportedBackend = errors.New("approvals backend must be sql or dynamodb")
	ErrMissingDSN         = errors.New("database dsn is required")
)

// Load reads the YAML file at path. A missing file is not an error: the
// defaults and environment overrides are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"CREDIT_DB_DRIVER", &c.Database.Driver},
		{"CREDIT_DB_DSN", &c.Database.DSN},
		{"CREDIT_APPROVALS_BACKEND", &c.Approvals.Backend},
		{"CREDIT_APPROVALS_TABLE", &c.Approvals.Table},
		{"AWS_REGION", &c.Approvals.Region},
		{"DYNAMODB_ENDPOINT", &c.Approvals.Endpoint},
		{"CREDIT_LOG_LEVEL", &c.Log.Level},
		{"CREDIT_LOG_FORMAT", &c.Log.Format},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.DSN == "" && c.Database.Driver == "postgres" {
		c.Database.DSN = "postgres://localhost/ezcredit?sslmode=disable"
	}
	if c.Approvals.Backend == "" {
		c.Approvals.Backend = "sql"
	}
	if c.Approvals.Table == "" {
		c.Approvals.Table = "credit_approvals"
	}
	if c.Approvals.Region == "" {
		c.Approvals.Region = "us-east-1"
	}
	if c.Engine.Workers <= 0 {
		c.Engine.Workers = 4
	}
	if c.Engine.CheckRetries <= 0 {
		c.Engine.CheckRetries = 3
	}
	if len(c.Engine.ReminderDays) == 0 {
		c.Engine.ReminderDays = []int{1, 7, 15, 30}
	}
	if c.Engine.ApprovalValidityDays <= 0 {
		c.Engine.ApprovalValidityDays = 7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the combination of drivers and backends
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return ErrUnsupportedDriver
	}
	if c.Database.DSN == "" {
		return ErrMissingDSN
	}
	switch c.Approvals.Backend {
	case "sql", "dynamodb":
	default:
		return ErrUnsupportedBackend
	}
	return nil
}
