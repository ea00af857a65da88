// ABOUTME: Configuration loading and parsing for lodgekeep
// ABOUTME: Supports YAML files with environment variable expansion and sane defaults

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete lodgekeep configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Lease    LeaseConfig    `yaml:"lease"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds session verification configuration
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	CookieName string `yaml:"cookie_name"`
}

// LeaseConfig holds the lease engine conventions
type LeaseConfig struct {
	RenewalWindowDays   int   `yaml:"renewal_window_days"`   // default 60
	RenewalResponseDays int   `yaml:"renewal_response_days"` // default 30
	DepositTolerance    int64 `yaml:"deposit_tolerance"`     // default 1
}

// UpstreamConfig holds the base URLs of the platform services the lease
// engine calls out to.
type UpstreamConfig struct {
	DirectoryURL string `yaml:"directory_url"` // identity directory + property catalog
	MediaURL     string `yaml:"media_url"`     // signature/file upload service
	PaymentsURL  string `yaml:"payments_url"`  // refund requests
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "0.0.0.0:8080"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "lk_session"
	}
	if c.Lease.RenewalWindowDays == 0 {
		c.Lease.RenewalWindowDays = 60
	}
	if c.Lease.RenewalResponseDays == 0 {
		c.Lease.RenewalResponseDays = 30
	}
	if c.Lease.DepositTolerance == 0 {
		c.Lease.DepositTolerance = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Lease.RenewalWindowDays < 0 {
		return fmt.Errorf("lease.renewal_window_days cannot be negative")
	}
	if c.Lease.RenewalResponseDays < 0 {
		return fmt.Errorf("lease.renewal_response_days cannot be negative")
	}
	if c.Lease.DepositTolerance < 0 {
		return fmt.Errorf("lease.deposit_tolerance cannot be negative")
	}
	return nil
}
