// Package config provides configuration structures and loading logic for
// the pagefort server. Configuration is resolved once at process start and
// treated as immutable afterwards.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pagefort/pagefort/pkg/policy"
)

// Config holds the global configuration for the server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Branding  BrandingConfig  `yaml:"branding"`
	Messages  MessagesConfig  `yaml:"messages"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// SecurityConfig holds the inputs of the security-header gate.
type SecurityConfig struct {
	// Mode is the deployment mode: development or production.
	Mode string `yaml:"mode"`
	// APIOrigin is the externally configured API base URL permitted as a
	// connect-src destination.
	APIOrigin string `yaml:"api_origin"`
	// TrustedOrigins is a comma-separated list of additional origins
	// permitted as connect-src destinations. Empty if unset.
	TrustedOrigins string `yaml:"trusted_origins"`
	// ExcludedPrefixes and ExcludedPaths define the requests that bypass
	// the gate entirely (static assets, framework-internal routes,
	// well-known files).
	ExcludedPrefixes []string `yaml:"excluded_prefixes"`
	ExcludedPaths    []string `yaml:"excluded_paths"`
}

// BrandingConfig holds configuration for the branding resolver.
type BrandingConfig struct {
	File string `yaml:"file"`
}

// MessagesConfig holds configuration for the translation catalog.
type MessagesConfig struct {
	File string `yaml:"file"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads configuration from a file and applies environment variable
// overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Server: ServerConfig{
			Address: ":8080",
		},
		Security: SecurityConfig{
			Mode:      string(policy.ModeDevelopment),
			APIOrigin: "http://localhost:8080",
			ExcludedPrefixes: []string{
				"/api/",
				"/_assets/",
			},
			ExcludedPaths: []string{
				"/favicon.ico",
				"/robots.txt",
				"/sitemap.xml",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if path != "" {
		//nolint:gosec // Config file path is controlled by admin/operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("PAGEFORT_ADDR"); val != "" {
		cfg.Server.Address = val
	}

	if val := os.Getenv("PAGEFORT_MODE"); val != "" {
		cfg.Security.Mode = val
	}
	if val := os.Getenv("PAGEFORT_API_ORIGIN"); val != "" {
		cfg.Security.APIOrigin = val
	}
	if val := os.Getenv("PAGEFORT_TRUSTED_ORIGINS"); val != "" {
		cfg.Security.TrustedOrigins = val
	}

	if val := os.Getenv("PAGEFORT_BRANDING_FILE"); val != "" {
		cfg.Branding.File = val
	}
	if val := os.Getenv("PAGEFORT_MESSAGES_FILE"); val != "" {
		cfg.Messages.File = val
	}

	if val := os.Getenv("PAGEFORT_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("PAGEFORT_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}

	if val := os.Getenv("PAGEFORT_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("security configuration: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}

	return nil
}

// Validate performs validation of server configuration.
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = ":8080"
	}
	return nil
}

// Validate performs validation of the security configuration.
func (c *SecurityConfig) Validate() error {
	mode, err := policy.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	c.Mode = string(mode)

	if strings.TrimSpace(c.APIOrigin) == "" {
		c.APIOrigin = "http://localhost:8080"
	}
	if _, err := url.Parse(c.APIOrigin); err != nil {
		return fmt.Errorf("invalid api_origin %q: %w", c.APIOrigin, err)
	}

	return nil
}

// Validate performs validation of logging configuration.
func (c *LoggingConfig) Validate() error {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = "info"
	}

	level := strings.TrimSpace(strings.ToLower(c.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Level = level
		return nil
	default:
		return fmt.Errorf("invalid log level %q, supported levels: debug, info, warn, error", c.Level)
	}
}

// ParsedMode returns the parsed deployment mode. Validate must have
// succeeded.
func (c *SecurityConfig) ParsedMode() policy.Mode {
	mode, _ := policy.ParseMode(c.Mode)
	return mode
}
