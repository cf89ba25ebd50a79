package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagefort/pagefort/pkg/policy"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "development", cfg.Security.Mode)
	assert.Equal(t, "http://localhost:8080", cfg.Security.APIOrigin)
	assert.Empty(t, cfg.Security.TrustedOrigins)
	assert.Contains(t, cfg.Security.ExcludedPrefixes, "/api/")
	assert.Contains(t, cfg.Security.ExcludedPaths, "/favicon.ico")
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagefort.yaml")
	data := `
server:
  address: ":9000"
security:
  mode: production
  api_origin: https://api.example.com
  trusted_origins: "https://a.com, https://b.com"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "production", cfg.Security.Mode)
	assert.Equal(t, policy.ModeProduction, cfg.Security.ParsedMode())
	assert.Equal(t, "https://api.example.com", cfg.Security.APIOrigin)
	assert.Equal(t, "https://a.com, https://b.com", cfg.Security.TrustedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAGEFORT_ADDR", ":7070")
	t.Setenv("PAGEFORT_MODE", "production")
	t.Setenv("PAGEFORT_API_ORIGIN", "https://api.corp.example")
	t.Setenv("PAGEFORT_TRUSTED_ORIGINS", "https://cdn.example")
	t.Setenv("PAGEFORT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "production", cfg.Security.Mode)
	assert.Equal(t, "https://api.corp.example", cfg.Security.APIOrigin)
	assert.Equal(t, "https://cdn.example", cfg.Security.TrustedOrigins)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	t.Setenv("PAGEFORT_MODE", "staging")

	_, err := Load("")
	assert.ErrorContains(t, err, "invalid mode")
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("PAGEFORT_LOG_LEVEL", "verbose")

	_, err := Load("")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestValidateNormalizesMode(t *testing.T) {
	t.Setenv("PAGEFORT_MODE", "PROD")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Security.Mode)
}
