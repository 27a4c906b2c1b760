// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv provides the minimum settings Load needs to pass
// validation.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QM_GATEWAY_URL", "https://xyzcompany.example.co")
	t.Setenv("QM_GATEWAY_API_KEY", "test-api-key")
	t.Setenv("QM_SECURITY_AUTH_DISABLED", "true")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://xyzcompany.example.co", cfg.Gateway.URL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.True(t, cfg.Gateway.Breaker)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "/data/quartermaster/cache", cfg.Cache.Path)
	assert.Equal(t, 8484, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Audit.BufferSize)
	assert.Equal(t, "audit_logs", cfg.Audit.Table)
	assert.Equal(t, 30, cfg.Scanner.FrameRate)
	assert.Equal(t, "qrcode.link", cfg.Scanner.DeepLinkHost)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QM_SERVER_PORT", "9090")
	t.Setenv("QM_GATEWAY_TIMEOUT", "45s")
	t.Setenv("QM_CACHE_ENABLED", "false")
	t.Setenv("QM_AUDIT_BUFFER_SIZE", "250")
	t.Setenv("QM_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Gateway.Timeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 250, cfg.Audit.BufferSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7777
scanner:
  deep_link_host: assets.example.com
`), 0o600))
	t.Setenv("QM_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "assets.example.com", cfg.Scanner.DeepLinkHost)
}

func TestEnvBeatsConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7777\n"), 0o600))
	t.Setenv("QM_CONFIG_PATH", path)
	t.Setenv("QM_SERVER_PORT", "6001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6001, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Gateway.URL = "https://xyzcompany.example.co"
		cfg.Gateway.APIKey = "key"
		cfg.Security.AuthDisabled = true
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing gateway url", func(t *testing.T) {
		cfg := base()
		cfg.Gateway.URL = ""
		assert.ErrorIs(t, cfg.Validate(), ErrGatewayURLMissing)
	})

	t.Run("relative gateway url", func(t *testing.T) {
		cfg := base()
		cfg.Gateway.URL = "xyzcompany.example.co/rest"
		assert.ErrorIs(t, cfg.Validate(), ErrGatewayURLInvalid)
	})

	t.Run("non-http scheme", func(t *testing.T) {
		cfg := base()
		cfg.Gateway.URL = "ftp://xyzcompany.example.co"
		assert.ErrorIs(t, cfg.Validate(), ErrGatewayURLInvalid)
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := base()
		cfg.Gateway.APIKey = "  "
		assert.ErrorIs(t, cfg.Validate(), ErrGatewayAPIKeyMissing)
	})

	t.Run("jwt secret required when auth enabled", func(t *testing.T) {
		cfg := base()
		cfg.Security.AuthDisabled = false
		assert.ErrorIs(t, cfg.Validate(), ErrJWTSecretMissing)

		cfg.Security.JWTSecret = "s3cret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive buffer", func(t *testing.T) {
		cfg := base()
		cfg.Audit.BufferSize = 0
		assert.Error(t, cfg.Validate())
	})
}
