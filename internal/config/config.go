// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package config loads and validates application configuration using
// Koanf v2 with layered sources: struct defaults, an optional YAML file
// and QM_-prefixed environment variables.
package config

import "time"

// Config is the root configuration for the Quartermaster server.
type Config struct {
	Gateway  GatewayConfig  `koanf:"gateway"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Audit    AuditConfig    `koanf:"audit"`
	Scanner  ScannerConfig  `koanf:"scanner"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// GatewayConfig configures the remote data gateway (the hosted backend's
// row interface). URL and APIKey are mandatory: without them no remote
// operation may be attempted.
type GatewayConfig struct {
	// URL is the project base URL, e.g. https://xyzcompany.example.co.
	URL string `koanf:"url"`

	// APIKey is the public API key sent with every request.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// Breaker toggles circuit-breaker protection on remote calls.
	Breaker bool `koanf:"breaker"`
}

// CacheConfig configures the local fallback mirror.
type CacheConfig struct {
	// Path is the badger database directory.
	Path string `koanf:"path"`

	// Enabled toggles the offline fallback entirely.
	Enabled bool `koanf:"enabled"`
}

// ServerConfig configures the HTTP API surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// SecurityConfig configures verification of tokens issued by the hosted
// auth provider. Token issuance and session management stay delegated.
type SecurityConfig struct {
	// JWTSecret is the provider's shared HS256 signing secret.
	JWTSecret string `koanf:"jwt_secret"`

	// AuthDisabled skips token verification. Development only.
	AuthDisabled bool `koanf:"auth_disabled"`
}

// AuditConfig configures the audit trail writer.
type AuditConfig struct {
	Enabled bool `koanf:"enabled"`

	// BufferSize is the capacity of the in-process write queue; events
	// beyond it are dropped and counted, never blocking the caller.
	BufferSize int `koanf:"buffer_size"`

	// Table is the remote table audit entries are appended to.
	Table string `koanf:"table"`
}

// ScannerConfig configures the QR resolution loop.
type ScannerConfig struct {
	// FrameRate caps decode attempts per second while scanning.
	FrameRate int `koanf:"frame_rate"`

	// DeepLinkHost is the host whose URLs embed an asset code as the
	// trailing path segment.
	DeepLinkHost string `koanf:"deep_link_host"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:     "",
			APIKey:  "",
			Timeout: 30 * time.Second,
			Breaker: true,
		},
		Cache: CacheConfig{
			Path:    "/data/quartermaster/cache",
			Enabled: true,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8484,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Security: SecurityConfig{
			JWTSecret:    "",
			AuthDisabled: false,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1000,
			Table:      "audit_logs",
		},
		Scanner: ScannerConfig{
			FrameRate:    30,
			DeepLinkHost: "qrcode.link",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
