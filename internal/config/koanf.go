// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/quartermaster/config.yaml",
	"/etc/quartermaster/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "QM_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "QM_"

// envKeyOverrides maps environment variable names (with prefix stripped)
// to koanf paths where the generic underscore-to-dot transform would
// split a multi-word key incorrectly.
var envKeyOverrides = map[string]string{
	"GATEWAY_API_KEY":          "gateway.api_key",
	"SERVER_CORS_ORIGINS":      "server.cors_origins",
	"SERVER_RATE_LIMIT_REQS":   "server.rate_limit_reqs",
	"SERVER_RATE_LIMIT_WINDOW": "server.rate_limit_window",
	"SECURITY_JWT_SECRET":      "security.jwt_secret",
	"SECURITY_AUTH_DISABLED":   "security.auth_disabled",
	"AUDIT_BUFFER_SIZE":        "audit.buffer_size",
	"SCANNER_FRAME_RATE":       "scanner.frame_rate",
	"SCANNER_DEEP_LINK_HOST":   "scanner.deep_link_host",
}

// Load builds the configuration from layered sources:
//  1. struct defaults
//  2. optional YAML config file
//  3. QM_-prefixed environment variables (highest priority)
//
// The result is validated before being returned; a gateway URL or API
// key that is missing or malformed fails here, before any network call
// could be attempted.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransform maps QM_GATEWAY_URL to gateway.url, consulting the
// override table for keys that contain underscores of their own.
func envTransform(s string) string {
	key := strings.TrimPrefix(s, envPrefix)
	if path, ok := envKeyOverrides[key]; ok {
		return path
	}
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
