// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validation errors for configuration values that must be caught before
// any remote operation is attempted.
var (
	ErrGatewayURLMissing    = errors.New("gateway.url is required")
	ErrGatewayURLInvalid    = errors.New("gateway.url must be an absolute http(s) URL")
	ErrGatewayAPIKeyMissing = errors.New("gateway.api_key is required")
	ErrJWTSecretMissing     = errors.New("security.jwt_secret is required unless auth is disabled")
)

// Validate checks the configuration for fatal problems. The gateway URL
// and API key checks implement the startup contract: their absence must
// fail before any network call is issued.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.URL) == "" {
		return ErrGatewayURLMissing
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrGatewayURLInvalid
	}
	if strings.TrimSpace(c.Gateway.APIKey) == "" {
		return ErrGatewayAPIKeyMissing
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if !c.Security.AuthDisabled && strings.TrimSpace(c.Security.JWTSecret) == "" {
		return ErrJWTSecretMissing
	}

	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit.buffer_size must be positive, got %d", c.Audit.BufferSize)
	}
	if c.Scanner.FrameRate <= 0 {
		return fmt.Errorf("scanner.frame_rate must be positive, got %d", c.Scanner.FrameRate)
	}

	return nil
}
