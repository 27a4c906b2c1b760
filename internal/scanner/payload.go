// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package scanner

import (
	"net/url"
	"strings"
)

// ExtractAssetCode normalizes a decoded payload to an asset code.
// Printed labels carry deep links like https://qrcode.link/a/AST-42,
// where the code is the last path segment. deepLinkHost restricts
// which host is treated as a label link; URLs on any other host, and
// anything that does not parse as an http(s) URL with a path, pass
// through as a raw code. An empty deepLinkHost accepts any host.
func ExtractAssetCode(payload, deepLinkHost string) string {
	payload = strings.TrimSpace(payload)
	u, err := url.Parse(payload)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return payload
	}
	if deepLinkHost != "" && !strings.EqualFold(u.Hostname(), deepLinkHost) {
		return payload
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return payload
	}
	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}
