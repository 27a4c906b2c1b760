// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package audit implements the asynchronous audit trail: a
// fire-and-forget writer that queues entries through an in-process
// message bus and persists them without ever blocking or failing the
// business operation that produced them.
package audit

import (
	"context"
	"strings"
	"time"
)

// Action identifies what happened. The values are stored verbatim in
// the audit_logs table and consumed by reporting, so they are stable.
type Action string

const (
	ActionAssetCreated    Action = "ASSET_CREATED"
	ActionAssetUpdated    Action = "ASSET_UPDATED"
	ActionAssetDeleted    Action = "ASSET_DELETED"
	ActionAssetCheckedOut Action = "ASSET_CHECKED_OUT"
	ActionAssetCheckedIn  Action = "ASSET_CHECKED_IN"

	ActionAssetCreateFailed   Action = "ERROR_ASSET_CREATE"
	ActionAssetUpdateFailed   Action = "ERROR_ASSET_UPDATE"
	ActionAssetDeleteFailed   Action = "ERROR_ASSET_DELETE"
	ActionAssetCheckOutFailed Action = "ERROR_ASSET_CHECKOUT"
	ActionAssetCheckInFailed  Action = "ERROR_ASSET_CHECKIN"

	ActionSystemEvent Action = "SYSTEM_EVENT"
)

// Severity is derived from an entry's content, never supplied by
// callers, so that every producer classifies identically.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Entry is one audit trail record.
type Entry struct {
	ID        string    `json:"id,omitempty"`
	Action    Action    `json:"action"`
	UserID    *string   `json:"user_id,omitempty"`
	AssetID   *string   `json:"asset_id,omitempty"`
	CompanyID string    `json:"company_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists audit entries. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

var errorMarkers = []string{"error", "failed", "failure", "delete", "critical"}

var warnMarkers = []string{"warning", "timeout", "retry", "overdue", "mismatch"}

// Classify derives an entry's severity from its action and detail text.
// Error markers win over warn markers; anything unmarked is info.
func Classify(action Action, details string) Severity {
	text := strings.ToLower(string(action) + " " + details)
	for _, marker := range errorMarkers {
		if strings.Contains(text, marker) {
			return SeverityError
		}
	}
	for _, marker := range warnMarkers {
		if strings.Contains(text, marker) {
			return SeverityWarn
		}
	}
	return SeverityInfo
}
