// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package models

import "time"

// Assignment records one checkout episode of an Asset. InAt stays nil
// while the asset is out; at most one Assignment per asset should be
// open (InAt == nil) at a time, and check-in targets the most recent one.
type Assignment struct {
	ID         string     `json:"id"`
	AssetID    string     `json:"asset_id" validate:"required"`
	AssignedTo string     `json:"assigned_to" validate:"required"`
	Site       string     `json:"site,omitempty"`
	Vehicle    string     `json:"vehicle,omitempty"`
	OutAt      time.Time  `json:"out_at"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	InAt       *time.Time `json:"in_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RecordID implements store.Entity.
func (a Assignment) RecordID() string { return a.ID }

// ModifiedAt implements store.Entity.
func (a Assignment) ModifiedAt() time.Time { return a.UpdatedAt }

// Open reports whether the assignment has not been checked back in.
func (a Assignment) Open() bool { return a.InAt == nil }
