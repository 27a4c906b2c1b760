// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package models

import "time"

// InspectionType distinguishes scheduled inspections from warranty expiries.
type InspectionType string

const (
	InspectionTypeInspection InspectionType = "inspection"
	InspectionTypeWarranty   InspectionType = "warranty"
)

// Inspection is a dated maintenance or warranty record for an asset.
type Inspection struct {
	ID          string         `json:"id"`
	AssetID     string         `json:"asset_id" validate:"required"`
	Type        InspectionType `json:"type" validate:"required,oneof=inspection warranty"`
	DueAt       time.Time      `json:"due_at" validate:"required"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	CompanyID   string         `json:"company_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// RecordID implements store.Entity.
func (i Inspection) RecordID() string { return i.ID }

// ModifiedAt implements store.Entity.
func (i Inspection) ModifiedAt() time.Time { return i.UpdatedAt }
