// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package models defines the tracked business entities and their
// validation rules. Field names map to the remote backend's column
// names via json tags; the local cache stores the same encoding.
package models

import "time"

// Condition describes the physical state of an asset.
type Condition string

const (
	ConditionExcellent   Condition = "excellent"
	ConditionGood        Condition = "good"
	ConditionFair        Condition = "fair"
	ConditionPoor        Condition = "poor"
	ConditionNeedsRepair Condition = "needs_repair"
)

// Status describes the business state of an asset. Transitions between
// StatusAvailable and StatusCheckedOut happen through check-in/check-out,
// not through direct status edits.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusCheckedOut  Status = "checked_out"
	StatusMaintenance Status = "maintenance"
	StatusRetired     Status = "retired"
)

// Asset is the primary tracked entity. The ID is client-generated and
// immutable once assigned. QR, if present, is intended to resolve to at
// most one asset; duplicate matches are tolerated by preferring the most
// recently updated row. CompanyID is filled from the caller's token when
// the payload omits it.
type Asset struct {
	ID             string     `json:"id"`
	Name           string     `json:"name" validate:"required"`
	Category       string     `json:"category" validate:"required"`
	Serial         string     `json:"serial,omitempty"`
	Condition      Condition  `json:"condition,omitempty" validate:"omitempty,oneof=excellent good fair poor needs_repair"`
	Status         Status     `json:"status,omitempty" validate:"omitempty,oneof=available checked_out maintenance retired"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	InspectionDate *time.Time `json:"inspection_date,omitempty"`
	WarrantiesDate *time.Time `json:"warranties_date,omitempty"`
	QR             string     `json:"qr,omitempty"`
	Photos         []string   `json:"photos,omitempty"`
	Documents      []string   `json:"documents,omitempty"`
	CompanyID      string     `json:"company_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RecordID implements store.Entity.
func (a Asset) RecordID() string { return a.ID }

// ModifiedAt implements store.Entity.
func (a Asset) ModifiedAt() time.Time { return a.UpdatedAt }
