// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package models

import "time"

// User is an authenticated actor. Authentication itself is delegated to
// the hosted provider; this shape only carries what audit attribution
// and tenancy stamping need.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email" validate:"required,email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role,omitempty"`
	CompanyID string    `json:"company_id" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID implements store.Entity.
func (u User) RecordID() string { return u.ID }

// ModifiedAt implements store.Entity.
func (u User) ModifiedAt() time.Time { return u.UpdatedAt }

// Company is the tenant partition. Every tracked entity carries its id.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID implements store.Entity.
func (c Company) RecordID() string { return c.ID }

// ModifiedAt implements store.Entity.
func (c Company) ModifiedAt() time.Time { return c.UpdatedAt }
