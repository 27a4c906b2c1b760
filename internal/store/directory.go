// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package store

import (
	"context"

	"github.com/quartermasterhq/quartermaster/internal/models"
)

// Directory bundles the user and company facades behind the read
// surface the admin views and audit actor resolution need. Both reads
// carry the same offline fallback as every other facade.
type Directory struct {
	users     *Store[models.User]
	companies *Store[models.Company]
}

// NewDirectory wires the tenant directory.
func NewDirectory(users *Store[models.User], companies *Store[models.Company]) *Directory {
	return &Directory{users: users, companies: companies}
}

// Users returns every user, most recently updated first.
func (d *Directory) Users(ctx context.Context) ([]models.User, error) {
	return d.users.GetAll(ctx)
}

// Companies returns every company, most recently updated first.
func (d *Directory) Companies(ctx context.Context) ([]models.Company, error) {
	return d.companies.GetAll(ctx)
}
