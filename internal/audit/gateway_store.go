// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/quartermasterhq/quartermaster/internal/gateway"
)

// GatewayStore persists audit entries to the hosted backend's
// audit_logs table through the remote data gateway.
type GatewayStore struct {
	client gateway.RowClient
	table  string
}

// NewGatewayStore creates a store writing to the given table.
func NewGatewayStore(client gateway.RowClient, table string) *GatewayStore {
	if table == "" {
		table = "audit_logs"
	}
	return &GatewayStore{client: client, table: table}
}

// Save implements Store.
func (s *GatewayStore) Save(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return s.client.Insert(ctx, s.table, entry, nil)
}

// Recent implements Store, returning newest entries first.
func (s *GatewayStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.client.Select(ctx, s.table, gateway.Query{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   limit,
	}, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
