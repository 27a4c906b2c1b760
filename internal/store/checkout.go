// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/quartermasterhq/quartermaster/internal/audit"
	"github.com/quartermasterhq/quartermaster/internal/gateway"
	"github.com/quartermasterhq/quartermaster/internal/models"
)

// Auditor receives fire-and-forget audit notifications from the asset
// service. *audit.Writer is the production implementation; a nil
// Auditor is never passed, tests use a recording stub.
type Auditor interface {
	Created(userID, assetID, companyID, details string)
	Updated(userID, assetID, companyID, details string)
	Deleted(userID, assetID, companyID, details string)
	CheckedOut(userID, assetID, companyID, details string)
	CheckedIn(userID, assetID, companyID, details string)
	Failure(action audit.Action, userID, assetID, companyID, details string)
}

// AssetService layers asset lifecycle operations, including the
// check-out/check-in workflow, over the generic facades. Every
// mutation records an audit entry for both the success and the failure
// path; audit recording never affects the operation's outcome.
type AssetService struct {
	assets      *Store[models.Asset]
	assignments *Store[models.Assignment]
	auditor     Auditor
}

// NewAssetService wires the asset and assignment facades to the audit
// writer.
func NewAssetService(assets *Store[models.Asset], assignments *Store[models.Assignment], auditor Auditor) *AssetService {
	return &AssetService{assets: assets, assignments: assignments, auditor: auditor}
}

// Assets exposes the underlying asset facade for plain reads.
func (s *AssetService) Assets() *Store[models.Asset] { return s.assets }

// Assignments exposes the underlying assignment facade for plain reads.
func (s *AssetService) Assignments() *Store[models.Assignment] { return s.assignments }

// Create validates and creates an asset.
func (s *AssetService) Create(ctx context.Context, userID string, asset models.Asset) (models.Asset, error) {
	created, err := s.assets.Create(ctx, asset)
	if err != nil {
		s.auditor.Failure(audit.ActionAssetCreateFailed, userID, asset.ID, asset.CompanyID, failDetails("create", asset.Name, err))
		return models.Asset{}, err
	}
	s.auditor.Created(userID, created.ID, created.CompanyID, fmt.Sprintf("asset %q created", created.Name))
	return created, nil
}

// Update patches an asset.
func (s *AssetService) Update(ctx context.Context, userID, id string, patch map[string]any) (models.Asset, error) {
	updated, err := s.assets.Update(ctx, id, patch)
	if err != nil {
		s.auditor.Failure(audit.ActionAssetUpdateFailed, userID, id, "", failDetails("update", id, err))
		return models.Asset{}, err
	}
	s.auditor.Updated(userID, updated.ID, updated.CompanyID, fmt.Sprintf("asset %q updated", updated.Name))
	return updated, nil
}

// Delete removes an asset and prunes its cache snapshot. The asset is
// read first so the audit entry can carry its tenant; a failed read
// leaves the entry without one.
func (s *AssetService) Delete(ctx context.Context, userID, id string) error {
	company := ""
	if a, err := s.assets.GetByID(ctx, id); err == nil {
		company = a.CompanyID
	}
	if err := s.assets.Delete(ctx, id); err != nil {
		s.auditor.Failure(audit.ActionAssetDeleteFailed, userID, id, company, failDetails("delete", id, err))
		return err
	}
	s.auditor.Deleted(userID, id, company, fmt.Sprintf("asset %s deleted", id))
	return nil
}

// CheckOutRequest carries the check-out particulars.
type CheckOutRequest struct {
	AssignedTo string     `json:"assigned_to" validate:"required"`
	Site       string     `json:"site,omitempty"`
	Vehicle    string     `json:"vehicle,omitempty"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

// CheckOut opens an assignment for the asset and marks it checked out.
// An asset with an open assignment cannot be checked out again; the
// conflict is reported as ErrAlreadyCheckedOut.
//
// The assignment is created before the asset status flips, so a
// failure between the two steps leaves an open assignment and an
// available status; check-in repairs both.
func (s *AssetService) CheckOut(ctx context.Context, userID, assetID string, req CheckOutRequest) (models.Assignment, error) {
	company := ""
	fail := func(err error) (models.Assignment, error) {
		s.auditor.Failure(audit.ActionAssetCheckOutFailed, userID, assetID, company, failDetails("check out", assetID, err))
		return models.Assignment{}, err
	}

	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return fail(err)
	}
	company = asset.CompanyID

	open, err := s.openAssignment(ctx, assetID)
	if err != nil {
		return fail(err)
	}
	if open != nil {
		return fail(ErrAlreadyCheckedOut)
	}

	assignment := models.Assignment{
		AssetID:    assetID,
		AssignedTo: req.AssignedTo,
		Site:       req.Site,
		Vehicle:    req.Vehicle,
		OutAt:      time.Now().UTC(),
		DueAt:      req.DueAt,
	}
	created, err := s.assignments.Create(ctx, assignment)
	if err != nil {
		return fail(err)
	}

	if _, err := s.assets.Update(ctx, assetID, map[string]any{"status": string(models.StatusCheckedOut)}); err != nil {
		return fail(err)
	}

	s.auditor.CheckedOut(userID, assetID, company, fmt.Sprintf("checked out to %s", req.AssignedTo))
	return created, nil
}

// CheckIn closes the asset's most recent open assignment and marks the
// asset available again. An unknown asset is reported as ErrNotFound; a
// known asset with no open assignment as ErrNotCheckedOut.
func (s *AssetService) CheckIn(ctx context.Context, userID, assetID string) (models.Assignment, error) {
	company := ""
	fail := func(err error) (models.Assignment, error) {
		s.auditor.Failure(audit.ActionAssetCheckInFailed, userID, assetID, company, failDetails("check in", assetID, err))
		return models.Assignment{}, err
	}

	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return fail(err)
	}
	company = asset.CompanyID

	open, err := s.openAssignment(ctx, assetID)
	if err != nil {
		return fail(err)
	}
	if open == nil {
		return fail(ErrNotCheckedOut)
	}

	now := time.Now().UTC()
	closed, err := s.assignments.Update(ctx, open.ID, map[string]any{
		"in_at": now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fail(err)
	}

	if _, err := s.assets.Update(ctx, assetID, map[string]any{"status": string(models.StatusAvailable)}); err != nil {
		return fail(err)
	}

	s.auditor.CheckedIn(userID, assetID, company, fmt.Sprintf("checked in from %s", closed.AssignedTo))
	return closed, nil
}

// openAssignment returns the asset's most recent open assignment, or
// nil when every assignment is closed. Rows arrive most recently
// updated first, so the first open row is the one check-in targets.
func (s *AssetService) openAssignment(ctx context.Context, assetID string) (*models.Assignment, error) {
	rows, err := s.assignments.Find(ctx,
		[]gateway.Filter{gateway.Eq("asset_id", assetID), gateway.IsNull("in_at")},
		func(a models.Assignment) bool { return a.AssetID == assetID && a.Open() },
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func failDetails(op, subject string, err error) string {
	return fmt.Sprintf("failed to %s %s: %v", op, subject, err)
}
