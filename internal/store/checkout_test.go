// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartermasterhq/quartermaster/internal/audit"
	"github.com/quartermasterhq/quartermaster/internal/models"
)

// recordingAuditor captures audit notifications for assertions.
type recordingAuditor struct {
	mu        sync.Mutex
	actions   []audit.Action
	companies []string
}

func (r *recordingAuditor) record(a audit.Action, company string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	r.companies = append(r.companies, company)
}

func (r *recordingAuditor) Created(_, _, company, _ string) {
	r.record(audit.ActionAssetCreated, company)
}

func (r *recordingAuditor) Updated(_, _, company, _ string) {
	r.record(audit.ActionAssetUpdated, company)
}

func (r *recordingAuditor) Deleted(_, _, company, _ string) {
	r.record(audit.ActionAssetDeleted, company)
}

func (r *recordingAuditor) CheckedOut(_, _, company, _ string) {
	r.record(audit.ActionAssetCheckedOut, company)
}

func (r *recordingAuditor) CheckedIn(_, _, company, _ string) {
	r.record(audit.ActionAssetCheckedIn, company)
}

func (r *recordingAuditor) Failure(action audit.Action, _, _, company, _ string) {
	r.record(action, company)
}

func (r *recordingAuditor) last() audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.actions) == 0 {
		return ""
	}
	return r.actions[len(r.actions)-1]
}

func (r *recordingAuditor) lastCompany() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.companies) == 0 {
		return ""
	}
	return r.companies[len(r.companies)-1]
}

func newService(gw *fakeGateway, auditor Auditor) *AssetService {
	c := newMemCache()
	assets := New[models.Asset](gw, c, "assets")
	assignments := New[models.Assignment](gw, c, "assignments")
	return NewAssetService(assets, assignments, auditor)
}

func TestCheckOutCreatesAssignmentAndFlipsStatus(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("assets", asset("a1", "Ladder", t1))
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	due := t3
	created, err := svc.CheckOut(context.Background(), "u1", "a1", CheckOutRequest{
		AssignedTo: "Dana",
		Site:       "North Yard",
		DueAt:      &due,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "a1", created.AssetID)
	assert.True(t, created.Open())

	a, err := svc.Assets().GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, a.Status)
	assert.Equal(t, audit.ActionAssetCheckedOut, rec.last())
	assert.Equal(t, "c1", rec.lastCompany())
}

func TestCheckOutTwiceConflicts(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("assets", asset("a1", "Ladder", t1))
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	_, err := svc.CheckOut(context.Background(), "u1", "a1", CheckOutRequest{AssignedTo: "Dana"})
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), "u1", "a1", CheckOutRequest{AssignedTo: "Lee"})
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
	assert.Equal(t, audit.ActionAssetCheckOutFailed, rec.last())
}

func TestCheckOutUnknownAssetNotFound(t *testing.T) {
	gw := newFakeGateway()
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	_, err := svc.CheckOut(context.Background(), "u1", "nope", CheckOutRequest{AssignedTo: "Dana"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckOutThenCheckInRoundTrip(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("assets", asset("a1", "Ladder", t1))
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	out, err := svc.CheckOut(context.Background(), "u1", "a1", CheckOutRequest{AssignedTo: "Dana"})
	require.NoError(t, err)

	closed, err := svc.CheckIn(context.Background(), "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, out.ID, closed.ID)
	assert.False(t, closed.Open())

	// Exactly one assignment exists for the asset and it is closed.
	rows, err := svc.Assignments().GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].InAt)

	a, err := svc.Assets().GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, a.Status)
	assert.Equal(t, audit.ActionAssetCheckedIn, rec.last())
}

func TestCheckInTargetsOpenAssignment(t *testing.T) {
	// One closed assignment (out T2, in T3) and one still open (out T1).
	inAt := t3
	gw := newFakeGateway()
	gw.seed("assets", asset("a1", "Ladder", t1))
	gw.seed("assignments",
		models.Assignment{
			ID: "g-open", AssetID: "a1", AssignedTo: "Dana",
			OutAt: t1, CreatedAt: t1, UpdatedAt: t1,
		},
		models.Assignment{
			ID: "g-closed", AssetID: "a1", AssignedTo: "Lee",
			OutAt: t2, InAt: &inAt, CreatedAt: t2, UpdatedAt: t3,
		},
	)
	svc := newService(gw, &recordingAuditor{})

	closed, err := svc.CheckIn(context.Background(), "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "g-open", closed.ID)
	require.NotNil(t, closed.InAt)

	// The already-closed assignment keeps its original check-in time.
	other, err := svc.Assignments().GetByID(context.Background(), "g-closed")
	require.NoError(t, err)
	require.NotNil(t, other.InAt)
	assert.True(t, other.InAt.Equal(t3))
}

func TestCheckInWithoutOpenAssignment(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("assets", asset("a1", "Ladder", t1))
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	_, err := svc.CheckIn(context.Background(), "u1", "a1")
	assert.ErrorIs(t, err, ErrNotCheckedOut)
	assert.Equal(t, audit.ActionAssetCheckInFailed, rec.last())
}

func TestServiceCreateAuditsBothOutcomes(t *testing.T) {
	gw := newFakeGateway()
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	_, err := svc.Create(context.Background(), "u1", models.Asset{
		Name: "Laptop", Category: "Electronics", CompanyID: "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionAssetCreated, rec.last())
	assert.Equal(t, "c1", rec.lastCompany())

	gw.down = true
	_, err = svc.Create(context.Background(), "u1", models.Asset{
		Name: "Drill", Category: "tools", CompanyID: "c1",
	})
	require.Error(t, err)
	assert.Equal(t, audit.ActionAssetCreateFailed, rec.last())
}

func TestServiceCreateWithoutCompany(t *testing.T) {
	// App clients send only the fields the form collects; the tenant
	// comes from the token at the API layer and may be absent here.
	gw := newFakeGateway()
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	created, err := svc.Create(context.Background(), "u1", models.Asset{
		Name:     "Laptop",
		Category: "Electronics",
		Serial:   "ABC123",
		Status:   models.StatusAvailable,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, gw.inserts)
	assert.Equal(t, audit.ActionAssetCreated, rec.last())
}

func TestServiceDeleteAudits(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("assets", asset("a1", "Ladder", t1))
	rec := &recordingAuditor{}
	svc := newService(gw, rec)

	require.NoError(t, svc.Delete(context.Background(), "u1", "a1"))
	assert.Equal(t, audit.ActionAssetDeleted, rec.last())
	assert.Equal(t, "c1", rec.lastCompany())
}

// failingAuditor simulates an audit path whose persistence is broken.
// The writer isolates store failures in production; at the service
// boundary the notification is fire-and-forget either way, so the
// operation outcome must be identical.
type failingAuditor struct{}

func (failingAuditor) Created(_, _, _, _ string)                 {}
func (failingAuditor) Updated(_, _, _, _ string)                 {}
func (failingAuditor) Deleted(_, _, _, _ string)                 {}
func (failingAuditor) CheckedOut(_, _, _, _ string)              {}
func (failingAuditor) CheckedIn(_, _, _, _ string)               {}
func (failingAuditor) Failure(_ audit.Action, _, _, _, _ string) {}

func TestAuditFailureDoesNotAffectOperation(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("assets", asset("a1", "Ladder", t1))
	svc := newService(gw, failingAuditor{})

	out, err := svc.CheckOut(context.Background(), "u1", "a1", CheckOutRequest{AssignedTo: "Dana"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)

	closed, err := svc.CheckIn(context.Background(), "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, out.ID, closed.ID)
}
