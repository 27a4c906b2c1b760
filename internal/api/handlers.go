// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package api exposes the data access core over HTTP using the chi
// router. Handlers depend on small interfaces so tests can substitute
// the store layer without a live backend.
package api

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quartermasterhq/quartermaster/internal/audit"
	"github.com/quartermasterhq/quartermaster/internal/config"
	"github.com/quartermasterhq/quartermaster/internal/inspection"
	"github.com/quartermasterhq/quartermaster/internal/middleware"
	"github.com/quartermasterhq/quartermaster/internal/models"
	"github.com/quartermasterhq/quartermaster/internal/scanner"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/internal/validation"
)

// AssetReader serves asset reads. *store.Store[models.Asset] is the
// production implementation.
type AssetReader interface {
	GetAll(ctx context.Context) ([]models.Asset, error)
	GetLastN(ctx context.Context, n int) ([]models.Asset, error)
	GetByID(ctx context.Context, id string) (models.Asset, error)
	GetByCode(ctx context.Context, column, value string, matches func(models.Asset) bool) (models.Asset, error)
}

// AssetMutator performs audited asset mutations.
// *store.AssetService is the production implementation.
type AssetMutator interface {
	Create(ctx context.Context, userID string, asset models.Asset) (models.Asset, error)
	Update(ctx context.Context, userID, id string, patch map[string]any) (models.Asset, error)
	Delete(ctx context.Context, userID, id string) error
	CheckOut(ctx context.Context, userID, assetID string, req store.CheckOutRequest) (models.Assignment, error)
	CheckIn(ctx context.Context, userID, assetID string) (models.Assignment, error)
}

// AssignmentReader serves assignment reads.
type AssignmentReader interface {
	GetAll(ctx context.Context) ([]models.Assignment, error)
	GetLastN(ctx context.Context, n int) ([]models.Assignment, error)
}

// InspectionStore serves inspection reads and writes.
type InspectionStore interface {
	GetAll(ctx context.Context) ([]models.Inspection, error)
	Create(ctx context.Context, rec models.Inspection) (models.Inspection, error)
}

// AuditReader serves recent audit trail entries.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Directory serves the tenant's users and companies for the admin
// views and audit actor resolution.
type Directory interface {
	Users(ctx context.Context) ([]models.User, error)
	Companies(ctx context.Context) ([]models.Company, error)
}

// Handlers holds the API's handler set and its dependencies.
type Handlers struct {
	assets      AssetReader
	mutator     AssetMutator
	assignments AssignmentReader
	inspections InspectionStore
	auditTrail  AuditReader
	directory   Directory
	scanCfg     config.ScannerConfig
	decoder     scanner.Decoder
}

// NewHandlers wires the handler set.
func NewHandlers(assets AssetReader, mutator AssetMutator, assignments AssignmentReader, inspections InspectionStore, auditTrail AuditReader, directory Directory, scanCfg config.ScannerConfig) *Handlers {
	return &Handlers{
		assets:      assets,
		mutator:     mutator,
		assignments: assignments,
		inspections: inspections,
		auditTrail:  auditTrail,
		directory:   directory,
		scanCfg:     scanCfg,
		decoder:     scanner.NewQRDecoder(),
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID extracts the authenticated caller's id, empty when auth is
// disabled.
func userID(r *http.Request) string {
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		return id.UserID
	}
	return ""
}

// companyID extracts the authenticated caller's tenant, empty when auth
// is disabled.
func companyID(r *http.Request) string {
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		return id.CompanyID
	}
	return ""
}

// limitParam parses ?limit=n; 0 means no limit.
func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ListAssets returns all assets, or the most recent n with ?limit=n.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	n, ok := limitParam(r)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}

	var (
		rows []models.Asset
		err  error
	)
	if n > 0 {
		rows, err = h.assets.GetLastN(r.Context(), n)
	} else {
		rows, err = h.assets.GetAll(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Asset{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetAsset returns one asset by id.
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	row, err := h.assets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// GetAssetByCode resolves an asset by its printed code.
func (h *Handlers) GetAssetByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	row, err := h.assets.GetByCode(r.Context(), "qr", code,
		func(a models.Asset) bool { return a.QR == code })
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// CreateAsset creates an asset. The caller's tenant is stamped onto
// the record when the payload carries none.
func (h *Handlers) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var asset models.Asset
	if err := decodeBody(r, &asset); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if asset.CompanyID == "" {
		asset.CompanyID = companyID(r)
	}
	created, err := h.mutator.Create(r.Context(), userID(r), asset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAsset patches an asset.
func (h *Handlers) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeBody(r, &patch); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	delete(patch, "id")
	updated, err := h.mutator.Update(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAsset removes an asset.
func (h *Handlers) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.mutator.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// CheckOutAsset opens an assignment for an asset.
func (h *Handlers) CheckOutAsset(w http.ResponseWriter, r *http.Request) {
	var req store.CheckOutRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, r, verr)
		return
	}
	created, err := h.mutator.CheckOut(r.Context(), userID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// CheckInAsset closes the asset's open assignment.
func (h *Handlers) CheckInAsset(w http.ResponseWriter, r *http.Request) {
	closed, err := h.mutator.CheckIn(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, closed)
}

// ListAssignments returns assignments, newest first with ?limit=n.
func (h *Handlers) ListAssignments(w http.ResponseWriter, r *http.Request) {
	n, ok := limitParam(r)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}
	var (
		rows []models.Assignment
		err  error
	)
	if n > 0 {
		rows, err = h.assignments.GetLastN(r.Context(), n)
	} else {
		rows, err = h.assignments.GetAll(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Assignment{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// ListInspections returns all inspection records.
func (h *Handlers) ListInspections(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inspections.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Inspection{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// CreateInspection records a new inspection or warranty entry.
func (h *Handlers) CreateInspection(w http.ResponseWriter, r *http.Request) {
	var rec models.Inspection
	if err := decodeBody(r, &rec); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if rec.CompanyID == "" {
		rec.CompanyID = companyID(r)
	}
	created, err := h.inspections.Create(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// InspectionSummary returns schedule bucket counts.
func (h *Handlers) InspectionSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inspections.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary := inspection.Summarize(rows, time.Now().UTC(), inspection.DefaultDueSoonWindow)
	writeJSON(w, http.StatusOK, summary)
}

// RecentAudit returns the newest audit entries.
func (h *Handlers) RecentAudit(w http.ResponseWriter, r *http.Request) {
	n, ok := limitParam(r)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}
	if n == 0 {
		n = 50
	}
	entries, err := h.auditTrail.Recent(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ListUsers returns the tenant's users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.directory.Users(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.User{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// ListCompanies returns the tenant's companies.
func (h *Handlers) ListCompanies(w http.ResponseWriter, r *http.Request) {
	rows, err := h.directory.Companies(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Company{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// scanResolveRequest is the body of POST /scan/resolve.
type scanResolveRequest struct {
	Payload string `json:"payload" validate:"required"`
}

// scanResolveResponse carries the normalized code and, when resolved,
// the asset behind it.
type scanResolveResponse struct {
	Code  string        `json:"code"`
	Asset *models.Asset `json:"asset,omitempty"`
}

// ResolveScan normalizes a decoded scan payload and resolves it to an
// asset. Deep-link payloads and raw codes resolve identically.
func (h *Handlers) ResolveScan(w http.ResponseWriter, r *http.Request) {
	var req scanResolveRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, r, verr)
		return
	}

	code := scanner.ExtractAssetCode(req.Payload, h.scanCfg.DeepLinkHost)
	asset, err := h.assets.GetByCode(r.Context(), "qr", code,
		func(a models.Asset) bool { return a.QR == code })
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResolveResponse{Code: code, Asset: &asset})
}

// maxFrameBytes bounds the body of POST /scan/decode.
const maxFrameBytes = 8 << 20

// codeResolver adapts the asset reader to the scan loop's resolver.
type codeResolver struct {
	assets AssetReader
}

func (cr codeResolver) Resolve(ctx context.Context, code string) (models.Asset, error) {
	return cr.assets.GetByCode(ctx, "qr", code,
		func(a models.Asset) bool { return a.QR == code })
}

// DecodeScan decodes a QR code from an uploaded PNG or JPEG frame and
// resolves it to an asset, for clients without a local decoder. The
// frame runs through the same resolution loop as a live scan session.
func (h *Handlers) DecodeScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBytes)
	img, _, err := image.Decode(r.Body)
	if err != nil {
		badRequest(w, "body must be a PNG or JPEG image")
		return
	}

	loop := scanner.NewLoop(scanner.NewImageSource(img), h.decoder, codeResolver{h.assets}, h.scanCfg)
	result, err := loop.Run(r.Context())
	if err != nil {
		if errors.Is(err, scanner.ErrNoFrames) {
			badRequest(w, "no decodable code in image")
			return
		}
		writeError(w, r, err)
		return
	}
	if result.Err != nil {
		writeError(w, r, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, scanResolveResponse{Code: result.Code, Asset: &result.Asset})
}
