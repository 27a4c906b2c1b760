// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartermasterhq/quartermaster/internal/config"
)

type testRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.GatewayConfig{
		URL:     srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestClientSelect(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"a1","name":"Ladder"},{"id":"a2","name":"Drill"}]`))
	})

	var rows []testRow
	err := client.Select(context.Background(), "assets", Query{
		Filters: []Filter{Eq("company_id", "c1")},
		OrderBy: "updated_at",
		Desc:    true,
		Limit:   5,
	}, &rows)
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/assets", gotPath)
	assert.Contains(t, gotQuery, "company_id=eq.c1")
	assert.Contains(t, gotQuery, "order=updated_at.desc")
	assert.Contains(t, gotQuery, "limit=5")
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ladder", rows[0].Name)
}

func TestClientSelectNullFilter(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	var rows []testRow
	err := client.Select(context.Background(), "assignments", Query{
		Filters: []Filter{Eq("asset_id", "a1"), IsNull("in_at")},
	}, &rows)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "in_at=is.null")
	assert.Empty(t, rows)
}

func TestClientInsertReturnsRepresentation(t *testing.T) {
	var gotMethod, gotPrefer, gotContentType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPrefer = r.Header.Get("Prefer")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"a9","name":"Generator"}]`))
	})

	var created []testRow
	err := client.Insert(context.Background(), "assets", testRow{Name: "Generator"}, &created)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "return=representation", gotPrefer)
	assert.Equal(t, "application/json", gotContentType)
	require.Len(t, created, 1)
	assert.Equal(t, "a9", created[0].ID)
}

func TestClientUpdateFiltersByID(t *testing.T) {
	var gotMethod, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"a1","name":"Ladder 2"}]`))
	})

	var updated []testRow
	err := client.Update(context.Background(), "assets", "a1", map[string]any{"name": "Ladder 2"}, &updated)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Contains(t, gotQuery, "id=eq.a1")
}

func TestClientDelete(t *testing.T) {
	var gotMethod, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.Delete(context.Background(), "assets", "a1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Contains(t, gotQuery, "id=eq.a1")
}

func TestClientServerErrorIsTransport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"backend down"}`))
	})

	var rows []testRow
	err := client.Select(context.Background(), "assets", Query{}, &rows)
	require.Error(t, err)
	require.True(t, IsTransport(err))

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "select", terr.Op)
	assert.Equal(t, "assets", terr.Table)
	assert.Equal(t, http.StatusServiceUnavailable, terr.Status)
	assert.Contains(t, terr.Body, "backend down")
}

func TestClientConnectionRefusedIsTransport(t *testing.T) {
	// Server is closed before the request so the dial fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(&config.GatewayConfig{URL: srv.URL, APIKey: "k", Timeout: time.Second})

	var rows []testRow
	err := client.Select(context.Background(), "assets", Query{}, &rows)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestClientContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var rows []testRow
	err := client.Select(ctx, "assets", Query{}, &rows)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}
