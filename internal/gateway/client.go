// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package gateway implements the remote data gateway: a row-oriented
// HTTP client for the hosted backend's PostgREST-style interface. It
// supports select with equality/null filters, ordering and limits, plus
// insert, update-by-id and delete-by-id. All failures are normalized to
// *TransportError so callers can apply the offline fallback policy
// without inspecting message strings.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/quartermasterhq/quartermaster/internal/config"
	"github.com/quartermasterhq/quartermaster/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics, preventing unbounded allocation on large responses.
const maxErrorBodySize = 64 * 1024

// Filter restricts a select to rows matching a column condition.
// Op defaults to "eq"; "is" with value "null" matches NULL columns.
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Eq builds an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Op: "eq", Value: value}
}

// IsNull builds a NULL-match filter.
func IsNull(column string) Filter {
	return Filter{Column: column, Op: "is", Value: "null"}
}

// Query describes a row selection: optional filters, ordering and limit.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// RowClient is the row-oriented interface the access facade depends on.
// Client implements it against the hosted backend; tests substitute
// fakes, and Breaker wraps any implementation with failure protection.
type RowClient interface {
	// Select reads rows matching q into dest, which must be a pointer
	// to a slice.
	Select(ctx context.Context, table string, q Query, dest any) error

	// Insert writes record and decodes the returned representation
	// (an array of created rows) into dest if dest is non-nil.
	Insert(ctx context.Context, table string, record, dest any) error

	// Update patches the row with the given id and decodes the returned
	// representation into dest if dest is non-nil.
	Update(ctx context.Context, table, id string, patch, dest any) error

	// Delete removes the row with the given id.
	Delete(ctx context.Context, table, id string) error
}

// Client talks to the hosted backend's REST row interface.
//
// The client is constructed once at startup and passed to every store
// that needs it; there is deliberately no package-level instance.
// Thread safety: all methods are safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a gateway client from validated configuration.
func NewClient(cfg *config.GatewayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Select implements RowClient.
func (c *Client) Select(ctx context.Context, table string, q Query, dest any) error {
	start := time.Now()
	err := c.do(ctx, http.MethodGet, table, c.queryValues(q), nil, dest)
	metrics.ObserveGatewayRequest("select", table, start, err)
	return err
}

// Insert implements RowClient.
func (c *Client) Insert(ctx context.Context, table string, record, dest any) error {
	start := time.Now()
	err := c.do(ctx, http.MethodPost, table, url.Values{}, record, dest)
	metrics.ObserveGatewayRequest("insert", table, start, err)
	return err
}

// Update implements RowClient.
func (c *Client) Update(ctx context.Context, table, id string, patch, dest any) error {
	start := time.Now()
	vals := url.Values{}
	vals.Set("id", "eq."+id)
	err := c.do(ctx, http.MethodPatch, table, vals, patch, dest)
	metrics.ObserveGatewayRequest("update", table, start, err)
	return err
}

// Delete implements RowClient.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	start := time.Now()
	vals := url.Values{}
	vals.Set("id", "eq."+id)
	err := c.do(ctx, http.MethodDelete, table, vals, nil, nil)
	metrics.ObserveGatewayRequest("delete", table, start, err)
	return err
}

// queryValues encodes a Query into PostgREST-style URL parameters.
func (c *Client) queryValues(q Query) url.Values {
	vals := url.Values{}
	vals.Set("select", "*")
	for _, f := range q.Filters {
		op := f.Op
		if op == "" {
			op = "eq"
		}
		vals.Set(f.Column, op+"."+f.Value)
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		vals.Set("order", q.OrderBy+"."+dir)
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	return vals
}

// do performs one HTTP round trip against /rest/v1/{table} and decodes
// a 2xx response body into dest when dest is non-nil.
func (c *Client) do(ctx context.Context, method, table string, vals url.Values, body, dest any) error {
	op := opName(method)

	reqURL := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if encoded := vals.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Table: table, Err: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return &TransportError{Op: op, Table: table, Err: err}
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if dest != nil && method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Table: table, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Op:     op,
			Table:  table,
			Status: resp.StatusCode,
			Body:   string(readBodyForError(resp.Body)),
		}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &TransportError{Op: op, Table: table, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// opName maps an HTTP method to the row operation name used in errors
// and metrics labels.
func opName(method string) string {
	switch method {
	case http.MethodGet:
		return "select"
	case http.MethodPost:
		return "insert"
	case http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return method
	}
}

// readBodyForError reads at most maxErrorBodySize bytes of a response
// body for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}
