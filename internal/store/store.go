// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package store implements the offline-tolerant data access facade.
//
// Reads go to the remote gateway first; when the gateway fails with a
// transport error the read is served from the local cache snapshot,
// silently from the caller's point of view (a metric and a warn log
// record the fallback). Writes always go to the gateway and mirror the
// confirmed result into the cache, so the cache only ever holds backend
// state. Lookups that match more than one row for a unique key tolerate
// the duplicate by preferring the most recently updated row.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/quartermasterhq/quartermaster/internal/gateway"
	"github.com/quartermasterhq/quartermaster/internal/logging"
	"github.com/quartermasterhq/quartermaster/internal/metrics"
	"github.com/quartermasterhq/quartermaster/internal/validation"
)

// Entity is implemented by every record type the facade manages.
type Entity interface {
	// RecordID returns the row's primary key.
	RecordID() string
	// ModifiedAt returns the row's last update time, used for ordering
	// cache fallbacks and resolving duplicate rows.
	ModifiedAt() time.Time
}

// Cache is the snapshot store reads fall back to. *cache.Store is the
// production implementation.
type Cache interface {
	Put(ctx context.Context, collection, id string, data []byte) error
	PutAll(ctx context.Context, collection string, records map[string][]byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	GetAll(ctx context.Context, collection string) ([][]byte, error)
	Delete(ctx context.Context, collection, id string) error
}

// Store is the generic offline-tolerant facade over one backend table.
type Store[T Entity] struct {
	client gateway.RowClient
	cache  Cache
	table  string
}

// New creates a facade for table backed by client, with cache as the
// offline fallback. A nil cache disables mirroring and fallback; reads
// then fail when the gateway does.
func New[T Entity](client gateway.RowClient, c Cache, table string) *Store[T] {
	return &Store[T]{client: client, cache: c, table: table}
}

// Table returns the backend table this facade serves.
func (s *Store[T]) Table() string { return s.table }

// GetAll returns every row, most recently updated first. A gateway
// transport failure falls back to the cache snapshot.
func (s *Store[T]) GetAll(ctx context.Context) ([]T, error) {
	var rows []T
	err := s.client.Select(ctx, s.table, gateway.Query{
		OrderBy: "updated_at",
		Desc:    true,
	}, &rows)
	if err != nil {
		if gateway.IsTransport(err) {
			return s.fromCache(ctx, err, 0)
		}
		return nil, err
	}
	s.mirrorAll(ctx, rows)
	return rows, nil
}

// GetLastN returns the n most recently updated rows. The cache
// fallback applies the same ordering and limit to its snapshot.
func (s *Store[T]) GetLastN(ctx context.Context, n int) ([]T, error) {
	var rows []T
	err := s.client.Select(ctx, s.table, gateway.Query{
		OrderBy: "updated_at",
		Desc:    true,
		Limit:   n,
	}, &rows)
	if err != nil {
		if gateway.IsTransport(err) {
			return s.fromCache(ctx, err, n)
		}
		return nil, err
	}
	s.mirrorAll(ctx, rows)
	return rows, nil
}

// GetByID returns the row with the given id. More than one matching
// row is tolerated: the most recently updated wins and the duplicate
// is counted. Transport failures fall back to the cached snapshot.
func (s *Store[T]) GetByID(ctx context.Context, id string) (T, error) {
	return s.getBy(ctx, "id", id)
}

// GetByCode returns the row whose column matches value, with the same
// duplicate tolerance as GetByID. The cache fallback scans the
// snapshot with matches, since the cache is keyed by id only.
func (s *Store[T]) GetByCode(ctx context.Context, column, value string, matches func(T) bool) (T, error) {
	var zero T
	row, err := s.getBy(ctx, column, value)
	if err == nil || !gateway.IsTransport(err) {
		return row, err
	}

	// Offline: scan the snapshot.
	rows, cacheErr := s.fromCache(ctx, err, 0)
	if cacheErr != nil {
		return zero, cacheErr
	}
	for _, r := range rows {
		if matches(r) {
			return r, nil
		}
	}
	return zero, &NotFoundError{Table: s.table, Key: value}
}

// Find returns rows matching filters, most recently updated first. A
// transport failure falls back to scanning the cache snapshot with
// matches, since cache entries are keyed by id only.
func (s *Store[T]) Find(ctx context.Context, filters []gateway.Filter, matches func(T) bool) ([]T, error) {
	var rows []T
	err := s.client.Select(ctx, s.table, gateway.Query{
		Filters: filters,
		OrderBy: "updated_at",
		Desc:    true,
	}, &rows)
	if err != nil {
		if gateway.IsTransport(err) {
			all, cacheErr := s.fromCache(ctx, err, 0)
			if cacheErr != nil {
				return nil, cacheErr
			}
			matched := make([]T, 0, len(all))
			for _, r := range all {
				if matches(r) {
					matched = append(matched, r)
				}
			}
			return matched, nil
		}
		return nil, err
	}
	s.mirrorAll(ctx, rows)
	return rows, nil
}

// getBy performs the remote lookup shared by GetByID and GetByCode.
// For the id column only, a transport failure falls back to the cache.
func (s *Store[T]) getBy(ctx context.Context, column, value string) (T, error) {
	var zero T
	var rows []T
	err := s.client.Select(ctx, s.table, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq(column, value)},
		OrderBy: "updated_at",
		Desc:    true,
	}, &rows)
	if err != nil {
		if column == "id" && gateway.IsTransport(err) {
			return s.oneFromCache(ctx, err, value)
		}
		return zero, err
	}

	switch {
	case len(rows) == 0:
		return zero, &NotFoundError{Table: s.table, Key: value}
	case len(rows) > 1:
		metrics.DuplicateRows.WithLabelValues(s.table, column).Inc()
		logging.Ctx(ctx).Warn().
			Str("table", s.table).
			Str("column", column).
			Str("value", value).
			Int("rows", len(rows)).
			Msg("Duplicate rows for unique key, preferring most recent")
	}

	s.mirror(ctx, rows[0])
	return rows[0], nil
}

// Create validates record, assigns an id and timestamps if absent,
// inserts it remotely and mirrors the confirmed row. The cache is
// never written before the backend confirms.
func (s *Store[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	if verr := validation.ValidateStruct(record); verr != nil {
		return zero, verr
	}

	payload, err := s.createPayload(record)
	if err != nil {
		return zero, err
	}

	var created []T
	if err := s.client.Insert(ctx, s.table, payload, &created); err != nil {
		return zero, err
	}
	if len(created) == 0 {
		// Backend accepted the insert but returned no representation.
		return record, nil
	}
	s.mirror(ctx, created[0])
	return created[0], nil
}

// createPayload fills id/created_at/updated_at on the wire encoding
// without mutating the caller's typed record.
func (s *Store[T]) createPayload(record T) (map[string]any, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if record.RecordID() == "" {
		payload["id"] = uuid.NewString()
	}
	if record.ModifiedAt().IsZero() {
		payload["updated_at"] = now
	}
	if v, ok := payload["created_at"]; !ok || v == "0001-01-01T00:00:00Z" {
		payload["created_at"] = now
	}
	return payload, nil
}

// Update patches the row with the given id, always stamping
// updated_at, and mirrors the confirmed row.
func (s *Store[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	stamped := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		stamped[k] = v
	}
	stamped["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	var updated []T
	if err := s.client.Update(ctx, s.table, id, stamped, &updated); err != nil {
		return zero, err
	}
	if len(updated) == 0 {
		return zero, &NotFoundError{Table: s.table, Key: id}
	}
	s.mirror(ctx, updated[0])
	return updated[0], nil
}

// Delete removes the row remotely and prunes the cached snapshot, so a
// deleted record cannot resurface through an offline read.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, s.table, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.table, id); err != nil {
			metrics.CacheMirrorFailures.WithLabelValues(s.table).Inc()
			logging.Ctx(ctx).Warn().Err(err).
				Str("table", s.table).
				Str("id", id).
				Msg("Failed to prune deleted record from cache")
		}
	}
	return nil
}

// mirror writes one confirmed row into the cache, best effort.
func (s *Store[T]) mirror(ctx context.Context, record T) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(record)
	if err == nil {
		err = s.cache.Put(ctx, s.table, record.RecordID(), data)
	}
	if err != nil {
		metrics.CacheMirrorFailures.WithLabelValues(s.table).Inc()
		logging.Ctx(ctx).Debug().Err(err).
			Str("table", s.table).
			Msg("Cache mirror write failed")
	}
}

// mirrorAll writes a batch of confirmed rows into the cache, best
// effort.
func (s *Store[T]) mirrorAll(ctx context.Context, rows []T) {
	if s.cache == nil || len(rows) == 0 {
		return
	}
	batch := make(map[string][]byte, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			continue
		}
		batch[row.RecordID()] = data
	}
	if err := s.cache.PutAll(ctx, s.table, batch); err != nil {
		metrics.CacheMirrorFailures.WithLabelValues(s.table).Inc()
		logging.Ctx(ctx).Debug().Err(err).
			Str("table", s.table).
			Msg("Cache mirror batch failed")
	}
}

// fromCache serves a read from the cache snapshot after a gateway
// transport failure. Rows come back most recently updated first;
// n > 0 limits the result.
func (s *Store[T]) fromCache(ctx context.Context, cause error, n int) ([]T, error) {
	if s.cache == nil {
		return nil, cause
	}
	raw, err := s.cache.GetAll(ctx, s.table)
	if err != nil {
		// Cache unavailable too: report the original gateway failure.
		logging.Ctx(ctx).Error().Err(err).
			Str("table", s.table).
			Msg("Cache fallback failed")
		return nil, cause
	}

	metrics.CacheFallbacks.WithLabelValues(s.table).Inc()
	logging.Ctx(ctx).Warn().Err(cause).
		Str("table", s.table).
		Int("cached_rows", len(raw)).
		Msg("Gateway unavailable, serving from cache")

	rows := make([]T, 0, len(raw))
	for _, data := range raw {
		var row T
		if err := json.Unmarshal(data, &row); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("table", s.table).
				Msg("Skipping undecodable cached record")
			continue
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ModifiedAt().After(rows[j].ModifiedAt())
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// oneFromCache serves a single-record read from the cache after a
// gateway transport failure.
func (s *Store[T]) oneFromCache(ctx context.Context, cause error, id string) (T, error) {
	var zero T
	if s.cache == nil {
		return zero, cause
	}
	data, err := s.cache.Get(ctx, s.table, id)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("table", s.table).
			Msg("Cache fallback failed")
		return zero, cause
	}
	if data == nil {
		return zero, &NotFoundError{Table: s.table, Key: id}
	}

	metrics.CacheFallbacks.WithLabelValues(s.table).Inc()
	logging.Ctx(ctx).Warn().Err(cause).
		Str("table", s.table).
		Str("id", id).
		Msg("Gateway unavailable, serving record from cache")

	var row T
	if err := json.Unmarshal(data, &row); err != nil {
		return zero, cause
	}
	return row, nil
}
