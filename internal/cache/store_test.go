// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestStorePutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "assets", "a1", []byte(`{"id":"a1"}`)))

	data, err := s.Get(ctx, "assets", "a1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a1"}`, string(data))
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	data, err := s.Get(context.Background(), "assets", "nope")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStorePutIsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "assets", "a1", []byte(`{"id":"a1","v":1}`)))
	require.NoError(t, s.Put(ctx, "assets", "a1", []byte(`{"id":"a1","v":2}`)))

	all, err := s.GetAll(ctx, "assets")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.JSONEq(t, `{"id":"a1","v":2}`, string(all[0]))
}

func TestStoreGetAllIsolatesCollections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "assets", "a1", []byte(`{"id":"a1"}`)))
	require.NoError(t, s.Put(ctx, "assignments", "g1", []byte(`{"id":"g1"}`)))

	assets, err := s.GetAll(ctx, "assets")
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	assignments, err := s.GetAll(ctx, "assignments")
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestStoreGetAllEmptyCollection(t *testing.T) {
	s := newTestStore(t)

	all, err := s.GetAll(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "assets", "a1", []byte(`{"id":"a1"}`)))
	require.NoError(t, s.Delete(ctx, "assets", "a1"))

	data, err := s.Get(ctx, "assets", "a1")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Deleting again is a no-op.
	require.NoError(t, s.Delete(ctx, "assets", "a1"))
}

func TestStorePutAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutAll(ctx, "assets", map[string][]byte{
		"a1": []byte(`{"id":"a1"}`),
		"a2": []byte(`{"id":"a2"}`),
	}))

	all, err := s.GetAll(ctx, "assets")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStoreContextCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, "assets", "a1", []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.GetAll(ctx, "assets")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreClosedRejectsOperations(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Put(context.Background(), "assets", "a1", []byte(`{}`)))
	require.NoError(t, s.Close())

	err := s.Put(context.Background(), "assets", "a2", []byte(`{}`))
	assert.Error(t, err)
}

func TestStoreUnopenableDirDegradesGracefully(t *testing.T) {
	// A file where the directory should be makes badger fail to open;
	// operations return errors instead of panicking, and Close is safe.
	s := NewStore("/dev/null")
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.GetAll(context.Background(), "assets")
	assert.Error(t, err)
}
