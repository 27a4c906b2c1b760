// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package scanner

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartermasterhq/quartermaster/internal/config"
	"github.com/quartermasterhq/quartermaster/internal/models"
)

// scriptedSource hands out blank frames and records lifecycle calls.
type scriptedSource struct {
	mu         sync.Mutex
	acquired   bool
	released   bool
	frames     int
	acquireErr error
}

func (s *scriptedSource) Acquire(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return s.acquireErr
	}
	s.acquired = true
	return nil
}

func (s *scriptedSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return image.NewGray(image.Rect(0, 0, 8, 8)), nil
}

func (s *scriptedSource) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}

func (s *scriptedSource) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// scriptedDecoder returns ErrNoCode for misses frames, then payload.
type scriptedDecoder struct {
	mu      sync.Mutex
	misses  int
	payload string
	calls   int
}

func (d *scriptedDecoder) Decode(image.Image) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= d.misses {
		return "", ErrNoCode
	}
	return d.payload, nil
}

func (d *scriptedDecoder) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// mapResolver resolves codes from a fixed table.
type mapResolver struct {
	assets map[string]models.Asset
}

func (r *mapResolver) Resolve(_ context.Context, code string) (models.Asset, error) {
	if a, ok := r.assets[code]; ok {
		return a, nil
	}
	return models.Asset{}, errors.New("asset not found for code " + code)
}

func newTestLoop(src *scriptedSource, dec *scriptedDecoder) *Loop {
	resolver := &mapResolver{assets: map[string]models.Asset{
		"AST-42": {ID: "a1", Name: "Ladder", QR: "AST-42"},
	}}
	// High frame rate keeps tests fast.
	return NewLoop(src, dec, resolver, config.ScannerConfig{
		FrameRate:    1000,
		DeepLinkHost: "qrcode.link",
	})
}

func TestRunResolvesFirstDecodedCode(t *testing.T) {
	src := &scriptedSource{}
	dec := &scriptedDecoder{payload: "AST-42"}
	loop := newTestLoop(src, dec)

	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AST-42", result.Code)
	assert.Equal(t, "a1", result.Asset.ID)
	assert.NoError(t, result.Err)
	assert.True(t, src.released)
	assert.Equal(t, StateIdle, loop.State())
}

func TestMissedFramesReArm(t *testing.T) {
	src := &scriptedSource{}
	dec := &scriptedDecoder{misses: 4, payload: "AST-42"}
	loop := newTestLoop(src, dec)

	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AST-42", result.Code)
	// Four empty frames plus the successful one.
	assert.Equal(t, 5, dec.callCount())
	assert.Equal(t, 5, src.frameCount())
}

func TestNoFrameProcessedAfterDecode(t *testing.T) {
	src := &scriptedSource{}
	dec := &scriptedDecoder{payload: "AST-42"}
	loop := newTestLoop(src, dec)

	_, err := loop.Run(context.Background())
	require.NoError(t, err)

	frames := src.frameCount()
	calls := dec.callCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frames, src.frameCount())
	assert.Equal(t, calls, dec.callCount())
}

func TestDeepLinkPayloadResolves(t *testing.T) {
	src := &scriptedSource{}
	dec := &scriptedDecoder{payload: "https://qrcode.link/a/AST-42"}
	loop := newTestLoop(src, dec)

	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AST-42", result.Code)
	assert.Equal(t, "a1", result.Asset.ID)
}

func TestUnresolvedCodeReturnsResultWithErr(t *testing.T) {
	src := &scriptedSource{}
	dec := &scriptedDecoder{payload: "AST-99"}
	loop := newTestLoop(src, dec)

	result, err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AST-99", result.Code)
	assert.Error(t, result.Err)
	assert.Empty(t, result.Asset.ID)
}

func TestCancellationReleasesSource(t *testing.T) {
	src := &scriptedSource{}
	// Decoder that never finds a code.
	dec := &scriptedDecoder{misses: 1 << 30}
	loop := newTestLoop(src, dec)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := loop.Run(ctx)
	require.Error(t, err)
	assert.True(t, src.released)
	assert.Equal(t, StateIdle, loop.State())
}

func TestAcquireFailureReleasesSource(t *testing.T) {
	src := &scriptedSource{acquireErr: errors.New("camera busy")}
	loop := newTestLoop(src, &scriptedDecoder{payload: "AST-42"})

	_, err := loop.Run(context.Background())
	require.Error(t, err)
	assert.True(t, src.released)
	assert.Equal(t, 0, src.frameCount())
}

func TestExtractAssetCode(t *testing.T) {
	tests := []struct {
		payload string
		host    string
		want    string
	}{
		{"https://qrcode.link/a/AST-42", "qrcode.link", "AST-42"},
		{"http://qrcode.link/a/AST-42/", "qrcode.link", "AST-42"},
		{"https://QRCODE.LINK/a/AST-42", "qrcode.link", "AST-42"},
		{"AST-42", "qrcode.link", "AST-42"},
		{"  AST-42  ", "qrcode.link", "AST-42"},
		{"https://qrcode.link", "qrcode.link", "https://qrcode.link"},
		{"ftp://host/AST-42", "qrcode.link", "ftp://host/AST-42"},
		{"plain text payload", "qrcode.link", "plain text payload"},
		// URLs on a foreign host are opaque payloads, not label links.
		{"https://evil.example/a/AST-42", "qrcode.link", "https://evil.example/a/AST-42"},
		// No configured host accepts any link.
		{"https://other.example/a/AST-42", "", "AST-42"},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAssetCode(tt.payload, tt.host))
		})
	}
}
