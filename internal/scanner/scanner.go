// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package scanner implements the QR resolution loop: acquire a frame
// source, sample frames at a bounded rate, decode each frame once, and
// resolve the first decoded payload to an asset. A frame with no code
// re-arms the loop; a successful decode leaves the scanning state
// exactly once, and no further frame is processed afterwards.
package scanner

import (
	"context"
	"image"
	"sync"

	"golang.org/x/time/rate"

	"github.com/quartermasterhq/quartermaster/internal/config"
	"github.com/quartermasterhq/quartermaster/internal/logging"
	"github.com/quartermasterhq/quartermaster/internal/metrics"
	"github.com/quartermasterhq/quartermaster/internal/models"
)

// State is the resolution loop's lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateAcquiring State = "acquiring"
	StateScanning  State = "scanning"
	StateResolving State = "resolving"
)

// FrameSource provides frames from a capture device. Acquire opens the
// device, Frame blocks until the next frame is available, Release
// frees the device. Release must be safe to call after a failed
// Acquire.
type FrameSource interface {
	Acquire(ctx context.Context) error
	Frame(ctx context.Context) (image.Image, error)
	Release()
}

// Decoder extracts a code payload from one frame, returning ErrNoCode
// when the frame holds none.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// Resolver looks up the asset behind a normalized code.
type Resolver interface {
	Resolve(ctx context.Context, code string) (models.Asset, error)
}

// Result is the outcome of one completed scan session.
type Result struct {
	// Payload is the raw decoded string.
	Payload string
	// Code is the normalized asset code extracted from Payload.
	Code string
	// Asset is the resolved asset; zero when Err is set.
	Asset models.Asset
	// Err is the resolution failure, if any. The decode itself
	// succeeded whenever a Result is produced.
	Err error
}

// Loop is one scan session's state machine. A Loop is single-use: Run
// drives Idle -> Acquiring -> Scanning -> Resolving and returns; a new
// scan constructs a new Loop.
type Loop struct {
	source       FrameSource
	decoder      Decoder
	resolver     Resolver
	limiter      *rate.Limiter
	deepLinkHost string

	mu    sync.RWMutex
	state State
}

// NewLoop creates a scan session sampling at most cfg.FrameRate frames
// per second and extracting codes from cfg.DeepLinkHost deep links.
func NewLoop(source FrameSource, decoder Decoder, resolver Resolver, cfg config.ScannerConfig) *Loop {
	frameRate := cfg.FrameRate
	if frameRate <= 0 {
		frameRate = 30
	}
	return &Loop{
		source:       source,
		decoder:      decoder,
		resolver:     resolver,
		limiter:      rate.NewLimiter(rate.Limit(frameRate), 1),
		deepLinkHost: cfg.DeepLinkHost,
		state:        StateIdle,
	}
}

// State returns the loop's current phase.
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Run drives the session until a code is decoded and resolved, or ctx
// is cancelled. The frame source is always released before Run
// returns, so tearing down the caller cannot leak the capture device.
// Cancellation returns ctx's error with no Result.
func (l *Loop) Run(ctx context.Context) (Result, error) {
	l.setState(StateAcquiring)
	defer l.setState(StateIdle)

	if err := l.source.Acquire(ctx); err != nil {
		l.source.Release()
		return Result{}, err
	}

	payload, err := l.scan(ctx)
	// The device is released as soon as scanning ends; resolution does
	// not need it.
	l.source.Release()
	if err != nil {
		return Result{}, err
	}

	l.setState(StateResolving)
	code := ExtractAssetCode(payload, l.deepLinkHost)
	asset, resolveErr := l.resolver.Resolve(ctx, code)
	if resolveErr != nil {
		metrics.ScannerDecodes.WithLabelValues("not_found").Inc()
		logging.Ctx(ctx).Warn().Err(resolveErr).
			Str("code", code).
			Msg("Decoded code did not resolve to an asset")
		return Result{Payload: payload, Code: code, Err: resolveErr}, nil
	}

	metrics.ScannerDecodes.WithLabelValues("resolved").Inc()
	logging.Ctx(ctx).Info().
		Str("code", code).
		Str("asset_id", asset.ID).
		Msg("Code resolved")
	return Result{Payload: payload, Code: code, Asset: asset}, nil
}

// scan samples frames until one decodes. Exactly one successful decode
// ends the phase; ErrNoCode re-arms it.
func (l *Loop) scan(ctx context.Context) (string, error) {
	l.setState(StateScanning)
	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return "", err
		}
		frame, err := l.source.Frame(ctx)
		if err != nil {
			return "", err
		}
		metrics.ScannerFramesSampled.Inc()

		payload, err := l.decoder.Decode(frame)
		switch {
		case err == nil:
			return payload, nil
		case err == ErrNoCode:
			continue
		default:
			metrics.ScannerDecodes.WithLabelValues("error").Inc()
			logging.Ctx(ctx).Debug().Err(err).Msg("Frame decode fault, continuing")
		}
	}
}
