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
)

// ErrNoFrames reports an exhausted frame source. For a single-frame
// source it means the one frame held no decodable code.
var ErrNoFrames = errors.New("frame source exhausted")

// ImageSource is a single-frame source over an already captured image,
// as uploaded by app clients that decode server side. The frame is
// served once; the next request ends the session with ErrNoFrames.
type ImageSource struct {
	mu     sync.Mutex
	img    image.Image
	served bool
}

// NewImageSource creates a source serving img exactly once.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

// Acquire implements FrameSource. There is no device to open.
func (s *ImageSource) Acquire(context.Context) error { return nil }

// Frame implements FrameSource.
func (s *ImageSource) Frame(context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.served {
		return nil, ErrNoFrames
	}
	s.served = true
	return s.img, nil
}

// Release implements FrameSource.
func (s *ImageSource) Release() {}
