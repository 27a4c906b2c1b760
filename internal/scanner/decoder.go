// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package scanner

import (
	"errors"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoCode reports that a frame contained no decodable code. The
// resolution loop treats it as "keep scanning", unlike decoder faults.
var ErrNoCode = errors.New("no code in frame")

// QRDecoder decodes QR codes from sampled frames using gozxing.
type QRDecoder struct {
	reader gozxing.Reader
}

// NewQRDecoder creates a QR code decoder.
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{reader: qrcode.NewQRCodeReader()}
}

// Decode implements Decoder. A frame with no recognizable code returns
// ErrNoCode.
func (d *QRDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}
	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		if _, ok := err.(gozxing.NotFoundException); ok {
			return "", ErrNoCode
		}
		return "", err
	}
	return result.GetText(), nil
}
