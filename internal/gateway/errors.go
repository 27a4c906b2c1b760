// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package gateway

import (
	"errors"
	"fmt"
)

// TransportError indicates the remote gateway was unreachable, timed
// out, or answered with a non-2xx status. Read paths treat it as the
// trigger for the local cache fallback; write paths return it verbatim.
type TransportError struct {
	// Op is the row operation that failed (select, insert, update, delete).
	Op string

	// Table is the remote table the operation targeted.
	Table string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Body holds a truncated response body snippet for diagnostics.
	Body string

	// Err is the underlying cause, if any.
	Err error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s %s: status %d: %s", e.Op, e.Table, e.Status, e.Body)
	}
	return fmt.Sprintf("gateway %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
