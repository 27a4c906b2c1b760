// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package store

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is. Lookup misses,
// check-out conflicts and validation failures are distinct conditions;
// transport failures surface as *gateway.TransportError and are never
// wrapped into these.
var (
	// ErrNotFound reports that no row matched a lookup, remotely or in
	// the local cache.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyCheckedOut reports an attempt to check out an asset
	// that has an open assignment.
	ErrAlreadyCheckedOut = errors.New("asset is already checked out")

	// ErrNotCheckedOut reports an attempt to check in an asset with no
	// open assignment.
	ErrNotCheckedOut = errors.New("asset is not checked out")
)

// NotFoundError carries the table and key of a failed lookup. It
// matches ErrNotFound under errors.Is.
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no row for %q", e.Table, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
