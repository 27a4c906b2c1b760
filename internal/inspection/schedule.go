// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package inspection classifies inspection and warranty records into
// schedule buckets for dashboard summaries. Classification is pure so
// it applies identically to live and cache-fallback data.
package inspection

import (
	"time"

	"github.com/quartermasterhq/quartermaster/internal/models"
)

// Bucket is a schedule category.
type Bucket string

const (
	BucketOverdue   Bucket = "overdue"
	BucketDueSoon   Bucket = "due_soon"
	BucketUpcoming  Bucket = "upcoming"
	BucketCompleted Bucket = "completed"
)

// DefaultDueSoonWindow is how far ahead an open record counts as due
// soon rather than merely upcoming.
const DefaultDueSoonWindow = 30 * 24 * time.Hour

// Classify places one record into a bucket relative to now. Completed
// records are terminal regardless of their due date.
func Classify(rec models.Inspection, now time.Time, dueSoonWindow time.Duration) Bucket {
	if rec.CompletedAt != nil {
		return BucketCompleted
	}
	if rec.DueAt.Before(now) {
		return BucketOverdue
	}
	if dueSoonWindow <= 0 {
		dueSoonWindow = DefaultDueSoonWindow
	}
	if rec.DueAt.Sub(now) <= dueSoonWindow {
		return BucketDueSoon
	}
	return BucketUpcoming
}

// Summary counts records per bucket, split by record type.
type Summary struct {
	Overdue   int `json:"overdue"`
	DueSoon   int `json:"due_soon"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`

	WarrantiesExpired  int `json:"warranties_expired"`
	WarrantiesExpiring int `json:"warranties_expiring"`
}

// Summarize builds schedule counts over a set of records.
func Summarize(records []models.Inspection, now time.Time, dueSoonWindow time.Duration) Summary {
	var s Summary
	for _, rec := range records {
		bucket := Classify(rec, now, dueSoonWindow)
		switch bucket {
		case BucketOverdue:
			s.Overdue++
		case BucketDueSoon:
			s.DueSoon++
		case BucketUpcoming:
			s.Upcoming++
		case BucketCompleted:
			s.Completed++
		}
		if rec.Type == models.InspectionTypeWarranty {
			switch bucket {
			case BucketOverdue:
				s.WarrantiesExpired++
			case BucketDueSoon:
				s.WarrantiesExpiring++
			}
		}
	}
	return s
}
