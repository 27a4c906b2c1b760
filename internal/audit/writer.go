// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/quartermasterhq/quartermaster/internal/logging"
	"github.com/quartermasterhq/quartermaster/internal/metrics"
)

// entriesTopic is the in-process bus topic carrying audit entries from
// producers to the persistence worker.
const entriesTopic = "audit.entries"

// Writer is the fire-and-forget audit trail writer. Record never
// blocks and never returns an error: entries go onto a bounded queue,
// a worker drains the queue through an in-process message bus and
// persists each entry, and queue overflow drops the entry with a
// counter rather than stalling the caller.
//
// Run Serve in a goroutine (or under the supervisor) before recording;
// entries recorded before Serve starts sit in the queue up to its
// capacity.
type Writer struct {
	store  Store
	bus    *gochannel.GoChannel
	intake chan Entry

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWriter creates a writer persisting to store with the given queue
// capacity.
func NewWriter(store Store, bufferSize int) *Writer {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	// Publishing waits for the worker's ack, so entries reach the store
	// in the order they were recorded.
	bus := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            int64(bufferSize),
		BlockPublishUntilSubscriberAck: true,
	}, logging.NewWatermillAdapter())

	return &Writer{
		store:  store,
		bus:    bus,
		intake: make(chan Entry, bufferSize),
		closed: make(chan struct{}),
	}
}

// Record queues one audit entry. Severity is always derived here so
// producers cannot disagree on classification. Overflow drops the
// entry and increments a counter.
func (w *Writer) Record(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Severity = Classify(entry.Action, entry.Details)

	select {
	case <-w.closed:
		metrics.AuditEventsDropped.Inc()
	case w.intake <- entry:
	default:
		metrics.AuditEventsDropped.Inc()
		logging.Warn().
			Str("action", string(entry.Action)).
			Msg("Audit queue full, entry dropped")
	}
}

// Created records a successful asset creation.
func (w *Writer) Created(userID, assetID, companyID, details string) {
	w.record(ActionAssetCreated, userID, assetID, companyID, details)
}

// Updated records a successful asset update.
func (w *Writer) Updated(userID, assetID, companyID, details string) {
	w.record(ActionAssetUpdated, userID, assetID, companyID, details)
}

// Deleted records a successful asset deletion.
func (w *Writer) Deleted(userID, assetID, companyID, details string) {
	w.record(ActionAssetDeleted, userID, assetID, companyID, details)
}

// CheckedOut records a successful asset check-out.
func (w *Writer) CheckedOut(userID, assetID, companyID, details string) {
	w.record(ActionAssetCheckedOut, userID, assetID, companyID, details)
}

// CheckedIn records a successful asset check-in.
func (w *Writer) CheckedIn(userID, assetID, companyID, details string) {
	w.record(ActionAssetCheckedIn, userID, assetID, companyID, details)
}

// Failure records a failed operation under the given error action.
// companyID may be empty when the failure happened before the asset
// could be loaded.
func (w *Writer) Failure(action Action, userID, assetID, companyID, details string) {
	w.record(action, userID, assetID, companyID, details)
}

// System records an operator-facing system event with no actor.
func (w *Writer) System(details string) {
	w.Record(Entry{Action: ActionSystemEvent, Details: details})
}

func (w *Writer) record(action Action, userID, assetID, companyID, details string) {
	entry := Entry{Action: action, CompanyID: companyID, Details: details}
	if userID != "" {
		entry.UserID = &userID
	}
	if assetID != "" {
		entry.AssetID = &assetID
	}
	w.Record(entry)
}

// Serve pumps queued entries through the bus into the store until ctx
// is cancelled. It satisfies the supervisor's service contract.
func (w *Writer) Serve(ctx context.Context) error {
	msgs, err := w.bus.Subscribe(ctx, entriesTopic)
	if err != nil {
		return err
	}

	// Pump: intake queue -> bus.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry := <-w.intake:
				payload, err := json.Marshal(entry)
				if err != nil {
					logging.Error().Err(err).Msg("Failed to encode audit entry")
					metrics.AuditEventsDropped.Inc()
					continue
				}
				msg := message.NewMessage(watermill.NewUUID(), payload)
				if err := w.bus.Publish(entriesTopic, msg); err != nil {
					metrics.AuditEventsDropped.Inc()
					logging.Error().Err(err).Msg("Failed to publish audit entry")
				}
			}
		}
	}()

	// Worker: bus -> store. Persistence failures are logged and the
	// message acked anyway; the audit trail never produces retry storms
	// against an unavailable backend.
	for msg := range msgs {
		var entry Entry
		if err := json.Unmarshal(msg.Payload, &entry); err != nil {
			logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Failed to decode audit entry")
			msg.Ack()
			continue
		}
		if err := w.store.Save(ctx, entry); err != nil {
			logging.Error().Err(err).
				Str("action", string(entry.Action)).
				Msg("Failed to persist audit entry")
		} else {
			metrics.AuditEventsWritten.Inc()
			logging.Debug().
				Str("action", string(entry.Action)).
				Str("severity", string(entry.Severity)).
				Msg("Audit entry persisted")
		}
		msg.Ack()
	}
	return ctx.Err()
}

// Close stops accepting new entries and shuts down the bus. Entries
// still queued are dropped and counted.
func (w *Writer) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		dropped := len(w.intake)
		for i := 0; i < dropped; i++ {
			metrics.AuditEventsDropped.Inc()
		}
		err = w.bus.Close()
	})
	return err
}

// String identifies the writer in supervision logs.
func (w *Writer) String() string { return "audit-writer" }
