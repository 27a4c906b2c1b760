// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter on top of zerolog,
// so the audit write queue logs through the same pipeline as everything
// else.
type WatermillAdapter struct {
	fields watermill.LogFields
}

// NewWatermillAdapter creates a watermill logger backed by the global logger.
func NewWatermillAdapter() *WatermillAdapter {
	return &WatermillAdapter{}
}

// Error logs an error message.
func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.emit(Error().Err(err), fields).Msg(msg)
}

// Info logs an info message.
func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.emit(Info(), fields).Msg(msg)
}

// Debug logs a debug message.
func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.emit(Debug(), fields).Msg(msg)
}

// Trace logs at debug level; zerolog's trace level is below watermill's needs.
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.emit(Debug(), fields).Msg(msg)
}

// With returns a logger that always carries the given fields.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{fields: a.fields.Add(fields)}
}

func (a *WatermillAdapter) emit(event *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range a.fields {
		event = event.Interface(k, v)
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	return event
}
