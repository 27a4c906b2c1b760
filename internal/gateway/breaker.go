// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package gateway

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/quartermasterhq/quartermaster/internal/logging"
	"github.com/quartermasterhq/quartermaster/internal/metrics"
)

// Breaker wraps a RowClient with a circuit breaker so that a backend
// outage fails fast instead of burning the request timeout on every
// call. An open breaker surfaces as a *TransportError, which the access
// facade already treats as "fall back to the local cache".
type Breaker struct {
	next RowClient
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreaker wraps next with circuit breaker protection.
//
// The breaker opens when at least 10 requests have been observed in the
// current window and 60% or more of them failed. It transitions to
// half-open after 30 seconds and closes again after 3 consecutive
// successes.
func NewBreaker(name string, next RowClient) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state changed")
			metrics.BreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Select implements RowClient.
func (b *Breaker) Select(ctx context.Context, table string, q Query, dest any) error {
	return b.execute("select", func() error {
		return b.next.Select(ctx, table, q, dest)
	})
}

// Insert implements RowClient.
func (b *Breaker) Insert(ctx context.Context, table string, record, dest any) error {
	return b.execute("insert", func() error {
		return b.next.Insert(ctx, table, record, dest)
	})
}

// Update implements RowClient.
func (b *Breaker) Update(ctx context.Context, table, id string, patch, dest any) error {
	return b.execute("update", func() error {
		return b.next.Update(ctx, table, id, patch, dest)
	})
}

// Delete implements RowClient.
func (b *Breaker) Delete(ctx context.Context, table, id string) error {
	return b.execute("delete", func() error {
		return b.next.Delete(ctx, table, id)
	})
}

func (b *Breaker) execute(op string, fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	switch {
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		metrics.BreakerRequests.WithLabelValues(b.cb.Name(), "rejected").Inc()
		return &TransportError{Op: op, Err: err}
	case err != nil:
		metrics.BreakerRequests.WithLabelValues(b.cb.Name(), "failure").Inc()
		return err
	default:
		metrics.BreakerRequests.WithLabelValues(b.cb.Name(), "success").Inc()
		return nil
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half_open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
