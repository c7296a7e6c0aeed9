// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/logging"
	"github.com/statforge/statforge/internal/metrics"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/outbox"
)

// CompletedEvent is published when a saga reaches its terminal state,
// announcing that an entire scope's data has been fully sourced.
type CompletedEvent struct {
	Domain      string    `json:"domain"`
	Period      string    `json:"period"`
	Provider    string    `json:"provider"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Service applies completion signals to persisted saga state. Each signal is
// one transaction: load, apply, save, and — on the terminal transition only —
// an outbox row announcing completion.
type Service struct {
	canonical      *canonical.Store
	store          *Store
	outbox         *outbox.Store
	completedTopic string
}

// NewService creates a saga service publishing terminal events to the given
// topic.
func NewService(cs *canonical.Store, store *Store, ob *outbox.Store, completedTopic string) *Service {
	return &Service{
		canonical:      cs,
		store:          store,
		outbox:         ob,
		completedTopic: completedTopic,
	}
}

// HandleSignal processes one completion signal. Safe under duplicated and
// unordered delivery: Apply is idempotent on everything except the
// over-counting counters, and the completed event is emitted at most once
// because only the observing transaction sees the state flip.
//
// When two workers land the last two distinct kinds concurrently, both read
// a pre-terminal state and conflict on the same saga row; the database
// aborts one write and the transport redelivers that signal, whose retry
// then observes the full state and emits the terminal event.
func (s *Service) HandleSignal(ctx context.Context, signal models.CompletionSignal) error {
	tx, err := s.canonical.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin saga transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	state, err := s.store.GetOrCreate(ctx, tx, signal.Domain, signal.Period, signal.Provider)
	if err != nil {
		return err
	}

	wasComplete := state.IsComplete()
	state = Apply(state, CompletionEvent{Kind: signal.Kind, At: time.Now().UTC()})

	if err := s.store.Save(ctx, tx, state); err != nil {
		return err
	}

	metrics.SagaCompletionSignals.WithLabelValues(string(signal.Kind)).Inc()

	if state.IsComplete() && !wasComplete {
		payload, err := json.Marshal(CompletedEvent{
			Domain:      state.Domain,
			Period:      state.Period,
			Provider:    state.Provider,
			StartedAt:   state.StartedAt,
			CompletedAt: *state.CompletedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal saga completed event: %w", err)
		}
		key := fmt.Sprintf("%s/%s/%s", state.Domain, state.Period, state.Provider)
		if err := s.outbox.Append(ctx, tx, s.completedTopic, key, payload); err != nil {
			return err
		}
		metrics.SagasCompleted.Inc()
		logging.Ctx(ctx).Info().
			Str("domain", state.Domain).
			Str("period", state.Period).
			Str("provider", state.Provider).
			Msg("Sourcing saga completed")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit saga transaction: %w", err)
	}
	return nil
}
