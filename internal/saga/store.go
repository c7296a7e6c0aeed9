// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package saga

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/statforge/statforge/internal/canonical"
)

// Store persists saga state in the canonical database so completion
// tracking survives restarts and is shared across workers.
type Store struct {
	canonical *canonical.Store
}

// NewStore creates a saga store over the canonical database.
func NewStore(cs *canonical.Store) *Store {
	return &Store{canonical: cs}
}

// GetOrCreate loads the saga for a scope, starting one if none exists.
// Runs in the caller's transaction so load-apply-save is atomic per signal.
func (s *Store) GetOrCreate(ctx context.Context, q canonical.Querier, domain, period, provider string) (State, error) {
	state, found, err := s.get(ctx, q, domain, period, provider)
	if err != nil {
		return State{}, err
	}
	if found {
		return state, nil
	}

	state = NewState(domain, period, provider, time.Now().UTC())
	_, err = q.ExecContext(ctx,
		`INSERT INTO saga_runs (domain, period, provider, current_state, started_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (domain, period, provider) DO NOTHING`,
		domain, period, provider, state.Current, state.StartedAt,
	)
	if err != nil {
		return State{}, fmt.Errorf("create saga run %s/%s/%s: %w", domain, period, provider, err)
	}
	return state, nil
}

// Save writes the saga state back. CompletedAt is only ever written when the
// stored value is still NULL, so duplicate terminal signals cannot move it.
func (s *Store) Save(ctx context.Context, q canonical.Querier, state State) error {
	_, err := q.ExecContext(ctx,
		`UPDATE saga_runs SET
			current_state = ?,
			franchises_count = ?, venues_count = ?, events_count = ?, standings_count = ?,
			franchises_first_completed_at = COALESCE(franchises_first_completed_at, ?),
			venues_first_completed_at = COALESCE(venues_first_completed_at, ?),
			events_first_completed_at = COALESCE(events_first_completed_at, ?),
			standings_first_completed_at = COALESCE(standings_first_completed_at, ?),
			completed_at = COALESCE(completed_at, ?)
		 WHERE domain = ? AND period = ? AND provider = ?`,
		state.Current,
		state.Franchises.Count, state.Venues.Count, state.Events.Count, state.Standings.Count,
		nullableTime(state.Franchises.FirstCompletedAt),
		nullableTime(state.Venues.FirstCompletedAt),
		nullableTime(state.Events.FirstCompletedAt),
		nullableTime(state.Standings.FirstCompletedAt),
		nullableTime(state.CompletedAt),
		state.Domain, state.Period, state.Provider,
	)
	if err != nil {
		return fmt.Errorf("save saga run %s/%s/%s: %w", state.Domain, state.Period, state.Provider, err)
	}
	return nil
}

// Get loads the saga for a scope without creating it.
func (s *Store) Get(ctx context.Context, q canonical.Querier, domain, period, provider string) (State, bool, error) {
	return s.get(ctx, q, domain, period, provider)
}

func (s *Store) get(ctx context.Context, q canonical.Querier, domain, period, provider string) (State, bool, error) {
	var state State
	var completedAt sql.NullTime
	var fFirst, vFirst, eFirst, sFirst sql.NullTime

	err := q.QueryRowContext(ctx,
		`SELECT domain, period, provider, current_state,
		        franchises_count, venues_count, events_count, standings_count,
		        franchises_first_completed_at, venues_first_completed_at,
		        events_first_completed_at, standings_first_completed_at,
		        started_at, completed_at
		 FROM saga_runs WHERE domain = ? AND period = ? AND provider = ?`,
		domain, period, provider,
	).Scan(&state.Domain, &state.Period, &state.Provider, &state.Current,
		&state.Franchises.Count, &state.Venues.Count, &state.Events.Count, &state.Standings.Count,
		&fFirst, &vFirst, &eFirst, &sFirst,
		&state.StartedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("get saga run %s/%s/%s: %w", domain, period, provider, err)
	}

	state.Franchises.FirstCompletedAt = timePtr(fFirst)
	state.Venues.FirstCompletedAt = timePtr(vFirst)
	state.Events.FirstCompletedAt = timePtr(eFirst)
	state.Standings.FirstCompletedAt = timePtr(sFirst)
	if completedAt.Valid {
		state.CompletedAt = &completedAt.Time
	}
	return state, true, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
