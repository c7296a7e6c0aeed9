// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package canonical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/models"
)

// GetEvent fetches an event by canonical id.
func (s *Store) GetEvent(ctx context.Context, q Querier, id uuid.UUID) (*models.Event, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var e models.Event
	var venueID sql.Null[uuid.UUID]
	var clock sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, home_team_season_id, away_team_season_id, venue_id, scheduled_at, status,
		        home_score, away_score, clock, created_at, updated_at
		 FROM events WHERE id = ?`, id,
	).Scan(&e.ID, &e.HomeTeamSeasonID, &e.AwayTeamSeasonID, &venueID, &e.ScheduledAt, &e.Status,
		&e.HomeScore, &e.AwayScore, &clock, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	if venueID.Valid {
		e.VenueID = &venueID.V
	}
	e.Clock = clock.String
	return &e, nil
}

// UpsertEvent applies the merge-if-changed strategy over the scheduling
// fields. Live fields (status, scores, clock) are merged too: a status
// document re-delivered with no change emits nothing.
func (s *Store) UpsertEvent(ctx context.Context, q Querier, e models.Event) (UpsertResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	existing, err := s.GetEvent(ctx, q, e.ID)
	if err != nil {
		return ResultUnchanged, err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err := q.ExecContext(ctx,
			`INSERT INTO events (id, home_team_season_id, away_team_season_id, venue_id, scheduled_at, status,
			                     home_score, away_score, clock, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.HomeTeamSeasonID, e.AwayTeamSeasonID, nullableUUID(e.VenueID), e.ScheduledAt, e.Status,
			e.HomeScore, e.AwayScore, e.Clock, now, now,
		)
		if err != nil {
			return ResultUnchanged, fmt.Errorf("insert event %s: %w", e.ID, err)
		}
		return ResultCreated, nil
	}

	if eventsEqual(existing, &e) {
		return ResultUnchanged, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE events SET home_team_season_id = ?, away_team_season_id = ?, venue_id = ?, scheduled_at = ?,
		                   status = ?, home_score = ?, away_score = ?, clock = ?, updated_at = ?
		 WHERE id = ?`,
		e.HomeTeamSeasonID, e.AwayTeamSeasonID, nullableUUID(e.VenueID), e.ScheduledAt,
		e.Status, e.HomeScore, e.AwayScore, e.Clock, now, e.ID,
	)
	if err != nil {
		return ResultUnchanged, fmt.Errorf("update event %s: %w", e.ID, err)
	}
	return ResultUpdated, nil
}

// UpdateEventStatus overwrites only the live fields of an existing event.
// Returns ResultUnchanged when the delivered status matches the stored one.
func (s *Store) UpdateEventStatus(ctx context.Context, q Querier, id uuid.UUID, status string, homeScore, awayScore int, clock string) (UpsertResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	existing, err := s.GetEvent(ctx, q, id)
	if err != nil {
		return ResultUnchanged, err
	}
	if existing == nil {
		return ResultUnchanged, fmt.Errorf("update status: event %s not found", id)
	}

	if existing.Status == status && existing.HomeScore == homeScore &&
		existing.AwayScore == awayScore && existing.Clock == clock {
		return ResultUnchanged, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE events SET status = ?, home_score = ?, away_score = ?, clock = ?, updated_at = ? WHERE id = ?`,
		status, homeScore, awayScore, clock, time.Now().UTC(), id,
	)
	if err != nil {
		return ResultUnchanged, fmt.Errorf("update event status %s: %w", id, err)
	}
	return ResultUpdated, nil
}

// ListLiveEvents returns events currently in progress, for the live poller.
func (s *Store) ListLiveEvents(ctx context.Context, q Querier) ([]models.Event, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx,
		`SELECT id, home_team_season_id, away_team_season_id, venue_id, scheduled_at, status,
		        home_score, away_score, clock, created_at, updated_at
		 FROM events WHERE status = ? ORDER BY scheduled_at`,
		models.EventStatusInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("list live events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		var venueID sql.Null[uuid.UUID]
		var clock sql.NullString
		if err := rows.Scan(&e.ID, &e.HomeTeamSeasonID, &e.AwayTeamSeasonID, &venueID, &e.ScheduledAt, &e.Status,
			&e.HomeScore, &e.AwayScore, &clock, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan live event: %w", err)
		}
		if venueID.Valid {
			e.VenueID = &venueID.V
		}
		e.Clock = clock.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func eventsEqual(a, b *models.Event) bool {
	return a.HomeTeamSeasonID == b.HomeTeamSeasonID &&
		a.AwayTeamSeasonID == b.AwayTeamSeasonID &&
		uuidPtrEqual(a.VenueID, b.VenueID) &&
		a.ScheduledAt.Equal(b.ScheduledAt) &&
		a.Status == b.Status &&
		a.HomeScore == b.HomeScore &&
		a.AwayScore == b.AwayScore &&
		a.Clock == b.Clock
}
