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

// GetPerson fetches a person by canonical id.
func (s *Store) GetPerson(ctx context.Context, q Querier, id uuid.UUID) (*models.Person, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var p models.Person
	var birthDate, position sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, full_name, birth_date, position, created_at, updated_at FROM people WHERE id = ?`, id,
	).Scan(&p.ID, &p.FullName, &birthDate, &position, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person %s: %w", id, err)
	}
	p.BirthDate = birthDate.String
	p.Position = position.String
	return &p, nil
}

// UpsertPerson applies the merge-if-changed strategy.
func (s *Store) UpsertPerson(ctx context.Context, q Querier, p models.Person) (UpsertResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	existing, err := s.GetPerson(ctx, q, p.ID)
	if err != nil {
		return ResultUnchanged, err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err := q.ExecContext(ctx,
			`INSERT INTO people (id, full_name, birth_date, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.FullName, p.BirthDate, p.Position, now, now,
		)
		if err != nil {
			return ResultUnchanged, fmt.Errorf("insert person %s: %w", p.ID, err)
		}
		return ResultCreated, nil
	}

	if existing.FullName == p.FullName && existing.BirthDate == p.BirthDate && existing.Position == p.Position {
		return ResultUnchanged, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE people SET full_name = ?, birth_date = ?, position = ?, updated_at = ? WHERE id = ?`,
		p.FullName, p.BirthDate, p.Position, now, p.ID,
	)
	if err != nil {
		return ResultUnchanged, fmt.Errorf("update person %s: %w", p.ID, err)
	}
	return ResultUpdated, nil
}

// GetCoachSeason fetches a coach-season by canonical id.
func (s *Store) GetCoachSeason(ctx context.Context, q Querier, id uuid.UUID) (*models.CoachSeason, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var cs models.CoachSeason
	err := q.QueryRowContext(ctx,
		`SELECT id, person_id, team_season_id, role, created_at, updated_at FROM coach_seasons WHERE id = ?`, id,
	).Scan(&cs.ID, &cs.PersonID, &cs.TeamSeasonID, &cs.Role, &cs.CreatedAt, &cs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coach season %s: %w", id, err)
	}
	return &cs, nil
}

// UpsertCoachSeason applies the merge-if-changed strategy.
func (s *Store) UpsertCoachSeason(ctx context.Context, q Querier, cs models.CoachSeason) (UpsertResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	existing, err := s.GetCoachSeason(ctx, q, cs.ID)
	if err != nil {
		return ResultUnchanged, err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err := q.ExecContext(ctx,
			`INSERT INTO coach_seasons (id, person_id, team_season_id, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			cs.ID, cs.PersonID, cs.TeamSeasonID, cs.Role, now, now,
		)
		if err != nil {
			return ResultUnchanged, fmt.Errorf("insert coach season %s: %w", cs.ID, err)
		}
		return ResultCreated, nil
	}

	if existing.PersonID == cs.PersonID && existing.TeamSeasonID == cs.TeamSeasonID && existing.Role == cs.Role {
		return ResultUnchanged, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE coach_seasons SET person_id = ?, team_season_id = ?, role = ?, updated_at = ? WHERE id = ?`,
		cs.PersonID, cs.TeamSeasonID, cs.Role, now, cs.ID,
	)
	if err != nil {
		return ResultUnchanged, fmt.Errorf("update coach season %s: %w", cs.ID, err)
	}
	return ResultUpdated, nil
}
