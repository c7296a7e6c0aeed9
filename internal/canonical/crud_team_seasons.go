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

// GetTeamSeason fetches a team-season by canonical id.
func (s *Store) GetTeamSeason(ctx context.Context, q Querier, id uuid.UUID) (*models.TeamSeason, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var ts models.TeamSeason
	err := q.QueryRowContext(ctx,
		`SELECT id, franchise_id, period, team_name, created_at, updated_at FROM team_seasons WHERE id = ?`, id,
	).Scan(&ts.ID, &ts.FranchiseID, &ts.Period, &ts.TeamName, &ts.CreatedAt, &ts.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team season %s: %w", id, err)
	}
	return &ts, nil
}

// UpsertTeamSeason applies the merge-if-changed strategy.
func (s *Store) UpsertTeamSeason(ctx context.Context, q Querier, ts models.TeamSeason) (UpsertResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	existing, err := s.GetTeamSeason(ctx, q, ts.ID)
	if err != nil {
		return ResultUnchanged, err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err := q.ExecContext(ctx,
			`INSERT INTO team_seasons (id, franchise_id, period, team_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			ts.ID, ts.FranchiseID, ts.Period, ts.TeamName, now, now,
		)
		if err != nil {
			return ResultUnchanged, fmt.Errorf("insert team season %s: %w", ts.ID, err)
		}
		return ResultCreated, nil
	}

	if existing.FranchiseID == ts.FranchiseID && existing.Period == ts.Period && existing.TeamName == ts.TeamName {
		return ResultUnchanged, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE team_seasons SET franchise_id = ?, period = ?, team_name = ?, updated_at = ? WHERE id = ?`,
		ts.FranchiseID, ts.Period, ts.TeamName, now, ts.ID,
	)
	if err != nil {
		return ResultUnchanged, fmt.Errorf("update team season %s: %w", ts.ID, err)
	}
	return ResultUpdated, nil
}
