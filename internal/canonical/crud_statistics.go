// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package canonical

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/models"
)

// ReplaceStatisticLines applies the replace-wholesale strategy: a statistics
// snapshot enumerates the complete line set for a team-season, so every
// existing line is deleted and the new set inserted. Both steps run in the
// caller's transaction; there is no observable empty-state window.
func (s *Store) ReplaceStatisticLines(ctx context.Context, q Querier, teamSeasonID uuid.UUID, lines []models.StatisticLine) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	if _, err := q.ExecContext(ctx,
		`DELETE FROM statistic_lines WHERE team_season_id = ?`, teamSeasonID,
	); err != nil {
		return fmt.Errorf("delete statistic lines for %s: %w", teamSeasonID, err)
	}

	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO statistic_lines (id, team_season_id, category_id, label, value) VALUES (?, ?, ?, ?, ?)`,
			line.ID, teamSeasonID, line.CategoryID, line.Label, line.Value,
		); err != nil {
			return fmt.Errorf("insert statistic line %q: %w", line.Label, err)
		}
	}
	return nil
}

// ListStatisticLines returns every line owned by a team-season.
func (s *Store) ListStatisticLines(ctx context.Context, q Querier, teamSeasonID uuid.UUID) ([]models.StatisticLine, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx,
		`SELECT id, team_season_id, category_id, label, value FROM statistic_lines WHERE team_season_id = ? ORDER BY label`,
		teamSeasonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list statistic lines: %w", err)
	}
	defer rows.Close()

	var out []models.StatisticLine
	for rows.Next() {
		var line models.StatisticLine
		if err := rows.Scan(&line.ID, &line.TeamSeasonID, &line.CategoryID, &line.Label, &line.Value); err != nil {
			return nil, fmt.Errorf("scan statistic line: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// ReplaceStandings applies the replace-wholesale strategy for a period's
// standings: the document enumerates every franchise's record, so the whole
// (domain-wide) period set is swapped in one transaction.
func (s *Store) ReplaceStandings(ctx context.Context, q Querier, period string, standings []models.Standing) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	if _, err := q.ExecContext(ctx,
		`DELETE FROM standings WHERE period = ?`, period,
	); err != nil {
		return fmt.Errorf("delete standings for period %s: %w", period, err)
	}

	for _, st := range standings {
		if st.ID == uuid.Nil {
			st.ID = uuid.New()
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO standings (id, franchise_id, period, wins, losses, ties) VALUES (?, ?, ?, ?, ?, ?)`,
			st.ID, st.FranchiseID, period, st.Wins, st.Losses, st.Ties,
		); err != nil {
			return fmt.Errorf("insert standing for franchise %s: %w", st.FranchiseID, err)
		}
	}
	return nil
}

// ListStandings returns the stored standings for a period.
func (s *Store) ListStandings(ctx context.Context, q Querier, period string) ([]models.Standing, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx,
		`SELECT id, franchise_id, period, wins, losses, ties FROM standings WHERE period = ? ORDER BY wins DESC, losses`,
		period,
	)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}
	defer rows.Close()

	var out []models.Standing
	for rows.Next() {
		var st models.Standing
		if err := rows.Scan(&st.ID, &st.FranchiseID, &st.Period, &st.Wins, &st.Losses, &st.Ties); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
