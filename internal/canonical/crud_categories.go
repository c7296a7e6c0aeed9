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

	"github.com/statforge/statforge/internal/logging"
	"github.com/statforge/statforge/internal/models"
)

// GetCategoryByName fetches a statistic category by its unique name.
func (s *Store) GetCategoryByName(ctx context.Context, q Querier, name string) (*models.StatisticCategory, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var c models.StatisticCategory
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM statistic_categories WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", name, err)
	}
	return &c, nil
}

// GetOrCreateCategory resolves a shared lookup row keyed by name, creating
// it on first use. Two workers can race on first creation; the loser's
// insert hits the unique constraint, the failed attempt is discarded, and
// the winner's row is re-read. The race never fails the unit of work.
//
// Runs on the pooled connection rather than the caller's transaction so a
// constraint failure cannot poison the document's transaction.
func (s *Store) GetOrCreateCategory(ctx context.Context, name string) (models.StatisticCategory, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	if existing, err := s.GetCategoryByName(ctx, s.conn, name); err != nil {
		return models.StatisticCategory{}, err
	} else if existing != nil {
		return *existing, nil
	}

	candidate := models.StatisticCategory{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO statistic_categories (id, name, created_at) VALUES (?, ?, ?)`,
		candidate.ID, candidate.Name, candidate.CreatedAt,
	)
	if err == nil {
		return candidate, nil
	}
	if !IsUniqueViolation(err) {
		return models.StatisticCategory{}, fmt.Errorf("create category %q: %w", name, err)
	}

	// Lost the race: another worker created the row between our read and
	// insert. Re-read the winner.
	logging.Ctx(ctx).Debug().Str("category", name).Msg("Lost category creation race, re-reading winner")

	winner, err := s.GetCategoryByName(ctx, s.conn, name)
	if err != nil {
		return models.StatisticCategory{}, err
	}
	if winner == nil {
		return models.StatisticCategory{}, fmt.Errorf("category %q vanished after unique violation", name)
	}
	return *winner, nil
}
