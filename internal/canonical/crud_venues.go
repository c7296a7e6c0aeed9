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

// GetVenue fetches a venue by canonical id.
func (s *Store) GetVenue(ctx context.Context, q Querier, id uuid.UUID) (*models.Venue, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var v models.Venue
	err := q.QueryRowContext(ctx,
		`SELECT id, name, city, capacity, created_at, updated_at FROM venues WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.City, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get venue %s: %w", id, err)
	}
	return &v, nil
}

// UpsertVenue applies the merge-if-changed strategy.
func (s *Store) UpsertVenue(ctx context.Context, q Querier, v models.Venue) (UpsertResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	existing, err := s.GetVenue(ctx, q, v.ID)
	if err != nil {
		return ResultUnchanged, err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err := q.ExecContext(ctx,
			`INSERT INTO venues (id, name, city, capacity, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			v.ID, v.Name, v.City, v.Capacity, now, now,
		)
		if err != nil {
			return ResultUnchanged, fmt.Errorf("insert venue %s: %w", v.ID, err)
		}
		return ResultCreated, nil
	}

	if existing.Name == v.Name && existing.City == v.City && existing.Capacity == v.Capacity {
		return ResultUnchanged, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE venues SET name = ?, city = ?, capacity = ?, updated_at = ? WHERE id = ?`,
		v.Name, v.City, v.Capacity, now, v.ID,
	)
	if err != nil {
		return ResultUnchanged, fmt.Errorf("update venue %s: %w", v.ID, err)
	}
	return ResultUpdated, nil
}
