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

// GetFranchise fetches a franchise by canonical id.
func (s *Store) GetFranchise(ctx context.Context, q Querier, id uuid.UUID) (*models.Franchise, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var f models.Franchise
	var venueID sql.Null[uuid.UUID]
	err := q.QueryRowContext(ctx,
		`SELECT id, name, alias, venue_id, created_at, updated_at FROM franchises WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.Alias, &venueID, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get franchise %s: %w", id, err)
	}
	if venueID.Valid {
		f.VenueID = &venueID.V
	}
	return &f, nil
}

// UpsertFranchise applies the merge-if-changed strategy: insert when absent,
// update only when a field actually differs, otherwise leave the row alone.
func (s *Store) UpsertFranchise(ctx context.Context, q Querier, f models.Franchise) (UpsertResult, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	existing, err := s.GetFranchise(ctx, q, f.ID)
	if err != nil {
		return ResultUnchanged, err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err := q.ExecContext(ctx,
			`INSERT INTO franchises (id, name, alias, venue_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.Alias, nullableUUID(f.VenueID), now, now,
		)
		if err != nil {
			return ResultUnchanged, fmt.Errorf("insert franchise %s: %w", f.ID, err)
		}
		return ResultCreated, nil
	}

	if existing.Name == f.Name && existing.Alias == f.Alias && uuidPtrEqual(existing.VenueID, f.VenueID) {
		return ResultUnchanged, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE franchises SET name = ?, alias = ?, venue_id = ?, updated_at = ? WHERE id = ?`,
		f.Name, f.Alias, nullableUUID(f.VenueID), now, f.ID,
	)
	if err != nil {
		return ResultUnchanged, fmt.Errorf("update franchise %s: %w", f.ID, err)
	}
	return ResultUpdated, nil
}

// nullableUUID converts an optional uuid to a driver-friendly value.
func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
