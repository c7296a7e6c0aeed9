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

// UpsertResult reports what a canonicalization write actually did. The
// distinction drives event emission: only Created and Updated produce domain
// events, so no-op re-deliveries stay silent.
type UpsertResult int

const (
	// ResultUnchanged means the delivered document matched the stored row
	// field-for-field. Nothing was written, no event is emitted.
	ResultUnchanged UpsertResult = iota

	// ResultCreated means a new canonical row was inserted.
	ResultCreated

	// ResultUpdated means at least one field differed and was written.
	ResultUpdated
)

// String returns the result name for logs and metrics labels.
func (r UpsertResult) String() string {
	switch r {
	case ResultCreated:
		return "created"
	case ResultUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// LinkExternal records the (provider, content_hash) → canonical id mapping.
// Idempotent: a re-delivered document hits the unique constraint and the
// insert is skipped.
func (s *Store) LinkExternal(ctx context.Context, q Querier, ext models.ExternalID) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	if ext.CreatedAt.IsZero() {
		ext.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO external_ids (canonical_id, entity_kind, provider, content_hash, source_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, content_hash) DO NOTHING`

	_, err := q.ExecContext(ctx, query,
		ext.CanonicalID, ext.EntityKind, ext.Provider, ext.ContentHash, ext.SourceURL, ext.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("link external id for %s: %w", ext.EntityKind, err)
	}
	return nil
}

// ResolveExternal looks up the canonical id previously linked to a provider
// document. The boolean reports whether a link exists.
func (s *Store) ResolveExternal(ctx context.Context, q Querier, provider, contentHash string) (uuid.UUID, bool, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var id uuid.UUID
	err := q.QueryRowContext(ctx,
		`SELECT canonical_id FROM external_ids WHERE provider = ? AND content_hash = ?`,
		provider, contentHash,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("resolve external id: %w", err)
	}
	return id, true, nil
}

// ExternalIDsFor returns every provider link for one canonical entity.
func (s *Store) ExternalIDsFor(ctx context.Context, q Querier, canonicalID uuid.UUID) ([]models.ExternalID, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx,
		`SELECT canonical_id, entity_kind, provider, content_hash, source_url, created_at
		 FROM external_ids WHERE canonical_id = ? ORDER BY created_at`,
		canonicalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list external ids: %w", err)
	}
	defer rows.Close()

	var out []models.ExternalID
	for rows.Next() {
		var ext models.ExternalID
		if err := rows.Scan(&ext.CanonicalID, &ext.EntityKind, &ext.Provider, &ext.ContentHash, &ext.SourceURL, &ext.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan external id: %w", err)
		}
		out = append(out, ext)
	}
	return out, rows.Err()
}
