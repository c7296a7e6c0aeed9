// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package outbox implements the transactional outbox pattern. Every message
// the pipeline emits — sourcing requests, domain events, saga completions —
// is first written as an outbox row in the same transaction as the domain
// write, then published by the relay. A message is never lost, and never
// attributed to a transaction that rolled back.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/canonical"
)

// Statuses of an outbox row.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Message is one pending or published outbox row.
type Message struct {
	ID          uuid.UUID
	Topic       string
	Key         string
	Payload     []byte
	Status      string
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Store reads and writes outbox rows. It shares the canonical store's
// database so Append participates in the caller's transaction.
type Store struct {
	canonical *canonical.Store
}

// NewStore creates an outbox store over the canonical database.
func NewStore(cs *canonical.Store) *Store {
	return &Store{canonical: cs}
}

// Append writes a pending outbox row inside the caller's transaction. The
// row commits or rolls back atomically with the domain writes.
func (s *Store) Append(ctx context.Context, q canonical.Querier, topic, key string, payload []byte) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO outbox (id, topic, msg_key, payload, status, attempts, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)`,
		uuid.New(), topic, key, string(payload), StatusPending, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append outbox row for %s: %w", topic, err)
	}
	return nil
}

// FetchPending returns up to limit pending rows, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.canonical.DB().QueryContext(ctx,
		`SELECT id, topic, msg_key, payload, status, attempts, COALESCE(last_error, ''), created_at
		 FROM outbox WHERE status = ? ORDER BY created_at LIMIT ?`,
		StatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox rows: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var key sql.NullString
		var payload string
		if err := rows.Scan(&m.ID, &m.Topic, &key, &payload, &m.Status, &m.Attempts, &m.LastError, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		m.Key = key.String
		m.Payload = []byte(payload)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkPublished records a successful publish.
func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := s.canonical.DB().ExecContext(ctx,
		`UPDATE outbox SET status = ?, processed_at = ? WHERE id = ?`,
		StatusPublished, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox row %s published: %w", id, err)
	}
	return nil
}

// MarkFailed bumps the attempt counter and records the publish error. The
// row stays pending and is retried on the next relay tick.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, publishErr error) error {
	_, err := s.canonical.DB().ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		publishErr.Error(), id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox row %s failed: %w", id, err)
	}
	return nil
}

// PendingCount returns the current outbox backlog depth.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.canonical.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE status = ?`, StatusPending,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox rows: %w", err)
	}
	return n, nil
}
