// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DomainEvent is published to downstream read-model consumers whenever a
// canonical entity is created or materially updated. The snapshot carries
// the full entity state, so consumers never have to query back.
type DomainEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	Type          string          `json:"type"`
	EntityKind    string          `json:"entity_kind"`
	EntityID      uuid.UUID       `json:"entity_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	CausationID   string          `json:"causation_id,omitempty"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

// NewCreatedEvent builds a <kind>.created event carrying the entity snapshot.
func NewCreatedEvent(entityKind string, entityID uuid.UUID, snapshot any) (DomainEvent, error) {
	return newDomainEvent(entityKind, "created", entityID, snapshot)
}

// NewUpdatedEvent builds a <kind>.updated event carrying the entity snapshot.
func NewUpdatedEvent(entityKind string, entityID uuid.UUID, snapshot any) (DomainEvent, error) {
	return newDomainEvent(entityKind, "updated", entityID, snapshot)
}

func newDomainEvent(entityKind, action string, entityID uuid.UUID, snapshot any) (DomainEvent, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("marshal %s snapshot: %w", entityKind, err)
	}
	return DomainEvent{
		EventID:    uuid.New(),
		Type:       fmt.Sprintf("%s.%s", entityKind, action),
		EntityKind: entityKind,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Snapshot:   raw,
	}, nil
}
