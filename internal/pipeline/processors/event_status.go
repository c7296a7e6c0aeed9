// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package processors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/identity"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
)

// EventStatusProcessor overwrites the live fields of an existing event. The
// owning event is derived by rewriting the status URI, so the document needs
// no back-reference in its payload. Hard prerequisite: the event row.
type EventStatusProcessor struct {
	deps Deps
}

// NewEventStatusProcessor wires the event-status handler.
func NewEventStatusProcessor(deps Deps) *EventStatusProcessor {
	return &EventStatusProcessor{deps: deps}
}

func (p *EventStatusProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindEventStatus}
}

func (p *EventStatusProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[eventStatusDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	eventURI, err := identity.EventStatusToEvent(req.SourceURI)
	if err != nil {
		var shape *identity.ShapeViolationError
		if errors.As(err, &shape) {
			// Contract drift, not bad data in flight. Fail loud so the
			// transport's failure path surfaces it.
			return nil, err
		}
		return pipeline.Malformedf("rewrite status uri: %v", err), nil
	}

	eventIdent, err := identity.Resolve(eventURI)
	if err != nil {
		return pipeline.Malformedf("resolve event identity: %v", err), nil
	}

	event, err := p.deps.Store.GetEvent(ctx, tx, eventIdent.CanonicalID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return pipeline.Retry{
			Missing: []models.SourcingRequest{prerequisiteRequest(req, eventURI, models.KindEvent)},
			Reason:  fmt.Sprintf("event %s not yet canonical", eventIdent.CanonicalID),
		}, nil
	}

	result, err := p.deps.Store.UpdateEventStatus(ctx, tx, eventIdent.CanonicalID,
		doc.Status, doc.HomeScore, doc.AwayScore, doc.Clock)
	if err != nil {
		return nil, err
	}

	if result == canonical.ResultUnchanged {
		return pipeline.OK{}, nil
	}

	updated, err := p.deps.Store.GetEvent(ctx, tx, eventIdent.CanonicalID)
	if err != nil {
		return nil, err
	}
	ev, err := models.NewUpdatedEvent("event", eventIdent.CanonicalID, updated)
	if err != nil {
		return nil, fmt.Errorf("build event status event: %w", err)
	}

	return pipeline.OK{Events: []models.DomainEvent{ev}}, nil
}
