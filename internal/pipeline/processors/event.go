// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package processors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/identity"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
)

// EventProcessor canonicalizes scheduled games. Hard prerequisites: both
// participating team-seasons. The venue reference, like the franchise one,
// resolves deterministically and is never a blocker. A non-terminal event
// emits an event-status child so live tracking can begin.
type EventProcessor struct {
	deps Deps
}

// NewEventProcessor wires the event handler.
func NewEventProcessor(deps Deps) *EventProcessor {
	return &EventProcessor{deps: deps}
}

func (p *EventProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindEvent}
}

func (p *EventProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[eventDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	ident, err := identity.Resolve(req.SourceURI)
	if err != nil {
		return pipeline.Malformedf("resolve identity: %v", err), nil
	}
	homeIdent, err := identity.Resolve(doc.HomeTeamRef)
	if err != nil {
		return pipeline.Malformedf("resolve home team ref: %v", err), nil
	}
	awayIdent, err := identity.Resolve(doc.AwayTeamRef)
	if err != nil {
		return pipeline.Malformedf("resolve away team ref: %v", err), nil
	}

	var missing []models.SourcingRequest
	var reasons []string
	for _, side := range []struct {
		ref string
		id  uuid.UUID
	}{
		{doc.HomeTeamRef, homeIdent.CanonicalID},
		{doc.AwayTeamRef, awayIdent.CanonicalID},
	} {
		ts, err := p.deps.Store.GetTeamSeason(ctx, tx, side.id)
		if err != nil {
			return nil, err
		}
		if ts == nil {
			missing = append(missing, prerequisiteRequest(req, side.ref, models.KindTeamSeason))
			reasons = append(reasons, "team-season "+side.id.String())
		}
	}
	if len(missing) > 0 {
		return pipeline.Retry{
			Missing: missing,
			Reason:  "not yet canonical: " + strings.Join(reasons, ", "),
		}, nil
	}

	var venueID *uuid.UUID
	if doc.VenueRef != "" {
		venueIdent, err := identity.Resolve(doc.VenueRef)
		if err != nil {
			return pipeline.Malformedf("resolve venue ref: %v", err), nil
		}
		venueID = &venueIdent.CanonicalID
	}

	status := doc.Status
	if status == "" {
		status = models.EventStatusScheduled
	}

	event := models.Event{
		ID:               ident.CanonicalID,
		HomeTeamSeasonID: homeIdent.CanonicalID,
		AwayTeamSeasonID: awayIdent.CanonicalID,
		VenueID:          venueID,
		ScheduledAt:      doc.ScheduledAt,
		Status:           status,
	}

	result, err := p.deps.Store.UpsertEvent(ctx, tx, event)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Store.LinkExternal(ctx, tx,
		externalLink(req, ident.CanonicalID, "event", ident.ContentHash, ident.NormalizedURL)); err != nil {
		return nil, err
	}

	events, err := resultEvents(result, "event", ident.CanonicalID, event)
	if err != nil {
		return nil, fmt.Errorf("build event event: %w", err)
	}

	var children []models.SourcingRequest
	if !event.IsTerminal() {
		statusURI := strings.TrimRight(ident.NormalizedURL, "/") + "/status"
		children = append(children, childRequest(req, ident.CanonicalID, statusURI, models.KindEventStatus))
	}

	return pipeline.OK{
		Events:      events,
		Children:    children,
		Completions: completionSignal(req),
	}, nil
}
