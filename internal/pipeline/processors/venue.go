// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package processors

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/statforge/statforge/internal/identity"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
)

// VenueProcessor canonicalizes venue documents. No prerequisites, no
// children; venues are one of the four saga-tracked top-level kinds.
type VenueProcessor struct {
	deps Deps
}

// NewVenueProcessor wires the venue handler.
func NewVenueProcessor(deps Deps) *VenueProcessor {
	return &VenueProcessor{deps: deps}
}

func (p *VenueProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindVenue}
}

func (p *VenueProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[venueDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	ident, err := identity.Resolve(req.SourceURI)
	if err != nil {
		return pipeline.Malformedf("resolve identity: %v", err), nil
	}

	venue := models.Venue{
		ID:       ident.CanonicalID,
		Name:     doc.Name,
		City:     doc.City,
		Capacity: doc.Capacity,
	}

	result, err := p.deps.Store.UpsertVenue(ctx, tx, venue)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Store.LinkExternal(ctx, tx,
		externalLink(req, ident.CanonicalID, "venue", ident.ContentHash, ident.NormalizedURL)); err != nil {
		return nil, err
	}

	events, err := resultEvents(result, "venue", ident.CanonicalID, venue)
	if err != nil {
		return nil, fmt.Errorf("build venue event: %w", err)
	}

	return pipeline.OK{Events: events, Completions: completionSignal(req)}, nil
}
