// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package processors

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/identity"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
)

// FranchiseProcessor canonicalizes franchise documents. No hard
// prerequisites: the venue reference resolves to a deterministic ID whether
// or not the venue row exists yet, so the foreign key is never a blocker.
type FranchiseProcessor struct {
	deps Deps
}

// NewFranchiseProcessor wires the franchise handler.
func NewFranchiseProcessor(deps Deps) *FranchiseProcessor {
	return &FranchiseProcessor{deps: deps}
}

func (p *FranchiseProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindFranchise}
}

func (p *FranchiseProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[franchiseDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	ident, err := identity.Resolve(req.SourceURI)
	if err != nil {
		return pipeline.Malformedf("resolve identity: %v", err), nil
	}

	var venueID *uuid.UUID
	if doc.VenueRef != "" {
		venueIdent, err := identity.Resolve(doc.VenueRef)
		if err != nil {
			return pipeline.Malformedf("resolve venue ref: %v", err), nil
		}
		venueID = &venueIdent.CanonicalID
	}

	franchise := models.Franchise{
		ID:      ident.CanonicalID,
		Name:    doc.Name,
		Alias:   doc.Alias,
		VenueID: venueID,
	}

	result, err := p.deps.Store.UpsertFranchise(ctx, tx, franchise)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Store.LinkExternal(ctx, tx,
		externalLink(req, ident.CanonicalID, "franchise", ident.ContentHash, ident.NormalizedURL)); err != nil {
		return nil, err
	}

	events, err := resultEvents(result, "franchise", ident.CanonicalID, franchise)
	if err != nil {
		return nil, fmt.Errorf("build franchise event: %w", err)
	}

	children := make([]models.SourcingRequest, 0, len(doc.TeamSeasonRefs)+len(doc.LogoRefs))
	for _, ref := range doc.TeamSeasonRefs {
		children = append(children, childRequest(req, ident.CanonicalID, ref, models.KindTeamSeason))
	}
	for _, ref := range doc.LogoRefs {
		children = append(children, childRequest(req, ident.CanonicalID, ref, models.KindLogo))
	}

	return pipeline.OK{
		Events:      events,
		Children:    children,
		Completions: completionSignal(req),
	}, nil
}
