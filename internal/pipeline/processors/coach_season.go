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

	"github.com/statforge/statforge/internal/identity"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
)

// CoachSeasonProcessor canonicalizes coaching assignments. Hard
// prerequisites: both the person and the team-season rows. Every missing
// prerequisite is reported in a single Retry so one re-queue cycle can
// resolve them all.
type CoachSeasonProcessor struct {
	deps Deps
}

// NewCoachSeasonProcessor wires the coach-season handler.
func NewCoachSeasonProcessor(deps Deps) *CoachSeasonProcessor {
	return &CoachSeasonProcessor{deps: deps}
}

func (p *CoachSeasonProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindCoachSeason}
}

func (p *CoachSeasonProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[coachSeasonDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	ident, err := identity.Resolve(req.SourceURI)
	if err != nil {
		return pipeline.Malformedf("resolve identity: %v", err), nil
	}
	personIdent, err := identity.Resolve(doc.PersonRef)
	if err != nil {
		return pipeline.Malformedf("resolve person ref: %v", err), nil
	}
	teamIdent, err := identity.Resolve(doc.TeamSeasonRef)
	if err != nil {
		return pipeline.Malformedf("resolve team-season ref: %v", err), nil
	}

	var missing []models.SourcingRequest
	var reasons []string

	person, err := p.deps.Store.GetPerson(ctx, tx, personIdent.CanonicalID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		missing = append(missing, prerequisiteRequest(req, doc.PersonRef, models.KindPerson))
		reasons = append(reasons, "person "+personIdent.CanonicalID.String())
	}

	teamSeason, err := p.deps.Store.GetTeamSeason(ctx, tx, teamIdent.CanonicalID)
	if err != nil {
		return nil, err
	}
	if teamSeason == nil {
		missing = append(missing, prerequisiteRequest(req, doc.TeamSeasonRef, models.KindTeamSeason))
		reasons = append(reasons, "team-season "+teamIdent.CanonicalID.String())
	}

	if len(missing) > 0 {
		return pipeline.Retry{
			Missing: missing,
			Reason:  "not yet canonical: " + strings.Join(reasons, ", "),
		}, nil
	}

	coachSeason := models.CoachSeason{
		ID:           ident.CanonicalID,
		PersonID:     personIdent.CanonicalID,
		TeamSeasonID: teamIdent.CanonicalID,
		Role:         doc.Role,
	}

	result, err := p.deps.Store.UpsertCoachSeason(ctx, tx, coachSeason)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Store.LinkExternal(ctx, tx,
		externalLink(req, ident.CanonicalID, "coach_season", ident.ContentHash, ident.NormalizedURL)); err != nil {
		return nil, err
	}

	events, err := resultEvents(result, "coach_season", ident.CanonicalID, coachSeason)
	if err != nil {
		return nil, fmt.Errorf("build coach-season event: %w", err)
	}

	return pipeline.OK{Events: events}, nil
}
