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

// TeamSeasonProcessor canonicalizes team-season documents. Hard
// prerequisite: the owning franchise must already be canonical, so a
// team-season delivered before its franchise re-queues instead of writing a
// dangling foreign key.
type TeamSeasonProcessor struct {
	deps Deps
}

// NewTeamSeasonProcessor wires the team-season handler.
func NewTeamSeasonProcessor(deps Deps) *TeamSeasonProcessor {
	return &TeamSeasonProcessor{deps: deps}
}

func (p *TeamSeasonProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindTeamSeason}
}

func (p *TeamSeasonProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[teamSeasonDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	ident, err := identity.Resolve(req.SourceURI)
	if err != nil {
		return pipeline.Malformedf("resolve identity: %v", err), nil
	}
	franchiseIdent, err := identity.Resolve(doc.FranchiseRef)
	if err != nil {
		return pipeline.Malformedf("resolve franchise ref: %v", err), nil
	}

	// Prerequisite check before any write.
	franchise, err := p.deps.Store.GetFranchise(ctx, tx, franchiseIdent.CanonicalID)
	if err != nil {
		return nil, err
	}
	if franchise == nil {
		return pipeline.Retry{
			Missing: []models.SourcingRequest{prerequisiteRequest(req, doc.FranchiseRef, models.KindFranchise)},
			Reason:  fmt.Sprintf("franchise %s not yet canonical", franchiseIdent.CanonicalID),
		}, nil
	}

	teamSeason := models.TeamSeason{
		ID:          ident.CanonicalID,
		FranchiseID: franchiseIdent.CanonicalID,
		Period:      req.Period,
		TeamName:    doc.TeamName,
	}

	result, err := p.deps.Store.UpsertTeamSeason(ctx, tx, teamSeason)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Store.LinkExternal(ctx, tx,
		externalLink(req, ident.CanonicalID, "team_season", ident.ContentHash, ident.NormalizedURL)); err != nil {
		return nil, err
	}

	events, err := resultEvents(result, "team_season", ident.CanonicalID, teamSeason)
	if err != nil {
		return nil, fmt.Errorf("build team-season event: %w", err)
	}

	snapshotRefs := len(doc.StatisticsRefs) + len(doc.RecordRefs) + len(doc.LeaderRefs)
	children := make([]models.SourcingRequest, 0, len(doc.RosterRefs)+snapshotRefs+len(doc.StaffRefs))
	for _, ref := range doc.RosterRefs {
		children = append(children, childRequest(req, ident.CanonicalID, ref, models.KindPerson))
	}
	// Record and leader documents are statistics snapshots with a different
	// URI shape; all three land on the statistics processor.
	for _, refs := range [][]string{doc.StatisticsRefs, doc.RecordRefs, doc.LeaderRefs} {
		for _, ref := range refs {
			children = append(children, childRequest(req, ident.CanonicalID, ref, models.KindStatistics))
		}
	}
	for _, ref := range doc.StaffRefs {
		children = append(children, childRequest(req, ident.CanonicalID, ref, models.KindCoachSeason))
	}

	return pipeline.OK{Events: events, Children: children}, nil
}
