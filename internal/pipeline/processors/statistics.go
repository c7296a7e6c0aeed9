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

	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/identity"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
)

// StatisticsProcessor replaces a team-season's statistics snapshot
// wholesale. The owning team-season comes from the request's ParentID when
// the document arrived through child expansion, otherwise from the payload
// ref or the URI shape. Hard prerequisite: the team-season row.
//
// Category rows are get-or-created by name outside the document transaction;
// the first-creation race between workers is absorbed there.
type StatisticsProcessor struct {
	deps Deps
}

// NewStatisticsProcessor wires the statistics handler.
func NewStatisticsProcessor(deps Deps) *StatisticsProcessor {
	return &StatisticsProcessor{deps: deps}
}

func (p *StatisticsProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindStatistics}
}

func (p *StatisticsProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[statisticsDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	teamSeasonID, teamURI, outcome, err := p.resolveOwner(req, doc)
	if outcome != nil || err != nil {
		return outcome, err
	}

	teamSeason, err := p.deps.Store.GetTeamSeason(ctx, tx, teamSeasonID)
	if err != nil {
		return nil, err
	}
	if teamSeason == nil {
		return pipeline.Retry{
			Missing: []models.SourcingRequest{prerequisiteRequest(req, teamURI, models.KindTeamSeason)},
			Reason:  fmt.Sprintf("team-season %s not yet canonical", teamSeasonID),
		}, nil
	}

	lines := make([]models.StatisticLine, 0, len(doc.Lines))
	for _, ld := range doc.Lines {
		category, err := p.deps.Store.GetOrCreateCategory(ctx, ld.Category)
		if err != nil {
			return nil, err
		}
		lines = append(lines, models.StatisticLine{
			TeamSeasonID: teamSeasonID,
			CategoryID:   category.ID,
			Label:        ld.Label,
			Value:        ld.Value,
		})
	}

	// Redelivery of an identical snapshot must stay silent downstream:
	// only swap the stored set, and emit an event, when the sets differ.
	existing, err := p.deps.Store.ListStatisticLines(ctx, tx, teamSeasonID)
	if err != nil {
		return nil, err
	}
	if statisticLinesEqual(existing, lines) {
		return pipeline.OK{}, nil
	}

	if err := p.deps.Store.ReplaceStatisticLines(ctx, tx, teamSeasonID, lines); err != nil {
		return nil, err
	}

	ev, err := models.NewUpdatedEvent("statistics", teamSeasonID, lines)
	if err != nil {
		return nil, fmt.Errorf("build statistics event: %w", err)
	}

	return pipeline.OK{Events: []models.DomainEvent{ev}}, nil
}

// statisticLinesEqual compares two line sets by content, ignoring row IDs
// and order.
func statisticLinesEqual(a, b []models.StatisticLine) bool {
	if len(a) != len(b) {
		return false
	}
	type lineKey struct {
		category uuid.UUID
		label    string
		value    float64
	}
	counts := make(map[lineKey]int, len(a))
	for _, line := range a {
		counts[lineKey{line.CategoryID, line.Label, line.Value}]++
	}
	for _, line := range b {
		k := lineKey{line.CategoryID, line.Label, line.Value}
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}

// resolveOwner determines which team-season owns the snapshot. ParentID from
// child expansion wins; a payload ref is next; last resort is the URI shape,
// trying each snapshot grammar (.../teams/{id}/statistics, .../record,
// .../leaders) in turn.
func (p *StatisticsProcessor) resolveOwner(req models.ProcessRequest, doc statisticsDoc) (uuid.UUID, string, pipeline.Outcome, error) {
	if req.ParentID != nil {
		return *req.ParentID, req.SourceURI, nil, nil
	}

	if doc.TeamSeasonRef != "" {
		ident, err := identity.Resolve(doc.TeamSeasonRef)
		if err != nil {
			return uuid.Nil, "", pipeline.Malformedf("resolve team-season ref: %v", err), nil
		}
		return ident.CanonicalID, doc.TeamSeasonRef, nil, nil
	}

	var teamURI string
	for _, rewrite := range []func(string) (string, error){
		identity.StatisticsToTeamSeason,
		identity.RecordToTeamSeason,
		identity.LeadersToTeamSeason,
	} {
		uri, err := rewrite(req.SourceURI)
		if err == nil {
			teamURI = uri
			break
		}
		var shape *identity.ShapeViolationError
		if !errors.As(err, &shape) {
			return uuid.Nil, "", pipeline.Malformedf("rewrite snapshot uri: %v", err), nil
		}
	}
	if teamURI == "" {
		// None of the known shapes matched; fail loud rather than guess
		// at an owner.
		return uuid.Nil, "", nil, &identity.ShapeViolationError{
			URI:      req.SourceURI,
			Expected: ".../teams/{id}/{statistics|record|leaders}",
		}
	}
	ident, err := identity.Resolve(teamURI)
	if err != nil {
		return uuid.Nil, "", pipeline.Malformedf("resolve team-season identity: %v", err), nil
	}
	return ident.CanonicalID, teamURI, nil, nil
}
