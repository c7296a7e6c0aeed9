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

// StandingsProcessor replaces a period's standings wholesale. Every
// franchise referenced by the document must already be canonical; all
// unresolved refs are reported in a single Retry so one re-queue cycle can
// source them together.
type StandingsProcessor struct {
	deps Deps
}

// NewStandingsProcessor wires the standings handler.
func NewStandingsProcessor(deps Deps) *StandingsProcessor {
	return &StandingsProcessor{deps: deps}
}

func (p *StandingsProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindStandings}
}

func (p *StandingsProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[standingsDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}
	if req.Period == "" {
		return pipeline.Malformedf("standings document without a period scope"), nil
	}

	ident, err := identity.Resolve(req.SourceURI)
	if err != nil {
		return pipeline.Malformedf("resolve identity: %v", err), nil
	}

	var missing []models.SourcingRequest
	standings := make([]models.Standing, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		franchiseIdent, err := identity.Resolve(row.FranchiseRef)
		if err != nil {
			return pipeline.Malformedf("resolve franchise ref %q: %v", row.FranchiseRef, err), nil
		}
		franchise, err := p.deps.Store.GetFranchise(ctx, tx, franchiseIdent.CanonicalID)
		if err != nil {
			return nil, err
		}
		if franchise == nil {
			missing = append(missing, prerequisiteRequest(req, row.FranchiseRef, models.KindFranchise))
			continue
		}
		standings = append(standings, models.Standing{
			FranchiseID: franchiseIdent.CanonicalID,
			Period:      req.Period,
			Wins:        row.Wins,
			Losses:      row.Losses,
			Ties:        row.Ties,
		})
	}

	if len(missing) > 0 {
		return pipeline.Retry{
			Missing: missing,
			Reason:  fmt.Sprintf("%d of %d franchises not yet canonical", len(missing), len(doc.Rows)),
		}, nil
	}

	// Redelivery of an identical table must stay silent downstream: swap
	// the period's rows, and emit an event, only when the sets differ. The
	// completion signal still fires because the saga counts deliveries.
	stored, err := p.deps.Store.ListStandings(ctx, tx, req.Period)
	if err != nil {
		return nil, err
	}
	changed := !standingsEqual(stored, standings)

	if changed {
		if err := p.deps.Store.ReplaceStandings(ctx, tx, req.Period, standings); err != nil {
			return nil, err
		}
	}
	if err := p.deps.Store.LinkExternal(ctx, tx,
		externalLink(req, ident.CanonicalID, "standings", ident.ContentHash, ident.NormalizedURL)); err != nil {
		return nil, err
	}

	var events []models.DomainEvent
	if changed {
		ev, err := models.NewUpdatedEvent("standings", ident.CanonicalID, standings)
		if err != nil {
			return nil, fmt.Errorf("build standings event: %w", err)
		}
		events = append(events, ev)
	}

	return pipeline.OK{
		Events:      events,
		Completions: completionSignal(req),
	}, nil
}

// standingsEqual compares two standings sets by content, ignoring row IDs
// and order.
func standingsEqual(a, b []models.Standing) bool {
	if len(a) != len(b) {
		return false
	}
	type standingKey struct {
		franchise uuid.UUID
		wins      int
		losses    int
		ties      int
	}
	counts := make(map[standingKey]int, len(a))
	for _, st := range a {
		counts[standingKey{st.FranchiseID, st.Wins, st.Losses, st.Ties}]++
	}
	for _, st := range b {
		k := standingKey{st.FranchiseID, st.Wins, st.Losses, st.Ties}
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}
