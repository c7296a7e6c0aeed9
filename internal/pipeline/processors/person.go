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

// PersonProcessor canonicalizes player and coach identity documents. No
// prerequisites, no children.
type PersonProcessor struct {
	deps Deps
}

// NewPersonProcessor wires the person handler.
func NewPersonProcessor(deps Deps) *PersonProcessor {
	return &PersonProcessor{deps: deps}
}

func (p *PersonProcessor) Key() pipeline.Key {
	return pipeline.Key{Provider: p.deps.Provider, Domain: p.deps.Domain, Kind: models.KindPerson}
}

func (p *PersonProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (pipeline.Outcome, error) {
	doc, err := decodeDoc[personDoc](req)
	if err != nil {
		return pipeline.Malformedf("%v", err), nil
	}

	ident, err := identity.Resolve(req.SourceURI)
	if err != nil {
		return pipeline.Malformedf("resolve identity: %v", err), nil
	}

	person := models.Person{
		ID:        ident.CanonicalID,
		FullName:  doc.FullName,
		BirthDate: doc.BirthDate,
		Position:  doc.Position,
	}

	result, err := p.deps.Store.UpsertPerson(ctx, tx, person)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Store.LinkExternal(ctx, tx,
		externalLink(req, ident.CanonicalID, "person", ident.ContentHash, ident.NormalizedURL)); err != nil {
		return nil, err
	}

	events, err := resultEvents(result, "person", ident.CanonicalID, person)
	if err != nil {
		return nil, fmt.Errorf("build person event: %w", err)
	}

	return pipeline.OK{Events: events}, nil
}
