// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package processors contains the per-kind document handlers registered with
// the pipeline's processor registry. Each processor deserializes and
// validates its payload once, checks hard prerequisites before any write,
// canonicalizes through the store, and reports discovered child references
// for expansion.
package processors

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
	"github.com/statforge/statforge/internal/validation"
)

// Deps are the collaborators shared by every processor.
type Deps struct {
	Store *canonical.Store

	// Provider and Domain are the capability scope the processors are
	// registered under.
	Provider string
	Domain   string
}

// All returns one processor per document kind this provider/domain serves,
// ready for registry construction.
func All(deps Deps) []pipeline.Processor {
	return []pipeline.Processor{
		NewFranchiseProcessor(deps),
		NewTeamSeasonProcessor(deps),
		NewPersonProcessor(deps),
		NewCoachSeasonProcessor(deps),
		NewVenueProcessor(deps),
		NewEventProcessor(deps),
		NewEventStatusProcessor(deps),
		NewStatisticsProcessor(deps),
		NewStandingsProcessor(deps),
	}
}

// decodeDoc parses and validates one payload in a single pass. Any failure
// is a malformed document: reprocessing cannot fix bad data.
func decodeDoc[T any](req models.ProcessRequest) (T, error) {
	var doc T
	if err := json.Unmarshal(req.RawPayload, &doc); err != nil {
		return doc, fmt.Errorf("parse %s document: %w", req.Kind, err)
	}
	if err := validation.ValidateStruct(&doc); err != nil {
		return doc, fmt.Errorf("invalid %s document: %w", req.Kind, err)
	}
	return doc, nil
}

// childRequest builds a sourcing request for a reference discovered inside a
// document, tagged with the owning entity as parent.
func childRequest(req models.ProcessRequest, parentID uuid.UUID, uri string, kind models.DocumentKind) models.SourcingRequest {
	return models.SourcingRequest{
		RequestID:     uuid.New(),
		ParentID:      &parentID,
		URI:           uri,
		Domain:        req.Domain,
		Period:        req.Period,
		Provider:      req.Provider,
		Kind:          kind,
		CorrelationID: req.CorrelationID,
		CausationID:   req.ContentHash,
	}
}

// prerequisiteRequest builds a sourcing request for a missing hard
// prerequisite. No parent: the prerequisite owns itself.
func prerequisiteRequest(req models.ProcessRequest, uri string, kind models.DocumentKind) models.SourcingRequest {
	return models.SourcingRequest{
		RequestID:     uuid.New(),
		URI:           uri,
		Domain:        req.Domain,
		Period:        req.Period,
		Provider:      req.Provider,
		Kind:          kind,
		CorrelationID: req.CorrelationID,
		CausationID:   req.ContentHash,
	}
}

// completionSignal reports this document's kind to the sourcing saga.
// Only meaningful for the tracked top-level kinds and only when the request
// carries a period scope.
func completionSignal(req models.ProcessRequest) []models.CompletionSignal {
	if req.Period == "" {
		return nil
	}
	return []models.CompletionSignal{{
		Domain:        req.Domain,
		Period:        req.Period,
		Provider:      req.Provider,
		Kind:          req.Kind,
		CorrelationID: req.CorrelationID,
		CausationID:   req.ContentHash,
	}}
}

// resultEvents maps an upsert result to its domain event. Unchanged writes
// emit nothing, which is what keeps re-deliveries silent downstream.
func resultEvents(result canonical.UpsertResult, entityKind string, id uuid.UUID, snapshot any) ([]models.DomainEvent, error) {
	switch result {
	case canonical.ResultCreated:
		ev, err := models.NewCreatedEvent(entityKind, id, snapshot)
		if err != nil {
			return nil, err
		}
		return []models.DomainEvent{ev}, nil
	case canonical.ResultUpdated:
		ev, err := models.NewUpdatedEvent(entityKind, id, snapshot)
		if err != nil {
			return nil, err
		}
		return []models.DomainEvent{ev}, nil
	default:
		return nil, nil
	}
}

// externalLink builds the external-id row tying a canonical entity to the
// document that described it.
func externalLink(req models.ProcessRequest, canonicalID uuid.UUID, entityKind, contentHash, sourceURL string) models.ExternalID {
	return models.ExternalID{
		CanonicalID: canonicalID,
		EntityKind:  entityKind,
		Provider:    req.Provider,
		ContentHash: contentHash,
		SourceURL:   sourceURL,
	}
}
