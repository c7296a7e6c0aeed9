// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package models

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DocumentKind tags what a raw provider payload represents.
type DocumentKind string

// Document kinds understood by the pipeline. The first four are the
// top-level kinds tracked by the sourcing saga; the rest are discovered
// through child expansion.
const (
	KindFranchise   DocumentKind = "franchise"
	KindVenue       DocumentKind = "venue"
	KindEvent       DocumentKind = "event"
	KindStandings   DocumentKind = "standings"
	KindTeamSeason  DocumentKind = "team-season"
	KindPerson      DocumentKind = "person"
	KindCoachSeason DocumentKind = "coach-season"
	KindEventStatus DocumentKind = "event-status"
	KindStatistics  DocumentKind = "statistics"
	KindLogo        DocumentKind = "logo"
)

// SourcingRequest asks the external fetch collaborator to resolve a URI to
// raw bytes. It is emitted whenever a processor discovers a reference it
// needs sourced, either a missing prerequisite or a child document.
type SourcingRequest struct {
	RequestID     uuid.UUID    `json:"request_id"`
	ParentID      *uuid.UUID   `json:"parent_id,omitempty"`
	URI           string       `json:"uri" validate:"required,uri"`
	Domain        string       `json:"domain" validate:"required"`
	Period        string       `json:"period,omitempty"`
	Provider      string       `json:"provider" validate:"required"`
	Kind          DocumentKind `json:"kind" validate:"required"`
	CorrelationID string       `json:"correlation_id" validate:"required"`
	CausationID   string       `json:"causation_id,omitempty"`
}

// ProcessRequest is the pipeline's unit of work: a fetched document plus
// everything needed to canonicalize it. Delivered at-least-once and in
// arbitrary order relative to sibling documents.
type ProcessRequest struct {
	RawPayload    json.RawMessage `json:"raw_payload" validate:"required"`
	Kind          DocumentKind    `json:"kind" validate:"required"`
	Domain        string          `json:"domain" validate:"required"`
	Provider      string          `json:"provider" validate:"required"`
	ParentID      *uuid.UUID      `json:"parent_id,omitempty"`
	Period        string          `json:"period,omitempty"`
	SourceURI     string          `json:"source_uri" validate:"required,uri"`
	CorrelationID string          `json:"correlation_id" validate:"required"`
	CausationID   string          `json:"causation_id,omitempty"`
	AttemptCount  int             `json:"attempt_count"`
	ContentHash   string          `json:"content_hash"`
}

// Requeued returns a copy of the request with the attempt counter bumped.
// Used by the dependency retry protocol when a prerequisite is missing.
func (r ProcessRequest) Requeued() ProcessRequest {
	r.AttemptCount++
	return r
}

// CompletionSignal reports that one tracked sub-pipeline finished sourcing
// for a (domain, period, provider) scope. Delivery may be duplicated and
// unordered; the saga's transition function absorbs both.
type CompletionSignal struct {
	Domain        string       `json:"domain" validate:"required"`
	Period        string       `json:"period" validate:"required"`
	Provider      string       `json:"provider" validate:"required"`
	Kind          DocumentKind `json:"kind" validate:"required"`
	CorrelationID string       `json:"correlation_id"`
	CausationID   string       `json:"causation_id,omitempty"`
}
