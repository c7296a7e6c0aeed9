// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package saga tracks joint completion of the four independently-progressing
// sourcing sub-pipelines for one (domain, period, provider) scope.
//
// The transition function is pure so every interleaving and duplication of
// completion signals can be unit-tested without a database. Counters may
// over-count under at-least-once delivery; the first-completed timestamps
// and the terminal CompletedAt are set exactly once.
package saga

import (
	"time"

	"github.com/statforge/statforge/internal/models"
)

// States of a sourcing saga.
const (
	StateStarted   = "started"
	StateCompleted = "completed"
)

// TrackedKinds are the four top-level document kinds whose completion the
// saga waits on.
var TrackedKinds = [4]models.DocumentKind{
	models.KindFranchise,
	models.KindVenue,
	models.KindEvent,
	models.KindStandings,
}

// KindProgress records one tracked kind's completion history.
type KindProgress struct {
	// Count is incremented on every signal, duplicates included.
	Count int

	// FirstCompletedAt is set by the first signal only.
	FirstCompletedAt *time.Time
}

// State is the full saga state for one correlation scope.
type State struct {
	Domain   string
	Period   string
	Provider string

	Current string

	Franchises KindProgress
	Venues     KindProgress
	Events     KindProgress
	Standings  KindProgress

	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewState returns a freshly started saga for the given scope.
func NewState(domain, period, provider string, now time.Time) State {
	return State{
		Domain:    domain,
		Period:    period,
		Provider:  provider,
		Current:   StateStarted,
		StartedAt: now,
	}
}

// CompletionEvent is one sub-pipeline completion signal.
type CompletionEvent struct {
	Kind models.DocumentKind
	At   time.Time
}

// Apply is the pure transition function. It increments the matching
// counter, sets the kind's first-completed timestamp only if unset, and
// transitions to Completed — setting CompletedAt only if unset — the moment
// all four kinds have at least one completion. Unknown kinds are ignored.
func Apply(state State, event CompletionEvent) State {
	progress := progressFor(&state, event.Kind)
	if progress == nil {
		return state
	}

	progress.Count++
	if progress.FirstCompletedAt == nil {
		at := event.At
		progress.FirstCompletedAt = &at
	}

	if state.Current != StateCompleted && allKindsComplete(&state) {
		state.Current = StateCompleted
		if state.CompletedAt == nil {
			at := event.At
			state.CompletedAt = &at
		}
	}

	return state
}

// IsComplete reports whether the saga has reached its terminal state.
func (s *State) IsComplete() bool {
	return s.Current == StateCompleted
}

// Progress returns the recorded progress for a tracked kind.
func (s *State) Progress(kind models.DocumentKind) KindProgress {
	if p := progressFor(s, kind); p != nil {
		return *p
	}
	return KindProgress{}
}

func progressFor(s *State, kind models.DocumentKind) *KindProgress {
	switch kind {
	case models.KindFranchise:
		return &s.Franchises
	case models.KindVenue:
		return &s.Venues
	case models.KindEvent:
		return &s.Events
	case models.KindStandings:
		return &s.Standings
	default:
		return nil
	}
}

func allKindsComplete(s *State) bool {
	for _, kind := range TrackedKinds {
		if progressFor(s, kind).FirstCompletedAt == nil {
			return false
		}
	}
	return true
}
