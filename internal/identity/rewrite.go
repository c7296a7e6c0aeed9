// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package identity

import (
	"fmt"
	"net/url"
	"strings"
)

// ShapeViolationError reports a URI whose path does not match the grammar a
// rewrite expects. It fails loud instead of guessing: an unexpected shape
// usually means the provider's API contract has drifted, and a silent
// fallback would canonicalize documents under the wrong parent.
type ShapeViolationError struct {
	URI      string
	Expected string
}

func (e *ShapeViolationError) Error() string {
	return fmt.Sprintf("uri shape violation: %q does not match expected shape %q", e.URI, e.Expected)
}

// EventStatusToEvent rewrites an event-status URI to its owning event.
//
//	.../events/{id}/status -> .../events/{id}
func EventStatusToEvent(uri string) (string, error) {
	return stripTrailingSegment(uri, "status", ".../events/{id}/status")
}

// StatisticsToTeamSeason rewrites a statistics-snapshot URI to its owning
// team-season.
//
//	.../teams/{id}/statistics -> .../teams/{id}
func StatisticsToTeamSeason(uri string) (string, error) {
	return stripTrailingSegment(uri, "statistics", ".../teams/{id}/statistics")
}

// RecordToTeamSeason rewrites a win-loss record URI to its owning
// team-season.
//
//	.../teams/{id}/record -> .../teams/{id}
func RecordToTeamSeason(uri string) (string, error) {
	return stripTrailingSegment(uri, "record", ".../teams/{id}/record")
}

// LeadersToTeamSeason rewrites a statistical-leaders URI to its owning
// team-season.
//
//	.../teams/{id}/leaders -> .../teams/{id}
func LeadersToTeamSeason(uri string) (string, error) {
	return stripTrailingSegment(uri, "leaders", ".../teams/{id}/leaders")
}

// stripTrailingSegment validates that the normalized URI ends in the given
// path segment with a non-empty parent path, then strips it.
func stripTrailingSegment(uri, segment, expected string) (string, error) {
	normalized, err := Normalize(uri)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("parse normalized %q: %w", normalized, err)
	}

	suffix := "/" + segment
	if !strings.HasSuffix(u.Path, suffix) {
		return "", &ShapeViolationError{URI: uri, Expected: expected}
	}

	parent := strings.TrimSuffix(u.Path, suffix)
	// The owning resource must have an identifier segment of its own.
	if parent == "" || strings.HasSuffix(parent, "/") {
		return "", &ShapeViolationError{URI: uri, Expected: expected}
	}

	u.Path = parent
	return u.String(), nil
}
