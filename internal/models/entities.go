// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package models

import (
	"time"

	"github.com/google/uuid"
)

// ExternalID links a canonical entity to the provider document(s) that
// describe it. The (provider, content_hash) pair is unique, which is what
// makes re-delivery of the same document idempotent regardless of which
// processing run created the entity.
type ExternalID struct {
	CanonicalID uuid.UUID `json:"canonical_id"`
	EntityKind  string    `json:"entity_kind"`
	Provider    string    `json:"provider"`
	ContentHash string    `json:"content_hash"`
	SourceURL   string    `json:"source_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Franchise is a club across seasons. Merge-if-changed.
type Franchise struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Alias     string     `json:"alias"`
	VenueID   *uuid.UUID `json:"venue_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TeamSeason is one franchise's participation in one period. Merge-if-changed.
type TeamSeason struct {
	ID          uuid.UUID `json:"id"`
	FranchiseID uuid.UUID `json:"franchise_id"`
	Period      string    `json:"period"`
	TeamName    string    `json:"team_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Person is a player or coach identity shared across seasons. Merge-if-changed.
type Person struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	BirthDate string    `json:"birth_date,omitempty"`
	Position  string    `json:"position,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CoachSeason ties a person to a team-season in a coaching role.
// Hard prerequisites: the person and the team-season must already be
// canonical.
type CoachSeason struct {
	ID           uuid.UUID `json:"id"`
	PersonID     uuid.UUID `json:"person_id"`
	TeamSeasonID uuid.UUID `json:"team_season_id"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Venue is a stadium or arena. Merge-if-changed.
type Venue struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event statuses as reported by status documents and the live poller.
const (
	EventStatusScheduled  = "scheduled"
	EventStatusInProgress = "in-progress"
	EventStatusFinished   = "finished"
	EventStatusCancelled  = "cancelled"
)

// Event is a single game between two team-seasons. The scheduled fields
// merge-if-changed; the live fields are overwritten by status documents.
type Event struct {
	ID               uuid.UUID  `json:"id"`
	HomeTeamSeasonID uuid.UUID  `json:"home_team_season_id"`
	AwayTeamSeasonID uuid.UUID  `json:"away_team_season_id"`
	VenueID          *uuid.UUID `json:"venue_id,omitempty"`
	ScheduledAt      time.Time  `json:"scheduled_at"`
	Status           string     `json:"status"`
	HomeScore        int        `json:"home_score"`
	AwayScore        int        `json:"away_score"`
	Clock            string     `json:"clock,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the event can no longer change state.
func (e *Event) IsTerminal() bool {
	return e.Status == EventStatusFinished || e.Status == EventStatusCancelled
}

// StatisticCategory is a shared lookup row keyed by name ("passing",
// "rushing", ...). First creation races between workers; the store resolves
// the race by re-reading the winner.
type StatisticCategory struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StatisticLine is one measured value inside a team-season statistics
// snapshot. Snapshots are replaced wholesale: a new snapshot deletes every
// line the parent previously owned.
type StatisticLine struct {
	ID           uuid.UUID `json:"id"`
	TeamSeasonID uuid.UUID `json:"team_season_id"`
	CategoryID   uuid.UUID `json:"category_id"`
	Label        string    `json:"label"`
	Value        float64   `json:"value"`
}

// Standing is one franchise's win/loss record for a period. Standings
// documents enumerate the complete set for the period and are replaced
// wholesale.
type Standing struct {
	ID          uuid.UUID `json:"id"`
	FranchiseID uuid.UUID `json:"franchise_id"`
	Period      string    `json:"period"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Ties        int       `json:"ties"`
}
