// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package processors

import "time"

// Payload shapes as delivered by the fetch collaborator. Ref fields hold
// provider URIs; they are resolved to canonical IDs through the identity
// package, never stored raw.

type franchiseDoc struct {
	Name           string   `json:"name" validate:"required"`
	Alias          string   `json:"alias"`
	VenueRef       string   `json:"venue_ref,omitempty" validate:"omitempty,uri"`
	TeamSeasonRefs []string `json:"team_season_refs" validate:"dive,uri"`
	LogoRefs       []string `json:"logo_refs" validate:"dive,uri"`
}

type teamSeasonDoc struct {
	TeamName       string   `json:"team_name" validate:"required"`
	FranchiseRef   string   `json:"franchise_ref" validate:"required,uri"`
	RosterRefs     []string `json:"roster_refs" validate:"dive,uri"`
	StatisticsRefs []string `json:"statistics_refs" validate:"dive,uri"`
	RecordRefs     []string `json:"record_refs" validate:"dive,uri"`
	LeaderRefs     []string `json:"leader_refs" validate:"dive,uri"`
	StaffRefs      []string `json:"staff_refs" validate:"dive,uri"`
}

type personDoc struct {
	FullName  string `json:"full_name" validate:"required"`
	BirthDate string `json:"birth_date,omitempty"`
	Position  string `json:"position,omitempty"`
}

type coachSeasonDoc struct {
	PersonRef     string `json:"person_ref" validate:"required,uri"`
	TeamSeasonRef string `json:"team_season_ref" validate:"required,uri"`
	Role          string `json:"role" validate:"required"`
}

type venueDoc struct {
	Name     string `json:"name" validate:"required"`
	City     string `json:"city"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

type eventDoc struct {
	HomeTeamRef string    `json:"home_team_ref" validate:"required,uri"`
	AwayTeamRef string    `json:"away_team_ref" validate:"required,uri"`
	VenueRef    string    `json:"venue_ref,omitempty" validate:"omitempty,uri"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Status      string    `json:"status,omitempty" validate:"omitempty,oneof=scheduled in-progress finished cancelled"`
}

type eventStatusDoc struct {
	Status    string `json:"status" validate:"required,oneof=scheduled in-progress finished cancelled"`
	HomeScore int    `json:"home_score" validate:"gte=0"`
	AwayScore int    `json:"away_score" validate:"gte=0"`
	Clock     string `json:"clock,omitempty"`
}

type statisticsDoc struct {
	TeamSeasonRef string        `json:"team_season_ref,omitempty" validate:"omitempty,uri"`
	Lines         []statLineDoc `json:"lines" validate:"required,dive"`
}

type statLineDoc struct {
	Category string  `json:"category" validate:"required"`
	Label    string  `json:"label" validate:"required"`
	Value    float64 `json:"value"`
}

type standingsDoc struct {
	Rows []standingRowDoc `json:"rows" validate:"required,min=1,dive"`
}

type standingRowDoc struct {
	FranchiseRef string `json:"franchise_ref" validate:"required,uri"`
	Wins         int    `json:"wins" validate:"gte=0"`
	Losses       int    `json:"losses" validate:"gte=0"`
	Ties         int    `json:"ties" validate:"gte=0"`
}
