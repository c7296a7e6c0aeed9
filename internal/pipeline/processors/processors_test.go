// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package processors

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/identity"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	store, err := canonical.New(canonical.Config{Path: ":memory:", QueryTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return Deps{Store: store, Provider: "statsprovider", Domain: "nfl"}
}

// process runs one request through a processor in its own transaction,
// committing like the dispatcher does on OK and rolling back otherwise.
func process(t *testing.T, deps Deps, proc pipeline.Processor, req models.ProcessRequest) pipeline.Outcome {
	t.Helper()
	ctx := context.Background()
	tx, err := deps.Store.BeginTx(ctx)
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := proc.Process(ctx, tx, req)
	if err != nil {
		tx.Rollback()
		t.Fatalf("process: %v", err)
	}
	if _, ok := outcome.(pipeline.OK); ok {
		if err := tx.Commit(); err != nil {
			t.Fatal(err)
		}
	} else {
		tx.Rollback()
	}
	return outcome
}

func docRequest(t *testing.T, kind models.DocumentKind, uri string, payload any) models.ProcessRequest {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	ident, err := identity.Resolve(uri)
	if err != nil {
		t.Fatal(err)
	}
	return models.ProcessRequest{
		RawPayload:    raw,
		Kind:          kind,
		Domain:        "nfl",
		Provider:      "statsprovider",
		Period:        "2026",
		SourceURI:     uri,
		CorrelationID: "corr-1",
		ContentHash:   ident.ContentHash,
	}
}

func mustResolve(t *testing.T, uri string) identity.Identity {
	t.Helper()
	ident, err := identity.Resolve(uri)
	if err != nil {
		t.Fatal(err)
	}
	return ident
}

func seedFranchise(t *testing.T, deps Deps, uri string) uuid.UUID {
	t.Helper()
	id := mustResolve(t, uri).CanonicalID
	if _, err := deps.Store.UpsertFranchise(context.Background(), deps.Store.DB(),
		models.Franchise{ID: id, Name: "Seeded Franchise"}); err != nil {
		t.Fatal(err)
	}
	return id
}

func seedTeamSeason(t *testing.T, deps Deps, uri string) uuid.UUID {
	t.Helper()
	id := mustResolve(t, uri).CanonicalID
	if _, err := deps.Store.UpsertTeamSeason(context.Background(), deps.Store.DB(),
		models.TeamSeason{ID: id, FranchiseID: uuid.New(), Period: "2026", TeamName: "Seeded Team"}); err != nil {
		t.Fatal(err)
	}
	return id
}

func seedPerson(t *testing.T, deps Deps, uri string) uuid.UUID {
	t.Helper()
	id := mustResolve(t, uri).CanonicalID
	if _, err := deps.Store.UpsertPerson(context.Background(), deps.Store.DB(),
		models.Person{ID: id, FullName: "Seeded Person"}); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestFranchiseProcessorChildExpansion(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewFranchiseProcessor(deps)

	uri := "https://api.example.com/v1/franchises/1"
	req := docRequest(t, models.KindFranchise, uri, franchiseDoc{
		Name:           "Springfield Atoms",
		Alias:          "ATM",
		TeamSeasonRefs: []string{"https://api.example.com/v1/teams/42"},
		LogoRefs: []string{
			"https://cdn.example.com/logos/atoms-light.png",
			"https://cdn.example.com/logos/atoms-dark.png",
		},
	})

	outcome := process(t, deps, proc, req)
	ok, isOK := outcome.(pipeline.OK)
	if !isOK {
		t.Fatalf("outcome = %T, want OK", outcome)
	}

	// One team-season child plus two logo children, all tagged with the
	// franchise as parent.
	if len(ok.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(ok.Children))
	}
	franchiseID := mustResolve(t, uri).CanonicalID
	kinds := map[models.DocumentKind]int{}
	for _, child := range ok.Children {
		kinds[child.Kind]++
		if child.ParentID == nil || *child.ParentID != franchiseID {
			t.Errorf("child %s parent = %v, want %s", child.URI, child.ParentID, franchiseID)
		}
		if child.Period != "2026" {
			t.Errorf("child %s period = %q, want inherited 2026", child.URI, child.Period)
		}
	}
	if kinds[models.KindTeamSeason] != 1 || kinds[models.KindLogo] != 2 {
		t.Errorf("child kinds = %v, want 1 team-season and 2 logos", kinds)
	}

	if len(ok.Events) != 1 || ok.Events[0].Type != "franchise.created" {
		t.Errorf("events = %+v, want single franchise.created", ok.Events)
	}
	if len(ok.Completions) != 1 || ok.Completions[0].Kind != models.KindFranchise {
		t.Errorf("completions = %+v, want single franchise signal", ok.Completions)
	}

	// The provider document is linked for idempotent re-delivery.
	resolved, found, err := deps.Store.ResolveExternal(context.Background(), deps.Store.DB(),
		"statsprovider", req.ContentHash)
	if err != nil {
		t.Fatal(err)
	}
	if !found || resolved != franchiseID {
		t.Error("external link not recorded")
	}
}

func TestFranchiseProcessorRedeliveryEmitsNoEvents(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewFranchiseProcessor(deps)

	req := docRequest(t, models.KindFranchise, "https://api.example.com/v1/franchises/1",
		franchiseDoc{Name: "Atoms"})

	process(t, deps, proc, req)
	outcome := process(t, deps, proc, req)

	ok := outcome.(pipeline.OK)
	if len(ok.Events) != 0 {
		t.Errorf("re-delivered identical document emitted %d events, want 0", len(ok.Events))
	}
	// The completion signal still fires: the saga counts deliveries, not
	// changes.
	if len(ok.Completions) != 1 {
		t.Errorf("completions = %d, want 1", len(ok.Completions))
	}
}

func TestFranchiseProcessorMalformedPayload(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewFranchiseProcessor(deps)

	req := docRequest(t, models.KindFranchise, "https://api.example.com/v1/franchises/1",
		map[string]any{"alias": "ATM"}) // name missing

	outcome := process(t, deps, proc, req)
	if _, dropped := outcome.(pipeline.Dropped); !dropped {
		t.Fatalf("outcome = %T, want Dropped for missing required field", outcome)
	}
}

func TestTeamSeasonProcessorRetryBeforeFranchise(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewTeamSeasonProcessor(deps)

	franchiseRef := "https://api.example.com/v1/franchises/1"
	req := docRequest(t, models.KindTeamSeason, "https://api.example.com/v1/teams/42",
		teamSeasonDoc{TeamName: "Atoms 2026", FranchiseRef: franchiseRef})

	outcome := process(t, deps, proc, req)
	retry, isRetry := outcome.(pipeline.Retry)
	if !isRetry {
		t.Fatalf("outcome = %T, want Retry before the franchise exists", outcome)
	}
	if len(retry.Missing) != 1 || retry.Missing[0].Kind != models.KindFranchise {
		t.Fatalf("missing = %+v, want single franchise request", retry.Missing)
	}
	if retry.Missing[0].URI != franchiseRef {
		t.Errorf("missing uri = %q, want %q", retry.Missing[0].URI, franchiseRef)
	}
	if retry.Missing[0].ParentID != nil {
		t.Error("prerequisite request carries a parent id")
	}

	// Once the franchise lands the same document succeeds.
	seedFranchise(t, deps, franchiseRef)
	outcome = process(t, deps, proc, req)
	ok, isOK := outcome.(pipeline.OK)
	if !isOK {
		t.Fatalf("outcome after seeding = %T, want OK", outcome)
	}
	if len(ok.Events) != 1 || ok.Events[0].Type != "team_season.created" {
		t.Errorf("events = %+v, want team_season.created", ok.Events)
	}
}

func TestCoachSeasonProcessorReportsAllMissingPrerequisites(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewCoachSeasonProcessor(deps)

	personRef := "https://api.example.com/v1/people/7"
	teamRef := "https://api.example.com/v1/teams/42"
	req := docRequest(t, models.KindCoachSeason, "https://api.example.com/v1/coaches/7-42",
		coachSeasonDoc{PersonRef: personRef, TeamSeasonRef: teamRef, Role: "head coach"})

	// Both prerequisites absent: one Retry naming both.
	outcome := process(t, deps, proc, req)
	retry, isRetry := outcome.(pipeline.Retry)
	if !isRetry {
		t.Fatalf("outcome = %T, want Retry", outcome)
	}
	if len(retry.Missing) != 2 {
		t.Fatalf("missing = %d, want both prerequisites in one retry", len(retry.Missing))
	}

	// With the person seeded, only the team-season is reported.
	seedPerson(t, deps, personRef)
	outcome = process(t, deps, proc, req)
	retry = outcome.(pipeline.Retry)
	if len(retry.Missing) != 1 || retry.Missing[0].Kind != models.KindTeamSeason {
		t.Fatalf("missing after seeding person = %+v, want single team-season", retry.Missing)
	}

	// Both seeded: canonicalizes.
	seedTeamSeason(t, deps, teamRef)
	outcome = process(t, deps, proc, req)
	if _, isOK := outcome.(pipeline.OK); !isOK {
		t.Fatalf("outcome with both prerequisites = %T, want OK", outcome)
	}
}

func TestEventProcessorEmitsStatusChild(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewEventProcessor(deps)

	homeRef := "https://api.example.com/v1/teams/42"
	awayRef := "https://api.example.com/v1/teams/43"
	seedTeamSeason(t, deps, homeRef)
	seedTeamSeason(t, deps, awayRef)

	uri := "https://api.example.com/v1/events/99"
	req := docRequest(t, models.KindEvent, uri, eventDoc{
		HomeTeamRef: homeRef,
		AwayTeamRef: awayRef,
		ScheduledAt: time.Date(2026, 9, 6, 18, 0, 0, 0, time.UTC),
	})

	outcome := process(t, deps, proc, req)
	ok, isOK := outcome.(pipeline.OK)
	if !isOK {
		t.Fatalf("outcome = %T, want OK", outcome)
	}

	if len(ok.Children) != 1 {
		t.Fatalf("children = %d, want the event-status child", len(ok.Children))
	}
	child := ok.Children[0]
	if child.Kind != models.KindEventStatus {
		t.Errorf("child kind = %s, want event-status", child.Kind)
	}
	if want := uri + "/status"; child.URI != want {
		t.Errorf("child uri = %q, want %q", child.URI, want)
	}
	if len(ok.Completions) != 1 || ok.Completions[0].Kind != models.KindEvent {
		t.Errorf("completions = %+v, want single event signal", ok.Completions)
	}
}

func TestEventProcessorTerminalEventHasNoStatusChild(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewEventProcessor(deps)

	homeRef := "https://api.example.com/v1/teams/42"
	awayRef := "https://api.example.com/v1/teams/43"
	seedTeamSeason(t, deps, homeRef)
	seedTeamSeason(t, deps, awayRef)

	req := docRequest(t, models.KindEvent, "https://api.example.com/v1/events/99", eventDoc{
		HomeTeamRef: homeRef,
		AwayTeamRef: awayRef,
		ScheduledAt: time.Date(2026, 9, 6, 18, 0, 0, 0, time.UTC),
		Status:      models.EventStatusFinished,
	})

	ok := process(t, deps, proc, req).(pipeline.OK)
	if len(ok.Children) != 0 {
		t.Errorf("terminal event emitted %d children, want 0", len(ok.Children))
	}
}

func TestEventProcessorRetryMissingTeamSeasons(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewEventProcessor(deps)

	req := docRequest(t, models.KindEvent, "https://api.example.com/v1/events/99", eventDoc{
		HomeTeamRef: "https://api.example.com/v1/teams/42",
		AwayTeamRef: "https://api.example.com/v1/teams/43",
		ScheduledAt: time.Date(2026, 9, 6, 18, 0, 0, 0, time.UTC),
	})

	outcome := process(t, deps, proc, req)
	retry, isRetry := outcome.(pipeline.Retry)
	if !isRetry {
		t.Fatalf("outcome = %T, want Retry", outcome)
	}
	if len(retry.Missing) != 2 {
		t.Errorf("missing = %d, want both team-seasons", len(retry.Missing))
	}
}

func TestEventStatusProcessorOverwritesLiveFields(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewEventStatusProcessor(deps)

	eventURI := "https://api.example.com/v1/events/99"
	eventID := mustResolve(t, eventURI).CanonicalID
	if _, err := deps.Store.UpsertEvent(context.Background(), deps.Store.DB(), models.Event{
		ID:               eventID,
		HomeTeamSeasonID: uuid.New(),
		AwayTeamSeasonID: uuid.New(),
		ScheduledAt:      time.Date(2026, 9, 6, 18, 0, 0, 0, time.UTC),
		Status:           models.EventStatusScheduled,
	}); err != nil {
		t.Fatal(err)
	}

	req := docRequest(t, models.KindEventStatus, eventURI+"/status", eventStatusDoc{
		Status:    models.EventStatusInProgress,
		HomeScore: 14,
		AwayScore: 10,
		Clock:     "Q3 08:22",
	})

	ok := process(t, deps, proc, req).(pipeline.OK)
	if len(ok.Events) != 1 || ok.Events[0].Type != "event.updated" {
		t.Fatalf("events = %+v, want single event.updated", ok.Events)
	}

	stored, err := deps.Store.GetEvent(context.Background(), deps.Store.DB(), eventID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.EventStatusInProgress || stored.HomeScore != 14 || stored.Clock != "Q3 08:22" {
		t.Errorf("stored event = %+v, want live fields applied", stored)
	}

	// The identical status re-delivered is an unchanged write: no event.
	ok = process(t, deps, proc, req).(pipeline.OK)
	if len(ok.Events) != 0 {
		t.Errorf("re-delivered status emitted %d events, want 0", len(ok.Events))
	}
}

func TestEventStatusProcessorRetryBeforeEvent(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewEventStatusProcessor(deps)

	req := docRequest(t, models.KindEventStatus, "https://api.example.com/v1/events/99/status",
		eventStatusDoc{Status: models.EventStatusInProgress})

	outcome := process(t, deps, proc, req)
	retry, isRetry := outcome.(pipeline.Retry)
	if !isRetry {
		t.Fatalf("outcome = %T, want Retry", outcome)
	}
	if len(retry.Missing) != 1 || retry.Missing[0].Kind != models.KindEvent {
		t.Fatalf("missing = %+v, want the owning event", retry.Missing)
	}
	if want := "https://api.example.com/v1/events/99"; retry.Missing[0].URI != want {
		t.Errorf("missing uri = %q, want rewritten %q", retry.Missing[0].URI, want)
	}
}

func TestEventStatusProcessorShapeViolationFailsLoud(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewEventStatusProcessor(deps)

	// A status document whose URI cannot name its owner is contract drift:
	// the error must travel the transport failure path, not the drop path.
	req := docRequest(t, models.KindEventStatus, "https://api.example.com/status",
		eventStatusDoc{Status: models.EventStatusInProgress})

	ctx := context.Background()
	tx, err := deps.Store.BeginTx(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	_, err = proc.Process(ctx, tx, req)
	if err == nil {
		t.Fatal("shape violation did not propagate as an error")
	}
}

func TestStatisticsProcessorReplacesWholesale(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewStatisticsProcessor(deps)

	teamURI := "https://api.example.com/v1/teams/42"
	teamID := seedTeamSeason(t, deps, teamURI)

	statsURI := teamURI + "/statistics"
	first := docRequest(t, models.KindStatistics, statsURI, statisticsDoc{
		Lines: []statLineDoc{
			{Category: "passing", Label: "yards", Value: 3200},
			{Category: "passing", Label: "touchdowns", Value: 24},
		},
	})
	first.ParentID = &teamID
	process(t, deps, proc, first)

	second := docRequest(t, models.KindStatistics, statsURI, statisticsDoc{
		Lines: []statLineDoc{
			{Category: "rushing", Label: "yards", Value: 1800},
		},
	})
	second.ParentID = &teamID
	process(t, deps, proc, second)

	lines, err := deps.Store.ListStatisticLines(context.Background(), deps.Store.DB(), teamID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].Label != "yards" || lines[0].Value != 1800 {
		t.Errorf("lines after second snapshot = %+v, want only the rushing line", lines)
	}
}

func TestStatisticsProcessorOwnerFromURIShape(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewStatisticsProcessor(deps)

	teamURI := "https://api.example.com/v1/teams/42"
	req := docRequest(t, models.KindStatistics, teamURI+"/statistics", statisticsDoc{
		Lines: []statLineDoc{{Category: "passing", Label: "yards", Value: 100}},
	})

	// No parent, no payload ref: the owner comes from the URI shape, and
	// the missing team-season re-queues against the rewritten URI.
	outcome := process(t, deps, proc, req)
	retry, isRetry := outcome.(pipeline.Retry)
	if !isRetry {
		t.Fatalf("outcome = %T, want Retry", outcome)
	}
	if retry.Missing[0].URI != teamURI {
		t.Errorf("missing uri = %q, want rewritten %q", retry.Missing[0].URI, teamURI)
	}

	seedTeamSeason(t, deps, teamURI)
	if _, isOK := process(t, deps, proc, req).(pipeline.OK); !isOK {
		t.Error("statistics not canonicalized after seeding the owner")
	}
}

func TestStatisticsProcessorIdenticalRedeliveryEmitsNoEvents(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewStatisticsProcessor(deps)

	teamURI := "https://api.example.com/v1/teams/42"
	teamID := seedTeamSeason(t, deps, teamURI)

	req := docRequest(t, models.KindStatistics, teamURI+"/statistics", statisticsDoc{
		Lines: []statLineDoc{
			{Category: "passing", Label: "yards", Value: 3200},
			{Category: "passing", Label: "touchdowns", Value: 24},
		},
	})
	req.ParentID = &teamID

	first, isOK := process(t, deps, proc, req).(pipeline.OK)
	if !isOK || len(first.Events) != 1 {
		t.Fatalf("first delivery = %+v, want OK with one event", first)
	}

	second, isOK := process(t, deps, proc, req).(pipeline.OK)
	if !isOK {
		t.Fatal("identical redelivery not acked")
	}
	if len(second.Events) != 0 {
		t.Errorf("identical redelivery events = %d, want 0", len(second.Events))
	}

	changed := docRequest(t, models.KindStatistics, teamURI+"/statistics", statisticsDoc{
		Lines: []statLineDoc{
			{Category: "passing", Label: "yards", Value: 3350},
			{Category: "passing", Label: "touchdowns", Value: 24},
		},
	})
	changed.ParentID = &teamID
	third, isOK := process(t, deps, proc, changed).(pipeline.OK)
	if !isOK || len(third.Events) != 1 {
		t.Errorf("changed snapshot = %+v, want OK with one event", third)
	}
}

func TestStatisticsProcessorOwnerFromRecordAndLeadersShapes(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewStatisticsProcessor(deps)

	teamURI := "https://api.example.com/v1/teams/42"
	seedTeamSeason(t, deps, teamURI)

	tests := []struct {
		suffix string
		lines  []statLineDoc
	}{
		{"/record", []statLineDoc{{Category: "overall", Label: "wins", Value: 10}}},
		{"/leaders", []statLineDoc{{Category: "passing", Label: "J. Example", Value: 3200}}},
	}
	for _, tt := range tests {
		req := docRequest(t, models.KindStatistics, teamURI+tt.suffix, statisticsDoc{Lines: tt.lines})
		if _, isOK := process(t, deps, proc, req).(pipeline.OK); !isOK {
			t.Errorf("snapshot at %s%s not canonicalized from its uri shape", teamURI, tt.suffix)
		}
	}
}

func TestTeamSeasonProcessorChildExpansion(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewTeamSeasonProcessor(deps)

	franchiseURI := "https://api.example.com/v1/franchises/1"
	seedFranchise(t, deps, franchiseURI)

	teamURI := "https://api.example.com/v1/teams/42"
	req := docRequest(t, models.KindTeamSeason, teamURI, teamSeasonDoc{
		TeamName:       "Example Team",
		FranchiseRef:   franchiseURI,
		RosterRefs:     []string{teamURI + "/roster/7"},
		StatisticsRefs: []string{teamURI + "/statistics"},
		RecordRefs:     []string{teamURI + "/record"},
		LeaderRefs:     []string{teamURI + "/leaders"},
		StaffRefs:      []string{teamURI + "/staff/3"},
	})

	ok, isOK := process(t, deps, proc, req).(pipeline.OK)
	if !isOK {
		t.Fatal("team-season not canonicalized")
	}
	if len(ok.Children) != 5 {
		t.Fatalf("children = %d, want 5", len(ok.Children))
	}

	teamID := mustResolve(t, teamURI).CanonicalID
	byURI := make(map[string]models.DocumentKind, len(ok.Children))
	for _, child := range ok.Children {
		if child.ParentID == nil || *child.ParentID != teamID {
			t.Errorf("child %s not tagged with the owning team-season", child.URI)
		}
		byURI[child.URI] = child.Kind
	}
	wantKinds := map[string]models.DocumentKind{
		teamURI + "/roster/7":   models.KindPerson,
		teamURI + "/statistics": models.KindStatistics,
		teamURI + "/record":     models.KindStatistics,
		teamURI + "/leaders":    models.KindStatistics,
		teamURI + "/staff/3":    models.KindCoachSeason,
	}
	for uri, kind := range wantKinds {
		if byURI[uri] != kind {
			t.Errorf("child %s kind = %s, want %s", uri, byURI[uri], kind)
		}
	}
}

func TestStandingsProcessorIdenticalRedeliveryEmitsNoEvents(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewStandingsProcessor(deps)

	ref := "https://api.example.com/v1/franchises/1"
	seedFranchise(t, deps, ref)

	req := docRequest(t, models.KindStandings, "https://api.example.com/v1/standings/2026", standingsDoc{
		Rows: []standingRowDoc{{FranchiseRef: ref, Wins: 10, Losses: 7}},
	})

	first, isOK := process(t, deps, proc, req).(pipeline.OK)
	if !isOK || len(first.Events) != 1 {
		t.Fatalf("first delivery = %+v, want OK with one event", first)
	}

	second, isOK := process(t, deps, proc, req).(pipeline.OK)
	if !isOK {
		t.Fatal("identical redelivery not acked")
	}
	if len(second.Events) != 0 {
		t.Errorf("identical redelivery events = %d, want 0", len(second.Events))
	}
	// The saga counts deliveries, so the completion signal still fires.
	if len(second.Completions) != 1 {
		t.Errorf("identical redelivery completions = %d, want 1", len(second.Completions))
	}
}

func TestStandingsProcessorRetryCollectsUnresolvedFranchises(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewStandingsProcessor(deps)

	refA := "https://api.example.com/v1/franchises/1"
	refB := "https://api.example.com/v1/franchises/2"
	seedFranchise(t, deps, refA)

	req := docRequest(t, models.KindStandings, "https://api.example.com/v1/standings/2026", standingsDoc{
		Rows: []standingRowDoc{
			{FranchiseRef: refA, Wins: 10, Losses: 7},
			{FranchiseRef: refB, Wins: 7, Losses: 10},
		},
	})

	outcome := process(t, deps, proc, req)
	retry, isRetry := outcome.(pipeline.Retry)
	if !isRetry {
		t.Fatalf("outcome = %T, want Retry", outcome)
	}
	if len(retry.Missing) != 1 || retry.Missing[0].URI != refB {
		t.Fatalf("missing = %+v, want only the unresolved franchise", retry.Missing)
	}

	// After the second franchise lands the full set replaces in one pass.
	seedFranchise(t, deps, refB)
	ok, isOK := process(t, deps, proc, req).(pipeline.OK)
	if !isOK {
		t.Fatal("standings not canonicalized after seeding all franchises")
	}
	if len(ok.Completions) != 1 || ok.Completions[0].Kind != models.KindStandings {
		t.Errorf("completions = %+v, want single standings signal", ok.Completions)
	}

	stored, err := deps.Store.ListStandings(context.Background(), deps.Store.DB(), "2026")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Errorf("stored standings = %d, want 2", len(stored))
	}
}

func TestStandingsProcessorRequiresPeriod(t *testing.T) {
	deps := newTestDeps(t)
	proc := NewStandingsProcessor(deps)

	req := docRequest(t, models.KindStandings, "https://api.example.com/v1/standings/2026", standingsDoc{
		Rows: []standingRowDoc{{FranchiseRef: "https://api.example.com/v1/franchises/1", Wins: 1}},
	})
	req.Period = ""

	outcome := process(t, deps, proc, req)
	if _, dropped := outcome.(pipeline.Dropped); !dropped {
		t.Fatalf("outcome = %T, want Dropped without a period scope", outcome)
	}
}

func TestAllCoversEveryProcessedKind(t *testing.T) {
	deps := newTestDeps(t)
	procs := All(deps)

	registry, err := pipeline.NewRegistry(procs...)
	if err != nil {
		t.Fatal(err)
	}

	// Every kind except logo has a processor; logo documents are consumed
	// by the fetch collaborator and never re-enter the pipeline.
	processed := []models.DocumentKind{
		models.KindFranchise, models.KindTeamSeason, models.KindPerson,
		models.KindCoachSeason, models.KindVenue, models.KindEvent,
		models.KindEventStatus, models.KindStatistics, models.KindStandings,
	}
	keys := make([]pipeline.Key, 0, len(processed))
	for _, kind := range processed {
		keys = append(keys, pipeline.Key{Provider: deps.Provider, Domain: deps.Domain, Kind: kind})
	}
	if err := registry.EnsureRegistered(keys...); err != nil {
		t.Errorf("missing processor: %v", err)
	}
	if registry.Len() != len(processed) {
		t.Errorf("registered processors = %d, want %d", registry.Len(), len(processed))
	}

	if _, ok := registry.Lookup(pipeline.Key{Provider: deps.Provider, Domain: deps.Domain, Kind: models.KindLogo}); ok {
		t.Error("logo documents must not have a processor")
	}
}
