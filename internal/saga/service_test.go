// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package saga

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/outbox"
)

func newTestService(t *testing.T) (*Service, *outbox.Store) {
	t.Helper()
	cs, err := canonical.New(canonical.Config{Path: ":memory:", QueryTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { cs.Close() })

	ob := outbox.NewStore(cs)
	return NewService(cs, NewStore(cs), ob, "saga.completed"), ob
}

func signal(kind models.DocumentKind) models.CompletionSignal {
	return models.CompletionSignal{
		Domain:   "nfl",
		Period:   "2026",
		Provider: "statsprovider",
		Kind:     kind,
	}
}

func TestHandleSignalEmitsCompletedEventOnce(t *testing.T) {
	svc, ob := newTestService(t)
	ctx := context.Background()

	for _, kind := range TrackedKinds[:3] {
		if err := svc.HandleSignal(ctx, signal(kind)); err != nil {
			t.Fatalf("signal %s: %v", kind, err)
		}
	}

	// Three of four kinds: nothing announced yet.
	n, err := ob.PendingCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("outbox rows before completion = %d, want 0", n)
	}

	if err := svc.HandleSignal(ctx, signal(TrackedKinds[3])); err != nil {
		t.Fatal(err)
	}

	pending, err := ob.FetchPending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("outbox rows after completion = %d, want 1", len(pending))
	}
	if pending[0].Topic != "saga.completed" {
		t.Errorf("completed event topic = %q, want saga.completed", pending[0].Topic)
	}

	var event CompletedEvent
	if err := json.Unmarshal(pending[0].Payload, &event); err != nil {
		t.Fatal(err)
	}
	if event.Domain != "nfl" || event.Period != "2026" || event.Provider != "statsprovider" {
		t.Errorf("completed event scope = %+v, want nfl/2026/statsprovider", event)
	}
	if event.CompletedAt.IsZero() || event.CompletedAt.Before(event.StartedAt) {
		t.Errorf("completed event timestamps = started %v completed %v", event.StartedAt, event.CompletedAt)
	}

	// Duplicate signals after the terminal transition emit nothing more.
	for _, kind := range TrackedKinds {
		if err := svc.HandleSignal(ctx, signal(kind)); err != nil {
			t.Fatal(err)
		}
	}
	n, err = ob.PendingCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("outbox rows after duplicates = %d, want still 1", n)
	}
}

func TestHandleSignalIsolatesScopes(t *testing.T) {
	svc, ob := newTestService(t)
	ctx := context.Background()

	// Complete 2026 fully; give 2025 only one kind.
	for _, kind := range TrackedKinds {
		if err := svc.HandleSignal(ctx, signal(kind)); err != nil {
			t.Fatal(err)
		}
	}
	other := signal(models.KindFranchise)
	other.Period = "2025"
	if err := svc.HandleSignal(ctx, other); err != nil {
		t.Fatal(err)
	}

	pending, err := ob.FetchPending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("completed events = %d, want only the 2026 scope", len(pending))
	}
}

func TestStoreRoundTrip(t *testing.T) {
	cs, err := canonical.New(canonical.Config{Path: ":memory:", QueryTimeout: 10 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cs.Close() })
	store := NewStore(cs)
	ctx := context.Background()

	tx, err := cs.BeginTx(ctx)
	if err != nil {
		t.Fatal(err)
	}
	state, err := store.GetOrCreate(ctx, tx, "nfl", "2026", "statsprovider")
	if err != nil {
		t.Fatal(err)
	}
	if state.Current != StateStarted {
		t.Errorf("new saga state = %q, want %q", state.Current, StateStarted)
	}

	state = Apply(state, CompletionEvent{Kind: models.KindVenue, At: time.Now().UTC()})
	if err := store.Save(ctx, tx, state); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	loaded, found, err := store.Get(ctx, cs.DB(), "nfl", "2026", "statsprovider")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("saved saga not found")
	}
	if loaded.Venues.Count != 1 || loaded.Venues.FirstCompletedAt == nil {
		t.Errorf("loaded venue progress = %+v, want count 1 with timestamp", loaded.Venues)
	}
	if loaded.CompletedAt != nil {
		t.Error("incomplete saga has CompletedAt set")
	}
}
