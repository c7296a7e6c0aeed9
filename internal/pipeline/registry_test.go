// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package pipeline

import (
	"context"
	"database/sql"
	"testing"

	"github.com/statforge/statforge/internal/models"
)

type stubProcessor struct {
	key     Key
	outcome Outcome
	err     error

	// calls records every request the processor saw.
	calls []models.ProcessRequest

	// process, when set, overrides the canned outcome.
	process func(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (Outcome, error)
}

func (p *stubProcessor) Key() Key { return p.key }

func (p *stubProcessor) Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (Outcome, error) {
	p.calls = append(p.calls, req)
	if p.process != nil {
		return p.process(ctx, tx, req)
	}
	return p.outcome, p.err
}

func testKey(kind models.DocumentKind) Key {
	return Key{Provider: "statsprovider", Domain: "nfl", Kind: kind}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	a := &stubProcessor{key: testKey(models.KindFranchise)}
	b := &stubProcessor{key: testKey(models.KindFranchise)}

	if _, err := NewRegistry(a, b); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}

func TestRegistryLookup(t *testing.T) {
	franchise := &stubProcessor{key: testKey(models.KindFranchise)}
	venue := &stubProcessor{key: testKey(models.KindVenue)}

	registry, err := NewRegistry(franchise, venue)
	if err != nil {
		t.Fatal(err)
	}
	if registry.Len() != 2 {
		t.Errorf("Len = %d, want 2", registry.Len())
	}

	got, ok := registry.Lookup(testKey(models.KindVenue))
	if !ok || got != Processor(venue) {
		t.Error("Lookup returned the wrong processor")
	}

	// Same kind under a different provider is a different capability.
	_, ok = registry.Lookup(Key{Provider: "other", Domain: "nfl", Kind: models.KindVenue})
	if ok {
		t.Error("Lookup matched across providers")
	}
}

func TestEnsureRegistered(t *testing.T) {
	registry, err := NewRegistry(&stubProcessor{key: testKey(models.KindFranchise)})
	if err != nil {
		t.Fatal(err)
	}

	if err := registry.EnsureRegistered(testKey(models.KindFranchise)); err != nil {
		t.Errorf("registered key reported missing: %v", err)
	}
	if err := registry.EnsureRegistered(testKey(models.KindFranchise), testKey(models.KindEvent)); err == nil {
		t.Error("missing key not reported")
	}
}
