// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/statforge/statforge/internal/models"
)

// Key identifies the exact capability a processor serves.
type Key struct {
	Provider string
	Domain   string
	Kind     models.DocumentKind
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Provider, k.Domain, k.Kind)
}

// Processor handles one document kind for one (provider, domain).
type Processor interface {
	// Key declares the exact triple this processor serves.
	Key() Key

	// Process canonicalizes one document inside the dispatcher's
	// transaction. Prerequisite existence checks come before any write.
	Process(ctx context.Context, tx *sql.Tx, req models.ProcessRequest) (Outcome, error)
}

// Registry is the static dispatch table. It is built once at startup and
// immutable afterward; an unregistered triple is a configuration error
// surfaced by NewRegistry or EnsureRegistered, never a runtime surprise.
type Registry struct {
	processors map[Key]Processor
}

// NewRegistry builds the dispatch table. Duplicate registrations are a
// startup error.
func NewRegistry(procs ...Processor) (*Registry, error) {
	table := make(map[Key]Processor, len(procs))
	for _, p := range procs {
		key := p.Key()
		if _, exists := table[key]; exists {
			return nil, fmt.Errorf("duplicate processor registration for %s", key)
		}
		table[key] = p
	}
	return &Registry{processors: table}, nil
}

// Lookup returns the processor for a key.
func (r *Registry) Lookup(key Key) (Processor, bool) {
	p, ok := r.processors[key]
	return p, ok
}

// EnsureRegistered verifies at startup that every expected triple has a
// processor, so misconfiguration fails the boot instead of a message.
func (r *Registry) EnsureRegistered(keys ...Key) error {
	for _, key := range keys {
		if _, ok := r.processors[key]; !ok {
			return fmt.Errorf("no processor registered for %s", key)
		}
	}
	return nil
}

// Len returns the number of registered processors.
func (r *Registry) Len() int {
	return len(r.processors)
}
