// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package pipeline is the document-processing core: capability-keyed
// processor dispatch wrapped in the dependency-aware retry protocol.
//
// Handlers return a typed Outcome instead of signalling through errors, so
// the retry path is an explicit, directly testable branch. Only unexpected
// failures travel the error return, and those propagate to the transport's
// failure channel untouched.
package pipeline

import (
	"fmt"

	"github.com/statforge/statforge/internal/models"
)

// Outcome is the result of one processor invocation.
type Outcome interface {
	isOutcome()
}

// OK reports successful canonicalization. The dispatcher commits the
// processor's writes together with outbox rows for everything listed here.
type OK struct {
	// Events are domain events to publish downstream.
	Events []models.DomainEvent

	// Children are sourcing requests discovered through child expansion.
	Children []models.SourcingRequest

	// Completions are saga completion signals to emit.
	Completions []models.CompletionSignal
}

// Retry reports that a hard prerequisite of the document is not yet
// canonical. The dispatcher emits sourcing requests for the missing
// resources and re-queues the original request; no canonical rows commit.
type Retry struct {
	// Missing lists one sourcing request per absent prerequisite.
	Missing []models.SourcingRequest

	// Reason names the missing prerequisite for logs.
	Reason string
}

// Dropped reports a document that can never be processed, typically because
// the payload is malformed. Re-processing cannot fix bad data, so the
// request goes to the dead-letter topic instead of retrying.
type Dropped struct {
	Reason string
}

func (OK) isOutcome()      {}
func (Retry) isOutcome()   {}
func (Dropped) isOutcome() {}

// Malformedf builds a Dropped outcome for an unparseable or incomplete
// document.
func Malformedf(format string, args ...any) Dropped {
	return Dropped{Reason: fmt.Sprintf(format, args...)}
}
