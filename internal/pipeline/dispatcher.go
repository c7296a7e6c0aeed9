// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/logging"
	"github.com/statforge/statforge/internal/metrics"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/outbox"
)

// Config holds dispatcher configuration.
type Config struct {
	// MaxAttempts bounds the dependency retry protocol. A request whose
	// prerequisite is still missing after this many attempts goes to the
	// dead-letter topic instead of cycling forever.
	MaxAttempts int

	// SourcingTopic receives sourcing requests for the fetch collaborator.
	SourcingTopic string

	// IngestTopic receives re-queued process requests.
	IngestTopic string

	// EventsTopic receives domain events.
	EventsTopic string

	// CompletionsTopic receives saga completion signals.
	CompletionsTopic string

	// DeadLetterTopic receives dropped documents.
	DeadLetterTopic string
}

// DefaultConfig returns production defaults for the dispatcher.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      10,
		SourcingTopic:    "sourcing.requests",
		IngestTopic:      "ingest.documents",
		EventsTopic:      "canonical.events",
		CompletionsTopic: "saga.completions",
		DeadLetterTopic:  "dlq.ingest",
	}
}

// Dispatcher routes process requests to their registered processor and
// implements the dependency-aware retry protocol around each invocation.
//
// Each dispatch is exactly one database transaction. On success the
// processor's canonical writes commit atomically with outbox rows for its
// children, events, and completions. On a missing prerequisite the
// processing transaction rolls back — no canonical rows are written — and a
// second, separate transaction commits the sourcing request for the missing
// resource together with the re-queued original request.
type Dispatcher struct {
	registry *Registry
	store    *canonical.Store
	outbox   *outbox.Store
	config   Config
}

// NewDispatcher wires the dispatch wrapper.
func NewDispatcher(registry *Registry, store *canonical.Store, ob *outbox.Store, cfg Config) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Dispatcher{registry: registry, store: store, outbox: ob, config: cfg}
}

// Dispatch processes one request end to end. A nil return means the message
// can be acked; an error propagates to the transport's failure channel
// (NACK, transport retry, then poison queue).
func (d *Dispatcher) Dispatch(ctx context.Context, req models.ProcessRequest) error {
	ctx = logging.ContextWithCorrelationID(ctx, req.CorrelationID)
	if req.CausationID != "" {
		ctx = logging.ContextWithCausationID(ctx, req.CausationID)
	}

	key := Key{Provider: req.Provider, Domain: req.Domain, Kind: req.Kind}
	proc, ok := d.registry.Lookup(key)
	if !ok {
		// Registry is validated at startup, so this means the message
		// predates a config change. Let the transport dead-letter it.
		return fmt.Errorf("no processor registered for %s", key)
	}

	start := time.Now()
	defer func() {
		metrics.ProcessDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	}()

	tx, err := d.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	outcome, err := proc.Process(ctx, tx, req)
	if err != nil {
		_ = tx.Rollback()
		logging.Ctx(ctx).Error().Err(err).
			Str("kind", string(req.Kind)).
			Str("source_uri", req.SourceURI).
			Msg("Processor failed")
		return err
	}

	switch o := outcome.(type) {
	case OK:
		if err := d.commitOK(ctx, tx, req, o); err != nil {
			_ = tx.Rollback()
			return err
		}
		return nil

	case Retry:
		// The prerequisite pass happens before any canonical write, so
		// rolling back discards nothing but the transaction itself.
		_ = tx.Rollback()
		return d.handleRetry(ctx, req, o)

	case Dropped:
		_ = tx.Rollback()
		return d.handleDropped(ctx, req, o, dropCauseMalformed)

	default:
		_ = tx.Rollback()
		return fmt.Errorf("processor for %s returned unknown outcome %T", key, outcome)
	}
}

// commitOK writes outbox rows for the processor's outputs and commits the
// unit of work.
func (d *Dispatcher) commitOK(ctx context.Context, tx *sql.Tx, req models.ProcessRequest, o OK) error {
	for _, child := range o.Children {
		payload, err := json.Marshal(child)
		if err != nil {
			return fmt.Errorf("marshal child sourcing request: %w", err)
		}
		if err := d.outbox.Append(ctx, tx, d.config.SourcingTopic, string(child.Kind), payload); err != nil {
			return err
		}
		metrics.ChildRequestsEmitted.WithLabelValues(string(req.Kind), string(child.Kind)).Inc()
	}

	for _, event := range o.Events {
		event.CorrelationID = req.CorrelationID
		event.CausationID = req.CausationID
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal domain event: %w", err)
		}
		if err := d.outbox.Append(ctx, tx, d.config.EventsTopic, event.Type, payload); err != nil {
			return err
		}
	}

	for _, completion := range o.Completions {
		payload, err := json.Marshal(completion)
		if err != nil {
			return fmt.Errorf("marshal completion signal: %w", err)
		}
		if err := d.outbox.Append(ctx, tx, d.config.CompletionsTopic, string(completion.Kind), payload); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}

	result := "unchanged"
	if len(o.Events) > 0 {
		// Event types are "<kind>.created" / "<kind>.updated".
		if idx := strings.LastIndexByte(o.Events[0].Type, '.'); idx >= 0 {
			result = o.Events[0].Type[idx+1:]
		}
	}
	metrics.DocumentsProcessed.WithLabelValues(string(req.Kind), result).Inc()

	logging.Ctx(ctx).Debug().
		Str("kind", string(req.Kind)).
		Int("children", len(o.Children)).
		Int("events", len(o.Events)).
		Msg("Document canonicalized")
	return nil
}

// handleRetry implements the durable re-queue: sourcing requests for the
// missing prerequisites plus the original request with AttemptCount+1, all
// committed in one transaction of their own.
func (d *Dispatcher) handleRetry(ctx context.Context, req models.ProcessRequest, o Retry) error {
	if req.AttemptCount+1 >= d.config.MaxAttempts {
		logging.Ctx(ctx).Warn().
			Str("kind", string(req.Kind)).
			Str("source_uri", req.SourceURI).
			Int("attempts", req.AttemptCount).
			Str("reason", o.Reason).
			Msg("Dependency retry ceiling reached, dead-lettering")
		return d.handleDropped(ctx, req, Dropped{Reason: "max attempts exceeded: " + o.Reason}, dropCauseMaxAttempts)
	}

	tx, err := d.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin retry transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, missing := range o.Missing {
		payload, err := json.Marshal(missing)
		if err != nil {
			return fmt.Errorf("marshal prerequisite sourcing request: %w", err)
		}
		if err := d.outbox.Append(ctx, tx, d.config.SourcingTopic, string(missing.Kind), payload); err != nil {
			return err
		}
	}

	requeued := req.Requeued()
	payload, err := json.Marshal(requeued)
	if err != nil {
		return fmt.Errorf("marshal re-queued request: %w", err)
	}
	if err := d.outbox.Append(ctx, tx, d.config.IngestTopic, string(req.Kind), payload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit retry transaction: %w", err)
	}

	metrics.DependencyRetries.WithLabelValues(string(req.Kind)).Inc()
	logging.Ctx(ctx).Info().
		Str("kind", string(req.Kind)).
		Str("reason", o.Reason).
		Int("attempt", requeued.AttemptCount).
		Msg("Prerequisite missing, re-queued")
	return nil
}

// Drop causes label the DocumentsDropped counter. The free-text reason
// carries unbounded values (URIs, error chains) and goes to the log only.
const (
	dropCauseMalformed   = "malformed"
	dropCauseMaxAttempts = "max_attempts"
)

// handleDropped records the document on the dead-letter topic and acks it.
func (d *Dispatcher) handleDropped(ctx context.Context, req models.ProcessRequest, o Dropped, cause string) error {
	tx, err := d.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin drop transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal dropped request: %w", err)
	}
	if err := d.outbox.Append(ctx, tx, d.config.DeadLetterTopic, string(req.Kind), payload); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit drop transaction: %w", err)
	}

	metrics.DocumentsDropped.WithLabelValues(string(req.Kind), cause).Inc()
	logging.Ctx(ctx).Warn().
		Str("kind", string(req.Kind)).
		Str("source_uri", req.SourceURI).
		Str("reason", o.Reason).
		Msg("Document dropped")
	return nil
}
