// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package livepoll keeps in-progress events fresh. A supervised loop
// periodically requests a new status document for every live event; the
// documents flow through the normal ingest pipeline, so the poller never
// writes canonical state itself.
//
// An event leaves the loop the moment a status document moves it to a
// terminal state: the next tick's live-event query no longer returns it.
package livepoll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/logging"
	"github.com/statforge/statforge/internal/metrics"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/outbox"
)

// Config holds poller configuration.
type Config struct {
	// Interval between poll sweeps over the live events.
	Interval time.Duration

	// RequestsPerSecond caps sourcing requests emitted toward the fetch
	// collaborator; Burst allows short spikes.
	RequestsPerSecond float64
	Burst             int

	// Domain and Provider scope the emitted sourcing requests.
	Domain   string
	Provider string

	// SourcingTopic receives the emitted requests.
	SourcingTopic string
}

// DefaultConfig returns production defaults for the poller.
func DefaultConfig() Config {
	return Config{
		Interval:          30 * time.Second,
		RequestsPerSecond: 5,
		Burst:             10,
		Domain:            "",
		Provider:          "",
		SourcingTopic:     "sourcing.requests",
	}
}

// Poller is the supervised live-event polling loop. Implements
// suture.Service; cancellation arrives through the supervisor's context.
type Poller struct {
	store   *canonical.Store
	outbox  *outbox.Store
	limiter *rate.Limiter
	config  Config
}

// New creates a poller over the canonical store and outbox.
func New(store *canonical.Store, ob *outbox.Store, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Poller{
		store:   store,
		outbox:  ob,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		config:  cfg,
	}
}

// Serve implements suture.Service. Sweeps until the context is canceled; a
// failed sweep is logged and the next one proceeds.
func (p *Poller) Serve(ctx context.Context) error {
	logger := logging.WithComponent("livepoll")
	logger.Info().Dur("interval", p.config.Interval).Msg("Live poller started")

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Live poller stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := p.sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				metrics.PollTicks.WithLabelValues("error").Inc()
				logger.Error().Err(err).Msg("Poll sweep failed")
				continue
			}
			metrics.PollTicks.WithLabelValues("ok").Inc()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (p *Poller) String() string {
	return "livepoll"
}

// sweep emits one status sourcing request per live event.
func (p *Poller) sweep(ctx context.Context) error {
	live, err := p.store.ListLiveEvents(ctx, p.store.DB())
	if err != nil {
		return err
	}
	if len(live) == 0 {
		return nil
	}

	for _, event := range live {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := p.requestStatus(ctx, event); err != nil {
			// One event's failure does not starve the rest of the sweep.
			logging.Ctx(ctx).Error().Err(err).
				Str("event_id", event.ID.String()).
				Msg("Status request failed")
		}
	}
	return nil
}

// requestStatus appends a sourcing request for the event's status document.
// The status URI derives from the event's recorded source URL.
func (p *Poller) requestStatus(ctx context.Context, event models.Event) error {
	links, err := p.store.ExternalIDsFor(ctx, p.store.DB(), event.ID)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return fmt.Errorf("event %s has no external link", event.ID)
	}

	req := models.SourcingRequest{
		RequestID:     uuid.New(),
		ParentID:      &event.ID,
		URI:           strings.TrimRight(links[0].SourceURL, "/") + "/status",
		Domain:        p.config.Domain,
		Provider:      p.config.Provider,
		Kind:          models.KindEventStatus,
		CorrelationID: uuid.NewString(),
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal status sourcing request: %w", err)
	}

	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := p.outbox.Append(ctx, tx, p.config.SourcingTopic, string(req.Kind), payload); err != nil {
		return err
	}
	return tx.Commit()
}
