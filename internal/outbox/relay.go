// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package outbox

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/statforge/statforge/internal/logging"
	"github.com/statforge/statforge/internal/metrics"
)

// Publisher is the subset of watermill's message.Publisher the relay needs.
// Satisfied by the gobreaker-wrapped NATS publisher in eventprocessor.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// RelayConfig holds relay worker configuration.
type RelayConfig struct {
	// Interval between polls of the pending outbox.
	Interval time.Duration

	// BatchSize is the maximum rows published per tick.
	BatchSize int
}

// DefaultRelayConfig returns production defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Interval:  time.Second,
		BatchSize: 200,
	}
}

// Relay publishes pending outbox rows to NATS. One failed row does not stop
// the batch: the failure is recorded and the row retried next tick, so
// delivery is at-least-once and consumers dedupe by content.
//
// Relay implements suture.Service and is owned by the supervisor's data
// layer.
type Relay struct {
	store     *Store
	publisher Publisher
	config    RelayConfig
}

// NewRelay creates a relay worker over the given store and publisher.
func NewRelay(store *Store, publisher Publisher, cfg RelayConfig) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &Relay{store: store, publisher: publisher, config: cfg}
}

// Serve implements suture.Service. Polls until the context is canceled.
func (r *Relay) Serve(ctx context.Context) error {
	logger := logging.WithComponent("outbox-relay")
	logger.Info().Dur("interval", r.config.Interval).Int("batch_size", r.config.BatchSize).Msg("Outbox relay started")

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Outbox relay stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				// A tick failure is isolated; the next tick retries.
				logger.Error().Err(err).Msg("Outbox relay tick failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (r *Relay) String() string {
	return "outbox-relay"
}

// tick publishes one batch of pending rows.
func (r *Relay) tick(ctx context.Context) error {
	pending, err := r.store.FetchPending(ctx, r.config.BatchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	for _, row := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg := message.NewMessage(row.ID.String(), row.Payload)
		if row.Key != "" {
			msg.Metadata.Set("key", row.Key)
		}

		if err := r.publisher.Publish(row.Topic, msg); err != nil {
			metrics.OutboxPublishErrors.WithLabelValues(row.Topic).Inc()
			logging.Error().Err(err).
				Str("topic", row.Topic).
				Str("outbox_id", row.ID.String()).
				Int("attempts", row.Attempts+1).
				Msg("Outbox publish failed, row stays pending")
			if markErr := r.store.MarkFailed(ctx, row.ID, err); markErr != nil {
				return markErr
			}
			continue
		}

		metrics.OutboxPublished.WithLabelValues(row.Topic).Inc()
		if err := r.store.MarkPublished(ctx, row.ID); err != nil {
			return err
		}
	}

	r.observeBacklog(ctx)
	return nil
}

func (r *Relay) observeBacklog(ctx context.Context) {
	if n, err := r.store.PendingCount(ctx); err == nil {
		metrics.OutboxBacklog.Set(float64(n))
	}
}
