// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Command server runs the statforge ingestion pipeline: embedded NATS
// JetStream (optional), the Watermill router with the document dispatcher
// and sourcing saga, the transactional outbox relay, the live-event poller,
// and the ops HTTP listener, all under one supervision tree.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/statforge/statforge/internal/canonical"
	"github.com/statforge/statforge/internal/config"
	"github.com/statforge/statforge/internal/eventprocessor"
	"github.com/statforge/statforge/internal/livepoll"
	"github.com/statforge/statforge/internal/logging"
	"github.com/statforge/statforge/internal/opsserver"
	"github.com/statforge/statforge/internal/outbox"
	"github.com/statforge/statforge/internal/pipeline"
	"github.com/statforge/statforge/internal/pipeline/processors"
	"github.com/statforge/statforge/internal/saga"
	"github.com/statforge/statforge/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.Info().
		Str("provider", cfg.Pipeline.Provider).
		Str("domain", cfg.Pipeline.Domain).
		Msg("Starting statforge")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Canonical store.
	store, err := canonical.New(canonical.Config{
		Path:         cfg.Database.Path,
		MaxMemory:    cfg.Database.MaxMemory,
		Threads:      cfg.Database.Threads,
		QueryTimeout: cfg.Database.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("open canonical store: %w", err)
	}
	defer store.Close()

	outboxStore := outbox.NewStore(store)

	// Transport: embedded broker, stream, publisher, subscriber.
	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		embedded, err := eventprocessor.NewEmbeddedServer(&eventprocessor.ServerConfig{
			Host:              cfg.NATS.Host,
			Port:              cfg.NATS.Port,
			StoreDir:          cfg.NATS.StoreDir,
			JetStreamMaxMem:   cfg.NATS.MaxMemory,
			JetStreamMaxStore: cfg.NATS.MaxStore,
		})
		if err != nil {
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		defer func() {
			if err := embedded.Shutdown(context.Background()); err != nil {
				logging.Warn().Err(err).Msg("Embedded NATS shutdown failed")
			}
		}()
		natsURL = embedded.ClientURL()
	}

	if err := ensureStream(ctx, natsURL, cfg); err != nil {
		return err
	}

	wmLogger := eventprocessor.NewLoggerAdapter()

	publisherCfg := eventprocessor.DefaultPublisherConfig()
	publisherCfg.URL = natsURL
	publisher, err := eventprocessor.NewPublisher(publisherCfg, wmLogger)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	defer publisher.Close()
	publisher.SetCircuitBreaker(eventprocessor.NewPublishBreaker())

	subscriberCfg := eventprocessor.DefaultSubscriberConfig()
	subscriberCfg.URL = natsURL
	subscriberCfg.StreamName = cfg.NATS.StreamName
	subscriberCfg.DurableName = cfg.NATS.DurableName
	subscriberCfg.QueueGroup = cfg.NATS.QueueGroup
	subscriberCfg.SubscribersCount = cfg.NATS.Subscribers
	subscriberCfg.AckWaitTimeout = cfg.NATS.AckWait
	subscriber, err := eventprocessor.NewSubscriber(&subscriberCfg, wmLogger)
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	defer subscriber.Close()

	// Pipeline: registry, dispatcher, saga.
	registry, err := pipeline.NewRegistry(processors.All(processors.Deps{
		Store:    store,
		Provider: cfg.Pipeline.Provider,
		Domain:   cfg.Pipeline.Domain,
	})...)
	if err != nil {
		return fmt.Errorf("build processor registry: %w", err)
	}

	dispatcher := pipeline.NewDispatcher(registry, store, outboxStore, pipeline.Config{
		MaxAttempts:      cfg.Pipeline.MaxAttempts,
		SourcingTopic:    cfg.Pipeline.SourcingTopic,
		IngestTopic:      cfg.Pipeline.IngestTopic,
		EventsTopic:      cfg.Pipeline.EventsTopic,
		CompletionsTopic: cfg.Pipeline.CompletionsTopic,
		DeadLetterTopic:  cfg.Pipeline.DeadLetterTopic,
	})

	sagaService := saga.NewService(store, saga.NewStore(store), outboxStore, cfg.Saga.CompletedTopic)

	routerCfg := eventprocessor.DefaultRouterConfig()
	routerCfg.PoisonQueueTopic = cfg.Pipeline.DeadLetterTopic
	router, err := eventprocessor.NewRouter(&routerCfg, publisher, wmLogger)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	eventprocessor.RegisterIngestHandler(router, subscriber, cfg.Pipeline.IngestTopic, dispatcher)
	eventprocessor.RegisterSagaHandler(router, subscriber, cfg.Pipeline.CompletionsTopic, sagaService)

	// Supervision tree.
	tree, err := supervisor.NewTree(logging.Slog(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}

	relay := outbox.NewRelay(outboxStore, publisher, outbox.RelayConfig{
		Interval:  cfg.Pipeline.OutboxInterval,
		BatchSize: cfg.Pipeline.OutboxBatchSize,
	})
	tree.AddDataService(relay)

	if cfg.LivePoll.Enabled {
		poller := livepoll.New(store, outboxStore, livepoll.Config{
			Interval:          cfg.LivePoll.Interval,
			RequestsPerSecond: cfg.LivePoll.RequestsPerSecond,
			Burst:             cfg.LivePoll.Burst,
			Domain:            cfg.Pipeline.Domain,
			Provider:          cfg.Pipeline.Provider,
			SourcingTopic:     cfg.Pipeline.SourcingTopic,
		})
		tree.AddDataService(poller)
	}

	tree.AddMessagingService(supervisor.NewRouterService(router))

	ops := opsserver.New(opsserver.Config{
		Addr:            cfg.Ops.Addr,
		ReadTimeout:     cfg.Ops.ReadTimeout,
		WriteTimeout:    cfg.Ops.WriteTimeout,
		ShutdownTimeout: cfg.Ops.ShutdownTimeout,
	},
		opsserver.ReadinessCheck{Name: "database", Check: store.Ping},
		opsserver.ReadinessCheck{Name: "router", Check: func(context.Context) error {
			if !router.IsRunning() {
				return fmt.Errorf("router not running")
			}
			return nil
		}},
	)
	tree.AddOpsService(ops)

	logging.Info().Msg("Supervision tree starting")
	err = tree.Serve(ctx)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("supervision tree: %w", err)
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}

// ensureStream provisions the pipeline's JetStream stream before any
// publisher or subscriber connects.
func ensureStream(ctx context.Context, natsURL string, cfg *config.Config) error {
	nc, err := natsgo.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("connect to NATS for stream init: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventprocessor.DefaultStreamConfig()
	streamCfg.Name = cfg.NATS.StreamName
	streamCfg.MaxAge = time.Duration(cfg.NATS.RetentionDays) * 24 * time.Hour
	streamCfg.MaxBytes = cfg.NATS.MaxStore

	initializer, err := eventprocessor.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		return fmt.Errorf("create stream initializer: %w", err)
	}
	if _, err := initializer.EnsureStream(ctx); err != nil {
		return fmt.Errorf("ensure stream: %w", err)
	}
	return nil
}
