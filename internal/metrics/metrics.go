// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package metrics provides Prometheus instrumentation for the ingestion
// pipeline: document throughput, dependency retries, outbox backlog, saga
// progress, and live-poll activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Document processing
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_documents_processed_total",
			Help: "Documents fully canonicalized, by kind and upsert result",
		},
		[]string{"kind", "result"},
	)

	DocumentsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_documents_dropped_total",
			Help: "Documents dropped without retry, by kind and drop cause",
		},
		[]string{"kind", "cause"},
	)

	DependencyRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_dependency_retries_total",
			Help: "Process requests re-queued because a prerequisite was missing",
		},
		[]string{"kind"},
	)

	ProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statforge_process_duration_seconds",
			Help:    "Duration of one document-processing unit of work",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	ChildRequestsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_child_requests_total",
			Help: "Sourcing requests discovered through child expansion",
		},
		[]string{"parent_kind", "child_kind"},
	)

	// Outbox
	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_outbox_published_total",
			Help: "Outbox rows successfully published, by topic",
		},
		[]string{"topic"},
	)

	OutboxPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_outbox_publish_errors_total",
			Help: "Failed outbox publish attempts, by topic",
		},
		[]string{"topic"},
	)

	OutboxBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statforge_outbox_backlog",
			Help: "Pending outbox rows awaiting publish",
		},
	)

	// Saga
	SagaCompletionSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_saga_completion_signals_total",
			Help: "Completion signals applied to sourcing sagas, by kind",
		},
		[]string{"kind"},
	)

	SagasCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statforge_sagas_completed_total",
			Help: "Sourcing sagas that reached the terminal Completed state",
		},
	)

	// Live polling
	PollTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statforge_poll_ticks_total",
			Help: "Live-event poll ticks, by outcome",
		},
		[]string{"outcome"},
	)
)
