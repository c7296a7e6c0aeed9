// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package config loads process configuration with layered precedence:
// environment variables over a YAML file over built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the complete process configuration.
type Config struct {
	NATS     NATSConfig     `koanf:"nats"`
	Database DatabaseConfig `koanf:"database"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Saga     SagaConfig     `koanf:"saga"`
	LivePoll LivePollConfig `koanf:"livepoll"`
	Ops      OpsConfig      `koanf:"ops"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// NATSConfig holds transport settings.
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	StreamName     string        `koanf:"stream_name"`
	RetentionDays  int           `koanf:"retention_days"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	Subscribers    int           `koanf:"subscribers"`
	AckWait        time.Duration `koanf:"ack_wait"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path         string        `koanf:"path"`
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// PipelineConfig holds dispatcher and topic settings.
type PipelineConfig struct {
	Provider         string `koanf:"provider"`
	Domain           string `koanf:"domain"`
	MaxAttempts      int    `koanf:"max_attempts"`
	SourcingTopic    string `koanf:"sourcing_topic"`
	IngestTopic      string `koanf:"ingest_topic"`
	EventsTopic      string `koanf:"events_topic"`
	CompletionsTopic string `koanf:"completions_topic"`
	DeadLetterTopic  string `koanf:"dead_letter_topic"`

	OutboxInterval  time.Duration `koanf:"outbox_interval"`
	OutboxBatchSize int           `koanf:"outbox_batch_size"`
}

// SagaConfig holds sourcing saga settings.
type SagaConfig struct {
	CompletedTopic string `koanf:"completed_topic"`
}

// LivePollConfig holds live-event poller settings.
type LivePollConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Interval          time.Duration `koanf:"interval"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

// OpsConfig holds the operational HTTP listener settings.
type OpsConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns the built-in defaults, overridden by file and env.
func defaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			Host:           "127.0.0.1",
			Port:           4222,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,
			MaxStore:       10 << 30,
			StreamName:     "STATFORGE",
			RetentionDays:  7,
			DurableName:    "statforge-processor",
			QueueGroup:     "processors",
			Subscribers:    4,
			AckWait:        30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "/data/statforge.duckdb",
			MaxMemory:    "2GB",
			Threads:      0, // 0 = runtime.NumCPU()
			QueryTimeout: 30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Provider:         "",
			Domain:           "",
			MaxAttempts:      10,
			SourcingTopic:    "sourcing.requests",
			IngestTopic:      "ingest.documents",
			EventsTopic:      "canonical.events",
			CompletionsTopic: "saga.completions",
			DeadLetterTopic:  "dlq.ingest",
			OutboxInterval:   time.Second,
			OutboxBatchSize:  200,
		},
		Saga: SagaConfig{
			CompletedTopic: "saga.completed",
		},
		LivePoll: LivePollConfig{
			Enabled:           true,
			Interval:          30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Ops: OpsConfig{
			Addr:            ":9090",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration for values the process cannot
// run with. Called once at load time so misconfiguration fails the boot.
func (c *Config) Validate() error {
	if c.Pipeline.Provider == "" {
		return fmt.Errorf("pipeline.provider is required")
	}
	if c.Pipeline.Domain == "" {
		return fmt.Errorf("pipeline.domain is required")
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline.max_attempts must be positive, got %d", c.Pipeline.MaxAttempts)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("nats.url is required when the embedded server is disabled")
	}
	if c.NATS.Subscribers <= 0 {
		return fmt.Errorf("nats.subscribers must be positive, got %d", c.NATS.Subscribers)
	}
	if c.LivePoll.Enabled && c.LivePoll.Interval <= 0 {
		return fmt.Errorf("livepoll.interval must be positive, got %s", c.LivePoll.Interval)
	}
	return nil
}
