// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresProviderAndDomain(t *testing.T) {
	// Defaults alone cannot boot: the capability scope has no sane default.
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without pipeline.provider and pipeline.domain")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STATFORGE_PIPELINE_PROVIDER", "statsprovider")
	t.Setenv("STATFORGE_PIPELINE_DOMAIN", "nfl")
	t.Setenv("STATFORGE_PIPELINE_MAX_ATTEMPTS", "5")
	t.Setenv("STATFORGE_DATABASE_PATH", "/tmp/statforge-test.duckdb")
	t.Setenv("STATFORGE_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pipeline.Provider != "statsprovider" || cfg.Pipeline.Domain != "nfl" {
		t.Errorf("pipeline scope = %s/%s, want statsprovider/nfl", cfg.Pipeline.Provider, cfg.Pipeline.Domain)
	}
	if cfg.Pipeline.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want env override 5", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Database.Path != "/tmp/statforge-test.duckdb" {
		t.Errorf("database path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}

	// Untouched keys keep their defaults.
	if cfg.NATS.StreamName != "STATFORGE" {
		t.Errorf("stream name = %q, want default STATFORGE", cfg.NATS.StreamName)
	}
	if cfg.Pipeline.IngestTopic != "ingest.documents" {
		t.Errorf("ingest topic = %q, want default", cfg.Pipeline.IngestTopic)
	}
	if cfg.Saga.CompletedTopic != "saga.completed" {
		t.Errorf("completed topic = %q, want default", cfg.Saga.CompletedTopic)
	}
	if cfg.LivePoll.Interval != 30*time.Second {
		t.Errorf("poll interval = %s, want default 30s", cfg.LivePoll.Interval)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
pipeline:
  provider: statsprovider
  domain: nfl
  max_attempts: 7
livepoll:
  enabled: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("STATFORGE_PIPELINE_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pipeline.Provider != "statsprovider" {
		t.Errorf("provider = %q, want file value", cfg.Pipeline.Provider)
	}
	if cfg.LivePoll.Enabled {
		t.Error("livepoll.enabled = true, want file value false")
	}
	// Environment wins over the file.
	if cfg.Pipeline.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want env override 3 over file 7", cfg.Pipeline.MaxAttempts)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Pipeline.Provider = "statsprovider"
		cfg.Pipeline.Domain = "nfl"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing provider", func(c *Config) { c.Pipeline.Provider = "" }, true},
		{"missing domain", func(c *Config) { c.Pipeline.Domain = "" }, true},
		{"zero max attempts", func(c *Config) { c.Pipeline.MaxAttempts = 0 }, true},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"no nats url without embedded server", func(c *Config) {
			c.NATS.URL = ""
			c.NATS.EmbeddedServer = false
		}, true},
		{"no nats url with embedded server", func(c *Config) {
			c.NATS.URL = ""
			c.NATS.EmbeddedServer = true
		}, false},
		{"zero subscribers", func(c *Config) { c.NATS.Subscribers = 0 }, true},
		{"poll enabled without interval", func(c *Config) {
			c.LivePoll.Enabled = true
			c.LivePoll.Interval = 0
		}, true},
		{"poll disabled without interval", func(c *Config) {
			c.LivePoll.Enabled = false
			c.LivePoll.Interval = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
