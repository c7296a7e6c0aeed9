// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package canonical is the canonical store boundary: DuckDB-backed persistence
// for deduplicated entities, their external-id links, the transactional
// outbox, and saga state.
//
// Every unit of work in the pipeline is exactly one transaction obtained from
// Store.BeginTx. Methods take a Querier so they run identically inside a
// transaction or against the pooled connection.
package canonical

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/statforge/statforge/internal/logging"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Config holds canonical store configuration.
type Config struct {
	// Path is the DuckDB database file. ":memory:" for tests.
	Path string

	// MaxMemory caps DuckDB memory usage, e.g. "1GB".
	MaxMemory string

	// Threads is the DuckDB worker thread count. 0 uses NumCPU.
	Threads int

	// QueryTimeout bounds individual statements when the caller's context
	// carries no deadline.
	QueryTimeout time.Duration
}

// DefaultConfig returns production defaults for the canonical store.
func DefaultConfig() Config {
	return Config{
		Path:         "/data/statforge/canonical.duckdb",
		MaxMemory:    "1GB",
		Threads:      0,
		QueryTimeout: 30 * time.Second,
	}
}

// Store wraps the DuckDB connection and provides canonical data access.
type Store struct {
	conn *sql.DB
	cfg  Config
}

// New opens the database and initializes the schema.
func New(cfg Config) (*Store, error) {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	connStr := cfg.Path
	if cfg.Path != ":memory:" && cfg.Path != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, numThreads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{conn: conn, cfg: cfg}

	if err := s.initSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Canonical store ready")
	return s, nil
}

// BeginTx starts the single transaction scoping one unit of work.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.conn.BeginTx(ctx, nil)
}

// DB returns the pooled connection for non-transactional reads and for the
// shared-lookup race path, which deliberately commits outside the caller's
// transaction.
func (s *Store) DB() *sql.DB {
	return s.conn
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// ensureContext attaches the configured query timeout when the caller's
// context has no deadline.
func (s *Store) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
// DuckDB surfaces these as constraint errors mentioning the duplicate key;
// the store relies on this to resolve concurrent-create races.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}

// initSchema creates all tables. Statements are idempotent so startup after
// a crash is safe.
func (s *Store) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS external_ids (
			canonical_id UUID NOT NULL,
			entity_kind VARCHAR NOT NULL,
			provider VARCHAR NOT NULL,
			content_hash VARCHAR NOT NULL,
			source_url VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (provider, content_hash)
		)`,
		`CREATE TABLE IF NOT EXISTS franchises (
			id UUID PRIMARY KEY,
			name VARCHAR NOT NULL,
			alias VARCHAR NOT NULL,
			venue_id UUID,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS team_seasons (
			id UUID PRIMARY KEY,
			franchise_id UUID NOT NULL,
			period VARCHAR NOT NULL,
			team_name VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS people (
			id UUID PRIMARY KEY,
			full_name VARCHAR NOT NULL,
			birth_date VARCHAR,
			position VARCHAR,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS coach_seasons (
			id UUID PRIMARY KEY,
			person_id UUID NOT NULL,
			team_season_id UUID NOT NULL,
			role VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS venues (
			id UUID PRIMARY KEY,
			name VARCHAR NOT NULL,
			city VARCHAR NOT NULL,
			capacity INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			home_team_season_id UUID NOT NULL,
			away_team_season_id UUID NOT NULL,
			venue_id UUID,
			scheduled_at TIMESTAMP NOT NULL,
			status VARCHAR NOT NULL,
			home_score INTEGER NOT NULL DEFAULT 0,
			away_score INTEGER NOT NULL DEFAULT 0,
			clock VARCHAR,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS statistic_categories (
			id UUID PRIMARY KEY,
			name VARCHAR NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS statistic_lines (
			id UUID PRIMARY KEY,
			team_season_id UUID NOT NULL,
			category_id UUID NOT NULL,
			label VARCHAR NOT NULL,
			value DOUBLE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS standings (
			id UUID PRIMARY KEY,
			franchise_id UUID NOT NULL,
			period VARCHAR NOT NULL,
			wins INTEGER NOT NULL,
			losses INTEGER NOT NULL,
			ties INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id UUID PRIMARY KEY,
			topic VARCHAR NOT NULL,
			msg_key VARCHAR,
			payload VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error VARCHAR,
			created_at TIMESTAMP NOT NULL,
			processed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS saga_runs (
			domain VARCHAR NOT NULL,
			period VARCHAR NOT NULL,
			provider VARCHAR NOT NULL,
			current_state VARCHAR NOT NULL,
			franchises_count INTEGER NOT NULL DEFAULT 0,
			venues_count INTEGER NOT NULL DEFAULT 0,
			events_count INTEGER NOT NULL DEFAULT 0,
			standings_count INTEGER NOT NULL DEFAULT 0,
			franchises_first_completed_at TIMESTAMP,
			venues_first_completed_at TIMESTAMP,
			events_first_completed_at TIMESTAMP,
			standings_first_completed_at TIMESTAMP,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			UNIQUE (domain, period, provider)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}
