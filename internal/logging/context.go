// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Context keys for logging.
type contextKey string

const (
	// correlationIDKey is the context key for correlation IDs. A correlation
	// ID ties together every document sourced for one (domain, period,
	// provider) scope.
	correlationIDKey contextKey = "correlation_id"

	// causationIDKey is the context key for causation IDs. A causation ID
	// names the request that directly produced the current one.
	causationIDKey contextKey = "causation_id"
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID returns a new context with the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext retrieves the correlation ID from context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithCausationID returns a new context with the given causation ID.
func ContextWithCausationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, causationIDKey, id)
}

// CausationIDFromContext retrieves the causation ID from context.
// Returns empty string if not present.
func CausationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(causationIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger with correlation_id and causation_id automatically
// added when present. This is the recommended way to log inside processors
// and message handlers.
//
//	logging.Ctx(ctx).Info().Msg("Document canonicalized")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := Logger().With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	if causationID := CausationIDFromContext(ctx); causationID != "" {
		logCtx = logCtx.Str("causation_id", causationID)
	}

	logger := logCtx.Logger()
	return &logger
}
