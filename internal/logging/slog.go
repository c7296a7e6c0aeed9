// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// Slog returns an slog.Logger backed by the global zerolog logger, for
// libraries that speak log/slog (the supervisor's event hook).
func Slog() *slog.Logger {
	return slog.New(slogHandler{})
}

type slogHandler struct {
	fields []slog.Attr
	group  string
}

func (h slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogToZerologLevel(level) >= zerolog.GlobalLevel()
}

func (h slogHandler) Handle(_ context.Context, record slog.Record) error {
	l := Logger()
	ev := l.WithLevel(slogToZerologLevel(record.Level))
	for _, attr := range h.fields {
		ev = appendAttr(ev, h.group, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		ev = appendAttr(ev, h.group, attr)
		return true
	})
	ev.Msg(record.Message)
	return nil
}

func (h slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.fields)+len(attrs))
	merged = append(merged, h.fields...)
	merged = append(merged, attrs...)
	return slogHandler{fields: merged, group: h.group}
}

func (h slogHandler) WithGroup(name string) slog.Handler {
	if h.group != "" {
		name = h.group + "." + name
	}
	return slogHandler{fields: h.fields, group: name}
}

func appendAttr(ev *zerolog.Event, group string, attr slog.Attr) *zerolog.Event {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return ev.Interface(key, attr.Value.Any())
}

func slogToZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
