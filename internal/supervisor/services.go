// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package supervisor

import (
	"context"

	"github.com/statforge/statforge/internal/eventprocessor"
	"github.com/statforge/statforge/internal/logging"
)

// RouterService adapts the Watermill router to suture.Service. The outbox
// relay, live poller, and ops server implement suture.Service directly and
// need no wrapper.
type RouterService struct {
	router *eventprocessor.Router
}

// NewRouterService wraps a router for supervision.
func NewRouterService(router *eventprocessor.Router) *RouterService {
	return &RouterService{router: router}
}

// Serve runs the router until context cancellation. Router.Run handles its
// own graceful close.
func (s *RouterService) Serve(ctx context.Context) error {
	logger := logging.WithComponent("supervisor")
	logger.Info().Msg("Message router starting")
	err := s.router.Run(ctx)
	logger.Info().Err(err).Msg("Message router stopped")
	return err
}

// String implements fmt.Stringer for supervisor logging.
func (s *RouterService) String() string {
	return "message-router"
}
