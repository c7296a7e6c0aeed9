// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/statforge/statforge/internal/logging"
	"github.com/statforge/statforge/internal/models"
	"github.com/statforge/statforge/internal/pipeline"
	"github.com/statforge/statforge/internal/saga"
)

// Handler names registered with the router. Stable because they key the
// durable consumer state.
const (
	IngestHandlerName = "ingest-documents"
	SagaHandlerName   = "saga-completions"
)

// RegisterIngestHandler wires the document dispatcher onto the ingest topic.
// A nil return from Dispatch acks the message; an error travels the
// transport retry path and eventually the poison queue.
func RegisterIngestHandler(r *Router, sub *Subscriber, topic string, dispatcher *pipeline.Dispatcher) {
	r.AddConsumerHandler(IngestHandlerName, topic, sub.WatermillSubscriber(),
		func(msg *message.Message) error {
			var req models.ProcessRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				// An unparseable envelope cannot be dispatched or
				// dead-lettered by kind. Let the poison queue have it.
				return fmt.Errorf("unmarshal process request: %w", err)
			}
			return dispatcher.Dispatch(contextFor(msg, req.CorrelationID, req.CausationID), req)
		})
}

// RegisterSagaHandler wires the sourcing saga onto the completions topic.
func RegisterSagaHandler(r *Router, sub *Subscriber, topic string, service *saga.Service) {
	r.AddConsumerHandler(SagaHandlerName, topic, sub.WatermillSubscriber(),
		func(msg *message.Message) error {
			var signal models.CompletionSignal
			if err := json.Unmarshal(msg.Payload, &signal); err != nil {
				return fmt.Errorf("unmarshal completion signal: %w", err)
			}
			return service.HandleSignal(contextFor(msg, signal.CorrelationID, signal.CausationID), signal)
		})
}

// contextFor attaches correlation metadata to the message context so every
// log line inside the unit of work carries it.
func contextFor(msg *message.Message, correlationID, causationID string) context.Context {
	ctx := msg.Context()
	if correlationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
	}
	if causationID != "" {
		ctx = logging.ContextWithCausationID(ctx, causationID)
	}
	return ctx
}
