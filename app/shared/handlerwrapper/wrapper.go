// Package handlerwrapper adapts typed event handlers to watermill handler funcs.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/d2avids/rso-sub000/app/eventbus"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result is an outgoing message produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// WrapTransformingTyped decodes the incoming JSON payload into T, calls handler
// and encodes every returned Result as an outgoing message routed by topic metadata.
//
// Payloads that cannot be decoded are logged and acked; handler errors nack the
// message so the router retries it.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	handler func(context.Context, *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		ctx := attr.WithCorrelationID(msg.Context(), correlationID)

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.WarnContext(ctx, "Dropping message with undecodable payload",
				attr.String("handler", handlerName),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			span.RecordError(err)
			return nil, nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%s: %w", handlerName, err)
		}

		out := make([]*message.Message, 0, len(results))
		for _, r := range results {
			outMsg, err := newMessage(r, correlationID)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("%s: %w", handlerName, err)
			}
			out = append(out, outMsg)
		}
		return out, nil
	}
}

func newMessage(r Result, correlationID string) (*message.Message, error) {
	if r.Topic == "" {
		return nil, fmt.Errorf("result has no topic")
	}
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", r.Topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	maps.Copy(msg.Metadata, r.Metadata)
	msg.Metadata.Set(eventbus.TopicMetadataKey, r.Topic)
	if correlationID != "" {
		middleware.SetCorrelationID(correlationID, msg)
	}
	return msg, nil
}
