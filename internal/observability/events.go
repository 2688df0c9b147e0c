package observability

import (
	"context"
	"time"
)

// Publisher is the sink for service events. A nil default publisher drops
// events, so components publish unconditionally.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error
}

var defaultPublisher Publisher

// SetPublisher wires the event sink at startup.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// EventEnvelope wraps events published on the topic exchange.
type EventEnvelope struct {
	EventType  string      `json:"event_type"`
	EventName  string      `json:"event_name"`
	OccurredAt string      `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEventEnvelope stamps an envelope with the publish time.
func NewEventEnvelope(eventType, eventName string, payload interface{}) EventEnvelope {
	return EventEnvelope{
		EventType:  eventType,
		EventName:  eventName,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}
}

// BuildHeaders collects correlation ids for the AMQP message headers.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

// PublishEvent sends an event through the configured sink, counting failures.
func PublishEvent(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	if err := defaultPublisher.PublishJSON(ctx, routingKey, message, headers); err != nil {
		IncAMQPPublishError()
		return err
	}
	return nil
}
