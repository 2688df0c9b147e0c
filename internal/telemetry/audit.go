package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Audit actions emitted by the chat core.
const (
	ActionRoomCreated     = "room_created"
	ActionRoomDeleted     = "room_deleted"
	ActionMessageAppended = "message_appended"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter records room and message mutations on the audit stream.
// A nil emitter or publisher drops events, so callers emit unconditionally.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Action string `json:"action"`
	RoomID int64  `json:"room_id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit record. Failures are logged, never surfaced.
func (e *AuditEmitter) Emit(ctx context.Context, action string, roomID int64, detail, requestID string, userID *string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload: AuditPayload{
			Action: action,
			RoomID: roomID,
			Detail: detail,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("audit publish failed")
	}
}
