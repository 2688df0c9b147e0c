package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trade-chat-service/internal/mocks"
	"trade-chat-service/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit_log.chat", mock.Anything).Return(nil).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.chat", "trade-chat-service", "test")
	userID := "buyer-1"
	emitter.Emit(context.Background(), telemetry.ActionRoomCreated, 7, "item=item-1", "req-1", &userID)

	publisher.AssertExpectations(t)
	require.Len(t, publisher.Calls, 1)
	envelope, ok := publisher.Calls[0].Arguments.Get(2).(telemetry.AuditEnvelope)
	require.True(t, ok)
	assert.Equal(t, 1, envelope.SchemaVersion)
	assert.Equal(t, "audit_log", envelope.EventType)
	assert.Equal(t, "trade-chat-service", envelope.Service)
	assert.Equal(t, "req-1", envelope.RequestID)
	require.NotNil(t, envelope.UserID)
	assert.Equal(t, "buyer-1", *envelope.UserID)
	assert.Equal(t, telemetry.ActionRoomCreated, envelope.Payload.Action)
	assert.Equal(t, int64(7), envelope.Payload.RoomID)
	assert.Equal(t, "item=item-1", envelope.Payload.Detail)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit_log.chat", mock.Anything).Return(assert.AnError).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.chat", "trade-chat-service", "test")
	emitter.Emit(context.Background(), telemetry.ActionRoomDeleted, 7, "", "req-2", nil)

	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), telemetry.ActionMessageAppended, 1, "", "req-3", nil)
}
