package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(publisherMock)
	emitter := NewAuditEmitter(pub, "audit.logs", "campus-connect", "test")
	userID := "u1"

	var captured AuditEnvelope
	pub.On("Publish", mock.Anything, "audit.logs", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "follow approved", "req-1", &userID)

	pub.AssertExpectations(t)
	require.NotNil(t, captured.UserID)
	assert.Equal(t, "u1", *captured.UserID)
	assert.Equal(t, "audit_log", captured.EventType)
	assert.Equal(t, "follow approved", captured.Payload.Text)
	assert.Equal(t, "campus-connect", captured.Service)
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "x", "", nil)
	})
}
