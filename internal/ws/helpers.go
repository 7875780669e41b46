package ws

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus-connect/internal/observability"
)

const wsRoutingKey = observability.RoutingWSEvents + ".presence"

func newConnID() string {
	return uuid.NewString()
}

// publishConnEvent reports a connection lifecycle event (ws_connect,
// ws_disconnect, ws_error) to metrics and the broker.
func publishConnEvent(ctx context.Context, info ConnInfo, event, reason string) {
	observability.IncWSEvent("conn", event)

	durationMs := int64(0)
	if !info.ConnectedAt.IsZero() {
		durationMs = time.Since(info.ConnectedAt).Milliseconds()
	}
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "presence",
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMs,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.EventEnvelope{
		EventType: observability.RoutingWSEvents,
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
