package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

const (
	RoutingFollowEvents = "follow_events"
	RoutingChatEvents   = "chat_events"
	RoutingWSEvents     = "ws_events"
)

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

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

// Emit publishes a domain event under eventType.eventName, taking the trace id
// from ctx.
func Emit(ctx context.Context, eventType, eventName string, payload interface{}) {
	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	_ = PublishEvent(ctx, eventType+"."+eventName, EventEnvelope{
		EventType: eventType,
		EventName: eventName,
		Payload:   payload,
	}, BuildHeaders(RequestIDFromContext(ctx), traceID))
}

type requestIDKey struct{}

// WithRequestID stores the request id for downstream event headers.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
