package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campus-connect/internal/middleware"
	"campus-connect/internal/models"
	"campus-connect/internal/observability"
	"campus-connect/internal/services"
)

// Inbound socket events.
const (
	EventJoinRoom    = "joinRoom"
	EventSetActive   = "setActive"
	EventSetInActive = "setInActive"
	EventSetInactive = "setInactive"
	EventAddMessage  = "addMessage"
	EventSearchUser  = "searchUser"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundFrame struct {
	Event string          `json:"event"`
	Ack   *int            `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data"`
}

type userPayload struct {
	UserID string `json:"userId"`
}

type joinRoomPayload struct {
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
}

type searchPayload struct {
	UserID     string `json:"userId"`
	SearchTerm string `json:"searchTerm"`
}

// SocketHandler upgrades GET /ws and dispatches inbound frames to the relay.
type SocketHandler struct {
	hub        *Hub
	relay      *Relay
	jwtSecret  string
	sendBuffer int
}

// NewSocketHandler constructs a SocketHandler. An empty jwtSecret disables
// token checks.
func NewSocketHandler(hub *Hub, relay *Relay, jwtSecret string, sendBuffer int) *SocketHandler {
	return &SocketHandler{hub: hub, relay: relay, jwtSecret: jwtSecret, sendBuffer: sendBuffer}
}

// Handle upgrades the connection and serves it until the peer goes away.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ws.handshake")

	userID := ""
	if h.jwtSecret != "" {
		token, err := middleware.TokenFromRequest(c.Request)
		if err == nil {
			var claims *middleware.Claims
			if claims, err = middleware.ParseToken(h.jwtSecret, token); err == nil {
				userID = claims.UserID
			}
		}
		if err != nil {
			span.End()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.End()
		return
	}
	meta := observability.ClientMetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	span.End()

	ctx = observability.WithRequestID(ctx, info.RequestID)
	client := NewClient(conn, info, h.sendBuffer)
	h.hub.Register(client)
	go client.writePump()
	publishConnEvent(ctx, info, "ws_connect", "")

	reason := h.readLoop(ctx, client)

	h.hub.Unregister(client)
	client.close()
	publishConnEvent(ctx, info, "ws_disconnect", reason)
}

func (h *SocketHandler) readLoop(ctx context.Context, client *Client) string {
	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishConnEvent(ctx, client.info, "ws_error", err.Error())
			}
			return err.Error()
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			client.Emit(models.EventAck, nil, gin.H{"success": false, "message": "malformed frame"})
			continue
		}
		observability.IncWSEvent("in", frame.Event)
		h.dispatch(ctx, client, frame)
	}
}

func (h *SocketHandler) dispatch(ctx context.Context, client *Client, frame inboundFrame) {
	ctx, span := tracer.Start(ctx, "ws."+frame.Event)
	defer span.End()

	reply := func(body gin.H) {
		if frame.Ack != nil {
			client.Emit(models.EventAck, frame.Ack, body)
		}
	}

	switch frame.Event {
	case EventJoinRoom:
		var p joinRoomPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			reply(failure(err))
			return
		}
		if err := authorize(client, p.UserID); err != nil {
			reply(failure(err))
			return
		}
		h.relay.JoinRoom(ctx, client, p.UserID, p.ChatID)
		reply(gin.H{"success": true})

	case EventSetActive:
		var p userPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			reply(failure(err))
			return
		}
		if err := authorize(client, p.UserID); err != nil {
			reply(failure(err))
			return
		}
		friends, err := h.relay.SetActive(ctx, client, p.UserID)
		if err != nil {
			reply(failure(err))
			return
		}
		reply(gin.H{"success": true, "message": "Marked active and joined chat rooms", "activeFriends": friends})

	case EventSetInActive, EventSetInactive:
		var p userPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			reply(failure(err))
			return
		}
		if err := authorize(client, p.UserID); err != nil {
			reply(failure(err))
			return
		}
		lastSeen, err := h.relay.SetInactive(ctx, client, p.UserID)
		if err != nil {
			reply(failure(err))
			return
		}
		reply(gin.H{"success": true, "lastSeen": lastSeen})

	case EventAddMessage:
		var req models.SendMessageRequest
		if err := decodePayload(frame.Data, &req); err != nil {
			reply(failure(err))
			return
		}
		if err := authorize(client, req.UserID); err != nil {
			reply(failure(err))
			return
		}
		view, err := h.relay.SendMessage(ctx, client, req)
		if err != nil {
			reply(failure(err))
			return
		}
		reply(gin.H{"success": true, "data": view})

	case EventSearchUser:
		var p searchPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			reply(failure(err))
			return
		}
		if err := authorize(client, p.UserID); err != nil {
			reply(failure(err))
			return
		}
		users, err := h.relay.SearchUsers(ctx, p.UserID, p.SearchTerm)
		if err != nil {
			reply(failure(err))
			return
		}
		reply(gin.H{"success": true, "users": users})

	default:
		reply(gin.H{"success": false, "message": fmt.Sprintf("unknown event %q", frame.Event)})
	}
}

func decodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing payload: %w", services.ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed payload: %w", services.ErrValidation)
	}
	return nil
}

// authorize checks the acting user against the authenticated one. Without
// authentication every id is accepted.
func authorize(client *Client, userID string) error {
	if client.info.UserID != "" && client.info.UserID != userID {
		return fmt.Errorf("acting as another user: %w", services.ErrUnauthorized)
	}
	return nil
}

func failure(err error) gin.H {
	if !services.IsClassified(err) && !errors.Is(err, context.Canceled) {
		log.Printf("websocket handler error: %v", err)
	}
	return gin.H{"success": false, "message": services.PublicMessage(err)}
}
