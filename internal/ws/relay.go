package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"campus-connect/internal/models"
	"campus-connect/internal/observability"
	"campus-connect/internal/repositories"
	"campus-connect/internal/services"
)

var tracer = otel.Tracer("campus-connect/ws")

// Relay handles the socket-originated operations and fans their events out
// through the hub.
type Relay struct {
	hub      *Hub
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	now      func() time.Time
}

// NewRelay builds a Relay on top of hub.
func NewRelay(hub *Hub, users repositories.UserRepository, chats repositories.ChatRepository, messages repositories.MessageRepository) *Relay {
	return &Relay{hub: hub, users: users, chats: chats, messages: messages, now: time.Now}
}

// JoinRoom is best effort: an unknown chat, a caller outside the chat or a
// missing peer leaves the client untouched.
func (r *Relay) JoinRoom(ctx context.Context, client *Client, userID, chatID string) {
	ctx, span := tracer.Start(ctx, "relay.join_room")
	defer span.End()

	chat, err := r.chats.GetChat(ctx, chatID)
	if err != nil {
		if !errors.Is(err, repositories.ErrChatNotFound) {
			log.Printf("join room chat=%s: %v", chatID, err)
		}
		return
	}
	otherID := chat.Other(userID)
	if otherID == "" {
		return
	}
	if _, err := r.users.GetUser(ctx, otherID); err != nil {
		return
	}
	r.hub.Join(models.RoomKey(userID, otherID), client)
}

// SetActive marks userID online, tells everyone, joins the rooms of chats
// whose peer is online and returns those peers.
func (r *Relay) SetActive(ctx context.Context, client *Client, userID string) ([]models.ActiveFriend, error) {
	ctx, span := tracer.Start(ctx, "relay.set_active")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", services.ErrValidation)
	}
	if err := r.users.SetActive(ctx, userID); err != nil {
		return nil, userErr(userID, err)
	}
	r.hub.BroadcastAll(models.EventNewUserOnline, userID)

	chats, peers, err := r.chatPeers(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := []models.ActiveFriend{}
	for _, chat := range chats {
		friend, ok := peers[chat.Other(userID)]
		if !ok || !friend.Active {
			continue
		}
		room := models.RoomKey(userID, friend.ID)
		r.hub.Join(room, client)
		r.hub.BroadcastRoomExcept(room, models.EventUserActive, models.PresenceEvent{UserID: userID, ChatID: chat.ID}, client)
		active = append(active, models.ActiveFriend{
			ID:           friend.ID,
			FullName:     friend.FullName,
			ProfileImage: friend.ProfileImage,
			ChatID:       chat.ID,
		})
	}
	return active, nil
}

// SetInactive marks userID offline and notifies every chat room regardless of
// whether the peer is online. It returns the recorded last seen time.
func (r *Relay) SetInactive(ctx context.Context, client *Client, userID string) (time.Time, error) {
	ctx, span := tracer.Start(ctx, "relay.set_inactive")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if userID == "" {
		return time.Time{}, fmt.Errorf("userId is required: %w", services.ErrValidation)
	}
	lastSeen := r.now().UTC()
	if err := r.users.SetInactive(ctx, userID, lastSeen); err != nil {
		return time.Time{}, userErr(userID, err)
	}
	r.hub.BroadcastAll(models.EventNewUserOffline, userID)

	chats, err := r.chats.ListChatsForUser(ctx, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("list chats: %w", err)
	}
	for _, chat := range chats {
		otherID := chat.Other(userID)
		if otherID == "" {
			continue
		}
		r.hub.BroadcastRoomExcept(models.RoomKey(userID, otherID), models.EventUserInactive, models.PresenceEvent{
			UserID:   userID,
			ChatID:   chat.ID,
			LastSeen: &lastSeen,
		}, client)
	}
	return lastSeen, nil
}

// SendMessage persists a message and broadcasts it to the friend room,
// the sender's own connections included.
func (r *Relay) SendMessage(ctx context.Context, client *Client, req models.SendMessageRequest) (models.MessageView, error) {
	ctx, span := tracer.Start(ctx, "relay.send_message")
	defer span.End()
	span.SetAttributes(attribute.String("chat.id", req.ChatID), attribute.String("message.type", req.Type))

	if req.Type == "" || req.Value == "" || req.UserID == "" || req.ChatID == "" {
		return models.MessageView{}, fmt.Errorf("missing required fields: %w", services.ErrValidation)
	}
	msgType, ok := models.ParseMessageType(req.Type)
	if !ok {
		return models.MessageView{}, fmt.Errorf("invalid message type %q: %w", req.Type, services.ErrValidation)
	}

	chat, err := r.chats.GetChat(ctx, req.ChatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.MessageView{}, fmt.Errorf("chat %s: %w", req.ChatID, services.ErrNotFound)
	}
	if err != nil {
		return models.MessageView{}, fmt.Errorf("load chat: %w", err)
	}
	receiverID := chat.Other(req.UserID)
	if receiverID == "" {
		return models.MessageView{}, fmt.Errorf("sender is not a chat participant: %w", services.ErrValidation)
	}
	if _, err := r.users.GetUser(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.MessageView{}, fmt.Errorf("receiver %s: %w", receiverID, services.ErrNotFound)
		}
		return models.MessageView{}, fmt.Errorf("load receiver: %w", err)
	}

	saved, err := r.messages.CreateChatMessage(ctx, models.NewMessage(chat.ID, req.UserID, msgType, req.Value))
	if err != nil {
		return models.MessageView{}, fmt.Errorf("store message: %w", err)
	}
	view, err := r.messages.GetMessageView(ctx, saved.ID)
	if err != nil {
		return models.MessageView{}, fmt.Errorf("load message: %w", err)
	}

	room := models.RoomKey(req.UserID, receiverID)
	r.hub.Join(room, client)
	r.hub.BroadcastRoom(room, models.EventNewMessage, models.NewMessageEvent{
		SenderID:    req.UserID,
		ReceiverID:  receiverID,
		ChatID:      chat.ID,
		Type:        msgType,
		Value:       view.Value(),
		MessageData: view,
	})

	observability.IncMessageSent(string(msgType))
	observability.Emit(ctx, observability.RoutingChatEvents, "message_sent", map[string]interface{}{
		"chat_id":     chat.ID,
		"message_id":  view.ID,
		"sender_id":   req.UserID,
		"receiver_id": receiverID,
		"type":        msgType,
	})
	return view, nil
}

// SearchUsers matches display names case-insensitively, skipping the caller,
// admins and anyone the caller already follows or requested.
func (r *Relay) SearchUsers(ctx context.Context, userID, term string) ([]models.UserSummary, error) {
	ctx, span := tracer.Start(ctx, "relay.search_users")
	defer span.End()

	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", services.ErrValidation)
	}
	users, err := r.users.SearchByName(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (r *Relay) chatPeers(ctx context.Context, userID string) ([]models.Chat, map[string]models.User, error) {
	chats, err := r.chats.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list chats: %w", err)
	}
	ids := make([]string, 0, len(chats))
	for _, chat := range chats {
		ids = append(ids, chat.Other(userID))
	}
	users, err := r.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load chat peers: %w", err)
	}
	peers := make(map[string]models.User, len(users))
	for _, u := range users {
		peers[u.ID] = u
	}
	return chats, peers, nil
}

func userErr(userID string, err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("user %s: %w", userID, services.ErrNotFound)
	}
	return fmt.Errorf("update user %s: %w", userID, err)
}
