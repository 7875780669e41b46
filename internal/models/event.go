package models

import "time"

// Outbound socket event names.
const (
	EventNewUserOnline  = "newUserOnline"
	EventNewUserOffline = "newUserOffline"
	EventUserActive     = "userActive"
	EventUserInactive   = "userInactive"
	EventNewMessage     = "newMessage"
	EventAck            = "ack"
)

// SocketEvent is the frame exchanged over the websocket in both directions.
type SocketEvent struct {
	Event string `json:"event"`
	Ack   *int   `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// PresenceEvent is emitted to a friend room when a participant changes state.
type PresenceEvent struct {
	UserID   string     `json:"userId"`
	ChatID   string     `json:"chatId"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// NewMessageEvent is emitted to a friend room for every persisted message.
type NewMessageEvent struct {
	SenderID    string      `json:"senderId"`
	ReceiverID  string      `json:"receiverId"`
	ChatID      string      `json:"chatId"`
	Type        MessageType `json:"type"`
	Value       string      `json:"value"`
	MessageData MessageView `json:"messageData"`
}
