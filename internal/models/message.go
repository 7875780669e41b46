package models

import (
	"time"

	"github.com/lib/pq"
)

// MessageType selects which payload field of a message is populated.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageFile  MessageType = "file"
)

// ParseMessageType validates a wire type.
func ParseMessageType(raw string) (MessageType, bool) {
	switch t := MessageType(raw); t {
	case MessageText, MessageImage, MessageVideo, MessageFile:
		return t, true
	}
	return "", false
}

// Message represents a chat message. Only SeenBy changes after creation.
type Message struct {
	ID        string         `db:"id" json:"_id"`
	ChatID    string         `db:"chat_id" json:"chat"`
	SenderID  string         `db:"sender_id" json:"-"`
	Type      MessageType    `db:"type" json:"type"`
	Content   *string        `db:"content" json:"content,omitempty"`
	Image     *string        `db:"image" json:"image,omitempty"`
	Video     *string        `db:"video" json:"video,omitempty"`
	File      *string        `db:"file" json:"file,omitempty"`
	SeenBy    pq.StringArray `db:"seen_by" json:"seenBy"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// NewMessage builds an unsaved message with value stored in the field for t.
func NewMessage(chatID, senderID string, t MessageType, value string) Message {
	msg := Message{ChatID: chatID, SenderID: senderID, Type: t, SeenBy: pq.StringArray{}}
	v := value
	switch t {
	case MessageText:
		msg.Content = &v
	case MessageImage:
		msg.Image = &v
	case MessageVideo:
		msg.Video = &v
	case MessageFile:
		msg.File = &v
	}
	return msg
}

// Value returns the payload regardless of which field carries it.
func (m Message) Value() string {
	for _, p := range []*string{m.Content, m.Image, m.Video, m.File} {
		if p != nil {
			return *p
		}
	}
	return ""
}

// SenderRef is the populated sender of a materialized message.
type SenderRef struct {
	ID           string `db:"sender_id" json:"_id"`
	FullName     string `db:"sender_full_name" json:"fullName"`
	ProfileImage string `db:"sender_profile_image" json:"profileImage,omitempty"`
}

// MessageView is a message with its sender populated.
type MessageView struct {
	Message
	Sender SenderRef `json:"sender"`
}

// SendMessageRequest is the addMessage payload.
type SendMessageRequest struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
}
