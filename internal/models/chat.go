package models

import (
	"encoding/json"
	"time"
)

// Chat represents a private chat between exactly two users.
// User1ID < User2ID always holds.
type Chat struct {
	ID            string    `db:"id" json:"_id"`
	User1ID       string    `db:"user1_id" json:"-"`
	User2ID       string    `db:"user2_id" json:"-"`
	LastMessageID *string   `db:"last_message_id" json:"lastMessage,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Participants returns the stored pair.
func (c Chat) Participants() []string {
	return []string{c.User1ID, c.User2ID}
}

// HasParticipant reports whether userID is one of the two participants.
func (c Chat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other returns the participant that is not userID, or "" when userID is not
// a participant.
func (c Chat) Other(userID string) string {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	}
	return ""
}

// MarshalJSON adds the participants array.
func (c Chat) MarshalJSON() ([]byte, error) {
	type alias Chat
	return json.Marshal(struct {
		alias
		Participants []string `json:"participants"`
	}{alias: alias(c), Participants: c.Participants()})
}

// ChatSummary provides API-friendly view of a chat for a user.
type ChatSummary struct {
	ChatID       string    `db:"id" json:"chatId"`
	FriendID     string    `db:"friend_id" json:"friendId"`
	FullName     string    `db:"full_name" json:"fullName"`
	ProfileImage string    `db:"profile_image" json:"profileImage,omitempty"`
	LastMessage  string    `db:"last_message" json:"lastMessage"`
	Time         time.Time `db:"time" json:"time"`
}
