package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campus-connect/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateOrGetChat(ctx context.Context, userID, friendID string) (models.Chat, bool, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	FindChat(ctx context.Context, userID, friendID string) (models.Chat, error)
	ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error)
	ListSummaries(ctx context.Context, userID string) ([]models.ChatSummary, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `id, user1_id, user2_id, last_message_id, created_at, updated_at`

// CreateOrGetChat creates a chat between two users if it does not already exist.
// The boolean reports whether this call inserted it.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, userID, friendID string) (models.Chat, bool, error) {
	if userID == friendID {
		return models.Chat{}, false, errors.New("cannot create chat with self")
	}
	user1, user2 := models.SortedPair(userID, friendID)

	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `INSERT INTO chats (id, user1_id, user2_id) VALUES ($1, $2, $3)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING `+chatColumns, uuid.NewString(), user1, user2)
	if err == nil {
		return chat, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, false, err
	}
	chat, err = r.FindChat(ctx, user1, user2)
	return chat, false, err
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// FindChat fetches the chat whose participant set is {userID, friendID}.
func (r *ChatRepo) FindChat(ctx context.Context, userID, friendID string) (models.Chat, error) {
	user1, user2 := models.SortedPair(userID, friendID)
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListChatsForUser returns every chat the user participates in.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := r.db.SelectContext(ctx, &chats, `SELECT `+chatColumns+` FROM chats
        WHERE user1_id=$1 OR user2_id=$1 ORDER BY created_at ASC`, userID)
	return chats, err
}

// ListSummaries returns the user's chats with the friend and last message, newest first.
func (r *ChatRepo) ListSummaries(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	query := `SELECT c.id, u.id AS friend_id, u.full_name, u.profile_image,
            COALESCE(m.content, '') AS last_message,
            COALESCE(m.created_at, c.updated_at) AS time
        FROM chats c
        JOIN users u ON u.id = CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END
        LEFT JOIN messages m ON m.id = c.last_message_id
        WHERE c.user1_id=$1 OR c.user2_id=$1
        ORDER BY c.updated_at DESC`
	summaries := []models.ChatSummary{}
	err := r.db.SelectContext(ctx, &summaries, query, userID)
	return summaries, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))`, chatID, userID)
	return exists, err
}
