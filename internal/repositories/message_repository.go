package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"campus-connect/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateChatMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessageView(ctx context.Context, messageID string) (models.MessageView, error)
	ListMessageViews(ctx context.Context, chatID string) ([]models.MessageView, error)
	MarkSeen(ctx context.Context, messageID, userID string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, type, content, image, video, file, seen_by, created_at`

// messageViewRow is a message joined with its sender.
type messageViewRow struct {
	models.Message
	SenderFullName     string `db:"sender_full_name"`
	SenderProfileImage string `db:"sender_profile_image"`
}

func (r messageViewRow) view() models.MessageView {
	return models.MessageView{
		Message: r.Message,
		Sender: models.SenderRef{
			ID:           r.SenderID,
			FullName:     r.SenderFullName,
			ProfileImage: r.SenderProfileImage,
		},
	}
}

const messageViewQuery = `SELECT m.id, m.chat_id, m.sender_id, m.type, m.content, m.image, m.video, m.file, m.seen_by, m.created_at,
        u.full_name AS sender_full_name, u.profile_image AS sender_profile_image
    FROM messages m JOIN users u ON u.id = m.sender_id`

// CreateChatMessage stores a message and makes it the chat's last message in
// one transaction.
func (r *MessageRepo) CreateChatMessage(ctx context.Context, msg models.Message) (created models.Message, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if msg.SeenBy == nil {
		msg.SeenBy = pq.StringArray{}
	}
	err = tx.GetContext(ctx, &created, `INSERT INTO messages (id, chat_id, sender_id, type, content, image, video, file, seen_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+messageColumns,
		uuid.NewString(), msg.ChatID, msg.SenderID, msg.Type, msg.Content, msg.Image, msg.Video, msg.File, msg.SeenBy)
	if err != nil {
		return models.Message{}, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE chats SET last_message_id=$2, updated_at=$3 WHERE id=$1`, created.ChatID, created.ID, time.Now())
	if err = requireRow(res, err, ErrChatNotFound); err != nil {
		return models.Message{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return created, nil
}

// GetMessageView retrieves a single message with its sender populated.
func (r *MessageRepo) GetMessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	var row messageViewRow
	err := r.db.GetContext(ctx, &row, messageViewQuery+` WHERE m.id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageView{}, ErrMessageNotFound
	}
	if err != nil {
		return models.MessageView{}, err
	}
	return row.view(), nil
}

// ListMessageViews returns the chat's messages oldest first.
func (r *MessageRepo) ListMessageViews(ctx context.Context, chatID string) ([]models.MessageView, error) {
	var rows []messageViewRow
	if err := r.db.SelectContext(ctx, &rows, messageViewQuery+` WHERE m.chat_id=$1 ORDER BY m.created_at ASC`, chatID); err != nil {
		return nil, err
	}
	views := make([]models.MessageView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}

// MarkSeen adds userID to the message's seen_by set.
func (r *MessageRepo) MarkSeen(ctx context.Context, messageID, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET seen_by = array_append(seen_by, $2)
        WHERE id=$1 AND NOT ($2 = ANY(seen_by))`, messageID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM messages WHERE id=$1)`, messageID); err != nil {
		return err
	}
	if !exists {
		return ErrMessageNotFound
	}
	return nil
}
