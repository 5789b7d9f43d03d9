package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"him-messenger/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, chatID, senderID int, content string) (models.Message, error)
	ListByChat(ctx context.Context, chatID, limit int) ([]models.MessageWithSender, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(database *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: database}
}

// Create stores a message; created_at is assigned by the database.
func (r *MessageRepo) Create(ctx context.Context, chatID, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
         RETURNING id, chat_id, sender_id, content, created_at`,
		chatID, senderID, content)
	return msg, err
}

// ListByChat returns up to limit messages for the chat, oldest first, each
// joined with the sender's current display fields.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID, limit int) ([]models.MessageWithSender, error) {
	query := `SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at,
            u.username, u.custom_id, u.is_premium, u.is_verified
        FROM messages m
        JOIN users u ON m.sender_id = u.id
        WHERE m.chat_id = $1
        ORDER BY m.created_at ASC
        LIMIT $2`
	var msgs []models.MessageWithSender
	err := r.db.SelectContext(ctx, &msgs, query, chatID, limit)
	return msgs, err
}
