package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"him-messenger/internal/db"
	"him-messenger/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	FindDirectChat(ctx context.Context, userID, otherID int) (models.Chat, error)
	CreateChat(ctx context.Context, name string, isGroup bool, createdBy int, participants []int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID int) (bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(database *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: database}
}

// FindDirectChat returns the existing non-group chat that both users
// participate in, or ErrChatNotFound.
func (r *ChatRepo) FindDirectChat(ctx context.Context, userID, otherID int) (models.Chat, error) {
	var chat models.Chat
	query := `SELECT c.id, c.name, c.is_group, c.created_by, c.created_at FROM chats c
        WHERE NOT c.is_group
        AND EXISTS (SELECT 1 FROM chat_participants cp1 WHERE cp1.chat_id = c.id AND cp1.user_id = $1)
        AND EXISTS (SELECT 1 FROM chat_participants cp2 WHERE cp2.chat_id = c.id AND cp2.user_id = $2)
        LIMIT 1`
	err := r.db.GetContext(ctx, &chat, query, userID, otherID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// CreateChat inserts the chat row and its participant rows in one
// transaction. Membership must be recorded here or FindDirectChat can never
// match the chat again.
func (r *ChatRepo) CreateChat(ctx context.Context, name string, isGroup bool, createdBy int, participants []int) (models.Chat, error) {
	var chat models.Chat
	err := db.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &chat,
			`INSERT INTO chats (name, is_group, created_by) VALUES ($1, $2, $3)
             RETURNING id, name, is_group, created_by, created_at`,
			name, isGroup, createdBy); err != nil {
			return err
		}

		seen := map[int]struct{}{}
		for _, userID := range append(participants, createdBy) {
			if _, ok := seen[userID]; ok {
				continue
			}
			seen[userID] = struct{}{}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)
                 ON CONFLICT (chat_id, user_id) DO NOTHING`,
				chat.ID, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}
