package models

import "time"

// Chat is a conversation, either a direct chat between two users or a named
// group.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsGroup   bool      `db:"is_group" json:"is_group"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatParticipant records membership of a user in a chat. Direct-chat
// deduplication matches on these rows, so chat creation always writes them.
type ChatParticipant struct {
	ChatID int `db:"chat_id" json:"chat_id"`
	UserID int `db:"user_id" json:"user_id"`
}
