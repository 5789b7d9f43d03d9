package models

import "time"

// Message is a chat message. Messages are immutable once stored.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageWithSender is a message row joined with the sender's current
// display fields.
type MessageWithSender struct {
	Message
	Username   string `db:"username" json:"username"`
	CustomID   string `db:"custom_id" json:"custom_id"`
	IsPremium  bool   `db:"is_premium" json:"is_premium"`
	IsVerified bool   `db:"is_verified" json:"is_verified"`
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type    string             `json:"type"`
	Message *MessageWithSender `json:"message,omitempty"`
}
