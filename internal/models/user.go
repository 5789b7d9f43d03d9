package models

import "time"

// User is a registered HIM Messenger account. PasswordHash never leaves the
// service; it is excluded from every JSON payload.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	CustomID     string    `db:"custom_id" json:"custom_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	HimCoins     int       `db:"him_coins" json:"him_coins"`
	IsPremium    bool      `db:"is_premium" json:"is_premium"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserProfile is the subset of user columns merged into message payloads.
type UserProfile struct {
	Username   string `db:"username" json:"username"`
	CustomID   string `db:"custom_id" json:"custom_id"`
	IsPremium  bool   `db:"is_premium" json:"is_premium"`
	IsVerified bool   `db:"is_verified" json:"is_verified"`
}
