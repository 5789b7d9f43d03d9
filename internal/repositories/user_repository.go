package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"github.com/jmoiron/sqlx"

	"him-messenger/internal/db"
	"him-messenger/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username or email already exists")
)

const userColumns = `id, username, custom_id, email, password_hash, him_coins, is_premium, is_verified, is_admin, created_at`

// UserRepository abstracts user persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, userID int) (models.User, error)
	GetProfile(ctx context.Context, userID int) (models.UserProfile, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(database *sqlx.DB) *UserRepo {
	return &UserRepo{db: database}
}

// CreateUser inserts a new user inside one transaction: uniqueness check,
// custom id assignment and insert either all succeed or none do. New
// accounts start with 100 him_coins.
func (r *UserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	var user models.User
	err := db.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var taken bool
		query := `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1 OR ($2 <> '' AND email=$2))`
		if err := tx.GetContext(ctx, &taken, query, username, email); err != nil {
			return err
		}
		if taken {
			return ErrUserExists
		}

		customID, err := freeCustomID(ctx, tx)
		if err != nil {
			return err
		}

		return tx.GetContext(ctx, &user,
			`INSERT INTO users (username, password_hash, custom_id, email, him_coins)
             VALUES ($1, $2, $3, $4, 100)
             RETURNING `+userColumns,
			username, passwordHash, customID, email)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// freeCustomID draws "USER" + 6 digit ids until one is unclaimed.
func freeCustomID(ctx context.Context, tx *sqlx.Tx) (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		candidate := fmt.Sprintf("USER%06d", rand.Intn(1000000))
		var taken bool
		if err := tx.GetContext(ctx, &taken, `SELECT EXISTS(SELECT 1 FROM users WHERE custom_id=$1)`, candidate); err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.New("exhausted custom id attempts")
}

// GetByUsername fetches a user by unique username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByID fetches the current user row by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetProfile fetches the display fields merged into message payloads.
func (r *UserRepo) GetProfile(ctx context.Context, userID int) (models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.GetContext(ctx, &profile,
		`SELECT username, custom_id, is_premium, is_verified FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, ErrUserNotFound
	}
	return profile, err
}
