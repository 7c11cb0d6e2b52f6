// Package repository provides persistence implementations for the auth
// service: users and sessions in PostgreSQL, verification codes in redis.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/atinyakov/chatdemo/internal/models"
)

// PostgresUserRepository stores app users and issued sessions.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a repository over db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// UpsertUser inserts phone with chatUserName, or refreshes last_login_at of
// the existing row. The stored chat user name is returned either way.
func (r *PostgresUserRepository) UpsertUser(ctx context.Context, phone, chatUserName string) (models.AppUser, error) {
	u := models.AppUser{Phone: phone}
	err := r.DB.QueryRowContext(
		ctx,
		`INSERT INTO users (phone, chat_user_name) VALUES ($1, $2)
		 ON CONFLICT (phone) DO UPDATE SET last_login_at = now()
		 RETURNING chat_user_name`,
		phone, chatUserName,
	).Scan(&u.ChatUserName)
	if err != nil {
		return models.AppUser{}, err
	}
	return u, nil
}

// CreateSession records an issued token id.
func (r *PostgresUserRepository) CreateSession(ctx context.Context, id, chatUserName string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, chat_user_name, expires_at) VALUES ($1, $2, $3)`,
		id, chatUserName, expiresAt.Unix(),
	)
	return err
}
