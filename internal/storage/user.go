package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"newsline/internal/model"
)

type UserStorage struct {
	db *sqlx.DB
}

func NewUserStorage(db *sqlx.DB) *UserStorage {
	return &UserStorage{db: db}
}

type dbUser struct {
	ID             uuid.UUID `db:"id"`
	Username       string    `db:"username"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
}

func (s *UserStorage) Create(ctx context.Context, username, email, hashedPassword string) (model.User, error) {
	var row dbUser
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, email, hashed_password)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, hashed_password, created_at`,
		username, email, hashedPassword,
	).StructScan(&row)
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return toModelUser(row), nil
}

func (s *UserStorage) ByUsername(ctx context.Context, username string) (model.User, error) {
	return s.one(ctx, `SELECT * FROM users WHERE username = $1`, username)
}

func (s *UserStorage) ByEmail(ctx context.Context, email string) (model.User, error) {
	return s.one(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

func (s *UserStorage) one(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var row dbUser
	err := s.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return toModelUser(row), nil
}

func toModelUser(row dbUser) model.User {
	return model.User{
		ID:             row.ID,
		Username:       row.Username,
		Email:          row.Email,
		HashedPassword: row.HashedPassword,
		CreatedAt:      row.CreatedAt,
	}
}
