package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"newsline/internal/model"
)

type ChannelStorage struct {
	db *sqlx.DB
}

func NewChannelStorage(db *sqlx.DB) *ChannelStorage {
	return &ChannelStorage{db: db}
}

type dbChannel struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Alias     string    `db:"channel_alias"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *ChannelStorage) Add(ctx context.Context, userID uuid.UUID, alias string) (model.Channel, error) {
	var row dbChannel
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO user_channels (user_id, channel_alias)
		 VALUES ($1, $2)
		 RETURNING id, user_id, channel_alias, created_at, updated_at`,
		userID, model.NormalizeAlias(alias),
	).StructScan(&row)
	if err != nil {
		return model.Channel{}, fmt.Errorf("add channel: %w", err)
	}

	return toModelChannel(row), nil
}

func (s *ChannelStorage) ByUser(ctx context.Context, userID uuid.UUID) ([]model.Channel, error) {
	var rows []dbChannel
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM user_channels WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("channels by user: %w", err)
	}

	return lo.Map(rows, func(row dbChannel, _ int) model.Channel { return toModelChannel(row) }), nil
}

func (s *ChannelStorage) ByID(ctx context.Context, id uuid.UUID) (model.Channel, error) {
	var row dbChannel
	err := s.db.GetContext(ctx, &row, `SELECT * FROM user_channels WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Channel{}, ErrNotFound
	}
	if err != nil {
		return model.Channel{}, fmt.Errorf("channel by id: %w", err)
	}
	return toModelChannel(row), nil
}

func (s *ChannelStorage) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func toModelChannel(row dbChannel) model.Channel {
	return model.Channel{
		ID:        row.ID,
		UserID:    row.UserID,
		Alias:     row.Alias,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
