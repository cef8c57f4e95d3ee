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

type BookmarkStorage struct {
	db *sqlx.DB
}

func NewBookmarkStorage(db *sqlx.DB) *BookmarkStorage {
	return &BookmarkStorage{db: db}
}

type dbBookmark struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ArticleID int64     `db:"article_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Add is idempotent: bookmarking an already-bookmarked article returns the
// existing row thanks to the unique (user_id, article_id) index.
func (s *BookmarkStorage) Add(ctx context.Context, userID uuid.UUID, articleID int64) (model.Bookmark, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, article_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}

	var row dbBookmark
	err = s.db.GetContext(ctx, &row,
		`SELECT * FROM bookmarks WHERE user_id = $1 AND article_id = $2`,
		userID, articleID)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}

	return toModelBookmark(row), nil
}

func (s *BookmarkStorage) Remove(ctx context.Context, userID uuid.UUID, articleID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND article_id = $2`,
		userID, articleID)
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BookmarkStorage) ByUser(ctx context.Context, userID uuid.UUID) ([]model.Bookmark, error) {
	var rows []dbBookmark
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM bookmarks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bookmarks by user: %w", err)
	}

	return lo.Map(rows, func(row dbBookmark, _ int) model.Bookmark { return toModelBookmark(row) }), nil
}

func toModelBookmark(row dbBookmark) model.Bookmark {
	return model.Bookmark{
		ID:        row.ID,
		UserID:    row.UserID,
		ArticleID: row.ArticleID,
		CreatedAt: row.CreatedAt,
	}
}
