package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Bootstrap creates the schema if it does not exist yet. The unique index on
// news_articles.url is what makes the article upsert safe under concurrent
// ingestion runs; the unique (user_id, article_id) index keeps bookmarks
// idempotent.
func Bootstrap(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(100) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			hashed_password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS user_channels (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			channel_alias VARCHAR(100) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT now(),
			updated_at TIMESTAMP NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_channels_user_id ON user_channels (user_id)`,
		`CREATE TABLE IF NOT EXISTS news_articles (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			url VARCHAR(255) NOT NULL UNIQUE,
			source VARCHAR(100) NOT NULL,
			published_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT now(),
			updated_at TIMESTAMP NOT NULL DEFAULT now(),
			summary TEXT,
			category VARCHAR(50),
			sentiment_score DOUBLE PRECISION,
			keywords VARCHAR(255)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_news_articles_source ON news_articles (source)`,
		`CREATE INDEX IF NOT EXISTS idx_news_articles_category ON news_articles (category)`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			article_id BIGINT NOT NULL REFERENCES news_articles (id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT now(),
			UNIQUE (user_id, article_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	return nil
}
