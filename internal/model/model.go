// Package model defines the data structures shared across the newsline
// service: registered users, their channel subscriptions, aggregated articles
// and bookmarks, plus the raw feed item produced by the RSS parser.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

// Channel is one user's subscription to a Telegram channel. Alias is stored
// without the leading "@".
type Channel struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Alias     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayAlias returns the alias with the leading "@" users expect to see.
func (c Channel) DisplayAlias() string {
	return "@" + c.Alias
}

// NormalizeAlias strips the optional leading "@" from a channel alias.
func NormalizeAlias(alias string) string {
	return strings.TrimPrefix(strings.TrimSpace(alias), "@")
}

type Article struct {
	ID             int64
	Title          string
	Content        string
	URL            string
	Source         string
	PublishedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Summary        *string
	Category       *string
	SentimentScore *float64
	Keywords       *string
}

type Bookmark struct {
	ID        int64
	UserID    uuid.UUID
	ArticleID int64
	CreatedAt time.Time
}

// Item is a single parsed feed entry before normalization. DateValid reports
// whether the feed carried a parseable publication date; when it did not,
// Date holds the time the entry was parsed.
type Item struct {
	Title       string
	Link        string
	Description string
	Date        time.Time
	DateValid   bool
}
