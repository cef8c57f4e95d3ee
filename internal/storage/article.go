package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"newsline/internal/model"
)

type ArticleStorage struct {
	db *sqlx.DB
}

func NewArticleStorage(db *sqlx.DB) *ArticleStorage {
	return &ArticleStorage{db: db}
}

type dbArticle struct {
	ID             int64     `db:"id"`
	Title          string    `db:"title"`
	Content        string    `db:"content"`
	URL            string    `db:"url"`
	Source         string    `db:"source"`
	PublishedAt    time.Time `db:"published_at"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Summary        *string   `db:"summary"`
	Category       *string   `db:"category"`
	SentimentScore *float64  `db:"sentiment_score"`
	Keywords       *string   `db:"keywords"`
}

type upsertedArticle struct {
	dbArticle
	Inserted bool `db:"inserted"`
}

// Upsert writes the article keyed by URL and reports whether a new row was
// created. The unique constraint on url is the dedup signal: two runs racing
// on the same new URL resolve to one insert and one update instead of a
// duplicate row.
func (s *ArticleStorage) Upsert(ctx context.Context, article model.Article) (model.Article, bool, error) {
	const q = `
		INSERT INTO news_articles
			(title, content, url, source, published_at, summary, category, sentiment_score, keywords)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			source = EXCLUDED.source,
			published_at = EXCLUDED.published_at,
			summary = EXCLUDED.summary,
			category = EXCLUDED.category,
			sentiment_score = EXCLUDED.sentiment_score,
			keywords = EXCLUDED.keywords,
			updated_at = now()
		RETURNING id, title, content, url, source, published_at, created_at, updated_at,
			summary, category, sentiment_score, keywords, (xmax = 0) AS inserted`

	var row upsertedArticle
	err := s.db.QueryRowxContext(ctx, q,
		article.Title,
		article.Content,
		article.URL,
		article.Source,
		article.PublishedAt,
		article.Summary,
		article.Category,
		article.SentimentScore,
		article.Keywords,
	).StructScan(&row)
	if err != nil {
		return model.Article{}, false, fmt.Errorf("upsert article: %w", err)
	}

	return toModelArticle(row.dbArticle), row.Inserted, nil
}

func (s *ArticleStorage) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM news_articles WHERE url = $1)`, url,
	); err != nil {
		return false, fmt.Errorf("check article url: %w", err)
	}
	return exists, nil
}

func (s *ArticleStorage) ByID(ctx context.Context, id int64) (model.Article, error) {
	var row dbArticle
	err := s.db.GetContext(ctx, &row, `SELECT * FROM news_articles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("article by id: %w", err)
	}
	return toModelArticle(row), nil
}

func (s *ArticleStorage) ByIDs(ctx context.Context, ids []int64) ([]model.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM news_articles WHERE id IN (?) ORDER BY published_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("articles by ids: %w", err)
	}

	var rows []dbArticle
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("articles by ids: %w", err)
	}

	return lo.Map(rows, func(row dbArticle, _ int) model.Article { return toModelArticle(row) }), nil
}

// ArticleFilter narrows All. Zero values mean no filtering; Limit of 0 falls
// back to 100, matching the API default page size.
type ArticleFilter struct {
	Source   string
	Category string
	Skip     int
	Limit    int
}

func (s *ArticleStorage) All(ctx context.Context, filter ArticleFilter) ([]model.Article, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	query := `SELECT * FROM news_articles WHERE 1=1`
	var args []interface{}

	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY published_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var rows []dbArticle
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	return lo.Map(rows, func(row dbArticle, _ int) model.Article { return toModelArticle(row) }), nil
}

func toModelArticle(row dbArticle) model.Article {
	return model.Article{
		ID:             row.ID,
		Title:          row.Title,
		Content:        row.Content,
		URL:            row.URL,
		Source:         row.Source,
		PublishedAt:    row.PublishedAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		Summary:        row.Summary,
		Category:       row.Category,
		SentimentScore: row.SentimentScore,
		Keywords:       row.Keywords,
	}
}
