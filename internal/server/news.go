package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"newsline/internal/model"
	"newsline/internal/storage"
)

type newsArticleResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	URL            string    `json:"url"`
	Source         string    `json:"source"`
	PublishedDate  time.Time `json:"published_date"`
	AISummary      *string   `json:"ai_summary"`
	Category       *string   `json:"category"`
	SentimentScore *float64  `json:"sentiment_score"`
	Keywords       *string   `json:"keywords"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// listArticles returns stored articles, newest first, with optional
// source/category filters and skip/limit pagination.
func (s *Server) listArticles(c echo.Context) error {
	filter := storage.ArticleFilter{
		Source:   c.QueryParam("source"),
		Category: c.QueryParam("category"),
	}
	filter.Skip, _ = strconv.Atoi(c.QueryParam("skip"))
	if limit := c.QueryParam("limit"); limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}

	articles, err := s.articles.All(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, lo.Map(articles, func(a model.Article, _ int) newsArticleResponse {
		return toNewsArticleResponse(a)
	}))
}

func (s *Server) articleByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("article_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	article, err := s.articles.ByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Article not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, toNewsArticleResponse(article))
}

func toNewsArticleResponse(a model.Article) newsArticleResponse {
	return newsArticleResponse{
		ID:             a.ID,
		Title:          a.Title,
		Content:        a.Content,
		URL:            a.URL,
		Source:         a.Source,
		PublishedDate:  a.PublishedAt,
		AISummary:      a.Summary,
		Category:       a.Category,
		SentimentScore: a.SentimentScore,
		Keywords:       a.Keywords,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
