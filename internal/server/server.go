// Package server exposes the REST API: registration and JWT login, channel
// subscriptions that trigger ingestion runs, the aggregated article feed,
// and bookmarks.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"newsline/internal/model"
	"newsline/internal/storage"
)

type UserStore interface {
	Create(ctx context.Context, username, email, hashedPassword string) (model.User, error)
	ByUsername(ctx context.Context, username string) (model.User, error)
	ByEmail(ctx context.Context, email string) (model.User, error)
}

type ChannelStore interface {
	Add(ctx context.Context, userID uuid.UUID, alias string) (model.Channel, error)
	ByUser(ctx context.Context, userID uuid.UUID) ([]model.Channel, error)
}

type ArticleStore interface {
	All(ctx context.Context, filter storage.ArticleFilter) ([]model.Article, error)
	ByID(ctx context.Context, id int64) (model.Article, error)
	ByIDs(ctx context.Context, ids []int64) ([]model.Article, error)
}

type BookmarkStore interface {
	Add(ctx context.Context, userID uuid.UUID, articleID int64) (model.Bookmark, error)
	Remove(ctx context.Context, userID uuid.UUID, articleID int64) error
	ByUser(ctx context.Context, userID uuid.UUID) ([]model.Bookmark, error)
}

// IngestQueue dispatches background ingestion runs; triggers never wait for
// the run to finish.
type IngestQueue interface {
	Enqueue(alias string, maxArticles int)
	EnqueueAll(aliases []string, maxArticles int)
}

type Server struct {
	echo      *echo.Echo
	users     UserStore
	channels  ChannelStore
	articles  ArticleStore
	bookmarks BookmarkStore
	ingest    IngestQueue

	jwtSecret []byte
	tokenTTL  time.Duration
}

func New(
	users UserStore,
	channels ChannelStore,
	articles ArticleStore,
	bookmarks BookmarkStore,
	ingest IngestQueue,
	jwtSecret string,
	tokenTTL time.Duration,
) *Server {
	s := &Server{
		echo:      echo.New(),
		users:     users,
		channels:  channels,
		articles:  articles,
		bookmarks: bookmarks,
		ingest:    ingest,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}

	s.echo.HideBanner = true
	s.echo.Validator = &requestValidator{validate: validator.New()}
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.Logger())

	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	auth := s.echo.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)

	feed := s.echo.Group("/feed", s.requireAuth)
	feed.POST("/", s.createChannel)
	feed.GET("/", s.channelsWithArticles)
	feed.POST("/update", s.updateAllChannels)
	feed.GET("/bookmarks", s.listBookmarks)
	feed.POST("/bookmarks/:article_id", s.addBookmark)
	feed.DELETE("/bookmarks/:article_id", s.removeBookmark)

	news := s.echo.Group("/api/news")
	news.GET("/articles/", s.listArticles)
	news.GET("/articles/:article_id", s.articleByID)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
