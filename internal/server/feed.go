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

type createChannelRequest struct {
	ChannelAlias string `json:"channel_alias" validate:"required,min=2,max=100"`
}

type channelResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ChannelAlias string    `json:"channel_alias"`
	CreatedAt    time.Time `json:"created_at"`
}

// createChannel subscribes the user to a channel and dispatches one
// ingestion run for it. The run is fire-and-forget: the response does not
// wait for articles to appear.
func (s *Server) createChannel(c echo.Context) error {
	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user := currentUser(c)

	channel, err := s.channels.Add(c.Request().Context(), user.ID, req.ChannelAlias)
	if err != nil {
		return err
	}

	s.ingest.Enqueue(channel.Alias, 0)

	return c.JSON(http.StatusCreated, toChannelResponse(channel))
}

type channelFeedResponse struct {
	ID           string             `json:"id"`
	ChannelAlias string             `json:"channel_alias"`
	Articles     []articleInChannel `json:"articles"`
}

type articleInChannel struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Link          string    `json:"link"`
	PublishedDate time.Time `json:"published_date"`
	AISummary     *string   `json:"ai_summary"`
	Category      *string   `json:"category"`
}

// channelsWithArticles lists the user's channels, each with its stored
// articles. Channels subscribed twice show up once.
func (s *Server) channelsWithArticles(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	channels, err := s.channels.ByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	unique := lo.UniqBy(channels, func(ch model.Channel) string { return ch.Alias })

	response := make([]channelFeedResponse, 0, len(unique))
	for _, channel := range unique {
		articles, err := s.articles.All(ctx, storage.ArticleFilter{Source: channel.DisplayAlias()})
		if err != nil {
			return err
		}

		response = append(response, channelFeedResponse{
			ID:           channel.ID.String(),
			ChannelAlias: channel.DisplayAlias(),
			Articles: lo.Map(articles, func(a model.Article, _ int) articleInChannel {
				return articleInChannel{
					ID:            a.ID,
					Title:         a.Title,
					Description:   a.Content,
					Link:          a.URL,
					PublishedDate: a.PublishedAt,
					AISummary:     a.Summary,
					Category:      a.Category,
				}
			}),
		})
	}

	return c.JSON(http.StatusOK, response)
}

// updateAllChannels dispatches a staggered ingestion run for every channel
// the user is subscribed to.
func (s *Server) updateAllChannels(c echo.Context) error {
	user := currentUser(c)

	channels, err := s.channels.ByUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No channels found for user.")
	}

	aliases := lo.Uniq(lo.Map(channels, func(ch model.Channel, _ int) string { return ch.Alias }))
	s.ingest.EnqueueAll(aliases, 0)

	return c.JSON(http.StatusOK, map[string]string{"message": "Update started for all channels."})
}

type bookmarkResponse struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID int64     `json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) addBookmark(c echo.Context) error {
	articleID, err := strconv.ParseInt(c.Param("article_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	ctx := c.Request().Context()
	user := currentUser(c)

	if _, err := s.articles.ByID(ctx, articleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Article not found")
		}
		return err
	}

	bookmark, err := s.bookmarks.Add(ctx, user.ID, articleID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, bookmarkResponse{
		ID:        bookmark.ID,
		UserID:    bookmark.UserID.String(),
		ArticleID: bookmark.ArticleID,
		CreatedAt: bookmark.CreatedAt,
	})
}

func (s *Server) removeBookmark(c echo.Context) error {
	articleID, err := strconv.ParseInt(c.Param("article_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	user := currentUser(c)

	if err := s.bookmarks.Remove(c.Request().Context(), user.ID, articleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bookmark not found.")
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listBookmarks(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	bookmarks, err := s.bookmarks.ByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(bookmarks) == 0 {
		return c.JSON(http.StatusOK, []newsArticleResponse{})
	}

	articles, err := s.articles.ByIDs(ctx, lo.Map(bookmarks, func(b model.Bookmark, _ int) int64 { return b.ArticleID }))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, lo.Map(articles, func(a model.Article, _ int) newsArticleResponse {
		return toNewsArticleResponse(a)
	}))
}

func toChannelResponse(channel model.Channel) channelResponse {
	return channelResponse{
		ID:           channel.ID.String(),
		UserID:       channel.UserID.String(),
		ChannelAlias: channel.DisplayAlias(),
		CreatedAt:    channel.CreatedAt,
	}
}
