package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"newsline/internal/config"
	"newsline/internal/fetcher"
	"newsline/internal/reporter"
	"newsline/internal/server"
	"newsline/internal/source"
	"newsline/internal/storage"
	"newsline/internal/summary"
)

func main() {
	cfg := config.Get()

	if cfg.JWTSecret == "" {
		log.Printf("[ERROR] jwt_secret is required")
		return
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Printf("[ERROR] failed to connect to db: %v", err)
		return
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := storage.Bootstrap(ctx, db); err != nil {
		log.Printf("[ERROR] failed to bootstrap schema: %v", err)
		return
	}

	var (
		userStorage     = storage.NewUserStorage(db)
		channelStorage  = storage.NewChannelStorage(db)
		articleStorage  = storage.NewArticleStorage(db)
		bookmarkStorage = storage.NewBookmarkStorage(db)
	)

	var enricher summary.Enricher
	switch {
	case cfg.AIType == "ollama":
		if cfg.AIBaseURL == "" {
			log.Printf("[ERROR] ai_base_url is required when ai_type is \"ollama\"")
			return
		}
		enricher = summary.NewOllamaEnricher(cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout)
		log.Printf("[INFO] using Ollama enricher (model: %s)", cfg.AIModel)
	case cfg.AIType == "openai" && cfg.AIKey != "":
		enricher = summary.NewOpenAIEnricher(cfg.AIBaseURL, cfg.AIKey, cfg.AIModel, cfg.AITimeout)
		log.Printf("[INFO] using OpenAI-compatible enricher (model: %s)", cfg.AIModel)
	default:
		enricher = summary.Disabled{}
		log.Printf("[WARN] no AI credentials provided, enrichment disabled")
	}

	var ingestReporter *reporter.Reporter
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != 0 {
		botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("[ERROR] failed to create botAPI: %v", err)
			return
		}
		ingestReporter = reporter.New(botAPI, cfg.TelegramAdminChatID)
	}

	ingest := fetcher.New(
		articleStorage,
		enricher,
		ingestReporter,
		func(alias string) fetcher.Source {
			return source.NewRSSSource(alias, cfg.FeedProxyBaseURL, cfg.FetchTimeout)
		},
		fetcher.Config{
			Workers:      cfg.IngestWorkers,
			MaxArticles:  cfg.MaxArticles,
			MaxRetries:   cfg.MaxRetries,
			EntryDelay:   cfg.EntryDelay,
			StaggerDelay: cfg.StaggerDelay,
		},
	)

	api := server.New(
		userStorage,
		channelStorage,
		articleStorage,
		bookmarkStorage,
		ingest,
		cfg.JWTSecret,
		cfg.TokenTTL,
	)

	go func(ctx context.Context) {
		if err := ingest.Start(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[ERROR] failed to run ingest pool: %v", err)
				return
			}

			log.Printf("[INFO] ingest pool stopped")
		}
	}(ctx)

	go func(ctx context.Context) {
		<-ctx.Done()
		if err := api.Shutdown(context.Background()); err != nil {
			log.Printf("[ERROR] failed to shut down http server: %v", err)
		}
	}(ctx)

	if err := api.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[ERROR] failed to run http server: %v", err)
	}
}
