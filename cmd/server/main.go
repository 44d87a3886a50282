package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/api"
	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/bot"
	"github.com/Rrens/smm-bot/internal/brief"
	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/gateway"
	"github.com/Rrens/smm-bot/internal/llm"
	"github.com/Rrens/smm-bot/internal/llm/anthropic"
	"github.com/Rrens/smm-bot/internal/llm/deepseek"
	"github.com/Rrens/smm-bot/internal/llm/gemini"
	"github.com/Rrens/smm-bot/internal/llm/ollama"
	"github.com/Rrens/smm-bot/internal/llm/openai"
	"github.com/Rrens/smm-bot/internal/logging"
	"github.com/Rrens/smm-bot/internal/repository/postgres"
	"github.com/Rrens/smm-bot/internal/repository/redis"
	"github.com/Rrens/smm-bot/internal/security"
	"github.com/Rrens/smm-bot/internal/service"
	"github.com/Rrens/smm-bot/internal/telegram"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.Logging, os.Getenv("ENV")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("prefix", cfg.Server.Prefix).
		Msg("Starting SMM bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	var encryptor *security.Encryptor
	if secret := cfg.Security.TokenEncryptionSecret; secret != "" {
		encryptor, err = security.NewEncryptorFromSecret(secret)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize token encryption")
		}
	} else {
		log.Warn().Msg("Token encryption secret is empty, tokens are stored in plain text")
	}

	sessions := postgres.NewSessionRepository(db.Pool, encryptor)
	alerts := postgres.NewAlertRepository(db.Pool)
	chats := postgres.NewLLMChatRepository(db.Pool)
	mediaCache := postgres.NewMediaRepository(db.Pool)

	var (
		storage dialog.Storage = dialog.NewMemoryStorage()
		guard   gateway.FloodGuard
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		storage = redis.NewStackStorage(redisClient, cfg.Dialog.StackTTL)
		guard = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	} else {
		log.Warn().Msg("Redis disabled, dialog stacks are kept in memory")
	}

	tg, err := telegram.New(cfg.Telegram, mediaCache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}

	clients := backend.New(cfg.Backend, sessions)
	notifier := service.NewNotificationService(sessions, alerts, tg)

	b := bot.New(bot.Deps{
		Sessions:      sessions,
		Alerts:        alerts,
		Chats:         chats,
		Accounts:      clients.Accounts,
		Employees:     clients.Employees,
		Organizations: clients.Organizations,
		Content:       clients.Content,
		LLM:           newLLMRouter(cfg.LLM),
		Files:         tg,
		Storage:       storage,
		Messenger:     tg,
		Notifier:      notifier,
		Brief: brief.Options{
			Model:        cfg.LLM.Model,
			SummaryModel: cfg.LLM.SummaryModel,
			Threshold:    cfg.LLM.ContextThreshold,
		},
		Documents: bot.Documents{
			AgreementURL:      cfg.Bot.AgreementURL,
			PrivacyURL:        cfg.Bot.PrivacyURL,
			DataProcessingURL: cfg.Bot.DataProcessingURL,
		},
		BotUsername: botUsername(cfg.Bot, tg),
	})

	gw := gateway.New(b, guard, cfg.Queue)
	gw.Start(ctx)
	b.SetScheduler(gw)

	router := api.NewRouter(cfg, api.Deps{
		Updates:  gw,
		Webhook:  tg,
		Notifier: notifier,
		Media:    mediaCache,
		Schema:   postgres.NewSchema(cfg.Database.DSN()),
		DB:       db,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	if cfg.Telegram.UseWebhook() {
		if err := tg.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			log.Error().Err(err).Msg("Failed to register webhook")
		}
	} else {
		go func() {
			if err := tg.Poll(ctx, cfg.Telegram.PollTimeout, gw); err != nil {
				log.Error().Err(err).Msg("Long polling stopped")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	gw.Stop()

	log.Info().Msg("Server stopped")
}

// newLLMRouter registers every provider that has credentials
func newLLMRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider, llm.Request{
		Model:           cfg.Model,
		MaxTokens:       cfg.MaxTokens,
		ThinkingTokens:  cfg.ThinkingTokens,
		Temperature:     cfg.Temperature,
		EnableWebSearch: cfg.EnableWebSearch,
	})

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)

	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("Registering Ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}
	if cfg.OpenAI.APIKey != "" {
		router.RegisterProvider(openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}
	if cfg.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.RegisterProvider(deepseek.NewProvider(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model))
	}
	if cfg.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	} else {
		log.Warn().Msg("Gemini API Key is empty, skipping registration")
	}
	return router
}

func botUsername(cfg config.BotConfig, tg *telegram.Bot) string {
	if cfg.Username != "" {
		return cfg.Username
	}
	return tg.Username()
}
