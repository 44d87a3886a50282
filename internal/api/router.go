package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/smm-bot/internal/api/handler"
	customMiddleware "github.com/Rrens/smm-bot/internal/api/middleware"
	"github.com/Rrens/smm-bot/internal/config"
)

// Deps are the components the webhook surface drives
type Deps struct {
	Updates  handler.UpdateDispatcher
	Webhook  handler.WebhookRegistrar
	Notifier handler.Notifier
	Media    handler.MediaCache
	Schema   handler.SchemaManager
	DB       handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.InterserviceSecretHeader,
			customMiddleware.TelegramSecretHeader,
		},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	telegramAuth := customMiddleware.NewTelegramAuth(cfg.Telegram.WebhookSecret)
	interserviceAuth := customMiddleware.NewInterserviceAuth(cfg.Backend.InterserverSecret)

	telegramHandler := handler.NewTelegramHandler(deps.Updates, deps.Webhook, cfg.Telegram.WebhookSecret)
	notifyHandler := handler.NewNotifyHandler(deps.Notifier)

	prefix := cfg.Server.Prefix
	if prefix == "" {
		prefix = "/"
	}

	r.Route(prefix, func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		if deps.DB != nil {
			r.Get("/ready", handler.ReadyCheck(deps.DB))
		}

		r.With(telegramAuth.Authenticate).Post("/update", telegramHandler.Update)

		r.Group(func(r chi.Router) {
			r.Use(interserviceAuth.Authenticate)

			r.Post("/webhook/set", telegramHandler.SetWebhook)

			r.Post("/employee/notify/{event}", notifyHandler.Employee)
			r.Post("/video-cut/vizard/notify/generated", notifyHandler.VideoCutGenerated)
			r.Post("/notify/publication/{status}", notifyHandler.Publication)

			r.Post("/file/cache", handler.CacheFile(deps.Media))

			if deps.Schema != nil {
				r.Get("/table/create", handler.CreateTables(deps.Schema))
				r.Get("/table/drop", handler.DropTables(deps.Schema))
			}
		})
	})

	return r
}
