package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/api/response"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SchemaManager creates and drops the bot's tables
type SchemaManager interface {
	Create(ctx context.Context) error
	Drop(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including database connectivity
func ReadyCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// CreateTables applies the schema migrations
func CreateTables(schema SchemaManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := schema.Create(r.Context()); err != nil {
			log.Error().Err(err).Msg("Failed to create tables")
			response.InternalError(w, "failed to create tables")
			return
		}
		response.OK(w, map[string]string{"message": "tables created"})
	}
}

// DropTables rolls every migration back
func DropTables(schema SchemaManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := schema.Drop(r.Context()); err != nil {
			log.Error().Err(err).Msg("Failed to drop tables")
			response.InternalError(w, "failed to drop tables")
			return
		}
		log.Warn().Msg("All tables dropped")
		response.OK(w, map[string]string{"message": "tables dropped"})
	}
}
