package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/api/response"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/gateway"
	"github.com/Rrens/smm-bot/internal/telegram"
)

const maxUpdateSize = 1 << 20

// UpdateDispatcher queues converted updates on their chat lanes
type UpdateDispatcher interface {
	Dispatch(ctx context.Context, ev *dialog.Event) error
}

// WebhookRegistrar points the messenger at our update endpoint
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, url, secret string) error
}

// TelegramHandler handles messenger updates and webhook registration
type TelegramHandler struct {
	updates   UpdateDispatcher
	registrar WebhookRegistrar
	secret    string
}

// NewTelegramHandler creates a new telegram handler. secret is the
// webhook secret registered when a request does not name one.
func NewTelegramHandler(updates UpdateDispatcher, registrar WebhookRegistrar, secret string) *TelegramHandler {
	return &TelegramHandler{updates: updates, registrar: registrar, secret: secret}
}

// Update accepts one messenger update. Processing is asynchronous;
// a 200 tells the messenger not to redeliver.
func (h *TelegramHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateSize))
	if err != nil {
		response.BadRequest(w, "failed to read body")
		return
	}

	update, err := telegram.ParseUpdate(body)
	if err != nil {
		response.BadRequest(w, "invalid update")
		return
	}

	ev, ok := telegram.ToEvent(update)
	if !ok {
		response.OK(w, map[string]string{"status": "ignored"})
		return
	}

	err = h.updates.Dispatch(r.Context(), ev)
	switch {
	case errors.Is(err, gateway.ErrFlood):
		response.OK(w, map[string]string{"status": "dropped"})
	case err != nil:
		log.Error().Err(err).Int64("chat_id", ev.ChatID).Int("update_id", update.UpdateID).Msg("Failed to queue update")
		response.Error(w, http.StatusServiceUnavailable, "failed to queue update")
	default:
		response.OK(w, map[string]string{"status": "queued"})
	}
}

type setWebhookRequest struct {
	URL    string `json:"url" validate:"required,url"`
	Secret string `json:"secret"`
}

// SetWebhook registers the messenger webhook URL
func (h *TelegramHandler) SetWebhook(w http.ResponseWriter, r *http.Request) {
	var input setWebhookRequest
	if !decode(w, r, &input) {
		return
	}
	if input.Secret == "" {
		input.Secret = h.secret
	}

	if err := h.registrar.SetWebhook(r.Context(), input.URL, input.Secret); err != nil {
		log.Error().Err(err).Str("url", input.URL).Msg("Failed to set webhook")
		response.Error(w, http.StatusBadGateway, "failed to set webhook")
		return
	}

	log.Info().Str("url", input.URL).Msg("Webhook registered")
	response.OK(w, map[string]string{"url": input.URL})
}
