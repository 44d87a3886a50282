package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/domain"
)

// Bot wraps the Telegram Bot API client and the uploaded media cache
type Bot struct {
	api   *tgbotapi.BotAPI
	media domain.MediaRepository
	http  *http.Client
}

// New creates a bot for the configured token
func New(cfg config.TelegramConfig, media domain.MediaRepository) (*Bot, error) {
	return NewWithEndpoint(cfg, tgbotapi.APIEndpoint, media)
}

// NewWithEndpoint creates a bot against a custom API endpoint, e.g. a local Bot API server
func NewWithEndpoint(cfg config.TelegramConfig, endpoint string, media domain.MediaRepository) (*Bot, error) {
	client := &http.Client{Timeout: 60 * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = cfg.Debug

	log.Info().Str("username", api.Self.UserName).Msg("Telegram bot authorized")

	return &Bot{api: api, media: media, http: client}, nil
}

// API returns the underlying client
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// Username returns the bot's own username
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// SetWebhook registers the webhook URL, with an optional secret token echoed back in headers
func (b *Bot) SetWebhook(_ context.Context, url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)

	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook switches the bot back to getUpdates
func (b *Bot) DeleteWebhook(context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// Download fetches the content of a Telegram-hosted file
func (b *Bot) Download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// DownloadURL fetches a remote image, e.g. a generated variant before re-upload
func (b *Bot) DownloadURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
