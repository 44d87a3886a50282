package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
)

// ParseUpdate decodes a webhook body
func ParseUpdate(body []byte) (tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return update, fmt.Errorf("failed to decode update: %w", err)
	}
	return update, nil
}

// ToEvent converts an update into a dialog event.
// Updates the bot does not handle (edits, channel posts, group joins) return false.
func ToEvent(update tgbotapi.Update) (*dialog.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.Message == nil || cq.From == nil {
			return nil, false
		}
		return &dialog.Event{
			ChatID:   cq.Message.Chat.ID,
			UserID:   cq.From.ID,
			Username: cq.From.UserName,
			Callback: &dialog.Callback{
				ID:        cq.ID,
				Data:      cq.Data,
				MessageID: cq.Message.MessageID,
			},
		}, true

	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil || !msg.Chat.IsPrivate() {
			return nil, false
		}
		ev := &dialog.Event{
			ChatID:  msg.Chat.ID,
			Message: toMessage(msg, true),
		}
		if msg.From != nil {
			ev.UserID = msg.From.ID
			ev.Username = msg.From.UserName
		}
		return ev, true
	}
	return nil, false
}

// toMessage flattens a Telegram message. A forwarded message keeps its
// content under Forward so the extractor can tag it.
func toMessage(msg *tgbotapi.Message, withReply bool) *dialog.Message {
	content := &dialog.Message{
		ID:      msg.MessageID,
		Text:    msg.Text,
		Caption: msg.Caption,
	}

	if msg.Voice != nil {
		content.Voice = &dialog.File{
			FileID:   msg.Voice.FileID,
			UniqueID: msg.Voice.FileUniqueID,
			MimeType: msg.Voice.MimeType,
			Duration: msg.Voice.Duration,
			Size:     msg.Voice.FileSize,
		}
	}
	if msg.Audio != nil {
		content.Audio = &dialog.File{
			FileID:   msg.Audio.FileID,
			UniqueID: msg.Audio.FileUniqueID,
			FileName: msg.Audio.FileName,
			MimeType: msg.Audio.MimeType,
			Duration: msg.Audio.Duration,
			Size:     msg.Audio.FileSize,
		}
	}
	if len(msg.Photo) > 0 {
		largest := msg.Photo[len(msg.Photo)-1]
		content.Photo = &dialog.File{
			FileID:   largest.FileID,
			UniqueID: largest.FileUniqueID,
			Size:     largest.FileSize,
		}
	}
	if msg.Document != nil {
		content.Document = &dialog.File{
			FileID:   msg.Document.FileID,
			UniqueID: msg.Document.FileUniqueID,
			FileName: msg.Document.FileName,
			MimeType: msg.Document.MimeType,
			Size:     msg.Document.FileSize,
		}
	}

	out := content
	if msg.ForwardDate != 0 {
		out = &dialog.Message{ID: msg.MessageID, Forward: content}
	} else if msg.IsCommand() {
		out.Command = "/" + msg.Command()
	}

	if withReply && msg.ReplyToMessage != nil {
		out.ReplyTo = toMessage(msg.ReplyToMessage, false)
	}
	return out
}

// Dispatcher consumes converted events
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *dialog.Event) error
}

// Poll receives updates with getUpdates until ctx is cancelled.
// Used when no webhook URL is configured.
func (b *Bot) Poll(ctx context.Context, timeout int, d Dispatcher) error {
	if err := b.DeleteWebhook(ctx); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := b.api.GetUpdatesChan(u)

	log.Info().Msg("Telegram long polling started")
	for {
		select {
		case update := <-updates:
			ev, ok := ToEvent(update)
			if !ok {
				continue
			}
			if err := d.Dispatch(ctx, ev); err != nil {
				log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("Failed to dispatch update")
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		}
	}
}
