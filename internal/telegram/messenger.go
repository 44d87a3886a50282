package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
)

const (
	maxMessageLength = 4096
	maxCaptionLength = 1024
)

func toMarkup(rows [][]dialog.InlineButton) tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		if len(buttons) > 0 {
			markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
		}
	}
	return markup
}

func isParseError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "can't parse entities")
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// Send posts a screen and returns the id of the message carrying its keyboard
func (b *Bot) Send(ctx context.Context, chatID int64, r dialog.Rendered) (int, error) {
	if r.MediaKey() != "" {
		return b.sendMedia(ctx, chatID, r)
	}
	return b.sendText(chatID, r.Text, r.Keyboard, r.DisableWebPreview)
}

func (b *Bot) sendText(chatID int64, text string, keyboard [][]dialog.InlineButton, noPreview bool) (int, error) {
	if text == "" {
		text = "…"
	}

	parts := splitMessage(text)
	var lastID int
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = noPreview
		if i == len(parts)-1 && len(keyboard) > 0 {
			msg.ReplyMarkup = toMarkup(keyboard)
		}

		sent, err := b.api.Send(msg)
		if isParseError(err) {
			// Retry without markup if the text is not valid HTML
			msg.ParseMode = ""
			sent, err = b.api.Send(msg)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to send message: %w", err)
		}
		lastID = sent.MessageID
	}
	return lastID, nil
}

func (b *Bot) sendMedia(ctx context.Context, chatID int64, r dialog.Rendered) (int, error) {
	var file tgbotapi.RequestFileData
	cacheName := ""
	switch {
	case r.MediaFileID != "":
		file = tgbotapi.FileID(r.MediaFileID)
	case r.MediaURL != "":
		file = tgbotapi.FileURL(r.MediaURL)
	default:
		cacheName = filepath.Base(r.MediaPath)
		if id := b.lookupMedia(ctx, cacheName); id != "" {
			file = tgbotapi.FileID(id)
		} else {
			file = tgbotapi.FilePath(r.MediaPath)
		}
	}

	caption := r.Text
	longText := utf8.RuneCountInString(caption) > maxCaptionLength
	if longText {
		caption = ""
	}

	var markup any
	if !longText && len(r.Keyboard) > 0 {
		markup = toMarkup(r.Keyboard)
	}

	var cfg tgbotapi.Chattable
	if r.MediaVideo {
		video := tgbotapi.NewVideo(chatID, file)
		video.Caption = caption
		video.ParseMode = tgbotapi.ModeHTML
		video.ReplyMarkup = markup
		cfg = video
	} else {
		photo := tgbotapi.NewPhoto(chatID, file)
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = markup
		cfg = photo
	}

	sent, err := b.api.Send(cfg)
	if isParseError(err) {
		sent, err = b.api.Send(withoutParseMode(cfg))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to send media: %w", err)
	}

	if cacheName != "" && len(sent.Photo) > 0 {
		b.cacheMedia(ctx, cacheName, sent.Photo[len(sent.Photo)-1].FileID)
	}

	if longText {
		// The text does not fit a caption: it follows the photo and carries the keyboard
		return b.sendText(chatID, r.Text, r.Keyboard, r.DisableWebPreview)
	}
	return sent.MessageID, nil
}

func withoutParseMode(cfg tgbotapi.Chattable) tgbotapi.Chattable {
	switch c := cfg.(type) {
	case tgbotapi.VideoConfig:
		c.ParseMode = ""
		return c
	case tgbotapi.PhotoConfig:
		c.ParseMode = ""
		return c
	}
	return cfg
}

func (b *Bot) lookupMedia(ctx context.Context, name string) string {
	if b.media == nil {
		return ""
	}
	id, err := b.media.LookupMedia(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("filename", name).Msg("Failed to look up cached media")
		return ""
	}
	return id
}

func (b *Bot) cacheMedia(ctx context.Context, name, fileID string) {
	if b.media == nil {
		return
	}
	if err := b.media.CacheMedia(ctx, name, fileID); err != nil {
		log.Warn().Err(err).Str("filename", name).Msg("Failed to cache media")
	}
}

// Edit updates a screen in place. Screens that cannot be edited return dialog.ErrCannotEdit.
func (b *Bot) Edit(_ context.Context, chatID int64, messageID int, r dialog.Rendered) error {
	markup := toMarkup(r.Keyboard)

	var cfg tgbotapi.Chattable
	if r.MediaKey() != "" {
		if utf8.RuneCountInString(r.Text) > maxCaptionLength {
			return dialog.ErrCannotEdit
		}
		edit := tgbotapi.NewEditMessageCaption(chatID, messageID, r.Text)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.ReplyMarkup = &markup
		cfg = edit
	} else {
		if utf8.RuneCountInString(r.Text) > maxMessageLength || r.Text == "" {
			return dialog.ErrCannotEdit
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, r.Text, markup)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = r.DisableWebPreview
		cfg = edit
	}

	_, err := b.api.Request(cfg)
	if isNotModified(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// ClearKeyboard removes the inline keyboard of an older screen
func (b *Bot) ClearKeyboard(_ context.Context, chatID int64, messageID int) error {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	_, err := b.api.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty))
	if err != nil && !isNotModified(err) {
		return fmt.Errorf("failed to clear keyboard: %w", err)
	}
	return nil
}

// Delete removes a message
func (b *Bot) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, optionally with a toast
func (b *Bot) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// SendText posts a plain notification outside any dialog
func (b *Bot) SendText(_ context.Context, chatID int64, text string) error {
	_, err := b.sendText(chatID, text, nil, true)
	return err
}

// splitMessage cuts text into Telegram-sized parts, preferring line breaks
func splitMessage(text string) []string {
	if utf8.RuneCountInString(text) <= maxMessageLength {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		end := maxMessageLength
		if end >= len(runes) {
			parts = append(parts, string(runes))
			break
		}
		if nl := lastIndexRune(runes[:end], '\n'); nl > maxMessageLength/2 {
			end = nl + 1
		}
		parts = append(parts, string(runes[:end]))
		runes = runes[end:]
	}
	return parts
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
