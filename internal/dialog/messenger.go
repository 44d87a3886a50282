package dialog

import (
	"context"
	"errors"
)

// ErrCannotEdit is returned by a Messenger when an edit is impossible and a new message is needed
var ErrCannotEdit = errors.New("message cannot be edited")

// InlineButton is a rendered keyboard button
type InlineButton struct {
	Text         string
	CallbackData string
	URL          string
}

// Rendered is a provider-neutral screen
type Rendered struct {
	Text     string
	Keyboard [][]InlineButton
	// At most one media source is set
	MediaURL    string
	MediaFileID string
	MediaPath   string
	MediaVideo  bool
	// DisableWebPreview hides link previews in text messages
	DisableWebPreview bool
}

// MediaKey identifies the attached media; empty when there is none
func (r *Rendered) MediaKey() string {
	switch {
	case r.MediaFileID != "":
		return "file:" + r.MediaFileID
	case r.MediaURL != "":
		return "url:" + r.MediaURL
	case r.MediaPath != "":
		return "path:" + r.MediaPath
	}
	return ""
}

// Messenger delivers rendered screens to a chat
type Messenger interface {
	Send(ctx context.Context, chatID int64, r Rendered) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, r Rendered) error
	ClearKeyboard(ctx context.Context, chatID int64, messageID int) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}
