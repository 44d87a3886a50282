package bot

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
	"github.com/Rrens/smm-bot/internal/service"
)

const (
	textInsufficientBalance = "Not enough funds on the organization balance. Top it up in the organization menu."
	textPermissionDenied    = "You do not have permission for this action."
	textNoImageData         = "Could not generate an image for this request. Try rephrasing it."
	textVoiceTooLong        = "Voice messages longer than 5 minutes are not supported."
	textMalformed           = "The assistant answered in an unexpected way. Please try again."
	textNotFound            = "This item no longer exists."
	textTransient           = "The service is temporarily unavailable. Please try again in a minute."
	textUnexpected          = "Something went wrong. We have been notified; press /start to continue."
)

// handleError applies the error policy: known failures become a notice and
// the user stays on the current screen; anything else is logged as fatal
// and flags the session so the main menu offers recovery.
func (b *Bot) handleError(ctx context.Context, m *dialog.Manager, err error) error {
	var verr *security.ValidationError
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		b.notice(ctx, m, textInsufficientBalance)
	case errors.Is(err, domain.ErrPermissionDenied):
		b.notice(ctx, m, textPermissionDenied)
	case errors.Is(err, domain.ErrNoImageData):
		b.notice(ctx, m, textNoImageData)
	case errors.Is(err, domain.ErrVoiceTooLong):
		b.notice(ctx, m, textVoiceTooLong)
	case errors.Is(err, domain.ErrMalformedLLMResponse):
		b.notice(ctx, m, textMalformed)
	case errors.Is(err, domain.ErrNotFound):
		b.notice(ctx, m, textNotFound)
	case errors.Is(err, service.ErrNoNetworkSelected), errors.Is(err, service.ErrInvalidComment):
		b.notice(ctx, m, err.Error())
	case errors.As(err, &verr):
		b.notice(ctx, m, verr.Message)
	case errors.Is(err, domain.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Int64("chat_id", m.ChatID()).Str("state", string(m.State())).Msg("Collaborator unavailable")
		b.notice(ctx, m, textTransient)
	default:
		log.Error().Err(err).
			Int64("chat_id", m.ChatID()).
			Str("state", string(m.State())).
			Bool("callback", m.Event().IsCallback()).
			Msg("Unexpected dialog error")
		b.flagRecovery(ctx, m)
		b.notice(ctx, m, textUnexpected)
	}
	return nil
}

// notice tells the user about a failure without leaving the screen
func (b *Bot) notice(ctx context.Context, m *dialog.Manager, text string) {
	if m.Event().IsCallback() {
		m.Answer(text, true)
		m.Show(dialog.ShowNoUpdate)
		return
	}
	if err := m.Send(ctx, text); err != nil {
		log.Warn().Err(err).Int64("chat_id", m.ChatID()).Msg("Failed to send error notice")
		m.Show(dialog.ShowNoUpdate)
	}
}

func (b *Bot) flagRecovery(ctx context.Context, m *dialog.Manager) {
	s := sessionOf(m)
	if s.ID == 0 || s.ShowErrorRecovery {
		return
	}
	if err := b.deps.Sessions.Update(ctx, s.ID, domain.SessionUpdate{ShowErrorRecovery: domain.Ptr(true)}); err != nil {
		log.Warn().Err(err).Int64("chat_id", m.ChatID()).Msg("Failed to flag error recovery")
		return
	}
	s.ShowErrorRecovery = true
}
