package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
)

type authData struct {
	Login     string `json:"login"`
	AccountID int64  `json:"account_id"`

	InvalidCredentials bool `json:"invalid_credentials"`
	InvalidCode        bool `json:"invalid_code"`
}

func (d *authData) clearFlags() {
	d.InvalidCredentials = false
	d.InvalidCode = false
}

func (d *authData) data() dialog.Data {
	return dialog.Data{
		"login":               escape(d.Login),
		"invalid_credentials": d.InvalidCredentials,
		"invalid_code":        d.InvalidCode,
	}
}

func (b *Bot) authDialog() *dialog.Dialog {
	authGetter := func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
		return dialog.DataOf[authData](m).data(), nil
	}
	cancel := dialog.Button{ID: "cancel", Text: dialog.Const("✖️ Cancel"), OnClick: b.enterHome}

	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State:     AuthLogin,
				Getter:    authGetter,
				Text:      dialog.Const("🔑 Sign in with an existing account.\n\nSend your login."),
				Keyboard:  cancel,
				OnMessage: b.onLoginInput,
			},
			{
				State:  AuthPassword,
				Getter: authGetter,
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_credentials", Text: dialog.Const("❌ Wrong login or password.\n")},
					dialog.Format("Login: <b>{login}</b>\nNow send your password. The message will be deleted."),
				),
				Keyboard: dialog.Column{
					dialog.SwitchTo{ID: "change_login", Text: dialog.Const("✏️ Change login"), To: AuthLogin},
					cancel,
				},
				OnMessage: b.onPasswordInput,
			},
			{
				State:  AuthTwoFA,
				Getter: authGetter,
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_code", Text: dialog.Const("❌ Wrong code.\n")},
					dialog.Const("Send the code from your authenticator app."),
				),
				Keyboard:  cancel,
				OnMessage: b.onTwoFAInput,
			},
		},
	}
}

func (b *Bot) onLoginInput(_ context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[authData](m)
	d.clearFlags()
	login := strings.TrimSpace(msg.Text)
	if login == "" {
		return nil
	}
	d.Login = login
	return m.SwitchTo(AuthPassword)
}

func (b *Bot) onPasswordInput(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[authData](m)
	d.clearFlags()
	b.deleteMessage(ctx, m, msg)

	result, err := b.deps.Accounts.Login(ctx, d.Login, msg.Text)
	if err != nil {
		if errors.Is(err, domain.ErrTransient) {
			return err
		}
		log.Debug().Err(err).Int64("chat_id", m.ChatID()).Msg("Login rejected")
		d.InvalidCredentials = true
		return nil
	}
	if result.Is2FA {
		d.AccountID = result.AccountID
		return m.SwitchTo(AuthTwoFA)
	}
	return b.signedIn(ctx, m, &result.Tokens)
}

func (b *Bot) onTwoFAInput(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[authData](m)
	d.clearFlags()

	tokens, err := b.deps.Accounts.LoginTwoFA(ctx, d.AccountID, strings.TrimSpace(msg.Text))
	if err != nil {
		if errors.Is(err, domain.ErrTransient) {
			return err
		}
		d.InvalidCode = true
		return nil
	}
	return b.signedIn(ctx, m, tokens)
}

func (b *Bot) signedIn(ctx context.Context, m *dialog.Manager, tokens *domain.Tokens) error {
	s := sessionOf(m)
	if err := b.bindTokens(ctx, s, tokens); err != nil {
		return err
	}
	log.Info().Int64("chat_id", m.ChatID()).Int64("account_id", tokens.AccountID).Msg("Signed in")

	if err := b.syncOrganization(ctx, m); err != nil {
		return fmt.Errorf("failed to load organization: %w", err)
	}
	return b.enterHome(ctx, m)
}

// deleteMessage removes a message carrying a secret from the chat history
func (b *Bot) deleteMessage(ctx context.Context, m *dialog.Manager, msg *dialog.Message) {
	if err := m.Messenger().Delete(ctx, m.ChatID(), msg.ID); err != nil {
		log.Debug().Err(err).Int64("chat_id", m.ChatID()).Msg("Failed to delete secret message")
	}
}
