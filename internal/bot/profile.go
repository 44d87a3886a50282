package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
)

const minPasswordLength = 8

type profileData struct {
	OldPassword string `json:"old_password,omitempty"`
	TwoFASecret string `json:"two_fa_secret,omitempty"`
	TwoFAQRURL  string `json:"two_fa_qr_url,omitempty"`

	ShortPassword   bool `json:"short_password"`
	WrongPassword   bool `json:"wrong_password"`
	InvalidCode     bool `json:"invalid_code"`
	PasswordChanged bool `json:"password_changed"`
	TwoFAEnabled    bool `json:"two_fa_enabled"`
	TwoFADisabled   bool `json:"two_fa_disabled"`
}

func (d *profileData) clearFlags() {
	d.ShortPassword = false
	d.WrongPassword = false
	d.InvalidCode = false
	d.PasswordChanged = false
	d.TwoFAEnabled = false
	d.TwoFADisabled = false
}

func (b *Bot) profileDialog() *dialog.Dialog {
	home := dialog.Button{ID: "home", Text: dialog.Const("🏠 Home"), OnClick: b.enterHome}
	back := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: ProfileMain, OnClick: b.resetProfile}

	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State:  ProfileMain,
				Getter: getter(b.profileGetter),
				Text: dialog.NewMulti(
					dialog.When{Cond: "password_changed", Text: dialog.Const("✅ Password changed.\n")},
					dialog.When{Cond: "two_fa_enabled", Text: dialog.Const("✅ Two-factor authentication enabled.\n")},
					dialog.When{Cond: "two_fa_disabled", Text: dialog.Const("✅ Two-factor authentication disabled.\n")},
					dialog.Format("👤 <b>Profile</b>\n\nAccount ID: <code>{account_id}</code>\nTelegram: @{username}"),
					dialog.When{Cond: "role", Text: dialog.Format("Role: {role}")},
				),
				Keyboard: dialog.Column{
					dialog.SwitchTo{ID: "change_password", Text: dialog.Const("🔑 Change password"), To: ProfileChangePasswordOld},
					dialog.Button{ID: "enable_two_fa", Text: dialog.Const("🛡 Enable 2FA"), OnClick: b.beginTwoFA},
					dialog.SwitchTo{ID: "disable_two_fa", Text: dialog.Const("🔓 Disable 2FA"), To: ProfileTwoFADisable},
					home,
				},
			},
			{
				State:  ProfileChangePasswordOld,
				Getter: b.profileFlags,
				Text: dialog.NewMulti(
					dialog.When{Cond: "wrong_password", Text: dialog.Const("❌ The current password is wrong.\n")},
					dialog.Const("Send your current password. The message will be deleted."),
				),
				Keyboard:  back,
				OnMessage: b.onOldPassword,
			},
			{
				State:  ProfileChangePasswordNew,
				Getter: b.profileFlags,
				Text: dialog.NewMulti(
					dialog.When{Cond: "short_password", Text: dialog.Format("❌ The password must be at least {min_length} characters.\n")},
					dialog.Const("Send the new password."),
				),
				Keyboard:  back,
				OnMessage: b.onNewPassword,
			},
			{
				State:  ProfileTwoFASetup,
				Getter: b.profileFlags,
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_code", Text: dialog.Const("❌ Wrong code.\n")},
					dialog.Format("Scan the QR code or enter the key <code>{secret}</code> in your authenticator app, then send the code it shows."),
				),
				Media:     &dialog.Media{URLKey: "qr_url", When: "qr_url"},
				Keyboard:  back,
				OnMessage: b.onEnableTwoFA,
			},
			{
				State:  ProfileTwoFADisable,
				Getter: b.profileFlags,
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_code", Text: dialog.Const("❌ Wrong code.\n")},
					dialog.Const("Send the code from your authenticator app to disable two-factor authentication."),
				),
				Keyboard:  back,
				OnMessage: b.onDisableTwoFA,
			},
		},
	}
}

func (b *Bot) profileGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	s := sessionOf(m)
	data, _ := b.profileFlags(ctx, m)
	data["account_id"] = s.AccountID
	data["username"] = escape(s.TgUsername)

	e, err := b.employee(ctx, m)
	if err != nil {
		return nil, err
	}
	if e != nil {
		data["role"] = roleTitle(e.Role)
	}
	return data, nil
}

func (b *Bot) profileFlags(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	d := dialog.DataOf[profileData](m)
	return dialog.Data{
		"secret":           d.TwoFASecret,
		"qr_url":           d.TwoFAQRURL,
		"min_length":       minPasswordLength,
		"short_password":   d.ShortPassword,
		"wrong_password":   d.WrongPassword,
		"invalid_code":     d.InvalidCode,
		"password_changed": d.PasswordChanged,
		"two_fa_enabled":   d.TwoFAEnabled,
		"two_fa_disabled":  d.TwoFADisabled,
	}, nil
}

func (b *Bot) resetProfile(_ context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[profileData](m)
	*d = profileData{}
	return nil
}

func (b *Bot) onOldPassword(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[profileData](m)
	d.clearFlags()
	b.deleteMessage(ctx, m, msg)
	if msg.Text == "" {
		return nil
	}
	d.OldPassword = msg.Text
	return m.SwitchTo(ProfileChangePasswordNew)
}

func (b *Bot) onNewPassword(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[profileData](m)
	d.clearFlags()
	b.deleteMessage(ctx, m, msg)

	if utf8.RuneCountInString(msg.Text) < minPasswordLength {
		d.ShortPassword = true
		return nil
	}

	err := b.deps.Accounts.ChangePassword(ctx, d.OldPassword, msg.Text)
	if errors.Is(err, domain.ErrPermissionDenied) {
		d.OldPassword = ""
		d.WrongPassword = true
		return m.SwitchTo(ProfileChangePasswordOld)
	}
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	*d = profileData{PasswordChanged: true}
	return m.SwitchTo(ProfileMain)
}

func (b *Bot) beginTwoFA(ctx context.Context, m *dialog.Manager) error {
	setup, err := b.deps.Accounts.GenerateTwoFA(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate two-factor key: %w", err)
	}
	d := dialog.DataOf[profileData](m)
	d.clearFlags()
	d.TwoFASecret = setup.Secret
	d.TwoFAQRURL = setup.QRImageURL
	return m.SwitchTo(ProfileTwoFASetup)
}

func (b *Bot) onEnableTwoFA(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[profileData](m)
	d.clearFlags()

	err := b.deps.Accounts.SetTwoFA(ctx, d.TwoFASecret, strings.TrimSpace(msg.Text))
	if err != nil {
		if errors.Is(err, domain.ErrTransient) {
			return err
		}
		d.InvalidCode = true
		return nil
	}

	*d = profileData{TwoFAEnabled: true}
	return m.SwitchTo(ProfileMain)
}

func (b *Bot) onDisableTwoFA(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[profileData](m)
	d.clearFlags()

	err := b.deps.Accounts.DeleteTwoFA(ctx, strings.TrimSpace(msg.Text))
	if err != nil {
		if errors.Is(err, domain.ErrTransient) {
			return err
		}
		d.InvalidCode = true
		return nil
	}

	*d = profileData{TwoFADisabled: true}
	return m.SwitchTo(ProfileMain)
}
