package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
)

type socialData struct {
	Network string `json:"network,omitempty"`

	InvalidUsername bool   `json:"invalid_username"`
	NoPermission    bool   `json:"no_permission"`
	Notice          string `json:"notice,omitempty"`
}

func (d *socialData) clearFlags() {
	d.InvalidUsername = false
	d.NoPermission = false
	d.Notice = ""
}

func (b *Bot) socialDialog() *dialog.Dialog {
	toMain := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: SocialMain, OnClick: b.clearSocialFlags}
	toTelegram := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: SocialTelegram, OnClick: b.clearSocialFlags}
	placeholder := func(network string) dialog.Button {
		return dialog.Button{
			ID:   "network_" + network,
			Text: dialog.Format("{status_" + network + "} " + networkTitles[network]),
			OnClick: func(_ context.Context, m *dialog.Manager) error {
				d := dialog.DataOf[socialData](m)
				d.clearFlags()
				d.Network = network
				return m.SwitchTo(SocialPlaceholder)
			},
		}
	}
	connectText := dialog.NewMulti(
		dialog.When{Cond: "invalid_username", Text: dialog.Const("❌ That does not look like a channel username.\n")},
		dialog.When{Cond: "no_permission", Text: dialog.Format("❌ @{bot_username} is not an administrator of that channel yet.\n")},
		dialog.Format("1. Add @{bot_username} to the channel as an administrator allowed to post.\n"+
			"2. Send the channel username, e.g. @my_channel or https://t.me/my_channel"),
	)

	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State:  SocialMain,
				Getter: getter(b.socialGetter),
				Text:   dialog.Const("🌐 <b>Social networks</b>\n\nPublications go to the networks connected here."),
				Keyboard: dialog.Column{
					dialog.SwitchTo{ID: "telegram", Text: dialog.Format("{status_telegram} Telegram"), To: SocialTelegram, OnClick: b.clearSocialFlags},
					placeholder(domain.NetworkVkontakte),
					placeholder(domain.NetworkYoutube),
					placeholder(domain.NetworkInstagram),
					dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
				},
			},
			{
				State:  SocialTelegram,
				Getter: getter(b.socialGetter),
				Text: dialog.NewMulti(
					dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
					dialog.When{Cond: "telegram", Text: dialog.Format("Telegram channel: @{telegram}\nSelected by default when publishing: {autoselect}")},
					dialog.When{Cond: "!telegram", Text: dialog.Const("No Telegram channel is connected.")},
				),
				Keyboard: dialog.Column{
					dialog.SwitchTo{ID: "connect", Text: dialog.Const("🔗 Connect channel"), To: SocialTelegramConnect, When: "!telegram", OnClick: b.clearSocialFlags},
					dialog.Button{ID: "autoselect", Text: dialog.Const("🔁 Toggle default selection"), When: "telegram", OnClick: b.toggleTelegramAutoselect},
					dialog.SwitchTo{ID: "edit", Text: dialog.Const("✏️ Change channel"), To: SocialTelegramEdit, When: "telegram", OnClick: b.clearSocialFlags},
					dialog.SwitchTo{ID: "disconnect", Text: dialog.Const("🔌 Disconnect"), To: SocialTelegramDisconnect, When: "telegram"},
					toMain,
				},
			},
			{
				State:     SocialTelegramConnect,
				Getter:    b.socialFlagsGetter,
				Text:      connectText,
				Keyboard:  toTelegram,
				OnMessage: b.onTelegramChannel(false),
			},
			{
				State:     SocialTelegramEdit,
				Getter:    b.socialFlagsGetter,
				Text:      connectText,
				Keyboard:  toTelegram,
				OnMessage: b.onTelegramChannel(true),
			},
			{
				State:  SocialTelegramDisconnect,
				Getter: getter(b.socialGetter),
				Text:   dialog.Format("Disconnect @{telegram}? Publications will no longer be posted there."),
				Keyboard: dialog.Row{
					dialog.Button{ID: "confirm", Text: dialog.Const("🔌 Disconnect"), OnClick: b.disconnectTelegram},
					dialog.SwitchTo{ID: "back", Text: dialog.Const("✖️ Cancel"), To: SocialTelegram},
				},
			},
			{
				State: SocialPlaceholder,
				Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
					return dialog.Data{"network": networkTitles[dialog.DataOf[socialData](m).Network]}, nil
				},
				Text:     dialog.Format("{network} integration is coming soon."),
				Keyboard: toMain,
			},
		},
	}
}

func (b *Bot) clearSocialFlags(_ context.Context, m *dialog.Manager) error {
	dialog.DataOf[socialData](m).clearFlags()
	return nil
}

func (b *Bot) socialFlagsGetter(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	d := dialog.DataOf[socialData](m)
	return dialog.Data{
		"invalid_username": d.InvalidUsername,
		"no_permission":    d.NoPermission,
		"bot_username":     b.deps.BotUsername,
	}, nil
}

func (b *Bot) socialGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	social, err := b.deps.Content.SocialNetworks(ctx, sessionOf(m).OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get social networks: %w", err)
	}

	data := dialog.Data{"notice": dialog.DataOf[socialData](m).Notice}
	for _, network := range []string{domain.NetworkTelegram, domain.NetworkVkontakte, domain.NetworkYoutube, domain.NetworkInstagram} {
		status := "⚪️"
		if social.Connected(network) {
			status = "🟢"
		}
		data["status_"+network] = status
	}
	if len(social.Telegram) > 0 {
		channel := social.Telegram[0]
		data["telegram"] = escape(channel.ChannelUsername)
		data["autoselect"] = "no"
		if channel.Autoselect {
			data["autoselect"] = "yes"
		}
	}
	return data, nil
}

// onTelegramChannel connects a channel, or replaces the connected one when edit is set
func (b *Bot) onTelegramChannel(edit bool) dialog.MessageHandler {
	return func(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[socialData](m)
		d.clearFlags()

		username, err := security.NormalizeTelegramUsername(msg.Text)
		if err != nil {
			var verr *security.ValidationError
			if errors.As(err, &verr) {
				d.InvalidUsername = true
				return nil
			}
			return err
		}

		ok, err := b.deps.Content.CheckTelegramPermission(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to check channel permission: %w", err)
		}
		if !ok {
			d.NoPermission = true
			return nil
		}

		organizationID := sessionOf(m).OrganizationID
		if edit {
			err = b.deps.Content.UpdateTelegram(ctx, organizationID, &username, nil)
		} else {
			err = b.deps.Content.CreateTelegram(ctx, organizationID, username, true)
		}
		if err != nil {
			return fmt.Errorf("failed to save telegram channel: %w", err)
		}
		log.Info().Int64("organization_id", organizationID).Str("channel", username).Bool("edit", edit).Msg("Telegram channel connected")

		d.Notice = "✅ Channel connected."
		return m.SwitchTo(SocialTelegram)
	}
}

func (b *Bot) toggleTelegramAutoselect(ctx context.Context, m *dialog.Manager) error {
	organizationID := sessionOf(m).OrganizationID
	social, err := b.deps.Content.SocialNetworks(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("failed to get social networks: %w", err)
	}
	if len(social.Telegram) == 0 {
		return domain.ErrNotFound
	}

	autoselect := !social.Telegram[0].Autoselect
	if err := b.deps.Content.UpdateTelegram(ctx, organizationID, nil, &autoselect); err != nil {
		return fmt.Errorf("failed to update telegram channel: %w", err)
	}
	dialog.DataOf[socialData](m).clearFlags()
	return nil
}

func (b *Bot) disconnectTelegram(ctx context.Context, m *dialog.Manager) error {
	organizationID := sessionOf(m).OrganizationID
	if err := b.deps.Content.DeleteTelegram(ctx, organizationID); err != nil {
		return fmt.Errorf("failed to delete telegram channel: %w", err)
	}
	log.Info().Int64("organization_id", organizationID).Msg("Telegram channel disconnected")

	d := dialog.DataOf[socialData](m)
	d.clearFlags()
	d.Notice = "✅ Channel disconnected."
	return m.SwitchTo(SocialTelegram)
}
