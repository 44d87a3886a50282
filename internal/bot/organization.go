package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
	"github.com/Rrens/smm-bot/internal/service"
)

type organizationData struct {
	InvalidAmount bool   `json:"invalid_amount"`
	ToppedUp      string `json:"topped_up,omitempty"`
}

func (b *Bot) organizationMenuDialog() *dialog.Dialog {
	home := dialog.Button{ID: "home", Text: dialog.Const("🏠 Home"), OnClick: b.enterHome}
	back := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: OrganizationMenu}

	return &dialog.Dialog{
		OnStart: b.preempt,
		Windows: []*dialog.Window{
			{
				State:  OrganizationMenu,
				Getter: getter(b.organizationGetter),
				Text:   dialog.Format("🏢 <b>{organization}</b>\nBalance: {balance} ₽"),
				Keyboard: dialog.Column{
					dialog.Start{ID: "employees", Text: dialog.Const("👥 Employees"), To: EmployeesList},
					dialog.Button{
						ID:      "social",
						Text:    dialog.Const("🌐 Social networks"),
						OnClick: b.gate(service.PermSocialNetworks, startTo(SocialMain, dialog.StartNormal)),
					},
					dialog.Button{
						ID:      "update_organization",
						Text:    dialog.Const("✏️ Update organization"),
						OnClick: b.gate(service.PermOrganization, startTo(state(BriefUpdateOrganization, "chat"), dialog.StartNormal)),
					},
					dialog.Row{
						dialog.Button{
							ID:      "create_category",
							Text:    dialog.Const("➕ New category"),
							OnClick: b.gate(service.PermCategory, startTo(state(BriefCreateCategory, "chat"), dialog.StartNormal)),
						},
						dialog.Button{
							ID:      "update_category",
							Text:    dialog.Const("🗂 Edit category"),
							OnClick: b.gate(service.PermCategory, startTo(state(BriefUpdateCategory, "select_category"), dialog.StartNormal)),
						},
					},
					dialog.SwitchTo{ID: "balance", Text: dialog.Const("💰 Balance"), To: OrganizationBalance, OnClick: b.resetOrganization},
					home,
				},
			},
			{
				State:  OrganizationBalance,
				Getter: getter(b.organizationGetter),
				Text: dialog.NewMulti(
					dialog.When{Cond: "topped_up", Text: dialog.Format("✅ The balance was topped up by {topped_up} ₽.\n")},
					dialog.Format("💰 Balance: <b>{balance} ₽</b>\n\nGeneration of texts, images, voice transcription and video cuts is paid from it."),
				),
				Keyboard: dialog.Column{
					dialog.Button{
						ID:      "top_up",
						Text:    dialog.Const("➕ Top up"),
						OnClick: b.gate(service.PermTopUpBalance, switchTo(OrganizationTopUp)),
					},
					back,
				},
			},
			{
				State: OrganizationTopUp,
				Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
					return dialog.Data{"invalid_amount": dialog.DataOf[organizationData](m).InvalidAmount}, nil
				},
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_amount", Text: dialog.Const("❌ Send a positive amount, e.g. 1500 or 1500.50\n")},
					dialog.Const("How many rubles should be added to the balance?"),
				),
				Keyboard:  dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: OrganizationBalance, OnClick: b.resetOrganization},
				OnMessage: b.onTopUpAmount,
			},
		},
	}
}

func (b *Bot) organizationGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	d := dialog.DataOf[organizationData](m)
	data := dialog.Data{"topped_up": d.ToppedUp}

	org, err := b.deps.Organizations.Get(ctx, sessionOf(m).OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	data["organization"] = escape(org.Name)
	data["balance"] = org.RubBalance
	return data, nil
}

func (b *Bot) resetOrganization(_ context.Context, m *dialog.Manager) error {
	*dialog.DataOf[organizationData](m) = organizationData{}
	return nil
}

func (b *Bot) onTopUpAmount(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[organizationData](m)
	d.InvalidAmount = false

	amount, err := security.ParseAmount(msg.Text)
	if err != nil {
		var verr *security.ValidationError
		if errors.As(err, &verr) {
			d.InvalidAmount = true
			return nil
		}
		return err
	}

	s := sessionOf(m)
	if err := b.deps.Organizations.TopUpBalance(ctx, s.OrganizationID, amount); err != nil {
		return fmt.Errorf("failed to top up balance: %w", err)
	}
	log.Info().Int64("organization_id", s.OrganizationID).Str("amount", amount).Msg("Balance topped up")

	d.ToppedUp = amount
	return m.SwitchTo(OrganizationBalance)
}
