package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/brief"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
)

var briefIntros = map[brief.Kind]string{
	brief.CreateOrganization: "🏢 Let's set up your organization.\n\nTell me about your company: what you do, who your customers are and how you talk to them. " +
		"You can also send a link to your Telegram channel so I can learn your style.",
	brief.UpdateOrganization: "✏️ What should we change in the organization profile?",
	brief.CreateCategory: "🗂 Let's create a content category.\n\nWhat kind of posts should it produce? " +
		"Describe the goal, audience and tone, or send a channel whose style you like.",
	brief.UpdateCategory: "🗂 What should we change in this category?",
}

var briefSuccess = map[brief.Kind]string{
	brief.CreateOrganization: "✅ The organization is created and you are its administrator.",
	brief.UpdateOrganization: "✅ The organization profile is updated.",
	brief.CreateCategory:     "✅ The category is created. It is now available when generating publications.",
	brief.UpdateCategory:     "✅ The category is updated.",
}

type briefData struct {
	State      brief.State `json:"state"`
	CategoryID int64       `json:"category_id,omitempty"`
	Message    string      `json:"message,omitempty"`
	Flags      inputFlags  `json:"flags"`
}

type deliverFunc func(ctx context.Context, text string) error

func (f deliverFunc) Deliver(ctx context.Context, text string) error {
	return f(ctx, text)
}

type finalizeFunc func(ctx context.Context, final brief.Final) error

func (f finalizeFunc) Finalize(ctx context.Context, final brief.Final) error {
	return f(ctx, final)
}

func (b *Bot) briefDialog(group string, kind brief.Kind) *dialog.Dialog {
	chat := state(group, "chat")
	cancelConfirm := state(group, "cancel_confirm")
	success := state(group, "success")

	done := b.finish
	if kind == brief.CreateOrganization {
		done = b.enterHome
	}

	var windows []*dialog.Window
	if kind == brief.UpdateCategory {
		windows = append(windows, &dialog.Window{
			State:  state(group, "select_category"),
			Getter: getter(b.briefCategoriesGetter),
			Text: dialog.NewMulti(
				dialog.When{Cond: "categories", Text: dialog.Const("Which category should we rework?")},
				dialog.When{Cond: "!categories", Text: dialog.Const("There are no categories yet.")},
			),
			Keyboard: dialog.Column{
				dialog.ScrollingGroup{
					ID:     "categories_page",
					Select: dialog.Select{ID: "category", Items: "categories", OnClick: b.onBriefCategory(chat)},
					Width:  1,
					Height: 6,
				},
				dialog.Button{ID: "back", Text: dialog.Const("⬅️ Back"), OnClick: b.closeBrief},
			},
		})
	}

	return &dialog.Dialog{
		OnStart: b.openBrief,
		Windows: append(windows,
			&dialog.Window{
				State: chat,
				Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
					d := dialog.DataOf[briefData](m)
					return d.Flags.data(dialog.Data{"message": escape(d.Message)}), nil
				},
				Text: dialog.NewMulti(
					inputFlagsText,
					dialog.When{Cond: "message", Text: dialog.Format("{message}")},
					dialog.When{Cond: "!message", Text: dialog.Const(briefIntros[kind])},
				),
				Keyboard:          dialog.SwitchTo{ID: "cancel", Text: dialog.Const("✖️ Cancel"), To: cancelConfirm},
				OnMessage:         b.onBriefInput(kind, success),
				DisableWebPreview: true,
			},
			&dialog.Window{
				State: cancelConfirm,
				Text:  dialog.Const("Stop the conversation? Everything discussed so far will be lost."),
				Keyboard: dialog.Row{
					dialog.Button{ID: "confirm", Text: dialog.Const("🗑 Stop"), OnClick: b.closeBrief},
					dialog.SwitchTo{ID: "back", Text: dialog.Const("💬 Continue"), To: chat},
				},
			},
			&dialog.Window{
				State: success,
				Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
					return dialog.Data{"message": escape(dialog.DataOf[briefData](m).Message)}, nil
				},
				Text: dialog.NewMulti(
					dialog.Const(briefSuccess[kind]),
					dialog.When{Cond: "message", Text: dialog.Format("\n{message}")},
				),
				Keyboard: dialog.Button{ID: "done", Text: dialog.Const("👌 Done"), OnClick: done},
			},
		),
	}
}

func (b *Bot) briefCategoriesGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	categories, err := b.deps.Content.CategoriesByOrganization(ctx, sessionOf(m).OrganizationID)
	if err != nil && !notFound(err) {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return dialog.Data{"categories": categoryItems(categories)}, nil
}

func (b *Bot) onBriefCategory(chat dialog.State) dialog.ItemHandler {
	return func(_ context.Context, m *dialog.Manager, item string) error {
		id, ok := parseID(item)
		if !ok {
			return nil
		}
		dialog.DataOf[briefData](m).CategoryID = id
		return m.SwitchTo(chat)
	}
}

func (b *Bot) openBrief(ctx context.Context, m *dialog.Manager) error {
	if err := b.busy(ctx, m); err != nil {
		return err
	}
	st, err := b.briefs.Open(ctx, sessionOf(m).ID)
	if err != nil {
		return err
	}
	dialog.DataOf[briefData](m).State = st
	return nil
}

func (b *Bot) closeBrief(ctx context.Context, m *dialog.Manager) error {
	if err := b.briefs.Close(ctx, sessionOf(m).ID); err != nil {
		return err
	}
	return b.finish(ctx, m)
}

func (b *Bot) onBriefInput(kind brief.Kind, success dialog.State) dialog.MessageHandler {
	return func(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[briefData](m)
		d.Flags = inputFlags{}

		input, ok, err := b.extract(ctx, m, msg, &d.Flags)
		if err != nil || !ok {
			return err
		}

		prompt, err := b.briefPrompt(ctx, m, kind)
		if err != nil {
			return err
		}

		s := sessionOf(m)
		outcome, err := b.briefs.Run(ctx, &d.State, brief.Turn{
			SessionID:    s.ID,
			Input:        input,
			SystemPrompt: prompt,
			Deliver: deliverFunc(func(ctx context.Context, text string) error {
				return m.Send(ctx, text)
			}),
			Finalize: finalizeFunc(func(ctx context.Context, final brief.Final) error {
				return b.finalizeBrief(ctx, m, kind, final)
			}),
		})
		if err != nil {
			return err
		}

		d.Message = outcome.Message
		m.Show(dialog.ShowSend)
		if outcome.Final == nil {
			return nil
		}

		if err := b.briefs.Close(ctx, s.ID); err != nil {
			log.Warn().Err(err).Int64("session_id", s.ID).Msg("Failed to close finished brief")
		}
		log.Info().Int64("session_id", s.ID).Str("kind", string(kind)).Msg("Brief finished")
		return m.SwitchTo(success)
	}
}

// briefPrompt rebuilds the system prompt so every turn sees current data
func (b *Bot) briefPrompt(ctx context.Context, m *dialog.Manager, kind brief.Kind) (string, error) {
	if kind == brief.CreateOrganization {
		return brief.SystemPrompt(kind, nil, nil), nil
	}

	s := sessionOf(m)
	org, err := b.deps.Organizations.Get(ctx, s.OrganizationID)
	if err != nil {
		return "", fmt.Errorf("failed to get organization: %w", err)
	}

	var category *domain.Category
	if kind == brief.UpdateCategory {
		category, err = b.deps.Content.GetCategory(ctx, dialog.DataOf[briefData](m).CategoryID)
		if err != nil {
			return "", fmt.Errorf("failed to get category: %w", err)
		}
	}
	return brief.SystemPrompt(kind, org, category), nil
}

func (b *Bot) finalizeBrief(ctx context.Context, m *dialog.Manager, kind brief.Kind, final brief.Final) error {
	want := brief.KeyFinalCategory
	if kind == brief.CreateOrganization || kind == brief.UpdateOrganization {
		want = brief.KeyOrganizationData
	}
	if final.Key != want {
		return fmt.Errorf("%w: %s brief finished with %q", domain.ErrMalformedLLMResponse, kind, final.Key)
	}

	s := sessionOf(m)
	switch kind {
	case brief.CreateOrganization:
		var update domain.OrganizationUpdate
		if err := decodeFinal(final.Object, &update); err != nil {
			return err
		}
		return b.createOrganization(ctx, m, update)

	case brief.UpdateOrganization:
		var update domain.OrganizationUpdate
		if err := decodeFinal(final.Object, &update); err != nil {
			return err
		}
		return b.deps.Organizations.Update(ctx, s.OrganizationID, update)

	case brief.CreateCategory:
		var category domain.Category
		if err := decodeFinal(final.Object, &category); err != nil {
			return err
		}
		category.ID = 0
		category.OrganizationID = s.OrganizationID
		_, err := b.deps.Content.CreateCategory(ctx, category)
		return err

	case brief.UpdateCategory:
		var category domain.Category
		if err := decodeFinal(final.Object, &category); err != nil {
			return err
		}
		category.ID = dialog.DataOf[briefData](m).CategoryID
		category.OrganizationID = s.OrganizationID
		return b.deps.Content.UpdateCategory(ctx, category)
	}
	return fmt.Errorf("unknown brief kind %q", kind)
}

// createOrganization makes the account the administrator of a new organization
func (b *Bot) createOrganization(ctx context.Context, m *dialog.Manager, update domain.OrganizationUpdate) error {
	if update.Name == nil || strings.TrimSpace(*update.Name) == "" {
		return fmt.Errorf("%w: organization without a name", domain.ErrMalformedLLMResponse)
	}
	s := sessionOf(m)

	organizationID, err := b.deps.Organizations.Create(ctx, strings.TrimSpace(*update.Name))
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	if err := b.deps.Organizations.Update(ctx, organizationID, update); err != nil {
		return fmt.Errorf("failed to fill organization profile: %w", err)
	}

	err = b.deps.Employees.Create(ctx, backend.EmployeeCreate{
		OrganizationID:       organizationID,
		InvitedFromAccountID: s.AccountID,
		AccountID:            s.AccountID,
		Name:                 s.TgUsername,
		Role:                 domain.EmployeeRoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	admin := domain.EmployeePermissions{
		AutopostingPermission:         true,
		AddEmployeePermission:         true,
		EditEmployeePermission:        true,
		TopUpBalancePermission:        true,
		SignUpSocialNetPermission:     true,
		SettingCategoryPermission:     true,
		SettingOrganizationPermission: true,
	}
	if err := b.deps.Employees.UpdatePermissions(ctx, s.AccountID, admin); err != nil {
		return fmt.Errorf("failed to grant administrator permissions: %w", err)
	}

	m.Set(employeeKey, nil)
	log.Info().Int64("organization_id", organizationID).Int64("account_id", s.AccountID).Msg("Organization created")
	return b.bindOrganization(ctx, s, organizationID)
}

func decodeFinal(object map[string]any, v any) error {
	raw, err := json.Marshal(object)
	if err != nil {
		return fmt.Errorf("failed to encode brief result: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedLLMResponse, err)
	}
	return nil
}
